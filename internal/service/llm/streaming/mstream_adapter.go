package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	mstream "github.com/haowjy/meridian-stream-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chatbot/internal/config"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/metrics"
	"chatbot/internal/service/llm/tools"
)

var tracer = otel.Tracer("chatbot/service/llm/streaming")

// UsageEnricher prices raw usage. It must not fail.
type UsageEnricher interface {
	Enrich(ctx context.Context, provider, model string, usage models.Usage) models.Usage
}

// ExecutorConfig carries everything one generation needs.
type ExecutorConfig struct {
	StreamID       string
	ChatID         string // internal
	ChatExternalID string
	SelectedModel  string // alias, used for metrics

	Provider domainllm.LLMProvider
	Model    string
	Request  *domainllm.GenerateRequest

	MaxSteps    int
	Timeout     time.Duration
	SmoothDelay time.Duration
}

// StreamExecutor wraps mstream.Stream and runs the model/tool loop for one
// generation. Chunks are fanned out to subscribers, mirrored to the resumable
// sink and folded into the assistant message persisted at the end.
type StreamExecutor struct {
	cfg       ExecutorConfig
	stream    *mstream.Stream
	messageID string

	tools    *tools.ToolRegistry
	messages repositories.MessageRepository
	chats    repositories.ChatRepository
	usage    UsageEnricher
	logger   *slog.Logger

	mu        sync.Mutex
	send      func(mstream.Event)
	log       *chunkLog
	sink      domainllm.FrameSink
	assembler *messageAssembler
}

// NewStreamExecutor creates an executor. Tools are attached with SetTools
// because they need the executor as their chunk writer.
func NewStreamExecutor(
	cfg ExecutorConfig,
	messages repositories.MessageRepository,
	chats repositories.ChatRepository,
	usage UsageEnricher,
	logger *slog.Logger,
) *StreamExecutor {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = config.MaxModelSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.MaxGenerationDuration
	}
	se := &StreamExecutor{
		cfg:       cfg,
		messageID: uuid.NewString(),
		messages:  messages,
		chats:     chats,
		usage:     usage,
		logger:    logger.With("stream_id", cfg.StreamID, "chat_id", cfg.ChatExternalID),
		log:       newChunkLog(),
		assembler: newMessageAssembler(),
	}

	se.stream = mstream.NewStream(
		cfg.StreamID,
		se.workFunc,
		mstream.WithCatchup(buildCatchupFunc(messages, cfg.ChatExternalID, se.messageID, se.logger)),
		// Sequence ids let a live reader drop events it already got from catch-up
		mstream.WithEventIDs(true),
	)
	return se
}

// GetStream returns the underlying mstream.Stream
func (se *StreamExecutor) GetStream() *mstream.Stream {
	return se.stream
}

// MessageID is the id of the assistant message this generation produces.
func (se *StreamExecutor) MessageID() string {
	return se.messageID
}

// SetTools offers the registry's tools to the model.
func (se *StreamExecutor) SetTools(registry *tools.ToolRegistry) {
	se.tools = registry
	if registry != nil && registry.Len() > 0 {
		se.cfg.Request.Tools = registry.Definitions()
	}
}

// SetSink mirrors every frame to the resumable store.
func (se *StreamExecutor) SetSink(sink domainllm.FrameSink) {
	se.sink = sink
}

// Subscribe returns a reader over every chunk of this generation.
func (se *StreamExecutor) Subscribe() domainllm.Subscription {
	return se.log.subscribe()
}

// Start begins streaming execution
func (se *StreamExecutor) Start() {
	se.stream.Start()
}

// Write implements domainllm.ChunkWriter. Safe for concurrent use by tools.
func (se *StreamExecutor) Write(chunk models.UIChunk) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		se.logger.Error("failed to marshal chunk", "error", err, "type", chunk.Type)
		return
	}

	se.mu.Lock()
	defer se.mu.Unlock()

	se.assembler.add(chunk)
	if se.send != nil {
		se.send(mstream.NewEvent(payload).WithType(chunk.Type))
	}
	se.log.append(chunk)

	if se.sink != nil {
		frame := eventFrame(mstream.NewEvent(payload))
		if err := se.sink.Append(context.Background(), frame); err != nil {
			se.logger.Warn("resumable sink append failed, disabling", "error", err)
			se.sink = nil
		}
	}
}

// workFunc is the mstream WorkFunc that performs the actual streaming.
// Generation is bounded by cfg.Timeout and does not depend on any client
// connection; mstream cancels ctx when the stream is stopped.
func (se *StreamExecutor) workFunc(ctx context.Context, send func(mstream.Event)) error {
	se.mu.Lock()
	se.send = send
	se.mu.Unlock()
	defer se.close()

	ctx, cancel := context.WithTimeout(ctx, se.cfg.Timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "chat.generation",
		trace.WithAttributes(
			attribute.String("chat.id", se.cfg.ChatExternalID),
			attribute.String("stream.id", se.cfg.StreamID),
			attribute.String("model", se.cfg.Model),
		),
	)
	defer span.End()

	started := time.Now()
	se.Write(models.UIChunk{Type: models.ChunkStart, MessageID: se.messageID})

	usage, steps, err := se.runSteps(ctx)
	metrics.GenerationSteps.Observe(float64(steps))

	if err != nil {
		// Keep whatever was produced before a stop or timeout
		if ctx.Err() != nil {
			metrics.Generations.WithLabelValues(se.cfg.SelectedModel, metrics.OutcomeCancelled).Inc()
			span.SetStatus(codes.Error, "cancelled")
			se.logger.Info("generation stopped", "reason", ctx.Err(), "steps", steps)
			se.persist(context.WithoutCancel(ctx))
			return nil
		}

		metrics.Generations.WithLabelValues(se.cfg.SelectedModel, metrics.OutcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		se.logger.Error("generation failed", "error", err, "steps", steps)
		se.Write(models.UIChunk{Type: models.ChunkError, ErrorText: models.StreamErrorText})
		// Partial output survives a provider failure too
		se.persist(context.WithoutCancel(ctx))
		return err
	}

	enriched := se.usage.Enrich(ctx, se.cfg.Provider.Name(), se.cfg.Model, usage)
	se.Write(models.DataChunk(models.DataUsage, enriched, false))
	se.Write(models.UIChunk{Type: models.ChunkFinish})

	persistCtx := context.WithoutCancel(ctx)
	se.persist(persistCtx)
	se.saveLastContext(persistCtx, enriched)

	metrics.Generations.WithLabelValues(se.cfg.SelectedModel, metrics.OutcomeOK).Inc()
	span.SetAttributes(
		attribute.Int("steps", steps),
		attribute.Int64("usage.input_tokens", enriched.InputTokens),
		attribute.Int64("usage.output_tokens", enriched.OutputTokens),
	)
	se.logger.Info("generation complete",
		"steps", steps,
		"input_tokens", enriched.InputTokens,
		"output_tokens", enriched.OutputTokens,
		"duration", time.Since(started),
	)
	return nil
}

// runSteps alternates model calls and tool executions until the model stops
// asking for tools or the step limit is reached.
func (se *StreamExecutor) runSteps(ctx context.Context) (models.Usage, int, error) {
	var total models.Usage
	req := se.cfg.Request

	for step := 1; step <= se.cfg.MaxSteps; step++ {
		stepCtx, span := tracer.Start(ctx, "chat.step", trace.WithAttributes(attribute.Int("step", step)))

		se.Write(models.UIChunk{Type: models.ChunkStartStep})
		result, err := se.streamStep(stepCtx, req)
		if err != nil {
			span.RecordError(err)
			span.End()
			return total, step, err
		}
		total.Add(result.usage)
		se.Write(models.UIChunk{Type: models.ChunkFinishStep})
		span.SetAttributes(attribute.String("finish_reason", result.finishReason), attribute.Int("tool_calls", len(result.calls)))
		span.End()

		if len(result.calls) == 0 || se.tools == nil {
			return total, step, nil
		}

		toolResults := se.tools.ExecuteParallel(ctx, result.calls)
		if err := ctx.Err(); err != nil {
			return total, step, err
		}

		resultBlocks := make([]domainllm.ContentBlock, 0, len(toolResults))
		for _, tr := range toolResults {
			if tr.IsError {
				se.Write(models.UIChunk{Type: models.ChunkToolOutputError, ToolCallID: tr.ID, ErrorText: tr.Output()})
			} else {
				se.Write(models.UIChunk{Type: models.ChunkToolOutputAvailable, ToolCallID: tr.ID, Output: tr.Result})
			}
			resultBlocks = append(resultBlocks, domainllm.ContentBlock{
				Type:       domainllm.BlockToolResult,
				ToolCallID: tr.ID,
				ToolName:   tr.Name,
				Output:     tr.Output(),
				IsError:    tr.IsError,
			})
		}

		se.logger.Debug("tool round complete", "step", step, "tool_count", len(toolResults))

		next := *req
		next.Messages = append(append([]domainllm.Message{}, req.Messages...),
			domainllm.Message{Role: domainllm.RoleAssistant, Content: result.assistantBlocks()},
			domainllm.Message{Role: domainllm.RoleUser, Content: resultBlocks},
		)
		req = &next
	}

	se.logger.Warn("max model steps reached", "max_steps", se.cfg.MaxSteps)
	return total, se.cfg.MaxSteps, nil
}

type stepResult struct {
	text         string
	calls        []domainllm.ToolCall
	usage        models.Usage
	finishReason string
}

func (r *stepResult) assistantBlocks() []domainllm.ContentBlock {
	var blocks []domainllm.ContentBlock
	if r.text != "" {
		blocks = append(blocks, domainllm.ContentBlock{Type: domainllm.BlockText, Text: r.text})
	}
	for _, c := range r.calls {
		blocks = append(blocks, domainllm.ContentBlock{
			Type:       domainllm.BlockToolUse,
			ToolCallID: c.ID,
			ToolName:   c.Name,
			Input:      c.Input,
		})
	}
	return blocks
}

// streamStep runs one model call, forwarding deltas as they arrive.
func (se *StreamExecutor) streamStep(ctx context.Context, req *domainllm.GenerateRequest) (*stepResult, error) {
	events, err := se.cfg.Provider.StreamResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start provider streaming: %w", err)
	}

	result := &stepResult{}
	var text []byte
	var chunker wordChunker
	textID, reasoningID := "", ""

	endText := func() {
		if textID == "" {
			return
		}
		if rest := chunker.flush(); rest != "" {
			se.Write(models.UIChunk{Type: models.ChunkTextDelta, ID: textID, Delta: rest})
		}
		se.Write(models.UIChunk{Type: models.ChunkTextEnd, ID: textID})
		textID = ""
	}
	endReasoning := func() {
		if reasoningID == "" {
			return
		}
		se.Write(models.UIChunk{Type: models.ChunkReasoningEnd, ID: reasoningID})
		reasoningID = ""
	}

	for {
		select {
		case <-ctx.Done():
			// Let the provider goroutine exit
			go func() {
				for range events {
				}
			}()
			endText()
			endReasoning()
			return nil, fmt.Errorf("streaming interrupted: %w", ctx.Err())

		case ev, ok := <-events:
			if !ok {
				return nil, errors.New("stream closed without finish event")
			}

			switch ev.Type {
			case domainllm.EventReasoningDelta:
				if reasoningID == "" {
					reasoningID = uuid.NewString()
					se.Write(models.UIChunk{Type: models.ChunkReasoningStart, ID: reasoningID})
				}
				se.Write(models.UIChunk{Type: models.ChunkReasoningDelta, ID: reasoningID, Delta: ev.Delta})

			case domainllm.EventTextDelta:
				endReasoning()
				if textID == "" {
					textID = uuid.NewString()
					se.Write(models.UIChunk{Type: models.ChunkTextStart, ID: textID})
				}
				text = append(text, ev.Delta...)
				for _, word := range chunker.push(ev.Delta) {
					se.Write(models.UIChunk{Type: models.ChunkTextDelta, ID: textID, Delta: word})
					se.pause(ctx)
				}

			case domainllm.EventToolCall:
				endText()
				endReasoning()
				call := *ev.ToolCall
				if len(call.Input) == 0 {
					call.Input = json.RawMessage("{}")
				}
				result.calls = append(result.calls, call)
				se.Write(models.UIChunk{
					Type:       models.ChunkToolInputAvailable,
					ToolCallID: call.ID,
					ToolName:   call.Name,
					Input:      call.Input,
				})

			case domainllm.EventFinish:
				endText()
				endReasoning()
				result.text = string(text)
				result.finishReason = ev.FinishReason
				if ev.Usage != nil {
					result.usage = *ev.Usage
				}
				for range events {
				}
				return result, nil

			case domainllm.EventError:
				endText()
				endReasoning()
				for range events {
				}
				return nil, ev.Err
			}
		}
	}
}

// pause spaces out smoothed words.
func (se *StreamExecutor) pause(ctx context.Context) {
	if se.cfg.SmoothDelay <= 0 {
		return
	}
	t := time.NewTimer(se.cfg.SmoothDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// persist stores the assistant message atomically with clearing the mstream
// buffer. Like the provider output it protects, it runs even after a stop.
func (se *StreamExecutor) persist(ctx context.Context) {
	se.mu.Lock()
	hasContent := se.assembler.hasContent()
	parts, err := se.assembler.marshal()
	se.mu.Unlock()

	if !hasContent {
		return
	}
	if err != nil {
		se.logger.Error("failed to encode assistant message", "error", err)
		return
	}

	msg := models.Message{
		ID:          se.messageID,
		ChatID:      se.cfg.ChatID,
		Role:        models.RoleAssistant,
		Parts:       parts,
		Attachments: json.RawMessage("[]"),
		CreatedAt:   time.Now().UTC(),
	}

	if err := se.stream.PersistAndClear(func(events []mstream.Event) error {
		return se.messages.SaveMessages(ctx, []models.Message{msg})
	}); err != nil {
		se.logger.Error("failed to persist assistant message", "error", err, "message_id", se.messageID)
		return
	}
	se.logger.Debug("persisted assistant message", "message_id", se.messageID)
}

// saveLastContext records the usage snapshot on the chat. Best effort.
func (se *StreamExecutor) saveLastContext(ctx context.Context, usage models.Usage) {
	bestEffort(ctx, se.logger, "save last context", func(ctx context.Context) error {
		payload, err := json.Marshal(usage)
		if err != nil {
			return err
		}
		return se.chats.UpdateLastContext(ctx, se.cfg.ChatID, payload)
	})
}

// close ends the chunk log and the resumable sink.
func (se *StreamExecutor) close() {
	se.mu.Lock()
	sink := se.sink
	se.sink = nil
	se.send = nil
	se.mu.Unlock()

	se.log.finish()
	if sink != nil {
		if err := sink.Close(context.Background()); err != nil {
			se.logger.Warn("failed to close resumable sink", "error", err)
		}
	}
}
