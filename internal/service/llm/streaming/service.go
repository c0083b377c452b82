package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/metrics"
	llmservice "chatbot/internal/service/llm"
	"chatbot/internal/service/llm/chat"
	"chatbot/internal/service/llm/tools"
)

// ModelSource resolves a model alias to a provider and concrete model id.
type ModelSource interface {
	ForModel(ctx context.Context, alias string) (domainllm.LLMProvider, string, error)
}

// ChatResolver finds a chat by external or internal id.
type ChatResolver interface {
	Resolve(ctx context.Context, id string) (*models.Chat, error)
}

// Entitlements decides whether a user may send another message.
type Entitlements interface {
	Check(ctx context.Context, userID string, userType models.UserType) error
}

// HistoryBuilder converts stored history into provider messages.
type HistoryBuilder interface {
	BuildMessages(ctx context.Context, history []models.UIMessage, lastContext json.RawMessage) ([]domainllm.Message, error)
}

// ToolsetFactory builds the tools offered to the model for one generation.
// Tools emit their data chunks through w.
type ToolsetFactory func(userID string, w domainllm.ChunkWriter) *tools.ToolRegistry

// Deps groups the collaborators of Service.
type Deps struct {
	Chats     repositories.ChatRepository
	Messages  repositories.MessageRepository
	Streams   repositories.StreamRepository
	TxManager repositories.TransactionManager
	Locker    repositories.Locker

	Resolver ChatResolver
	Gate     Entitlements
	Models   ModelSource
	Titles   *TitleGenerator
	History  HistoryBuilder
	Usage    UsageEnricher
	Tools    ToolsetFactory

	Resumable domainllm.ResumableStreams
	Registry  *mstream.Registry
}

// Service implements the StreamingService interface.
// It prepares each generation in one transaction and runs the model in a
// registered mstream.Stream that outlives the request.
type Service struct {
	Deps

	config      *config.Config
	smoothDelay time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewService creates a new streaming service
func NewService(deps Deps, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		Deps:        deps,
		config:      cfg,
		smoothDelay: 10 * time.Millisecond,
		now:         time.Now,
		logger:      logger,
	}
}

var _ domainllm.StreamingService = (*Service)(nil)

// StartGeneration validates the request, persists the user message and
// starts the model in the background. The returned error is always a
// *domain.ChatError.
func (s *Service) StartGeneration(ctx context.Context, req *domainllm.ChatRequest) (*domainllm.Generation, error) {
	gen, err := s.startGeneration(ctx, req)
	if err != nil {
		return nil, classifyError(err, req.RequestID, s.logger)
	}
	return gen, nil
}

func (s *Service) startGeneration(ctx context.Context, req *domainllm.ChatRequest) (*domainllm.Generation, error) {
	if err := validateChatRequest(req); err != nil {
		return nil, err
	}

	session := req.Session
	if session == nil {
		return nil, domain.NewChatError("unauthorized:chat")
	}

	if err := s.Gate.Check(ctx, session.UserID, session.Type); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return nil, domain.NewChatError("rate_limit:chat").Wrap(err)
		}
		return nil, err
	}

	existing, err := s.Resolver.Resolve(ctx, req.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && !existing.OwnedBy(session.UserID) {
		return nil, domain.NewChatError("forbidden:chat")
	}

	// The title model runs outside the transaction so the chat lock is not
	// held while waiting on a provider.
	title := ""
	if existing == nil {
		title = s.Titles.Generate(ctx, req.Message)
	}

	provider, model, err := s.Models.ForModel(ctx, req.SelectedChatModel)
	if err != nil {
		return nil, fmt.Errorf("resolve model %s: %w", req.SelectedChatModel, err)
	}

	var (
		chatRow *models.Chat
		history []models.Message
		handle  *models.StreamHandle
	)

	err = s.TxManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.Locker.LockKey(txCtx, "chat:"+req.ID); err != nil {
			return err
		}

		if existing != nil {
			chatRow = existing
		} else {
			chatRow = &models.Chat{
				ExternalID: req.ID,
				Title:      title,
				UserID:     session.UserID,
				Visibility: req.SelectedVisibilityType,
			}
			created, err := s.Chats.CreateChat(txCtx, chatRow)
			if err != nil {
				return err
			}
			if !created && !chatRow.OwnedBy(session.UserID) {
				return domain.NewChatError("forbidden:chat")
			}
			if created {
				s.logger.Info("chat created", "chat_id", chatRow.ExternalID, "user_id", session.UserID)
			}
		}

		var err error
		history, err = s.Messages.ListMessagesByChat(txCtx, chatRow.ID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		userMsg := models.Message{
			ID:          req.Message.ID,
			ChatID:      chatRow.ID,
			Role:        models.RoleUser,
			Attachments: json.RawMessage("[]"),
			CreatedAt:   s.now().UTC(),
		}
		userMsg.Parts, err = json.Marshal(req.Message.Parts)
		if err != nil {
			return err
		}
		if err := s.Messages.SaveMessages(txCtx, []models.Message{userMsg}); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.NewChatError("bad_request:api", "Message already exists.").Wrap(err)
			}
			return fmt.Errorf("save user message: %w", err)
		}
		history = append(history, userMsg)

		handle = &models.StreamHandle{ChatID: chatRow.ID}
		return s.Streams.CreateStream(txCtx, handle)
	})
	if err != nil {
		return nil, err
	}

	messages, err := s.History.BuildMessages(ctx,
		chat.NormalizeMessages(history, chatRow.ExternalID),
		chatRow.LastContext,
	)
	if err != nil {
		return nil, fmt.Errorf("build messages: %w", err)
	}

	reasoning := llmservice.IsReasoning(req.SelectedChatModel)
	executor := NewStreamExecutor(ExecutorConfig{
		StreamID:       handle.ID,
		ChatID:         chatRow.ID,
		ChatExternalID: chatRow.ExternalID,
		SelectedModel:  req.SelectedChatModel,
		Provider:       provider,
		Model:          model,
		Request: &domainllm.GenerateRequest{
			Model:     model,
			System:    SystemPrompt(req.SelectedChatModel, req.Geo),
			Messages:  messages,
			MaxTokens: 4096,
			Thinking:  reasoning,
		},
		MaxSteps:    config.MaxModelSteps,
		Timeout:     config.MaxGenerationDuration,
		SmoothDelay: s.smoothDelay,
	}, s.Messages, s.Chats, s.Usage, s.logger)

	if !reasoning && s.Tools != nil {
		executor.SetTools(s.Tools(session.UserID, executor))
	}

	if s.Resumable != nil && s.Resumable.Enabled() {
		sink, err := s.Resumable.Publish(ctx, handle.ID)
		if err != nil {
			s.logger.Warn("resumable stream unavailable", "stream_id", handle.ID, "error", err)
		} else {
			executor.SetSink(sink)
		}
	}

	// Subscribe before starting so the requesting connection sees every chunk.
	sub := executor.Subscribe()
	s.Registry.Register(executor.GetStream())
	executor.Start()

	s.logger.Info("generation started",
		"chat_id", chatRow.ExternalID,
		"stream_id", handle.ID,
		"model", model,
		"history", len(history),
	)

	return &domainllm.Generation{
		ChatID:   chatRow.ExternalID,
		StreamID: handle.ID,
		Chunks:   sub,
	}, nil
}

// StopGeneration cancels the running generation of the chat's latest stream.
func (s *Service) StopGeneration(ctx context.Context, userID, chatID string) error {
	c, err := s.Resolver.Resolve(ctx, chatID)
	if err != nil {
		return domain.ChatErrorFrom(err, domain.SurfaceChat)
	}
	if !c.OwnedBy(userID) {
		return domain.NewChatError("forbidden:chat")
	}

	ids, err := s.Streams.ListStreamIDsByChat(ctx, c.ID)
	if err != nil {
		return domain.ChatErrorFrom(err, domain.SurfaceStream)
	}
	if len(ids) == 0 {
		return domain.NewChatError("not_found:stream")
	}

	latest := ids[len(ids)-1]
	stream := s.Registry.Get(latest)
	if stream == nil {
		return domain.NewChatError("not_found:stream")
	}
	stream.Cancel()

	s.logger.Info("generation stopped", "chat_id", c.ExternalID, "stream_id", latest)
	return nil
}

// ResumeStream replays the latest stream of a chat, from the in-process
// stream when it runs here and from the resumable store otherwise. When nothing is live it
// falls back to the last assistant message if it was written within
// config.ResumeWindow, and to an empty stream otherwise.
func (s *Service) ResumeStream(ctx context.Context, session *models.Session, chatID string) (*domainllm.ResumedStream, error) {
	if s.Resumable == nil || !s.Resumable.Enabled() {
		metrics.ResumedStreams.WithLabelValues("disabled").Inc()
		return &domainllm.ResumedStream{Disabled: true}, nil
	}
	if session == nil {
		return nil, domain.NewChatError("unauthorized:chat")
	}

	c, err := s.Resolver.Resolve(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewChatError("not_found:chat").Wrap(err)
		}
		return nil, domain.ChatErrorFrom(err, domain.SurfaceChat)
	}
	if c.Visibility == models.VisibilityPrivate && !c.OwnedBy(session.UserID) {
		return nil, domain.NewChatError("forbidden:chat")
	}

	ids, err := s.Streams.ListStreamIDsByChat(ctx, c.ID)
	if err != nil {
		return nil, domain.ChatErrorFrom(err, domain.SurfaceStream)
	}
	if len(ids) == 0 {
		return nil, domain.NewChatError("not_found:stream")
	}

	// Stream requested at this moment, before the live lookup.
	resumeAt := s.now()
	latest := ids[len(ids)-1]

	// A generation running in this process is read directly from its stream.
	if local := s.Registry.Get(latest); local != nil && local.Status() == mstream.StatusRunning {
		metrics.ResumedStreams.WithLabelValues("local").Inc()
		return &domainllm.ResumedStream{Frames: newLiveReader(local)}, nil
	}

	frames, err := s.Resumable.Resume(ctx, latest)
	if err != nil {
		s.logger.Warn("resume failed, using fallback", "chat_id", c.ExternalID, "error", err)
	}
	if frames != nil {
		metrics.ResumedStreams.WithLabelValues("live").Inc()
		return &domainllm.ResumedStream{Frames: frames}, nil
	}

	fallback, err := s.recentAssistantMessage(ctx, c, resumeAt)
	if err != nil {
		return nil, domain.ChatErrorFrom(err, domain.SurfaceStream)
	}
	if fallback == nil {
		metrics.ResumedStreams.WithLabelValues("empty").Inc()
		return &domainllm.ResumedStream{}, nil
	}

	metrics.ResumedStreams.WithLabelValues("fallback").Inc()
	return &domainllm.ResumedStream{Fallback: fallback}, nil
}

func (s *Service) recentAssistantMessage(ctx context.Context, c *models.Chat, at time.Time) (*models.UIChunk, error) {
	rows, err := s.Messages.ListMessagesByChat(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	history := chat.NormalizeMessages(rows, c.ExternalID)
	msg := history[len(history)-1]
	if msg.Role != models.RoleAssistant || at.Sub(msg.CreatedAt) > config.ResumeWindow {
		return nil, nil
	}

	chunk, err := appendMessageChunk(msg)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}
