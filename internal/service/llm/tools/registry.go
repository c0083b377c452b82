package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/metrics"
)

var tracer = otel.Tracer("chatbot/service/llm/tools")

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	ID      string      `json:"id"`       // tool call id (matches ToolCall.ID)
	Name    string      `json:"name"`     // tool name (matches ToolCall.Name)
	Result  interface{} `json:"result"`   // execution result (nil if error)
	Error   error       `json:"error"`    // execution error (nil if success)
	IsError bool        `json:"is_error"` // whether execution failed
}

// Output renders the result the way it is sent back to the model.
func (r ToolResult) Output() string {
	if r.IsError {
		if r.Error == nil {
			return "tool failed"
		}
		return r.Error.Error()
	}
	if s, ok := r.Result.(string); ok {
		return s
	}
	b, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Sprintf("%v", r.Result)
	}
	return string(b)
}

// ToolRegistry holds the tools of one generation. Safe for concurrent use.
type ToolRegistry struct {
	mu        sync.RWMutex
	executors map[string]ToolExecutor
	specs     []domainllm.ToolSpec
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		executors: make(map[string]ToolExecutor),
	}
}

// Register adds an executor without offering it to the model. A later
// registration under the same name wins.
func (r *ToolRegistry) Register(name string, executor ToolExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = executor
}

// RegisterTool adds a tool and offers its definition to the model.
func (r *ToolRegistry) RegisterTool(tool Tool) {
	spec := tool.Definition()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[spec.Name] = tool
	for i := range r.specs {
		if r.specs[i].Name == spec.Name {
			r.specs[i] = spec
			return
		}
	}
	r.specs = append(r.specs, spec)
}

// Get returns the executor of name, or nil.
func (r *ToolRegistry) Get(name string) ToolExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.executors[name]
}

// Definitions returns the specs of tools added with RegisterTool, in
// registration order.
func (r *ToolRegistry) Definitions() []domainllm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainllm.ToolSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Len returns the number of registered executors.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}

// Execute runs one call inside a trace span and counts it. Unknown tools and
// executor errors come back as IsError results, never as a Go error.
func (r *ToolRegistry) Execute(ctx context.Context, call domainllm.ToolCall) ToolResult {
	ctx, span := tracer.Start(ctx, "tool."+call.Name)
	defer span.End()
	span.SetAttributes(attribute.String("tool.call_id", call.ID))

	result := r.execute(ctx, call)

	outcome := metrics.OutcomeOK
	if result.IsError {
		outcome = metrics.OutcomeError
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "tool failed")
	}
	metrics.ToolCalls.WithLabelValues(call.Name, outcome).Inc()

	return result
}

func (r *ToolRegistry) execute(ctx context.Context, call domainllm.ToolCall) ToolResult {
	executor := r.Get(call.Name)
	if executor == nil {
		return ToolResult{
			ID:      call.ID,
			Name:    call.Name,
			Error:   fmt.Errorf("tool not found: %s", call.Name),
			IsError: true,
		}
	}

	input := call.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	result, err := executor.Execute(ctx, input)
	if err != nil {
		return ToolResult{
			ID:      call.ID,
			Name:    call.Name,
			Error:   err,
			IsError: true,
		}
	}

	return ToolResult{
		ID:     call.ID,
		Name:   call.Name,
		Result: result,
	}
}

// maxParallelTools bounds how many tool calls of one step run at once.
const maxParallelTools = 4

// ExecuteParallel runs the calls of one model step concurrently. Results keep
// the order of calls. Calls that have not started when ctx is done fail with
// ctx.Err().
func (r *ToolRegistry) ExecuteParallel(ctx context.Context, calls []domainllm.ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))

	var g errgroup.Group
	g.SetLimit(maxParallelTools)
	for i, call := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ToolResult{ID: call.ID, Name: call.Name, Error: err, IsError: true}
				return nil
			}
			results[i] = r.Execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
