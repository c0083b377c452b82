package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainllm "chatbot/internal/domain/services/llm"
)

// fakeTool echoes its input after an optional delay.
type fakeTool struct {
	name    string
	delay   time.Duration
	fail    bool
	calls   atomic.Int32
	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	f.calls.Add(1)
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail {
		return nil, errors.New("forecast service unavailable")
	}
	return map[string]interface{}{"tool": f.name, "input": string(input)}, nil
}

func (f *fakeTool) Definition() domainllm.ToolSpec {
	return domainllm.ToolSpec{Name: f.name, Description: "fake " + f.name}
}

func TestExecute(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("getWeather", &fakeTool{name: "getWeather"})
	registry.Register("broken", &fakeTool{name: "broken", fail: true})

	tests := []struct {
		name    string
		call    domainllm.ToolCall
		wantErr string
	}{
		{"success", domainllm.ToolCall{ID: "c1", Name: "getWeather", Input: json.RawMessage(`{"latitude":1}`)}, ""},
		{"unknown tool", domainllm.ToolCall{ID: "c2", Name: "launchRocket"}, "tool not found: launchRocket"},
		{"executor error", domainllm.ToolCall{ID: "c3", Name: "broken"}, "forecast service unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := registry.Execute(context.Background(), tt.call)

			assert.Equal(t, tt.call.ID, res.ID)
			assert.Equal(t, tt.call.Name, res.Name)
			if tt.wantErr == "" {
				require.False(t, res.IsError, "error: %v", res.Error)
				assert.NotNil(t, res.Result)
				return
			}
			require.True(t, res.IsError)
			assert.EqualError(t, res.Error, tt.wantErr)
			assert.Equal(t, tt.wantErr, res.Output())
		})
	}
}

func TestExecuteDefaultsEmptyInput(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("getWeather", &fakeTool{name: "getWeather"})

	res := registry.Execute(context.Background(), domainllm.ToolCall{ID: "c1", Name: "getWeather"})

	require.False(t, res.IsError)
	assert.Equal(t, "{}", res.Result.(map[string]interface{})["input"])
}

func TestExecuteCancelled(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("slow", &fakeTool{name: "slow", delay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := registry.Execute(ctx, domainllm.ToolCall{ID: "c1", Name: "slow"})

	require.True(t, res.IsError)
	assert.ErrorIs(t, res.Error, context.Canceled)
}

func TestRegisterToolDefinitions(t *testing.T) {
	registry := NewToolRegistry()
	registry.RegisterTool(&fakeTool{name: "getWeather"})
	registry.RegisterTool(&fakeTool{name: "createDocument"})
	registry.RegisterTool(&fakeTool{name: "getWeather"})
	registry.Register("hidden", &fakeTool{name: "hidden"})

	var names []string
	for _, spec := range registry.Definitions() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"getWeather", "createDocument"}, names)
	assert.Equal(t, 3, registry.Len())
	assert.NotNil(t, registry.Get("hidden"))
	assert.Nil(t, registry.Get("missing"))
}

func TestExecuteParallelKeepsOrder(t *testing.T) {
	registry := NewToolRegistry()
	delays := []time.Duration{30 * time.Millisecond, 5 * time.Millisecond, 60 * time.Millisecond}
	calls := make([]domainllm.ToolCall, len(delays))
	for i, d := range delays {
		name := fmt.Sprintf("tool_%d", i)
		registry.Register(name, &fakeTool{name: name, delay: d})
		calls[i] = domainllm.ToolCall{ID: fmt.Sprintf("call_%d", i), Name: name}
	}
	calls = append(calls, domainllm.ToolCall{ID: "call_3", Name: "missing"})

	results := registry.ExecuteParallel(context.Background(), calls)

	require.Len(t, results, 4)
	for i := range delays {
		assert.Equal(t, fmt.Sprintf("call_%d", i), results[i].ID)
		require.False(t, results[i].IsError)
		assert.Equal(t, fmt.Sprintf("tool_%d", i), results[i].Result.(map[string]interface{})["tool"])
	}
	assert.True(t, results[3].IsError)
}

func TestExecuteParallelIsBounded(t *testing.T) {
	registry := NewToolRegistry()
	tool := &fakeTool{name: "getWeather", delay: 10 * time.Millisecond}
	registry.Register("getWeather", tool)

	calls := make([]domainllm.ToolCall, 3*maxParallelTools)
	for i := range calls {
		calls[i] = domainllm.ToolCall{ID: fmt.Sprintf("call_%d", i), Name: "getWeather"}
	}

	results := registry.ExecuteParallel(context.Background(), calls)

	require.Len(t, results, len(calls))
	assert.EqualValues(t, len(calls), tool.calls.Load())
	assert.LessOrEqual(t, tool.peak.Load(), int32(maxParallelTools))
	assert.Greater(t, tool.peak.Load(), int32(1), "calls should overlap")
}

func TestExecuteParallelCancelled(t *testing.T) {
	registry := NewToolRegistry()
	tool := &fakeTool{name: "slow", delay: time.Second}
	registry.Register("slow", tool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := registry.ExecuteParallel(ctx, []domainllm.ToolCall{
		{ID: "a", Name: "slow"},
		{ID: "b", Name: "slow"},
	})

	for _, res := range results {
		require.True(t, res.IsError)
		assert.ErrorIs(t, res.Error, context.Canceled)
	}
	assert.Zero(t, tool.calls.Load())
	assert.Empty(t, registry.ExecuteParallel(context.Background(), nil))
}
