package exec

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/enum"
	"github.com/zero-day-ai/pera/registry"
	"github.com/zero-day-ai/pera/schema"
)

type fakeInvoker struct {
	failuresBeforeSuccess int32
	calls                 int32
}

func (f *fakeInvoker) Invoke(_ context.Context, toolName string, _ map[string]any) (any, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failuresBeforeSuccess {
		return nil, errors.New("connection refused")
	}
	return "ok:" + toolName, nil
}

func TestEngine_Dispatch_SucceedsAfterRetries(t *testing.T) {
	cfg := config.ExecutionConfig{
		DefaultTimeout: time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		RetryBackoff:   config.BackoffLinear,
		WorkerPoolSize: 2,
	}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{Name: "fetcher", TaskTypes: []string{"fetch"}})
	inv := &fakeInvoker{failuresBeforeSuccess: 2}
	eng := NewEngine(cfg, cat, inv)

	res, err := eng.Dispatch(context.Background(), Task{ID: "t1", ToolName: "fetcher", Params: map[string]any{"url": "x"}})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Attempts != 3 {
		t.Fatalf("got %d attempts, want 3", res.Attempts)
	}
}

func TestEngine_Dispatch_AutoResolvesTool(t *testing.T) {
	cfg := config.ExecutionConfig{DefaultTimeout: time.Second, MaxRetries: 0, WorkerPoolSize: 1}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{Name: "fetcher", TaskTypes: []string{"fetch"}})
	inv := &fakeInvoker{}
	eng := NewEngine(cfg, cat, inv)

	res, err := eng.Dispatch(context.Background(), Task{ID: "t1", TaskType: "fetch"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.ToolName != "fetcher" {
		t.Fatalf("got tool %q, want fetcher", res.ToolName)
	}
}

func TestEngine_Dispatch_UnrecoverableFailsFast(t *testing.T) {
	cfg := config.ExecutionConfig{DefaultTimeout: time.Second, MaxRetries: 5, RetryBaseDelay: time.Millisecond, WorkerPoolSize: 1}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{Name: "authy", TaskTypes: []string{"auth"}})
	inv := invokerFunc(func(_ context.Context, _ string, _ map[string]any) (any, error) {
		return nil, errors.New("authentication failed: invalid token")
	})
	eng := NewEngine(cfg, cat, inv)

	res, err := eng.Dispatch(context.Background(), Task{ID: "t1", ToolName: "authy"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Attempts != 1 {
		t.Fatalf("expected no retries for unrecoverable error, got %d attempts", res.Attempts)
	}
	if res.Classification.Kind != KindAuth {
		t.Fatalf("got classification %v, want KindAuth", res.Classification)
	}
}

func TestEngine_Dispatch_ValidationError(t *testing.T) {
	eng := NewEngine(config.ExecutionConfig{WorkerPoolSize: 1}, registry.NewCatalog(), &fakeInvoker{})
	if _, err := eng.Dispatch(context.Background(), Task{ID: "t1"}); err == nil {
		t.Fatalf("expected validation error for task with no tool name or task type")
	}
}

func TestEngine_Dispatch_RejectsParamsFailingToolInputSchema(t *testing.T) {
	cfg := config.ExecutionConfig{DefaultTimeout: time.Second, WorkerPoolSize: 1}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{
		Name:      "fetcher",
		TaskTypes: []string{"fetch"},
		InputSchema: schema.Object(map[string]schema.JSON{
			"url": schema.String(),
		}, "url"),
	})
	eng := NewEngine(cfg, cat, &fakeInvoker{})

	if _, err := eng.Dispatch(context.Background(), Task{ID: "t1", ToolName: "fetcher", Params: map[string]any{}}); err == nil {
		t.Fatalf("expected schema validation error for missing required field url")
	}
}

func TestEngine_Dispatch_AcceptsParamsMatchingToolInputSchema(t *testing.T) {
	cfg := config.ExecutionConfig{DefaultTimeout: time.Second, WorkerPoolSize: 1}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{
		Name:      "fetcher",
		TaskTypes: []string{"fetch"},
		InputSchema: schema.Object(map[string]schema.JSON{
			"url": schema.String(),
		}, "url"),
	})
	eng := NewEngine(cfg, cat, &fakeInvoker{})

	res, err := eng.Dispatch(context.Background(), Task{ID: "t1", ToolName: "fetcher", Params: map[string]any{"url": "https://example.com"}})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
}

func TestEngine_Dispatch_NormalizesShorthandParamsBeforeInvoke(t *testing.T) {
	enum.Clear()
	enum.Register("crawler", "mode", map[string]string{"fast": "MODE_FAST"})
	defer enum.Clear()

	cfg := config.ExecutionConfig{DefaultTimeout: time.Second, WorkerPoolSize: 1}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{Name: "crawler", TaskTypes: []string{"crawl"}})

	var seen map[string]any
	inv := invokerFunc(func(_ context.Context, _ string, params map[string]any) (any, error) {
		seen = params
		return "ok", nil
	})
	eng := NewEngine(cfg, cat, inv)

	_, err := eng.Dispatch(context.Background(), Task{ID: "t1", ToolName: "crawler", Params: map[string]any{"mode": "fast"}})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if seen["mode"] != "MODE_FAST" {
		t.Fatalf("got mode %v, want normalized MODE_FAST", seen["mode"])
	}
}

func TestEngine_Dispatch_HonorsTimeoutParamWhenTaskTimeoutUnset(t *testing.T) {
	cfg := config.ExecutionConfig{DefaultTimeout: time.Minute, WorkerPoolSize: 1}
	cat := registry.NewCatalog()
	_ = cat.Register(context.Background(), registry.Descriptor{Name: "crawler", TaskTypes: []string{"crawl"}})

	inv := invokerFunc(func(ctx context.Context, _ string, _ map[string]any) (any, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Fatalf("expected a deadline derived from the timeout param")
		}
		if time.Until(deadline) > 5*time.Second {
			t.Fatalf("expected a short deadline from the timeout param, got %v remaining", time.Until(deadline))
		}
		return "ok", nil
	})
	eng := NewEngine(cfg, cat, inv)

	_, err := eng.Dispatch(context.Background(), Task{
		ID:       "t1",
		ToolName: "crawler",
		Params:   map[string]any{"timeout": "2s"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

type invokerFunc func(ctx context.Context, toolName string, params map[string]any) (any, error)

func (f invokerFunc) Invoke(ctx context.Context, toolName string, params map[string]any) (any, error) {
	return f(ctx, toolName, params)
}
