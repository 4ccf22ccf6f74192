package pera

import (
	"errors"
	"testing"
)

func TestError_ErrorString_IncludesModuleOpKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	e := NewConnectionFailedError("exec", "exec.Dispatch", cause).WithCorrelationID("session_1")

	msg := e.Error()
	for _, want := range []string{"exec.Dispatch", "connection_failed", "session_1", "connection reset"} {
		if !contains(msg, want) {
			t.Fatalf("error message %q missing %q", msg, want)
		}
	}
}

func TestError_Unwrap_ReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	e := NewInternalError("orchestrator", "orchestrator.Submit", cause)

	if !errors.Is(e, cause) {
		t.Fatalf("expected errors.Is to unwrap to cause")
	}
}

func TestError_Is_MatchesByKind(t *testing.T) {
	e := NewTimeoutError("exec", "exec.Dispatch", errors.New("deadline exceeded"))

	if !errors.Is(e, &Error{Kind: KindTimeout}) {
		t.Fatalf("expected Is to match on Kind alone")
	}
	if errors.Is(e, &Error{Kind: KindAuthFailed}) {
		t.Fatalf("expected Is to reject mismatched Kind")
	}
}

func TestError_Is_MatchesByModuleAndKind(t *testing.T) {
	e := NewStoreError("memory", "memory.Append", errors.New("disk full"))

	if !errors.Is(e, &Error{Kind: KindStoreError, Module: "memory"}) {
		t.Fatalf("expected Is to match on Kind+Module")
	}
	if errors.Is(e, &Error{Kind: KindStoreError, Module: "planning"}) {
		t.Fatalf("expected Is to reject mismatched Module")
	}
}

func TestError_WithContext_MergesWithoutMutatingOriginal(t *testing.T) {
	base := NewToolFailureError("exec", "exec.Dispatch", errors.New("nonzero exit"))
	withCtx := base.WithContext(map[string]any{"tool": "curl"})

	if len(base.Context) != 0 {
		t.Fatalf("expected original Error.Context to remain empty, got %v", base.Context)
	}
	if withCtx.Context["tool"] != "curl" {
		t.Fatalf("expected merged context to carry tool=curl, got %v", withCtx.Context)
	}
}

func TestError_WithCorrelationID_DoesNotMutateOriginal(t *testing.T) {
	base := NewCapacityError("registry", "registry.Register", errors.New("queue full"))
	stamped := base.WithCorrelationID("session_42")

	if base.CorrelationID != "" {
		t.Fatalf("expected original CorrelationID to remain empty, got %q", base.CorrelationID)
	}
	if stamped.CorrelationID != "session_42" {
		t.Fatalf("expected stamped CorrelationID session_42, got %q", stamped.CorrelationID)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
