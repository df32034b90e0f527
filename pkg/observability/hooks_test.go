package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Solve hooks
	s := NoopSolveHooks{}
	s.OnPassStart(ctx, "full", 4)
	s.OnPassComplete(ctx, "full", 3, 1, time.Second, nil)
	s.OnComponentSolve(ctx, "add", true, time.Millisecond, nil)

	// Store hooks
	st := NoopStoreHooks{}
	st.OnStoreHit(ctx, "file")
	st.OnStoreMiss(ctx, "redis")
	st.OnStorePut(ctx, "mongo", 1024)
	st.OnStoreDelete(ctx, "file")

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/solve", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Solve().(NoopSolveHooks); !ok {
		t.Error("Solve() should return NoopSolveHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customSolve := &testSolveHooks{}
	SetSolveHooks(customSolve)
	if Solve() != customSolve {
		t.Error("SetSolveHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Solve().(NoopSolveHooks); !ok {
		t.Error("Reset() should restore NoopSolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testSolveHooks{}
	SetSolveHooks(custom)

	// Setting nil should be ignored
	SetSolveHooks(nil)

	if Solve() != custom {
		t.Error("SetSolveHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testSolveHooks struct{ NoopSolveHooks }
type testStoreHooks struct{ NoopStoreHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
