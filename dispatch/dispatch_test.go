package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDeferred_ResolveOnce(t *testing.T) {
	d := NewDeferred()

	if d.IsSettled() {
		t.Error("expected new deferred to be unsettled")
	}

	d.Resolve()
	d.Fail(errors.New("too late"))

	if !d.IsSettled() {
		t.Error("expected deferred to be settled after Resolve")
	}
	if d.Err() != nil {
		t.Errorf("expected first settlement to win, got %v", d.Err())
	}
}

func TestDeferred_Fail(t *testing.T) {
	d := NewDeferred()
	want := errors.New("boom")
	d.Fail(want)

	select {
	case <-d.Done():
	default:
		t.Fatal("expected Done() to be closed after Fail")
	}
	if d.Err() != want {
		t.Errorf("Err() = %v, want %v", d.Err(), want)
	}
}

func TestSettleAll_WaitsForEveryDeferred(t *testing.T) {
	fast := NewDeferred()
	slow := NewDeferred()
	failing := NewDeferred()
	boom := errors.New("boom")

	start := time.Now()
	go func() {
		time.Sleep(10 * time.Millisecond)
		fast.Resolve()
	}()
	go func() {
		time.Sleep(5 * time.Millisecond)
		failing.Fail(boom)
	}()
	go func() {
		time.Sleep(50 * time.Millisecond)
		slow.Resolve()
	}()

	errs := SettleAll([]*Deferred{fast, slow, failing})
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("expected join to wait for the slowest deferred, returned after %v", elapsed)
	}
	if errs[0] != nil || errs[1] != nil {
		t.Errorf("expected successes for fast and slow, got %v, %v", errs[0], errs[1])
	}
	if errs[2] != boom {
		t.Errorf("expected failure preserved in input order, got %v", errs[2])
	}
}

func TestSettleAll_Empty(t *testing.T) {
	if errs := SettleAll(nil); errs != nil {
		t.Errorf("expected nil for empty batch, got %v", errs)
	}
}

func TestInvoke_Success(t *testing.T) {
	res := Invoke(context.Background(), func(ctx context.Context) Result {
		return Complete(nil)
	})
	if res.Err != nil || res.Panicked {
		t.Errorf("expected clean result, got %+v", res)
	}
}

func TestInvoke_Error(t *testing.T) {
	want := errors.New("boom")
	res := Invoke(context.Background(), func(ctx context.Context) Result {
		return Complete(want)
	})
	if res.Err != want {
		t.Errorf("Err = %v, want %v", res.Err, want)
	}
}

func TestInvoke_PanicRecovered(t *testing.T) {
	res := Invoke(context.Background(), func(ctx context.Context) Result {
		panic("kaboom")
	})

	if !res.Panicked {
		t.Fatal("expected Panicked to be set")
	}
	if res.PanicValue != "kaboom" {
		t.Errorf("PanicValue = %v, want kaboom", res.PanicValue)
	}
	if !errors.Is(res.Err, ErrHandlerPanic) {
		t.Errorf("expected Err to match ErrHandlerPanic, got %v", res.Err)
	}
	if len(res.PanicStack) == 0 {
		t.Error("expected a captured stack trace")
	}
}

func TestResult_Pending(t *testing.T) {
	d := NewDeferred()
	res := Pend(d)

	if !res.Pending() {
		t.Error("expected result to be pending before settlement")
	}

	d.Fail(errors.New("late failure"))

	if res.Pending() {
		t.Error("expected result to stop pending after settlement")
	}
	if res.Failure() == nil {
		t.Error("expected Failure() to surface the deferred error")
	}
}
