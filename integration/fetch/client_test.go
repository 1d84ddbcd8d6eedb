package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dshills/relay/event"
	"github.com/dshills/relay/hook"
)

type capture struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *capture) listener() event.ListenerFunc {
	return func(ctx context.Context, ev event.Event) error {
		c.mu.Lock()
		c.events = append(c.events, ev)
		c.mu.Unlock()
		return nil
	}
}

func (c *capture) all() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient(nil, nil)
	res, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d", res.Status)
	}
	if string(res.Body) != "hello" {
		t.Errorf("body = %q", res.Body)
	}
	if res.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
}

func TestClient_HookInjectsHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	hooks := hook.NewRegistry()
	hooks.Register(PointBeforeRequest, hook.HandlerFunc(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		req := *hc.Request
		req.Headers = map[string][]string{"Authorization": {"Bearer tok"}}
		return &hook.Context{Request: &req}, nil
	}))

	c := NewClient(nil, hooks)
	if _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected the injected header on the wire, got %q", gotAuth)
	}
}

func TestClient_ShortCircuitWithResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected no network traffic")
	}))
	defer srv.Close()

	hooks := hook.NewRegistry()
	hooks.Register(PointBeforeRequest, hook.HandlerFunc(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		return &hook.Context{
			Stop: true,
			Response: &hook.ResponseInfo{
				Status: http.StatusNoContent,
				Body:   []byte("cached"),
			},
		}, nil
	}))

	bus := event.NewBus()
	cap := &capture{}
	bus.On(TopicComplete, cap.listener())

	c := NewClient(bus, hooks)
	res, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !res.FromHook {
		t.Error("expected a hook-synthesized result")
	}
	if res.Status != http.StatusNoContent || string(res.Body) != "cached" {
		t.Errorf("result = %d %q", res.Status, res.Body)
	}

	events := cap.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(events))
	}
	if p := events[0].Payload.(ResponseEvent); !p.FromHook {
		t.Error("expected the completion event to be marked FromHook")
	}
}

func TestClient_ShortCircuitWithoutResponse(t *testing.T) {
	hooks := hook.NewRegistry()
	hooks.Register(PointBeforeRequest, hook.HandlerFunc(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		return &hook.Context{Stop: true}, nil
	}))

	c := NewClient(nil, hooks)
	if _, err := c.Get(context.Background(), "http://unused.invalid"); !errors.Is(err, ErrShortCircuit) {
		t.Errorf("expected ErrShortCircuit, got %v", err)
	}
}

func TestClient_AfterResponseRewrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raw"))
	}))
	defer srv.Close()

	hooks := hook.NewRegistry()
	hooks.Register(PointAfterResponse, hook.HandlerFunc(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		resp := *hc.Response
		resp.Body = []byte("rewritten")
		return &hook.Context{Response: &resp}, nil
	}))

	c := NewClient(nil, hooks)
	res, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(res.Body) != "rewritten" {
		t.Errorf("expected the rewritten body, got %q", res.Body)
	}
}

func TestClient_LifecycleEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	bus := event.NewBus()
	cap := &capture{}
	bus.On("request:*", cap.listener())

	c := NewClient(bus, nil)
	res, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	events := cap.all()
	if len(events) != 2 {
		t.Fatalf("expected start and complete events, got %d", len(events))
	}

	startEv := events[0].Payload.(RequestEvent)
	completeEv := events[1].Payload.(ResponseEvent)
	if startEv.CorrelationID != res.CorrelationID {
		t.Error("expected the start event to carry the result's correlation id")
	}
	if completeEv.CorrelationID != res.CorrelationID {
		t.Error("expected the completion event to carry the result's correlation id")
	}
}

func TestClient_NetworkErrorEmitted(t *testing.T) {
	bus := event.NewBus()
	cap := &capture{}
	bus.On(TopicError, cap.listener())

	c := NewClient(bus, nil)
	if _, err := c.Get(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected a network error")
	}

	events := cap.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(events))
	}
	if ev := events[0].Payload.(ErrorEvent); ev.Err == nil {
		t.Error("expected the error event to carry the cause")
	}
}

func TestClient_CorrelationIDInHookContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	var fromHook string
	hooks := hook.NewRegistry()
	hooks.Register(PointBeforeRequest, hook.HandlerFunc(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		fromHook, _ = hc.MetaString(MetaCorrelationID)
		return nil, nil
	}))

	c := NewClient(nil, hooks)
	res, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fromHook != res.CorrelationID {
		t.Errorf("hook saw %q, result has %q", fromHook, res.CorrelationID)
	}
}
