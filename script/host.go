package script

import (
	"context"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/relay/event"
	"github.com/dshills/relay/hook"
	"github.com/dshills/relay/topic"
)

// Host runs Lua scripts against a bus and a hook registry. Close a
// host to drop every subscription and handler its scripts made.
type Host struct {
	mu     sync.Mutex
	state  *lua.LState
	bus    *event.Bus
	hooks  *hook.Registry
	logger *zap.Logger

	subs   []func()
	regs   []hook.Registration
	closed bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger sets the logger behind relay.log.
func WithHostLogger(l *zap.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates a script host bound to the given bus and registry.
// Either may be nil; the matching relay functions then raise a script
// error when called.
func NewHost(bus *event.Bus, hooks *hook.Registry, opts ...HostOption) *Host {
	h := &Host{
		state:  lua.NewState(),
		bus:    bus,
		hooks:  hooks,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.install()
	return h
}

// Do runs a chunk of Lua source.
func (h *Host) Do(source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return h.state.DoString(source)
}

// DoFile runs a Lua file.
func (h *Host) DoFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return h.state.DoFile(path)
}

// Close removes every registration the host's scripts made and shuts
// the interpreter down. Safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	for _, off := range h.subs {
		off()
	}
	h.subs = nil
	for _, reg := range h.regs {
		h.hooks.Unregister(reg)
	}
	h.regs = nil

	h.state.Close()
}

// install populates the relay global.
func (h *Host) install() {
	L := h.state
	mod := L.NewTable()
	L.SetGlobal("relay", mod)

	L.SetField(mod, "emit", L.NewFunction(h.luaEmit))
	L.SetField(mod, "on", L.NewFunction(h.luaOn))
	L.SetField(mod, "once", L.NewFunction(h.luaOnce))
	L.SetField(mod, "register", L.NewFunction(h.luaRegister))
	L.SetField(mod, "log", L.NewFunction(h.luaLog))
}

// luaEmit implements relay.emit(topic, payload). The emission is
// fire-and-forget from a fresh goroutine, so a script can emit from
// inside one of its own listeners without deadlocking the state lock.
func (h *Host) luaEmit(L *lua.LState) int {
	t := topic.Topic(L.CheckString(1))
	var payload any
	if L.GetTop() >= 2 {
		payload = toGoValue(L.Get(2))
	}

	if h.bus == nil {
		L.RaiseError("no event bus attached")
		return 0
	}

	go func() {
		_ = h.bus.Emit(context.Background(), t, payload)
	}()
	return 0
}

// luaOn implements relay.on(topic, fn [, priority]).
func (h *Host) luaOn(L *lua.LState) int {
	return h.subscribe(L, false)
}

// luaOnce implements relay.once(topic, fn [, priority]).
func (h *Host) luaOnce(L *lua.LState) int {
	return h.subscribe(L, true)
}

func (h *Host) subscribe(L *lua.LState, once bool) int {
	t := topic.Topic(L.CheckString(1))
	fn := L.CheckFunction(2)
	priority := 0
	if L.GetTop() >= 3 {
		priority = int(L.CheckNumber(3))
	}

	if h.bus == nil {
		L.RaiseError("no event bus attached")
		return 0
	}

	opts := []event.ListenOption{event.WithPriority(priority)}
	if once {
		opts = append(opts, event.WithOnce())
	}

	off, err := h.bus.On(t, event.ListenerFunc(func(ctx context.Context, ev event.Event) error {
		return h.callListener(fn, ev)
	}), opts...)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	h.subs = append(h.subs, off)
	return 0
}

// callListener enters the Lua state from a dispatch goroutine.
func (h *Host) callListener(fn *lua.LFunction, ev event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	L := h.state
	evTable := L.NewTable()
	L.SetField(evTable, "topic", lua.LString(ev.Topic))
	L.SetField(evTable, "payload", toLuaValue(L, ev.Payload))
	L.SetField(evTable, "id", lua.LString(ev.Meta.ID))
	L.SetField(evTable, "source", lua.LString(ev.Meta.Source))

	return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, evTable)
}

// luaRegister implements relay.register(point, fn [, priority]). The
// handler receives the working context's Meta as a table and may
// return a table of Meta deltas; a true value under the key "stop"
// sets the chain's Stop flag.
func (h *Host) luaRegister(L *lua.LState) int {
	point := hook.Point(L.CheckString(1))
	fn := L.CheckFunction(2)
	priority := 0
	if L.GetTop() >= 3 {
		priority = int(L.CheckNumber(3))
	}

	if h.hooks == nil {
		L.RaiseError("no hook registry attached")
		return 0
	}

	reg, err := h.hooks.Register(point, hook.HandlerFunc(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		return h.callHandler(fn, hc)
	}), hook.WithPriority(priority))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	h.regs = append(h.regs, reg)
	return 0
}

func (h *Host) callHandler(fn *lua.LFunction, hc *hook.Context) (*hook.Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil
	}

	L := h.state
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, toLuaValue(L, hc.Meta)); err != nil {
		return nil, err
	}

	ret := L.Get(-1)
	L.Pop(1)

	retTable, ok := ret.(*lua.LTable)
	if !ok {
		return nil, nil
	}

	delta := hook.NewContext()
	retTable.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		if string(key) == "stop" {
			if b, ok := v.(lua.LBool); ok && bool(b) {
				delta.Stop = true
			}
			return
		}
		delta.Meta[string(key)] = toGoValue(v)
	})
	return delta, nil
}

// luaLog implements relay.log(message).
func (h *Host) luaLog(L *lua.LState) int {
	h.logger.Info("script", zap.String("message", L.CheckString(1)))
	return 0
}
