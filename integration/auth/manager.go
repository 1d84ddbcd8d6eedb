package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/relay/event"
	"github.com/dshills/relay/hook"
	"github.com/dshills/relay/topic"
)

// Interception points fired around session changes.
const (
	PointOnLogin  hook.Point = "onLogin"
	PointOnLogout hook.Point = "onLogout"
)

// Session topics.
const (
	TopicLogin  = topic.Topic("auth:login")
	TopicLogout = topic.Topic("auth:logout")
)

// User identifies who is logging in.
type User struct {
	ID    string
	Name  string
	Roles []string
}

// Session is an established login.
type Session struct {
	ID      string
	User    User
	Started time.Time
}

// Manager tracks the current session. All methods are safe for
// concurrent use.
type Manager struct {
	mu      sync.Mutex
	current *Session

	bus   *event.Bus
	hooks *hook.Registry
}

// NewManager creates a session manager wired to a bus and a hook
// registry. Either may be nil; the matching stage is then skipped.
func NewManager(bus *event.Bus, hooks *hook.Registry) *Manager {
	return &Manager{bus: bus, hooks: hooks}
}

// Login establishes a session for user. onLogin handlers run first with
// the user descriptor and may veto by stopping the chain; they may also
// rewrite the descriptor, for example to attach roles. On success an
// auth:login event carries the new session.
func (m *Manager) Login(ctx context.Context, user User) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrAlreadyLoggedIn
	}

	info := &hook.UserInfo{
		ID:    user.ID,
		Name:  user.Name,
		Roles: user.Roles,
	}

	if m.hooks != nil {
		input := hook.NewContext()
		input.User = info

		out, err := m.hooks.Run(ctx, PointOnLogin, input)
		if err != nil {
			return nil, err
		}
		if out.Stop {
			return nil, ErrLoginRejected
		}
		if out.User != nil {
			info = out.User
		}
	}

	session := &Session{
		ID: uuid.NewString(),
		User: User{
			ID:    info.ID,
			Name:  info.Name,
			Roles: info.Roles,
		},
		Started: time.Now(),
	}
	m.current = session

	m.emit(TopicLogin, *session)
	return session, nil
}

// Logout ends the current session. onLogout handlers observe the
// session before it is dropped; stopping the chain does not keep the
// session alive.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoSession
	}
	session := *m.current

	if m.hooks != nil {
		input := hook.NewContext()
		input.User = &hook.UserInfo{
			ID:    session.User.ID,
			Name:  session.User.Name,
			Roles: session.User.Roles,
		}
		input.SetMeta("session_id", session.ID)

		if _, err := m.hooks.Run(ctx, PointOnLogout, input); err != nil {
			return err
		}
	}

	m.current = nil
	m.emit(TopicLogout, session)
	return nil
}

// Current returns the active session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

func (m *Manager) emit(t topic.Topic, payload any) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Emit(context.Background(), t, payload)
}
