// Package manager coordinates session lifecycles: it owns the single active
// session per variant, applies the auto-completion rule, and hands sessions
// off to persistence.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

// Storage persists sessions. Read must return the same structural shape
// that was written, with round and throw ordering preserved.
type Storage interface {
	Create(ctx context.Context, s *session.Session) error
	Read(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
	ReadAll(ctx context.Context, variant session.Variant) ([]*session.Session, error)
	ReadByDateRange(ctx context.Context, variant session.Variant, from, to time.Time) ([]*session.Session, error)
	DeleteAll(ctx context.Context, variant session.Variant) error
}

// PointerStore remembers which session is active per variant across process
// restarts. It is not a general persistence mechanism.
type PointerStore interface {
	ActiveID(ctx context.Context, variant session.Variant) (string, error)
	SetActiveID(ctx context.Context, variant session.Variant, id string) error
	ClearActiveID(ctx context.Context, variant session.Variant) error
}

// Manager holds at most one active session per variant. All session
// mutation funnels through it; access is serialized internally so the TUI
// and the wearable bridge can share one instance.
type Manager struct {
	mu       sync.Mutex
	storage  Storage
	pointers PointerStore
	active   map[session.Variant]*session.Session
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New constructs a Manager with the given collaborators.
func New(storage Storage, pointers PointerStore, opts ...Option) *Manager {
	m := &Manager{
		storage:  storage,
		pointers: pointers,
		active:   map[session.Variant]*session.Session{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a new active session of the given variant. A still-open
// session of the same variant is auto-completed and persisted first; it is
// never silently dropped.
func (m *Manager) Start(ctx context.Context, variant session.Variant, target int) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.retireActiveLocked(ctx, variant); err != nil {
		return nil, err
	}
	s := session.New(variant, target, m.now())
	if err := m.storage.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}
	if err := m.pointers.SetActiveID(ctx, variant, s.ID); err != nil {
		return nil, fmt.Errorf("set active pointer: %w", err)
	}
	m.active[variant] = s
	return s, nil
}

// Restore reloads the active session for a variant after a process restart.
// A stale session is auto-completed and persisted instead of being resumed;
// in that case Restore returns nil with no error.
func (m *Manager) Restore(ctx context.Context, variant session.Variant) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.active[variant]; ok {
		if retired, err := m.inspectLocked(ctx, s); err != nil {
			return nil, err
		} else if retired {
			return nil, nil
		}
		return s, nil
	}

	id, err := m.pointers.ActiveID(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("read active pointer: %w", err)
	}
	if id == "" {
		return nil, nil
	}
	s, err := m.storage.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	if s.Completed {
		// Stale pointer left behind by an interrupted shutdown.
		if err := m.pointers.ClearActiveID(ctx, variant); err != nil {
			return nil, fmt.Errorf("clear active pointer: %w", err)
		}
		return nil, nil
	}
	m.active[variant] = s
	if retired, err := m.inspectLocked(ctx, s); err != nil {
		return nil, err
	} else if retired {
		return nil, nil
	}
	return s, nil
}

// Active returns the in-memory active session for a variant, if any.
func (m *Manager) Active(variant session.Variant) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[variant]
}

// ActiveByID returns the active session with the given id, or nil when no
// active session matches.
func (m *Manager) ActiveByID(id string) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeByIDLocked(id)
}

// RecordThrow applies a throw to the active session matching the given id.
// Events addressed to any other session id are silently ignored and report
// applied=false, per the wearable-bridge contract.
func (m *Manager) RecordThrow(ctx context.Context, id string, o session.Outcome) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.activeByIDLocked(id)
	if s == nil {
		return false, nil
	}
	if err := s.RecordThrow(o, m.now()); err != nil {
		return false, err
	}
	if err := m.storage.Update(ctx, s); err != nil {
		return false, fmt.Errorf("persist throw: %w", err)
	}
	return true, nil
}

// AdvancePhase moves the active game session's phase machine forward.
func (m *Manager) AdvancePhase(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.activeByIDLocked(id)
	if s == nil {
		return false, nil
	}
	if err := s.AdvancePhase(); err != nil {
		return false, err
	}
	if err := m.storage.Update(ctx, s); err != nil {
		return false, fmt.Errorf("persist phase: %w", err)
	}
	return true, nil
}

// Pause suspends the active session with the given id.
func (m *Manager) Pause(ctx context.Context, id string) error {
	return m.transition(ctx, id, func(s *session.Session) error {
		return s.Pause(m.now())
	})
}

// Resume reactivates the paused session with the given id.
func (m *Manager) Resume(ctx context.Context, id string) error {
	return m.transition(ctx, id, func(s *session.Session) error {
		return s.Resume(m.now())
	})
}

// Complete terminates the session with the given id, persists it, and
// releases it from active ownership.
func (m *Manager) Complete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.activeByIDLocked(id)
	if s == nil {
		return session.ErrNotFound
	}
	if err := s.Complete(m.now()); err != nil {
		return err
	}
	return m.releaseLocked(ctx, s)
}

// Inspect applies the auto-completion rule to the active session of a
// variant, as done on app foreground. It reports whether a stale session
// was retired.
func (m *Manager) Inspect(ctx context.Context, variant session.Variant) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.active[variant]
	if !ok {
		return false, nil
	}
	return m.inspectLocked(ctx, s)
}

func (m *Manager) transition(ctx context.Context, id string, fn func(*session.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.activeByIDLocked(id)
	if s == nil {
		return session.ErrNotFound
	}
	if err := fn(s); err != nil {
		return err
	}
	if err := m.storage.Update(ctx, s); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (m *Manager) activeByIDLocked(id string) *session.Session {
	for _, s := range m.active {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// inspectLocked runs the auto-completion rule on a session and retires it
// when the rule fires.
func (m *Manager) inspectLocked(ctx context.Context, s *session.Session) (bool, error) {
	if !s.AutoComplete(m.now()) {
		return false, nil
	}
	if err := m.releaseLocked(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}

// retireActiveLocked auto-completes or force-completes whatever session is
// currently active for the variant, persisting it before it is replaced.
func (m *Manager) retireActiveLocked(ctx context.Context, variant session.Variant) error {
	s, ok := m.active[variant]
	if !ok {
		id, err := m.pointers.ActiveID(ctx, variant)
		if err != nil {
			return fmt.Errorf("read active pointer: %w", err)
		}
		if id == "" {
			return nil
		}
		s, err = m.storage.Read(ctx, id)
		if err != nil {
			return fmt.Errorf("load active session: %w", err)
		}
		m.active[variant] = s
	}
	if !s.AutoComplete(m.now()) && !s.Completed {
		if err := s.Complete(m.now()); err != nil {
			return err
		}
	}
	return m.releaseLocked(ctx, s)
}

// releaseLocked persists a finished session and drops active ownership.
func (m *Manager) releaseLocked(ctx context.Context, s *session.Session) error {
	if err := m.storage.Update(ctx, s); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := m.pointers.ClearActiveID(ctx, s.Variant); err != nil {
		return fmt.Errorf("clear active pointer: %w", err)
	}
	delete(m.active, s.Variant)
	return nil
}
