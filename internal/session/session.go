package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for the domain.
var (
	// ErrInvalidState is returned when an operation is not valid for the
	// session's current lifecycle state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrNotFound is returned when no session matches the requested id.
	ErrNotFound = errors.New("session not found")
	// ErrMalformedRecord is returned when persisted data does not
	// deserialize into the expected shape.
	ErrMalformedRecord = errors.New("malformed session record")
)

// Variant identifies a session type.
type Variant string

const (
	// VariantStandard is baseline practice in fixed rounds.
	VariantStandard Variant = "standard"
	// VariantPitch is continuous around-the-pitch scoring.
	VariantPitch Variant = "pitch"
	// VariantBlast is the inkast-blast clearing drill.
	VariantBlast Variant = "blast"
	// VariantGame is the full-game simulation.
	VariantGame Variant = "game"
)

// Variants lists all session variants.
var Variants = []Variant{VariantStandard, VariantPitch, VariantBlast, VariantGame}

// ParseVariant converts a string into a known variant.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// Side identifies the sub-unit a continuous-scoring cast is aimed at.
type Side string

const (
	// SideLeft is the first baseline side.
	SideLeft Side = "left"
	// SideRight is the second baseline side.
	SideRight Side = "right"
)

// Session is one practice or game unit: an ordered list of rounds plus
// session-level counters and lifecycle flags.
type Session struct {
	ID         string
	Variant    Variant
	Target     int // throw-count or score target, depending on variant
	Hits       int
	Throws     int
	StartedAt  time.Time
	EndedAt    time.Time // zero while running
	Completed  bool
	Paused     bool
	Rounds     []Round
	Game       *GameState // set only for VariantGame
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// New creates an active session of the given variant with its first round
// open.
func New(variant Variant, target int, now time.Time) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Variant:    variant,
		Target:     target,
		StartedAt:  now,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if variant == VariantGame {
		s.Game = newGameState()
	}
	s.Rounds = append(s.Rounds, newRound(1, s.targetCountForRound(1)))
	return s
}

// CurrentRound returns the open round. Every non-completed session has
// exactly one.
func (s *Session) CurrentRound() *Round {
	if len(s.Rounds) == 0 {
		return nil
	}
	return &s.Rounds[len(s.Rounds)-1]
}

// Accuracy is hits over throws, 0 when no throws were recorded.
func (s *Session) Accuracy() float64 {
	if s.Throws == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Throws)
}

// TargetReached reports whether the session target has been met. It is an
// advisory signal: recording past the target stays permitted. Pitch counts
// hits, blast tops out when a round placing the target cap has been cleared,
// and the other variants count throws.
func (s *Session) TargetReached() bool {
	if s.Target <= 0 {
		return false
	}
	switch s.Variant {
	case VariantPitch:
		return s.Hits >= s.Target
	case VariantBlast:
		top := s.blastTargetCap()
		for i := range s.Rounds {
			if s.Rounds[i].TargetCount >= top && s.Rounds[i].Completed {
				return true
			}
		}
		return false
	default:
		return s.Throws >= s.Target
	}
}

// CurrentSide returns the side the next continuous-scoring cast is aimed at.
// It alternates strictly by parity of the throws recorded so far and is
// derived, never stored.
func (s *Session) CurrentSide() Side {
	if s.Throws%2 == 0 {
		return SideLeft
	}
	return SideRight
}

// RecordThrow appends a throw to the open round, updates the counters, and
// applies the variant's round-progression rules. It fails on completed or
// paused sessions.
func (s *Session) RecordThrow(o Outcome, now time.Time) error {
	if s.Completed {
		return fmt.Errorf("record throw on completed session: %w", ErrInvalidState)
	}
	if s.Paused {
		return fmt.Errorf("record throw on paused session: %w", ErrInvalidState)
	}
	r := s.CurrentRound()
	if r == nil || r.Completed {
		return fmt.Errorf("no open round: %w", ErrInvalidState)
	}
	if err := s.beforeThrow(r); err != nil {
		return err
	}
	t := newThrow(s.normalizeOutcome(o), len(r.Throws)+1, now)
	r.Throws = append(r.Throws, t)
	s.Throws++
	if t.Hit {
		s.Hits++
	}
	s.touch(now)
	s.afterThrow(r, t)
	return nil
}

// Pause suspends an active session, stamping the end time for elapsed-time
// bookkeeping. Counters stay untouched.
func (s *Session) Pause(now time.Time) error {
	if s.Completed {
		return fmt.Errorf("pause completed session: %w", ErrInvalidState)
	}
	if s.Paused {
		return nil
	}
	s.Paused = true
	s.EndedAt = now
	s.touch(now)
	return nil
}

// Resume reactivates a paused session and clears the stamped end time.
func (s *Session) Resume(now time.Time) error {
	if s.Completed {
		return fmt.Errorf("resume completed session: %w", ErrInvalidState)
	}
	if !s.Paused {
		return nil
	}
	s.Paused = false
	s.EndedAt = time.Time{}
	s.touch(now)
	return nil
}

// Complete terminates the session. No further mutation is permitted
// afterwards.
func (s *Session) Complete(now time.Time) error {
	if s.Completed {
		return fmt.Errorf("complete completed session: %w", ErrInvalidState)
	}
	s.Completed = true
	s.Paused = false
	s.EndedAt = now
	if r := s.CurrentRound(); r != nil {
		r.Completed = true
	}
	s.touch(now)
	return nil
}

// AutoComplete applies the stale-session rule: a session created on an
// earlier calendar date than today is marked complete in place. Only the
// end time is back-filled; ModifiedAt stays untouched so the session is not
// designated as recently changed. Returns true when the rule fired.
// Re-evaluating a completed session is a no-op.
func (s *Session) AutoComplete(today time.Time) bool {
	if s.Completed {
		return false
	}
	cy, cm, cd := s.CreatedAt.Date()
	ty, tm, td := today.Date()
	if cy == ty && cm == tm && cd == td {
		return false
	}
	s.Completed = true
	s.Paused = false
	if s.EndedAt.IsZero() {
		s.EndedAt = s.ModifiedAt
	}
	if r := s.CurrentRound(); r != nil {
		r.Completed = true
	}
	return true
}

// Duration returns the elapsed session time, using now for running sessions.
func (s *Session) Duration(now time.Time) time.Duration {
	end := s.EndedAt
	if end.IsZero() {
		end = now
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

func (s *Session) touch(now time.Time) {
	if now.After(s.ModifiedAt) {
		s.ModifiedAt = now
	}
}

func (s *Session) openNextRound() {
	n := len(s.Rounds) + 1
	s.Rounds = append(s.Rounds, newRound(n, s.targetCountForRound(n)))
}
