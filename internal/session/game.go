package session

import "fmt"

// Phase is a turn-structure state of the full-game simulation.
type Phase string

const (
	// PhaseAttacking is the baton-throwing phase.
	PhaseAttacking Phase = "attacking"
	// PhaseInkast is the phase where field targets are cast in.
	PhaseInkast Phase = "inkast"
	// PhaseRoundComplete closes out the current round.
	PhaseRoundComplete Phase = "round_complete"
)

// GameState carries the full-game simulation payload: the phase cycle and
// the two team target pools. The pools only ever decrease and clamp at zero.
type GameState struct {
	Round          int
	Phase          Phase
	InkastDone     bool // inkast already ran this round
	FieldRemaining int  // field targets still standing this round
	HomeLine       int
	AwayLine       int
}

func newGameState() *GameState {
	return &GameState{
		Round:    1,
		Phase:    PhaseAttacking,
		HomeLine: BaselineTargets,
		AwayLine: BaselineTargets,
	}
}

// AttackThrowCeiling returns the maximum casts permitted in the attacking
// phase of a round. This is a hard game-rule table, not a formula.
func AttackThrowCeiling(round int) int {
	switch {
	case round <= 1:
		return 2
	case round == 2:
		return 4
	default:
		return 6
	}
}

// ExpectedResourceCost maps targets placed in a round to the casts a player
// is expected to spend clearing them. Handicap statistics depend on this
// table matching exactly.
func ExpectedResourceCost(targets int) int {
	switch {
	case targets <= 0:
		return 0
	case targets <= 2:
		return 1
	case targets <= 4:
		return 2
	case targets <= 7:
		return 3
	case targets <= 10:
		return 4
	default:
		// ceil((n+1)/2)
		return (targets + 2) / 2
	}
}

// AdvancePhase moves the game to its next phase following the transition
// table: attacking goes to round-complete in round 1 (no field targets yet)
// and to inkast otherwise, inkast returns to attacking, and round-complete
// opens the next round's attacking phase.
func (s *Session) AdvancePhase() error {
	if s.Variant != VariantGame || s.Game == nil {
		return fmt.Errorf("advance phase on %s session: %w", s.Variant, ErrInvalidState)
	}
	if s.Completed {
		return fmt.Errorf("advance phase on completed session: %w", ErrInvalidState)
	}
	g := s.Game
	switch g.Phase {
	case PhaseAttacking:
		if g.Round == 1 || g.InkastDone {
			g.Phase = PhaseRoundComplete
		} else {
			g.Phase = PhaseInkast
		}
	case PhaseInkast:
		g.InkastDone = true
		g.FieldRemaining = s.CurrentRound().TargetCount
		g.Phase = PhaseAttacking
	case PhaseRoundComplete:
		if r := s.CurrentRound(); r != nil {
			r.Completed = true
		}
		s.openNextRound()
		g.Round++
		g.Phase = PhaseAttacking
		g.InkastDone = false
		g.FieldRemaining = 0
	}
	return nil
}

// gameAfterThrow applies the full-game rules for a recorded cast. Inkast
// hits add to the round's target count; attacking hits knock field targets
// first, then the away line. The attacking phase advances automatically once
// its cast ceiling is reached.
func (s *Session) gameAfterThrow(r *Round, t Throw) {
	g := s.Game
	switch g.Phase {
	case PhaseInkast:
		if t.Hit {
			r.TargetCount += t.EffectiveUnits()
		}
	case PhaseAttacking:
		if t.Hit {
			units := t.EffectiveUnits()
			if g.FieldRemaining > 0 {
				g.FieldRemaining -= units
				if g.FieldRemaining < 0 {
					units = -g.FieldRemaining
					g.FieldRemaining = 0
				} else {
					units = 0
				}
			}
			if units > 0 {
				g.AwayLine -= units
				if g.AwayLine < 0 {
					g.AwayLine = 0
				}
			}
		}
		if attackingCasts(r) >= AttackThrowCeiling(g.Round) {
			// Ceiling reached; the phase ends whether or not targets remain.
			_ = s.AdvancePhase()
		}
	}
}

// attackingCasts counts the scoring casts of a game round, recomputed from
// the throw list on every call.
func attackingCasts(r *Round) int {
	return r.CastCount()
}
