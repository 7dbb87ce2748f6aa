package session

import "fmt"

// Rule constants shared by the variants.
const (
	// BaselineTargets is the number of primary targets on a line.
	BaselineTargets = 5
	// RoundCastCeiling is the fixed casts-per-round ceiling for standard
	// practice (one set of batons).
	RoundCastCeiling = 6
	// BlastMaxTargets caps the per-round target count for the inkast-blast
	// drill.
	BlastMaxTargets = 10
)

// blastTargetCap returns the per-round target ceiling of a blast session:
// the session target clamped to the drill maximum.
func (s *Session) blastTargetCap() int {
	top := s.Target
	if top <= 0 || top > BlastMaxTargets {
		top = BlastMaxTargets
	}
	return top
}

// targetCountForRound returns the targets placed for a newly opened round.
// Only the blast variant assigns per-round targets up front; game rounds
// accumulate theirs during the inkast phase.
func (s *Session) targetCountForRound(number int) int {
	if s.Variant != VariantBlast {
		return 0
	}
	top := s.blastTargetCap()
	if number > top {
		return top
	}
	return number
}

// normalizeOutcome adjusts a reported outcome for the session state. Casts
// recorded during the game inkast phase are tagged as inkasts regardless of
// what the caller sent.
func (s *Session) normalizeOutcome(o Outcome) Outcome {
	if s.Variant == VariantGame && s.Game != nil && s.Game.Phase == PhaseInkast {
		o.Tag = TagInkast
	}
	return o
}

// beforeThrow validates that the variant permits recording into the open
// round. The game variant rejects casts in the round-complete phase and
// attacking casts past the round's cast ceiling; the ceiling is a per-round
// total, so a second attacking segment after inkast cannot reopen it.
func (s *Session) beforeThrow(r *Round) error {
	if s.Variant != VariantGame || s.Game == nil {
		return nil
	}
	switch s.Game.Phase {
	case PhaseRoundComplete:
		return fmt.Errorf("record throw in %s phase: %w", PhaseRoundComplete, ErrInvalidState)
	case PhaseAttacking:
		if r.CastCount() >= AttackThrowCeiling(s.Game.Round) {
			return fmt.Errorf("attacking cast ceiling reached: %w", ErrInvalidState)
		}
	}
	return nil
}

// afterThrow applies the variant's progression rules once a throw has been
// appended. The round-closure predicates are recomputed from the throw list
// every time; nothing is cached.
func (s *Session) afterThrow(r *Round, t Throw) {
	switch s.Variant {
	case VariantStandard:
		if standardRoundComplete(r) {
			r.Completed = true
			s.openNextRound()
		}
	case VariantPitch:
		// Continuous scoring: the single round never closes.
	case VariantBlast:
		if blastRoundComplete(r) {
			r.Completed = true
			s.openNextRound()
		}
	case VariantGame:
		s.gameAfterThrow(r, t)
	}
}

// standardRoundComplete closes a round once the baseline is cleared or the
// cast ceiling is reached.
func standardRoundComplete(r *Round) bool {
	return r.Hits() >= BaselineTargets || r.CastCount() >= RoundCastCeiling
}

// blastRoundComplete closes a round once every target placed for it has
// been cleared.
func blastRoundComplete(r *Round) bool {
	return r.TargetCount > 0 && r.ClearedUnits() >= r.TargetCount
}
