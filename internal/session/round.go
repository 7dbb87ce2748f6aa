package session

import "github.com/google/uuid"

// Round is an ordered accumulation of throws within a session. Rounds are
// only ever appended to and marked complete, never shrunk or deleted.
type Round struct {
	ID          string
	Number      int // 1-based, monotonic within the session
	TargetCount int // targets placed for this round; 0 for variants without per-round targets
	Throws      []Throw
	Completed   bool
}

func newRound(number, targetCount int) Round {
	return Round{
		ID:          uuid.NewString(),
		Number:      number,
		TargetCount: targetCount,
	}
}

// Hits counts scoring hits in the round. Inkast casts do not clear targets
// and are excluded.
func (r *Round) Hits() int {
	n := 0
	for _, t := range r.Throws {
		if t.Hit && t.Tag != TagInkast {
			n++
		}
	}
	return n
}

// CastCount counts scoring casts in the round, excluding inkast casts.
func (r *Round) CastCount() int {
	n := 0
	for _, t := range r.Throws {
		if t.Tag != TagInkast {
			n++
		}
	}
	return n
}

// ClearedUnits sums the targets cleared by scoring hits in the round.
func (r *Round) ClearedUnits() int {
	n := 0
	for _, t := range r.Throws {
		if t.Hit && t.Tag != TagInkast {
			n += t.EffectiveUnits()
		}
	}
	return n
}

// FirstCastCleared returns the targets cleared by the first scoring cast of
// the round, or 0 when the round has none or it missed.
func (r *Round) FirstCastCleared() int {
	for _, t := range r.Throws {
		if t.Tag == TagInkast {
			continue
		}
		if t.Hit {
			return t.EffectiveUnits()
		}
		return 0
	}
	return 0
}

// castsAfterInkast counts the scoring casts recorded after the round's final
// inkast cast. Rounds without inkast casts count every scoring cast.
func (r *Round) castsAfterInkast() int {
	n := 0
	for _, t := range r.Throws {
		if t.Tag == TagInkast {
			n = 0
			continue
		}
		n++
	}
	return n
}

// PerformanceVsTarget returns the round handicap value: expected resource
// cost for the targets placed minus the casts spent on them. Only casts
// taken after the targets were placed count; attacking casts from before
// the inkast are not charged against the cost table. Positive means fewer
// casts than expected. The second return is false when the value is
// undefined (no targets placed, as in round 1 of a game).
func (r *Round) PerformanceVsTarget() (float64, bool) {
	if r.TargetCount <= 0 {
		return 0, false
	}
	expected := ExpectedResourceCost(r.TargetCount)
	return float64(expected - r.castsAfterInkast()), true
}
