// Package stats contains statistics calculations and reporting over
// completed sessions. Everything here is a pure function of its input:
// empty collections yield documented zero values, never errors.
package stats

import (
	"github.com/verte-zerg/kubbtrack/internal/session"
)

// recentFormWindow is the number of most recent sessions compared against
// the full history.
const recentFormWindow = 5

// Accuracy is hits over throws, 0 when no throws were recorded.
func Accuracy(hits, throws int) float64 {
	if throws <= 0 {
		return 0
	}
	return float64(hits) / float64(throws)
}

// BestStreak returns the longest run of consecutive hits across the
// session's throws in round/throw order. A miss resets the run; inkast
// casts are skipped as non-scoring.
func BestStreak(s *session.Session) int {
	best, run := 0, 0
	for _, r := range s.Rounds {
		for _, t := range r.Throws {
			if t.Tag == session.TagInkast {
				continue
			}
			if t.Hit {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
	}
	return best
}

// Overall summarizes a collection of sessions.
type Overall struct {
	Sessions   int
	Throws     int
	Hits       int
	Accuracy   float64
	BestStreak int
}

// Summarize folds sessions into overall counters. The best streak is the
// maximum per-session streak; runs do not continue across sessions.
func Summarize(sessions []*session.Session) Overall {
	var o Overall
	o.Sessions = len(sessions)
	for _, s := range sessions {
		o.Throws += s.Throws
		o.Hits += s.Hits
		if streak := BestStreak(s); streak > o.BestStreak {
			o.BestStreak = streak
		}
	}
	o.Accuracy = Accuracy(o.Hits, o.Throws)
	return o
}

// Form compares recent accuracy against the whole history.
type Form struct {
	Recent  float64 // average accuracy of the most recent sessions
	Overall float64 // average accuracy of all sessions
	Window  int     // sessions in the recent window
}

// RecentForm averages the accuracy of the most recent sessions (at most
// five) against the average over all sessions. Sessions are expected in
// chronological order.
func RecentForm(sessions []*session.Session) Form {
	if len(sessions) == 0 {
		return Form{}
	}
	accs := accuracySeries(sessions)
	window := recentFormWindow
	if window > len(accs) {
		window = len(accs)
	}
	return Form{
		Recent:  mean(accs[len(accs)-window:]),
		Overall: mean(accs),
		Window:  window,
	}
}

// Consistency scores how stable session accuracy is: 1/(1+variance) when at
// least two sessions exist, else 0.
func Consistency(sessions []*session.Session) float64 {
	if len(sessions) < 2 {
		return 0
	}
	accs := accuracySeries(sessions)
	m := mean(accs)
	var variance float64
	for _, a := range accs {
		d := a - m
		variance += d * d
	}
	variance /= float64(len(accs))
	return 1 / (1 + variance)
}

// Zone is an accuracy performance band.
type Zone string

const (
	// ZoneExcellent covers accuracy in [0.9, 1.0].
	ZoneExcellent Zone = "excellent"
	// ZoneGood covers accuracy in [0.7, 0.9).
	ZoneGood Zone = "good"
	// ZoneAverage covers accuracy in [0.5, 0.7).
	ZoneAverage Zone = "average"
	// ZoneNeedsWork covers everything below 0.5.
	ZoneNeedsWork Zone = "needs-work"
)

// ZoneOf maps an accuracy value to its performance band.
func ZoneOf(accuracy float64) Zone {
	switch {
	case accuracy >= 0.9:
		return ZoneExcellent
	case accuracy >= 0.7:
		return ZoneGood
	case accuracy >= 0.5:
		return ZoneAverage
	default:
		return ZoneNeedsWork
	}
}

// ZoneCounts partitions sessions by accuracy band.
type ZoneCounts struct {
	Excellent int
	Good      int
	Average   int
	NeedsWork int
}

// Zones counts sessions per performance band.
func Zones(sessions []*session.Session) ZoneCounts {
	var z ZoneCounts
	for _, s := range sessions {
		switch ZoneOf(s.Accuracy()) {
		case ZoneExcellent:
			z.Excellent++
		case ZoneGood:
			z.Good++
		case ZoneAverage:
			z.Average++
		default:
			z.NeedsWork++
		}
	}
	return z
}

// AccuracySeries returns per-session accuracy in input order, for trend
// rendering.
func AccuracySeries(sessions []*session.Session) []float64 {
	return accuracySeries(sessions)
}

func accuracySeries(sessions []*session.Session) []float64 {
	accs := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i] = s.Accuracy()
	}
	return accs
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
