package stats

import "github.com/verte-zerg/kubbtrack/internal/session"

// Handicap averages the performance-vs-target values of the given rounds.
// Rounds without placed targets (round 1 of a game) carry no value and are
// skipped. The second return is the number of rounds that counted; 0 means
// the handicap is undefined and the mean is 0.
func Handicap(rounds []session.Round) (float64, int) {
	var sum float64
	counted := 0
	for i := range rounds {
		v, ok := rounds[i].PerformanceVsTarget()
		if !ok {
			continue
		}
		sum += v
		counted++
	}
	if counted == 0 {
		return 0, 0
	}
	return sum / float64(counted), counted
}

// SessionHandicap computes the handicap over a single session's rounds.
func SessionHandicap(s *session.Session) (float64, int) {
	return Handicap(s.Rounds)
}

// CollectionHandicap computes the handicap over all rounds of all sessions.
func CollectionHandicap(sessions []*session.Session) (float64, int) {
	var rounds []session.Round
	for _, s := range sessions {
		rounds = append(rounds, s.Rounds...)
	}
	return Handicap(rounds)
}
