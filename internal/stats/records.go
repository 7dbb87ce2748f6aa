package stats

import (
	"time"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

// Records holds personal bests across a session collection.
type Records struct {
	BestAccuracy     float64
	BestAccuracyDate time.Time
	BestStreak       int
	MostHits         int
	MostThrows       int
}

// PersonalRecords scans sessions for personal bests. Sessions without
// throws do not count toward best accuracy.
func PersonalRecords(sessions []*session.Session) Records {
	var rec Records
	for _, s := range sessions {
		if s.Throws > 0 && s.Accuracy() > rec.BestAccuracy {
			rec.BestAccuracy = s.Accuracy()
			rec.BestAccuracyDate = s.CreatedAt
		}
		if streak := BestStreak(s); streak > rec.BestStreak {
			rec.BestStreak = streak
		}
		if s.Hits > rec.MostHits {
			rec.MostHits = s.Hits
		}
		if s.Throws > rec.MostThrows {
			rec.MostThrows = s.Throws
		}
	}
	return rec
}
