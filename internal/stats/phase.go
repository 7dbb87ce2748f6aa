package stats

import "github.com/verte-zerg/kubbtrack/internal/session"

// Bucket segments rounds by how many targets they placed.
type Bucket string

const (
	// BucketEarly covers rounds with 1-3 targets.
	BucketEarly Bucket = "early"
	// BucketMid covers rounds with 4-7 targets.
	BucketMid Bucket = "mid"
	// BucketEnd covers rounds with 8-10 targets.
	BucketEnd Bucket = "end"
	// BucketAll catches every other target count.
	BucketAll Bucket = "all"
)

// Buckets lists the segments in report order.
var Buckets = []Bucket{BucketEarly, BucketMid, BucketEnd, BucketAll}

// BucketFor classifies a round's target count.
func BucketFor(targets int) Bucket {
	switch {
	case targets >= 1 && targets <= 3:
		return BucketEarly
	case targets >= 4 && targets <= 7:
		return BucketMid
	case targets >= 8 && targets <= 10:
		return BucketEnd
	default:
		return BucketAll
	}
}

// BucketStats aggregates rounds of one target-count segment.
type BucketStats struct {
	Bucket        Bucket
	Rounds        int
	TargetsPlaced int
	FirstCastRate float64 // targets cleared by the first cast over targets placed
	Handicap      float64
	HandicapN     int
}

// SegmentRounds groups the rounds of the given sessions into target-count
// buckets and aggregates first-cast success and handicap per bucket.
// Rounds without placed targets are ignored.
func SegmentRounds(sessions []*session.Session) map[Bucket]BucketStats {
	grouped := map[Bucket][]session.Round{}
	for _, s := range sessions {
		for _, r := range s.Rounds {
			if r.TargetCount <= 0 {
				continue
			}
			b := BucketFor(r.TargetCount)
			grouped[b] = append(grouped[b], r)
		}
	}
	out := map[Bucket]BucketStats{}
	for b, rounds := range grouped {
		out[b] = bucketStats(b, rounds)
	}
	return out
}

func bucketStats(b Bucket, rounds []session.Round) BucketStats {
	st := BucketStats{Bucket: b, Rounds: len(rounds)}
	clearedFirst := 0
	for i := range rounds {
		st.TargetsPlaced += rounds[i].TargetCount
		clearedFirst += rounds[i].FirstCastCleared()
	}
	if st.TargetsPlaced > 0 {
		// (placed - out after first attempt) / placed.
		st.FirstCastRate = float64(clearedFirst) / float64(st.TargetsPlaced)
	}
	st.Handicap, st.HandicapN = Handicap(rounds)
	return st
}
