package stats

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

// buildBlast clears rounds of a blast session with the given casts per
// round: each entry is the cast outcomes for one round, in order.
func buildBlast(t *testing.T, rounds [][]session.Outcome) *session.Session {
	t.Helper()
	s := session.New(session.VariantBlast, 10, testStart)
	i := 0
	for _, casts := range rounds {
		for _, o := range casts {
			i++
			if err := s.RecordThrow(o, testStart.Add(time.Duration(i)*time.Second)); err != nil {
				t.Fatalf("record throw: %v", err)
			}
		}
	}
	if err := s.Complete(testStart.Add(time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return s
}

func TestBucketForClassifier(t *testing.T) {
	cases := []struct {
		targets int
		want    Bucket
	}{
		{1, BucketEarly},
		{3, BucketEarly},
		{4, BucketMid},
		{7, BucketMid},
		{8, BucketEnd},
		{10, BucketEnd},
		{0, BucketAll},
		{11, BucketAll},
	}
	for _, c := range cases {
		if got := BucketFor(c.targets); got != c.want {
			t.Fatalf("BucketFor(%d) = %s, want %s", c.targets, got, c.want)
		}
	}
}

func TestSegmentRoundsFirstCastRate(t *testing.T) {
	// Round 1 (1 target): cleared on the first cast.
	// Round 2 (2 targets): first cast misses, then two single hits.
	// Round 3 (3 targets): first cast clears all three.
	s := buildBlast(t, [][]session.Outcome{
		{{Hit: true}},
		{{Hit: false}, {Hit: true}, {Hit: true}},
		{{Hit: true, Units: 3}},
	})
	buckets := SegmentRounds([]*session.Session{s})
	early, ok := buckets[BucketEarly]
	if !ok {
		t.Fatalf("expected early bucket")
	}
	if early.Rounds != 3 || early.TargetsPlaced != 6 {
		t.Fatalf("unexpected early bucket: %+v", early)
	}
	// First casts cleared 1 + 0 + 3 of 6 placed targets.
	if math.Abs(early.FirstCastRate-4.0/6.0) > 1e-9 {
		t.Fatalf("expected first-cast rate 4/6, got %f", early.FirstCastRate)
	}
}

func TestSegmentRoundsEmpty(t *testing.T) {
	if got := SegmentRounds(nil); len(got) != 0 {
		t.Fatalf("expected no buckets, got %+v", got)
	}
}

func TestHandicapMean(t *testing.T) {
	// 3 targets cleared in 1 cast: expected 2, used 1, value +1.
	// 2 targets cleared in 3 casts: expected 1, used 3, value -2.
	rounds := []session.Round{
		blastRound(t, 3, []session.Outcome{{Hit: true, Units: 3}}),
		blastRound(t, 2, []session.Outcome{{Hit: false}, {Hit: true}, {Hit: true}}),
	}
	mean, counted := Handicap(rounds)
	if counted != 2 {
		t.Fatalf("expected 2 counted rounds, got %d", counted)
	}
	if math.Abs(mean-(-0.5)) > 1e-9 {
		t.Fatalf("expected mean -0.5, got %f", mean)
	}
}

func TestHandicapEmptyAndUndefined(t *testing.T) {
	if mean, counted := Handicap(nil); mean != 0 || counted != 0 {
		t.Fatalf("empty rounds: expected 0,0 got %f,%d", mean, counted)
	}
	// A round without placed targets carries no handicap.
	rounds := []session.Round{{Number: 1}}
	if _, counted := Handicap(rounds); counted != 0 {
		t.Fatalf("round without targets must not count")
	}
}

// blastRound builds a standalone round with a fixed target count and casts.
func blastRound(t *testing.T, targets int, casts []session.Outcome) session.Round {
	t.Helper()
	s := session.New(session.VariantBlast, 10, testStart)
	// Walk the session forward until the open round places the wanted
	// target count, clearing each round with one multi-unit hit.
	i := 0
	for s.CurrentRound().TargetCount != targets {
		i++
		err := s.RecordThrow(session.Outcome{Hit: true, Units: s.CurrentRound().TargetCount}, testStart.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("advance round: %v", err)
		}
	}
	idx := len(s.Rounds) - 1
	for _, o := range casts {
		i++
		if err := s.RecordThrow(o, testStart.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record cast: %v", err)
		}
	}
	return s.Rounds[idx]
}
