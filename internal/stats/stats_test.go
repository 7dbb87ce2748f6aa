package stats

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

var testStart = time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

// buildSession records the given outcomes into a fresh completed session.
func buildSession(t *testing.T, variant session.Variant, hits []bool) *session.Session {
	t.Helper()
	s := session.New(variant, 0, testStart)
	for i, hit := range hits {
		now := testStart.Add(time.Duration(i+1) * time.Second)
		if err := s.RecordThrow(session.Outcome{Hit: hit}, now); err != nil {
			t.Fatalf("record throw: %v", err)
		}
	}
	if err := s.Complete(testStart.Add(time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return s
}

func TestAccuracy(t *testing.T) {
	cases := []struct {
		hits, throws int
		want         float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 4, 0},
		{3, 4, 0.75},
		{6, 6, 1},
	}
	for _, c := range cases {
		if got := Accuracy(c.hits, c.throws); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("Accuracy(%d, %d) = %f, want %f", c.hits, c.throws, got, c.want)
		}
	}
}

func TestBestStreakResetsOnMiss(t *testing.T) {
	s := buildSession(t, session.VariantPitch, []bool{true, true, false, true, true, true, false})
	if got := BestStreak(s); got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
}

func TestSummarizeEmptyCollection(t *testing.T) {
	o := Summarize(nil)
	if o.Sessions != 0 || o.BestStreak != 0 || o.Accuracy != 0 {
		t.Fatalf("empty collection must yield zero values, got %+v", o)
	}
	z := Zones(nil)
	if z != (ZoneCounts{}) {
		t.Fatalf("empty collection must yield zero zones, got %+v", z)
	}
	f := RecentForm(nil)
	if f != (Form{}) {
		t.Fatalf("empty collection must yield zero form, got %+v", f)
	}
}

func TestRecentFormWindow(t *testing.T) {
	var sessions []*session.Session
	// Six sessions: five at 100%, one early session at 0%.
	sessions = append(sessions, buildSession(t, session.VariantPitch, []bool{false, false}))
	for i := 0; i < 5; i++ {
		sessions = append(sessions, buildSession(t, session.VariantPitch, []bool{true, true}))
	}
	f := RecentForm(sessions)
	if f.Window != 5 {
		t.Fatalf("expected window 5, got %d", f.Window)
	}
	if math.Abs(f.Recent-1) > 1e-9 {
		t.Fatalf("expected recent 1.0, got %f", f.Recent)
	}
	if math.Abs(f.Overall-5.0/6.0) > 1e-9 {
		t.Fatalf("expected overall 5/6, got %f", f.Overall)
	}
}

func TestConsistencyScore(t *testing.T) {
	if got := Consistency(nil); got != 0 {
		t.Fatalf("no sessions: expected 0, got %f", got)
	}
	one := []*session.Session{buildSession(t, session.VariantPitch, []bool{true})}
	if got := Consistency(one); got != 0 {
		t.Fatalf("single session: expected 0, got %f", got)
	}

	// Two identical sessions: variance 0, score 1.
	same := []*session.Session{
		buildSession(t, session.VariantPitch, []bool{true, true}),
		buildSession(t, session.VariantPitch, []bool{true, true}),
	}
	if got := Consistency(same); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical sessions: expected 1, got %f", got)
	}

	// Accuracies 1.0 and 0.0: variance 0.25, score 0.8.
	mixed := []*session.Session{
		buildSession(t, session.VariantPitch, []bool{true, true}),
		buildSession(t, session.VariantPitch, []bool{false, false}),
	}
	if got := Consistency(mixed); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("expected 0.8, got %f", got)
	}
}

func TestZoneBoundaries(t *testing.T) {
	cases := []struct {
		acc  float64
		want Zone
	}{
		{1.0, ZoneExcellent},
		{0.9, ZoneExcellent},
		{0.89, ZoneGood},
		{0.7, ZoneGood},
		{0.69, ZoneAverage},
		{0.5, ZoneAverage},
		{0.49, ZoneNeedsWork},
		{0, ZoneNeedsWork},
	}
	for _, c := range cases {
		if got := ZoneOf(c.acc); got != c.want {
			t.Fatalf("ZoneOf(%f) = %s, want %s", c.acc, got, c.want)
		}
	}
}

func TestZonesPartition(t *testing.T) {
	sessions := []*session.Session{
		buildSession(t, session.VariantPitch, []bool{true, true}),               // 1.0
		buildSession(t, session.VariantPitch, []bool{true, true, true, false}), // 0.75
		buildSession(t, session.VariantPitch, []bool{true, false}),             // 0.5
		buildSession(t, session.VariantPitch, []bool{false, false}),            // 0.0
	}
	z := Zones(sessions)
	want := ZoneCounts{Excellent: 1, Good: 1, Average: 1, NeedsWork: 1}
	if z != want {
		t.Fatalf("expected %+v, got %+v", want, z)
	}
}

func TestPersonalRecords(t *testing.T) {
	sessions := []*session.Session{
		buildSession(t, session.VariantPitch, []bool{true, false, true}),
		buildSession(t, session.VariantPitch, []bool{true, true, true, true, false}),
	}
	rec := PersonalRecords(sessions)
	if math.Abs(rec.BestAccuracy-0.8) > 1e-9 {
		t.Fatalf("expected best accuracy 0.8, got %f", rec.BestAccuracy)
	}
	if rec.BestStreak != 4 {
		t.Fatalf("expected best streak 4, got %d", rec.BestStreak)
	}
	if rec.MostHits != 4 || rec.MostThrows != 5 {
		t.Fatalf("unexpected records: %+v", rec)
	}
}

func TestMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	got := MovingAverage(values, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("empty values should render empty sparkline, got %q", got)
	}
	line := Sparkline([]float64{0, 0.5, 1})
	if len(line) != 3 {
		t.Fatalf("expected 3 cells, got %q", line)
	}
	flat := Sparkline([]float64{0.5, 0.5})
	if flat[0] != flat[1] {
		t.Fatalf("flat series should render uniform cells, got %q", flat)
	}
}
