package session

import (
	"errors"
	"testing"
	"time"
)

var testStart = time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

func at(offset int) time.Time {
	return testStart.Add(time.Duration(offset) * time.Second)
}

func recordN(t *testing.T, s *Session, n int, hit bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.RecordThrow(Outcome{Hit: hit}, at(s.Throws+1)); err != nil {
			t.Fatalf("record throw: %v", err)
		}
	}
}

func TestStandardRoundClosesOnBaselineClear(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	recordN(t, s, 5, true)
	if err := s.RecordThrow(Outcome{Hit: false}, at(6)); err != nil {
		t.Fatalf("record miss: %v", err)
	}

	if len(s.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(s.Rounds))
	}
	if !s.Rounds[0].Completed {
		t.Fatalf("round 1 should be completed")
	}
	if s.Rounds[1].Completed {
		t.Fatalf("round 2 should be open")
	}
	if s.Hits != 5 || s.Throws != 6 {
		t.Fatalf("expected hits=5 throws=6, got hits=%d throws=%d", s.Hits, s.Throws)
	}
	if acc := s.Accuracy(); acc < 0.83 || acc > 0.84 {
		t.Fatalf("expected accuracy ~0.833, got %f", acc)
	}
}

func TestStandardRoundClosesOnCastCeiling(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	recordN(t, s, RoundCastCeiling, false)
	if !s.Rounds[0].Completed {
		t.Fatalf("round should close after %d casts", RoundCastCeiling)
	}
	if len(s.Rounds) != 2 {
		t.Fatalf("expected a new round to open, got %d rounds", len(s.Rounds))
	}
}

func TestPitchRoundNeverCloses(t *testing.T) {
	s := New(VariantPitch, 20, testStart)
	recordN(t, s, 25, true)
	if len(s.Rounds) != 1 {
		t.Fatalf("expected a single open round, got %d", len(s.Rounds))
	}
	if s.Rounds[0].Completed {
		t.Fatalf("continuous round must stay open")
	}
	if !s.TargetReached() {
		t.Fatalf("score target should be reached")
	}
}

func TestPitchSideAlternatesByParity(t *testing.T) {
	s := New(VariantPitch, 20, testStart)
	if s.CurrentSide() != SideLeft {
		t.Fatalf("expected left side first, got %s", s.CurrentSide())
	}
	recordN(t, s, 1, true)
	if s.CurrentSide() != SideRight {
		t.Fatalf("expected right side after one throw, got %s", s.CurrentSide())
	}
	recordN(t, s, 1, false)
	if s.CurrentSide() != SideLeft {
		t.Fatalf("expected left side after two throws, got %s", s.CurrentSide())
	}
}

func TestBlastRoundsCloseWhenTargetsClear(t *testing.T) {
	s := New(VariantBlast, 10, testStart)
	if s.Rounds[0].TargetCount != 1 {
		t.Fatalf("round 1 should place 1 target, got %d", s.Rounds[0].TargetCount)
	}
	recordN(t, s, 1, true)
	if !s.Rounds[0].Completed {
		t.Fatalf("round 1 should close after clearing its target")
	}
	r2 := s.CurrentRound()
	if r2.Number != 2 || r2.TargetCount != 2 {
		t.Fatalf("round 2 should place 2 targets, got number=%d targets=%d", r2.Number, r2.TargetCount)
	}

	// A multi-unit cast clears the whole round at once.
	if err := s.RecordThrow(Outcome{Hit: true, Units: 2}, at(2)); err != nil {
		t.Fatalf("record throw: %v", err)
	}
	if !s.Rounds[1].Completed {
		t.Fatalf("round 2 should close on a 2-unit hit")
	}
}

func TestBlastTargetReachedWhenCapRoundCleared(t *testing.T) {
	s := New(VariantBlast, 3, testStart)
	recordN(t, s, 1, true) // clears round 1
	if err := s.RecordThrow(Outcome{Hit: true, Units: 2}, at(2)); err != nil {
		t.Fatalf("clear round 2: %v", err)
	}

	// Four throws so far but the top rung is still open: the throw count
	// alone must not reach the target.
	recordN(t, s, 2, true)
	if s.TargetReached() {
		t.Fatalf("target reported reached before the cap round cleared")
	}

	if err := s.RecordThrow(Outcome{Hit: true}, at(9)); err != nil {
		t.Fatalf("clear round 3: %v", err)
	}
	if !s.TargetReached() {
		t.Fatalf("clearing the cap round should reach the target")
	}
}

func TestRecordThrowRejectedAfterComplete(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	recordN(t, s, 3, true)
	if err := s.Complete(at(10)); err != nil {
		t.Fatalf("complete: %v", err)
	}

	hits, throws, rounds := s.Hits, s.Throws, len(s.Rounds)
	err := s.RecordThrow(Outcome{Hit: true}, at(11))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if s.Hits != hits || s.Throws != throws || len(s.Rounds) != rounds {
		t.Fatalf("completed session was mutated")
	}
}

func TestHitsNeverExceedThrows(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	for i := 0; i < 20; i++ {
		if s.Hits < 0 || s.Hits > s.Throws {
			t.Fatalf("invariant violated: hits=%d throws=%d", s.Hits, s.Throws)
		}
		if err := s.RecordThrow(Outcome{Hit: i%3 != 0}, at(i+1)); err != nil {
			t.Fatalf("record throw: %v", err)
		}
	}
	if s.Hits < 0 || s.Hits > s.Throws {
		t.Fatalf("invariant violated: hits=%d throws=%d", s.Hits, s.Throws)
	}
}

func TestPauseResumeLifecycle(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	recordN(t, s, 2, true)

	if err := s.Pause(at(10)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if s.EndedAt.IsZero() {
		t.Fatalf("pause should stamp the end time")
	}
	if err := s.RecordThrow(Outcome{Hit: true}, at(11)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState while paused, got %v", err)
	}

	if err := s.Resume(at(12)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !s.EndedAt.IsZero() {
		t.Fatalf("resume should clear the end time")
	}
	if err := s.RecordThrow(Outcome{Hit: true}, at(13)); err != nil {
		t.Fatalf("record after resume: %v", err)
	}
}

func TestAutoCompleteByCalendarDate(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	recordN(t, s, 4, true)
	modified := s.ModifiedAt

	today := testStart.Add(24 * time.Hour)
	if !s.AutoComplete(today) {
		t.Fatalf("expected auto-completion for a session dated yesterday")
	}
	if !s.Completed {
		t.Fatalf("session should be complete")
	}
	if s.EndedAt.IsZero() {
		t.Fatalf("end time should be back-filled")
	}
	if !s.ModifiedAt.Equal(modified) {
		t.Fatalf("ModifiedAt must stay untouched, got %v", s.ModifiedAt)
	}

	// Second evaluation is a no-op.
	ended := s.EndedAt
	if s.AutoComplete(today.Add(24 * time.Hour)) {
		t.Fatalf("auto-completion must apply exactly once")
	}
	if !s.EndedAt.Equal(ended) || !s.ModifiedAt.Equal(modified) {
		t.Fatalf("repeated evaluation mutated the session")
	}
}

func TestAutoCompleteSameDayDoesNothing(t *testing.T) {
	s := New(VariantStandard, 30, testStart)
	if s.AutoComplete(testStart.Add(3 * time.Hour)) {
		t.Fatalf("same-day session must not auto-complete")
	}
	if s.Completed {
		t.Fatalf("session should still be active")
	}
}

func TestTargetReachedIsAdvisoryOnly(t *testing.T) {
	s := New(VariantStandard, 3, testStart)
	recordN(t, s, 3, true)
	if !s.TargetReached() {
		t.Fatalf("target should be reached")
	}
	// Recording past the target stays permitted.
	if err := s.RecordThrow(Outcome{Hit: false}, at(4)); err != nil {
		t.Fatalf("record past target: %v", err)
	}
	if s.Throws != 4 {
		t.Fatalf("expected 4 throws, got %d", s.Throws)
	}
}

func TestParseVariant(t *testing.T) {
	for _, v := range Variants {
		got, err := ParseVariant(string(v))
		if err != nil || got != v {
			t.Fatalf("parse %q: got %q err %v", v, got, err)
		}
	}
	if _, err := ParseVariant("bowling"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
