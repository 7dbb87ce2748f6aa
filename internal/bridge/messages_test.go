package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

var testStart = time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

func TestBuildContextNilSession(t *testing.T) {
	ctx := BuildContext(nil)
	if ctx.IsActive {
		t.Fatalf("nil session must project as inactive")
	}
	if ctx.SessionID != "" {
		t.Fatalf("nil session must carry no id")
	}
}

func TestBuildContextStandard(t *testing.T) {
	s := session.New(session.VariantStandard, 30, testStart)
	if err := s.RecordThrow(session.Outcome{Hit: true}, testStart.Add(time.Second)); err != nil {
		t.Fatalf("record: %v", err)
	}
	ctx := BuildContext(s)
	if !ctx.IsActive {
		t.Fatalf("running session must be active")
	}
	if ctx.SessionID != s.ID || ctx.Title != "Standard Practice" {
		t.Fatalf("unexpected header: %+v", ctx)
	}
	if len(ctx.Items) == 0 {
		t.Fatalf("expected context items")
	}
	last := ctx.Items[len(ctx.Items)-1]
	if last.Label != "Accuracy" || last.Value != "100%" || last.Tier != "excellent" {
		t.Fatalf("unexpected accuracy item: %+v", last)
	}
}

func TestBuildContextPausedInactive(t *testing.T) {
	s := session.New(session.VariantPitch, 20, testStart)
	if err := s.Pause(testStart.Add(time.Minute)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if BuildContext(s).IsActive {
		t.Fatalf("paused session must project as inactive")
	}
}

func TestBuildContextGamePhase(t *testing.T) {
	s := session.New(session.VariantGame, 0, testStart)
	ctx := BuildContext(s)
	found := false
	for _, item := range ctx.Items {
		if item.Label == "Phase" && item.Value == string(session.PhaseAttacking) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected phase item, got %+v", ctx.Items)
	}
}

func TestBuildInputConfigShapes(t *testing.T) {
	pitch := session.New(session.VariantPitch, 20, testStart)
	if cfg := BuildInputConfig(pitch); cfg.Shape != InputHitMiss || len(cfg.Options) != 2 {
		t.Fatalf("unexpected pitch config: %+v", cfg)
	}

	standard := session.New(session.VariantStandard, 30, testStart)
	cfg := BuildInputConfig(standard)
	if cfg.Shape != InputHitMiss || len(cfg.Options) != 3 {
		t.Fatalf("unexpected standard config: %+v", cfg)
	}
	if cfg.Options[2].Tag != string(session.TagKing) {
		t.Fatalf("expected king option, got %+v", cfg.Options[2])
	}

	blast := session.New(session.VariantBlast, 10, testStart)
	if cfg := BuildInputConfig(blast); cfg.Shape != InputMultiUnit {
		t.Fatalf("blast should use multi-unit input, got %+v", cfg)
	}
}

type fakeRecorder struct {
	active  *session.Session
	applied bool
}

func (f *fakeRecorder) RecordThrow(_ context.Context, id string, o session.Outcome) (bool, error) {
	if f.active == nil || f.active.ID != id {
		return false, nil
	}
	if err := f.active.RecordThrow(o, testStart.Add(time.Minute)); err != nil {
		return false, err
	}
	f.applied = true
	return true, nil
}

func (f *fakeRecorder) ActiveByID(id string) *session.Session {
	if f.active != nil && f.active.ID == id {
		return f.active
	}
	return nil
}

func TestHandleEventMismatchedIDIgnored(t *testing.T) {
	rec := &fakeRecorder{active: session.New(session.VariantStandard, 30, testStart)}
	h := NewHub(rec)
	h.handleEvent(context.Background(), ThrowEvent{SessionID: "someone-else", IsHit: true})
	if rec.applied {
		t.Fatalf("mismatched id must not record a throw")
	}
	if rec.active.Throws != 0 {
		t.Fatalf("session must be untouched")
	}
}

func TestAnnounceDoesNotBlockAfterShutdown(t *testing.T) {
	h := NewHub(&fakeRecorder{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		h.AnnounceSession(session.New(session.VariantStandard, 30, testStart))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("announce must not block once the hub stopped")
	}
}

func TestHandleEventAppliesAndBroadcasts(t *testing.T) {
	rec := &fakeRecorder{active: session.New(session.VariantStandard, 30, testStart)}
	h := NewHub(rec)

	done := make(chan struct{})
	go func() {
		// Two frames per applied event: context then input config.
		<-h.broadcast
		<-h.broadcast
		close(done)
	}()

	h.handleEvent(context.Background(), ThrowEvent{SessionID: rec.active.ID, IsHit: true, UnitsAffected: 2})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected broadcast after applied event")
	}
	if rec.active.Throws != 1 || rec.active.Hits != 1 {
		t.Fatalf("event not applied: %+v", rec.active)
	}
}
