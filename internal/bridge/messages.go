// Package bridge implements the wearable-device boundary: inbound throw
// events, the compact session projection the device renders, and the
// websocket transport carrying both. The message shape is the contract;
// there is no binary framing.
package bridge

import (
	"fmt"

	"github.com/verte-zerg/kubbtrack/internal/session"
	"github.com/verte-zerg/kubbtrack/internal/stats"
)

// ThrowEvent is an inbound throw reported by the wrist device. Events whose
// session id does not match the active session are silently ignored.
type ThrowEvent struct {
	SessionID     string `json:"sessionId"`
	IsHit         bool   `json:"isHit"`
	UnitsAffected int    `json:"unitsAffected,omitempty"`
	Tag           string `json:"tag,omitempty"`
}

// Outcome converts the event into a domain outcome.
func (e ThrowEvent) Outcome() session.Outcome {
	return session.Outcome{
		Hit:   e.IsHit,
		Units: e.UnitsAffected,
		Tag:   session.Tag(e.Tag),
	}
}

// ContextItem is one label/value pair of the device projection.
type ContextItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Tier  string `json:"tier"`
}

// SessionContext is the compact projection the device renders.
type SessionContext struct {
	SessionID string        `json:"sessionId"`
	Title     string        `json:"title"`
	Items     []ContextItem `json:"orderedContextItems"`
	IsActive  bool          `json:"isActive"`
}

// InputShape selects the input widget the device should present.
type InputShape string

const (
	// InputHitMiss is the plain two-button hit/miss widget.
	InputHitMiss InputShape = "hit_miss"
	// InputMultiUnit is the hit widget with a unit count.
	InputMultiUnit InputShape = "multi_unit"
)

// InputOption is one selectable entry of the input widget.
type InputOption struct {
	Label string `json:"label"`
	Hit   bool   `json:"hit"`
	Units int    `json:"units,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// InputConfig describes the input widget for the current session state.
type InputConfig struct {
	Shape   InputShape    `json:"throwInputShape"`
	Options []InputOption `json:"options"`
}

const tierNeutral = "neutral"

var variantTitles = map[session.Variant]string{
	session.VariantStandard: "Standard Practice",
	session.VariantPitch:    "Around the Pitch",
	session.VariantBlast:    "Inkast Blast",
	session.VariantGame:     "Full Game",
}

// BuildContext projects a session into the device's context message. A nil
// session yields an inactive context.
func BuildContext(s *session.Session) SessionContext {
	if s == nil {
		return SessionContext{IsActive: false}
	}
	ctx := SessionContext{
		SessionID: s.ID,
		Title:     variantTitles[s.Variant],
		IsActive:  !s.Completed && !s.Paused,
	}
	switch s.Variant {
	case session.VariantPitch:
		ctx.Items = append(ctx.Items,
			ContextItem{Label: "Score", Value: fmt.Sprintf("%d/%d", s.Hits, s.Target), Tier: tierNeutral},
			ContextItem{Label: "Side", Value: string(s.CurrentSide()), Tier: tierNeutral},
		)
	case session.VariantBlast:
		r := s.CurrentRound()
		ctx.Items = append(ctx.Items,
			ContextItem{Label: "Round", Value: fmt.Sprintf("%d", r.Number), Tier: tierNeutral},
			ContextItem{Label: "Cleared", Value: fmt.Sprintf("%d/%d", r.ClearedUnits(), r.TargetCount), Tier: tierNeutral},
		)
	case session.VariantGame:
		g := s.Game
		ctx.Items = append(ctx.Items,
			ContextItem{Label: "Round", Value: fmt.Sprintf("%d", g.Round), Tier: tierNeutral},
			ContextItem{Label: "Phase", Value: string(g.Phase), Tier: tierNeutral},
			ContextItem{Label: "Lines", Value: fmt.Sprintf("%d-%d", g.HomeLine, g.AwayLine), Tier: tierNeutral},
		)
	default:
		r := s.CurrentRound()
		ctx.Items = append(ctx.Items,
			ContextItem{Label: "Round", Value: fmt.Sprintf("%d", r.Number), Tier: tierNeutral},
			ContextItem{Label: "Throws", Value: fmt.Sprintf("%d/%d", s.Throws, s.Target), Tier: tierNeutral},
		)
	}
	acc := s.Accuracy()
	ctx.Items = append(ctx.Items, ContextItem{
		Label: "Accuracy",
		Value: fmt.Sprintf("%.0f%%", acc*100),
		Tier:  string(stats.ZoneOf(acc)),
	})
	return ctx
}

// BuildInputConfig describes which input widget fits the session's current
// state.
func BuildInputConfig(s *session.Session) InputConfig {
	if s == nil {
		return InputConfig{Shape: InputHitMiss}
	}
	switch s.Variant {
	case session.VariantBlast:
		return multiUnitConfig(3)
	case session.VariantGame:
		if s.Game != nil && s.Game.Phase == session.PhaseInkast {
			return multiUnitConfig(4)
		}
		return multiUnitConfig(3)
	case session.VariantStandard:
		return InputConfig{
			Shape: InputHitMiss,
			Options: []InputOption{
				{Label: "Hit", Hit: true},
				{Label: "Miss"},
				{Label: "King", Hit: true, Tag: string(session.TagKing)},
			},
		}
	default:
		return InputConfig{
			Shape: InputHitMiss,
			Options: []InputOption{
				{Label: "Hit", Hit: true},
				{Label: "Miss"},
			},
		}
	}
}

func multiUnitConfig(maxUnits int) InputConfig {
	cfg := InputConfig{Shape: InputMultiUnit}
	cfg.Options = append(cfg.Options, InputOption{Label: "Miss"})
	for u := 1; u <= maxUnits; u++ {
		cfg.Options = append(cfg.Options, InputOption{
			Label: fmt.Sprintf("Hit x%d", u),
			Hit:   true,
			Units: u,
		})
	}
	return cfg
}
