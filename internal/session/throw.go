// Package session defines the training session domain model: throws,
// rounds, the session lifecycle, and the per-variant progression rules.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Tag classifies a throw beyond its hit/miss outcome.
type Tag string

const (
	// TagNone marks an ordinary baseline cast.
	TagNone Tag = ""
	// TagKing marks a throw at the king target.
	TagKing Tag = "king"
	// TagAltLine marks a throw taken from the alternate line.
	TagAltLine Tag = "alt-line"
	// TagInkast marks an inkast cast in the full-game variant.
	TagInkast Tag = "inkast"
)

// Outcome describes a single cast as reported by a caller.
type Outcome struct {
	Hit   bool
	Units int // targets affected by this cast; 0 means 1
	Tag   Tag
}

// Throw is one immutable recorded cast. It is owned by its round and never
// modified after creation.
type Throw struct {
	ID        string
	Hit       bool
	Index     int // 1-based position within the round
	Units     int
	Tag       Tag
	CreatedAt time.Time
}

// EffectiveUnits returns how many targets the throw affected, treating an
// unset unit count as one.
func (t Throw) EffectiveUnits() int {
	if t.Units <= 0 {
		return 1
	}
	return t.Units
}

func newThrow(o Outcome, index int, now time.Time) Throw {
	return Throw{
		ID:        uuid.NewString(),
		Hit:       o.Hit,
		Index:     index,
		Units:     o.Units,
		Tag:       o.Tag,
		CreatedAt: now,
	}
}
