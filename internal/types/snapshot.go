package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StateSnapshot is the audit record for one decision: the full set of
// signals, bands and routing the engine saw for an event. One snapshot per
// event, written after the decision and never mutated.
type StateSnapshot struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Snapshot  datatypes.JSON `gorm:"type:jsonb;not null" json:"snapshot"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (StateSnapshot) TableName() string { return "state_snapshot" }

// PatternInsight persists a detected recurrence. The row id is the
// deterministic detector id, so recomputes upsert in place; Dismissed and
// Bookmarked are the only user-writable columns and survive recompute.
type PatternInsight struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SymptomKey      string         `gorm:"not null;index" json:"symptom_key"`
	StartDate       time.Time      `gorm:"not null" json:"start_date"`
	EndDate         time.Time      `gorm:"not null;index" json:"end_date"`
	OccurrenceCount int            `gorm:"not null" json:"occurrence_count"`
	DaySpan         int            `gorm:"not null" json:"day_span"`
	Insight         string         `gorm:"not null" json:"insight"`
	Connection      string         `json:"connection,omitempty"`
	CoOccurrences   datatypes.JSON `gorm:"type:jsonb" json:"co_occurrences"`
	Suggestions     datatypes.JSON `gorm:"type:jsonb" json:"suggestions"`
	SourceEntryIDs  datatypes.JSON `gorm:"type:jsonb" json:"source_entry_ids"`
	Dismissed       bool           `gorm:"not null;default:false" json:"dismissed"`
	Bookmarked      bool           `gorm:"not null;default:false" json:"bookmarked"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (PatternInsight) TableName() string { return "pattern_insight" }
