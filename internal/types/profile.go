package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProfileState is the persisted complexity-profile read-model: a
// rebuildable cache over the factor log, never independently authored.
// Version is the optimistic concurrency stamp for per-user serialization.
type ProfileState struct {
	UserID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	Version        int64          `gorm:"not null;default:0" json:"version"`
	Latest         datatypes.JSON `gorm:"type:jsonb" json:"latest"`
	Coverage       datatypes.JSON `gorm:"type:jsonb" json:"coverage"`
	TopConstraints datatypes.JSON `gorm:"type:jsonb" json:"top_constraints"`
	// LatestEventID implements last-submission-wins: classification
	// results for any other event id are discarded on arrival.
	LatestEventID *uuid.UUID `gorm:"type:uuid" json:"latest_event_id,omitempty"`
}

func (ProfileState) TableName() string { return "profile_state" }

// PendingFollowUp is one active clarifying question. The unique index on
// (parent_event_id, missing_info_key) is the idempotency key that keeps
// retried submissions from burning extra follow-up budget.
type PendingFollowUp struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ParentEventID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_followup_idem,priority:1" json:"parent_event_id"`
	MissingInfoKey string     `gorm:"not null;uniqueIndex:idx_followup_idem,priority:2" json:"missing_info_key"`
	QuestionText   string     `gorm:"not null" json:"question_text"`
	SymptomKey     *string    `json:"symptom_key,omitempty"`
	FollowUpCount  int        `gorm:"not null;default:0" json:"followup_count"`
	Status         string     `gorm:"not null;default:'open';index" json:"status"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func (PendingFollowUp) TableName() string { return "pending_followup" }

const (
	FollowUpStatusOpen     = "open"
	FollowUpStatusResolved = "resolved"
	FollowUpStatusCapped   = "capped"
)
