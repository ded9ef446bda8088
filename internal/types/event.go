package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// Event is one user submission. Events are immutable once created: the
// model carries no UpdatedAt and no soft delete on purpose.
type Event struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ParentEventID *uuid.UUID        `gorm:"type:uuid;index" json:"parent_event_id,omitempty"`
	Intent        taxonomy.Intent   `gorm:"not null" json:"intent"`
	SaveMode      taxonomy.SaveMode `gorm:"not null" json:"save_mode"`
	RawText       *string           `json:"raw_text,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:now();index" json:"created_at"`
}

func (Event) TableName() string { return "event" }

// Factor is one committed, append-only fact. Rows are never updated or
// deleted; a newer factor for the same code supersedes the old one only in
// the profile's latest-by-code index.
type Factor struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID              `gorm:"type:uuid;not null;index" json:"user_id"`
	Domain        taxonomy.Domain        `gorm:"not null;index" json:"domain"`
	Type          taxonomy.FactorType    `gorm:"not null" json:"type"`
	Code          taxonomy.FactorCode    `gorm:"not null;index" json:"code"`
	Value         datatypes.JSON         `gorm:"type:jsonb" json:"value"`
	Confidence    float64                `gorm:"not null" json:"confidence"`
	TimeHorizon   taxonomy.TimeHorizon   `gorm:"not null" json:"time_horizon"`
	Modifiability taxonomy.Modifiability `gorm:"not null" json:"modifiability"`
	SourceEventID uuid.UUID              `gorm:"type:uuid;not null;index" json:"source_event_id"`
	CreatedAt     time.Time              `gorm:"not null;default:now();index" json:"created_at"`
}

func (Factor) TableName() string { return "factor" }
