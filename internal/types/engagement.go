package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Habit struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string         `gorm:"not null" json:"title"`
	Cadence     string         `gorm:"not null;default:'daily'" json:"cadence"`
	SourceKey   *string        `json:"source_key,omitempty"`
	Streak      int            `gorm:"not null;default:0" json:"streak"`
	LastCheckin *time.Time     `json:"last_checkin,omitempty"`
	Archived    bool           `gorm:"not null;default:false" json:"archived"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Habit) TableName() string { return "habit" }

type Nudge struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind      string     `gorm:"not null" json:"kind"`
	Body      string     `gorm:"not null" json:"body"`
	InsightID *uuid.UUID `gorm:"type:uuid" json:"insight_id,omitempty"`
	SeenAt    *time.Time `json:"seen_at,omitempty"`
	ActedAt   *time.Time `json:"acted_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now();index" json:"created_at"`
}

func (Nudge) TableName() string { return "nudge" }

type ChatThread struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string         `json:"title"`
	LastEventID   *uuid.UUID     `gorm:"type:uuid" json:"last_event_id,omitempty"`
	LastActivity  time.Time      `gorm:"not null;default:now();index" json:"last_activity"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatThread) TableName() string { return "chat_thread" }

type Feedback struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	EventID   *uuid.UUID     `gorm:"type:uuid" json:"event_id,omitempty"`
	InsightID *uuid.UUID     `gorm:"type:uuid" json:"insight_id,omitempty"`
	Rating    *int           `json:"rating,omitempty"`
	Body      string         `json:"body"`
	Meta      datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }
