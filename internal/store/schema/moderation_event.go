package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/omribarmats/pricegit/internal/domain"
)

// ModerationEvent represents the moderation_events table - an append-only audit
// journal. One row is written in the same transaction as every moderation
// decision (including auto-approvals), so the decision history survives even
// though the observation row itself only stores the final state.
type ModerationEvent struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	ObservationID string         `gorm:"column:observation_id;not null;type:text;index:idx_moderation_events_observation"`
	ChangedAt     time.Time      `gorm:"column:changed_at;not null"`
	Meta          datatypes.JSON `gorm:"column:meta;type:jsonb"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the ModerationEvent model
func (ModerationEvent) TableName() string {
	return "moderation_events"
}

// ModerationChangeMeta is the JSON payload stored in ModerationEvent.Meta
type ModerationChangeMeta struct {
	ObservationID string                  `json:"observation_id"`
	ProductID     string                  `json:"product_id"`
	From          domain.ModerationStatus `json:"from"`
	To            domain.ModerationStatus `json:"to"`
	ReviewedBy    string                  `json:"reviewed_by"`
	Reason        *string                 `json:"reason,omitempty"`
	AutoApproved  bool                    `json:"auto_approved,omitempty"`
}
