package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// GroupA is the equation-builder condition.
	GroupA = "A"
	// GroupB is the alternate task condition.
	GroupB = "B"
)

// Participant represents one enrolled study participant.
type Participant struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	AccessCode string            `gorm:"size:128" json:"access_code"`
	Age        *int              `json:"age"`
	Gender     string            `gorm:"size:64" json:"gender"`
	GroupName  string            `gorm:"size:8;not null;index" json:"group_name"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at"`
	Survey     datatypes.JSONMap `gorm:"type:json" json:"survey"`
}

// IsFinished reports whether the participant exhausted the question sequence.
func (p Participant) IsFinished() bool {
	return p.FinishedAt != nil
}
