package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskEquationBuilder is the task name recorded for group A answers.
const TaskEquationBuilder = "A"

// Response is the immutable audit row written for every submitted answer.
type Response struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ParticipantID uint              `gorm:"not null;index" json:"participant_id"`
	TaskName      string            `gorm:"size:16;not null" json:"task_name"`
	QIndex        int               `gorm:"column:q_index;not null" json:"q_index"`
	Category      string            `gorm:"size:255" json:"category"`
	NumbersText   string            `gorm:"type:text" json:"numbers_text"`
	OpsText       string            `gorm:"type:text" json:"ops_text"`
	Target        float64           `json:"target"`
	Chosen        *string           `gorm:"type:text" json:"chosen"`
	IsCorrect     bool              `gorm:"not null;default:false" json:"is_correct"`
	RTMs          *int              `gorm:"column:rt_ms" json:"rt_ms"`
	ExprText      string            `gorm:"type:text" json:"expr_text"`
	ResultVal     *float64          `json:"result_val"`
	Stimulus      datatypes.JSONMap `gorm:"type:json" json:"stimulus"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	Participant   Participant       `gorm:"foreignKey:ParticipantID" json:"-"`
}
