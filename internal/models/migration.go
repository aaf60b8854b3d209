package models

import "time"

// SchemaMigration records a schema change that has been applied to the database.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false" json:"version"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	AppliedAt time.Time `gorm:"not null" json:"applied_at"`
}
