package models

import (
	"time"
)

// ProgressDocument is the postgres row holding one serialized UserProgress.
// The counters are denormalized from the document for ad-hoc queries.
type ProgressDocument struct {
	UserID           string    `gorm:"primaryKey;type:varchar(128)" json:"user_id"`
	Document         string    `gorm:"type:jsonb;not null" json:"document"`
	TotalAnalyses    int       `gorm:"default:0" json:"total_analyses"`
	CurrentLevel     int       `gorm:"default:1" json:"current_level"`
	ExperiencePoints int       `gorm:"default:0" json:"experience_points"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProgressDocument) TableName() string {
	return "user_progress_documents"
}
