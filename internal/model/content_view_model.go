package model

import (
	"time"

	"github.com/google/uuid"
)

// ContentView is one recorded view of a piece of constitution content.
// Popularity aggregations group these by reference within a timeframe.
type ContentView struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentType string     `gorm:"type:varchar(20);not null;index:idx_content_views_type_ref,priority:1" json:"content_type"`
	Reference   string     `gorm:"type:varchar(20);not null;index:idx_content_views_type_ref,priority:2" json:"reference"`
	UserID      *uuid.UUID `gorm:"type:uuid;index:idx_content_views_user" json:"user_id,omitempty"`
	ViewedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_content_views_viewed_at" json:"viewed_at"`
}

func (ContentView) TableName() string {
	return "content_views"
}
