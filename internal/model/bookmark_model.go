package model

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a user-saved article reference with an optional note.
type Bookmark struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_ref,priority:1" json:"user_id"`
	Reference string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_bookmarks_user_ref,priority:2" json:"reference"`
	Title     string    `gorm:"type:varchar(200)" json:"title"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
