package model

import (
	"time"

	"github.com/google/uuid"
)

// ReadingProgress records the last time a user read an article. One row
// per (user, reference); re-reads bump ReadAt.
type ReadingProgress struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reading_progress_user_ref,priority:1" json:"user_id"`
	Reference     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_reading_progress_user_ref,priority:2" json:"reference"`
	ChapterNumber int       `gorm:"not null" json:"chapter_number"`
	ArticleNumber int       `gorm:"not null" json:"article_number"`
	IsCompleted   bool      `gorm:"not null;default:false" json:"is_completed"`
	ReadAt        time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_reading_progress_read_at" json:"read_at"`
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}
