package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCommentLength is the upper bound on trimmed comment content.
const MaxCommentLength = 2000

type Comment struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	PostID    string    `gorm:"type:uuid;not null;index" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
