package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like records that a user liked a post. The (UserID, PostID) pair is
// unique: a user holds at most one like per post.
type Like struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
