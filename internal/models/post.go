package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Subtitle  string    `gorm:"type:varchar(300)" json:"subtitle,omitempty"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Content   string    `gorm:"type:text;not null" json:"content"` // rich HTML, trusted producer (admin-only authoring)
	ImageURL  string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	Published bool      `gorm:"not null;default:true;index" json:"published"`
	AuthorID  string    `gorm:"type:uuid;not null;index" json:"author_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
