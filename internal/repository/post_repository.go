package repository

import (
	"errors"
	"time"

	"github.com/sitwithme/sitwithme/internal/models"
	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetPublished returns the public feed: published posts, newest first,
// with their author joined.
func (r *PostRepository) GetPublished() ([]models.Post, error) {
	var posts []models.Post
	err := r.db.
		Preload("Author").
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&posts).Error

	return posts, err
}

func (r *PostRepository) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.
		Preload("Author").
		Where("slug = ?", slug).
		First(&post).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

func (r *PostRepository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("id = ?", id).First(&post).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

func (r *PostRepository) PostExists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// GetNextOlder returns the next older published post relative to createdAt,
// used for "next post" navigation on the single-post page.
func (r *PostRepository) GetNextOlder(createdAt time.Time) (*models.Post, error) {
	var post models.Post
	err := r.db.
		Where("published = ? AND created_at < ?", true, createdAt).
		Order("created_at DESC").
		First(&post).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}
