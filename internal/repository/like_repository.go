package repository

import (
	"errors"

	"github.com/sitwithme/sitwithme/internal/models"
	"gorm.io/gorm"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// GetLike looks up the like for one (user, post) pair.
func (r *LikeRepository) GetLike(userID, postID string) (*models.Like, error) {
	var like models.Like
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &like, nil
}

func (r *LikeRepository) CreateLike(like *models.Like) error {
	return r.db.Create(like).Error
}

func (r *LikeRepository) DeleteLike(userID, postID string) error {
	return r.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{}).Error
}

func (r *LikeRepository) CountByPost(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// CountsByPost aggregates like counts for a set of posts in one query,
// for the feed listing.
func (r *LikeRepository) CountsByPost(postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type row struct {
		PostID string
		Count  int64
	}

	var rows []row
	err := r.db.Model(&models.Like{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		counts[rw.PostID] = rw.Count
	}

	return counts, nil
}
