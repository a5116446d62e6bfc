package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sitwithme/sitwithme/internal/cache"
	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCommentEmpty   = errors.New("comment cannot be empty")
	ErrCommentTooLong = errors.New("comment is too long (max 2000 characters)")
)

// InteractionService holds the member-facing mutations: toggling a like and
// adding a comment. Both assume the caller already passed the access policy.
type InteractionService struct {
	likeRepo    *repository.LikeRepository
	commentRepo *repository.CommentRepository
	postRepo    *repository.PostRepository
	likeCounter cache.LikeCounter
}

func NewInteractionService(
	likeRepo *repository.LikeRepository,
	commentRepo *repository.CommentRepository,
	postRepo *repository.PostRepository,
	likeCounter cache.LikeCounter,
) *InteractionService {
	return &InteractionService{
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		likeCounter: likeCounter,
	}
}

// ToggleLike creates the like if absent, removes it if present, and returns
// the resulting state with the fresh count. A concurrent double-toggle that
// trips the (user, post) unique index is absorbed as "already liked" rather
// than surfaced as a failure.
func (s *InteractionService) ToggleLike(userID, postID string) (liked bool, count int64, err error) {
	exists, err := s.postRepo.PostExists(postID)
	if err != nil {
		logger.Log.Error("Failed to check post existence",
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return false, 0, err
	}
	if !exists {
		return false, 0, ErrPostNotFound
	}

	existing, err := s.likeRepo.GetLike(userID, postID)
	if err != nil {
		logger.Log.Error("Failed to look up like",
			zap.String("user_id", userID),
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return false, 0, err
	}

	if existing != nil {
		if err := s.likeRepo.DeleteLike(userID, postID); err != nil {
			logger.Log.Error("Failed to delete like",
				zap.String("user_id", userID),
				zap.String("post_id", postID),
				zap.Error(err),
			)
			return false, 0, err
		}
		s.adjustCounter(postID, -1)
		liked = false
	} else {
		createErr := s.likeRepo.CreateLike(&models.Like{UserID: userID, PostID: postID})
		switch {
		case createErr == nil:
			s.adjustCounter(postID, +1)
			liked = true
		case errors.Is(createErr, gorm.ErrDuplicatedKey):
			// Lost a race against another toggle from the same user; the like
			// row exists, so the end state is simply "liked".
			logger.Log.Debug("Duplicate like absorbed",
				zap.String("user_id", userID),
				zap.String("post_id", postID),
			)
			liked = true
		default:
			logger.Log.Error("Failed to create like",
				zap.String("user_id", userID),
				zap.String("post_id", postID),
				zap.Error(createErr),
			)
			return false, 0, createErr
		}
	}

	count, err = s.likeRepo.CountByPost(postID)
	if err != nil {
		return liked, 0, err
	}

	logger.Log.Info("Like toggled",
		zap.String("user_id", userID),
		zap.String("post_id", postID),
		zap.Bool("liked", liked),
		zap.Int64("count", count),
	)

	return liked, count, nil
}

// AddComment validates and persists a trimmed comment on a post.
func (s *InteractionService) AddComment(userID, postID, content string) (*models.Comment, error) {
	exists, err := s.postRepo.PostExists(postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrCommentEmpty
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	comment := &models.Comment{
		Content: trimmed,
		UserID:  userID,
		PostID:  postID,
	}

	if err := s.commentRepo.CreateComment(comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.String("user_id", userID),
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment added",
		zap.String("comment_id", comment.ID),
		zap.String("user_id", userID),
		zap.String("post_id", postID),
	)

	return comment, nil
}

// adjustCounter nudges the cached like count; cache errors are logged and
// dropped, the next read repopulates from the database.
func (s *InteractionService) adjustCounter(postID string, delta int) {
	var err error
	if delta > 0 {
		err = s.likeCounter.Increment(postID)
	} else {
		err = s.likeCounter.Decrement(postID)
	}
	if err != nil {
		logger.Log.Warn("Like counter update failed",
			zap.String("post_id", postID),
			zap.Error(err),
		)
	}
}
