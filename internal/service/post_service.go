package service

import (
	"errors"

	"github.com/sitwithme/sitwithme/internal/cache"
	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/internal/utils"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrTitleRequired = errors.New("title is required")
	ErrSlugConflict  = errors.New("slug already taken")
)

// FeedPost is a feed card: a published post with its like count.
type FeedPost struct {
	Post      models.Post `json:"post"`
	LikeCount int64       `json:"like_count"`
}

// PostDetail is everything the single-post page renders.
type PostDetail struct {
	Post      models.Post      `json:"post"`
	LikeCount int64            `json:"like_count"`
	LikedByMe bool             `json:"liked_by_me"`
	Comments  []models.Comment `json:"comments"`
	// NextSlug points at the next older published post, empty at the end.
	NextSlug string `json:"next_slug,omitempty"`
}

// MonthGroup is one month of the archive timeline, newest month first.
type MonthGroup struct {
	Month string        `json:"month"` // YYYY-MM
	Posts []models.Post `json:"posts"`
}

type PostService struct {
	postRepo    *repository.PostRepository
	likeRepo    *repository.LikeRepository
	commentRepo *repository.CommentRepository
	likeCounter cache.LikeCounter
}

func NewPostService(
	postRepo *repository.PostRepository,
	likeRepo *repository.LikeRepository,
	commentRepo *repository.CommentRepository,
	likeCounter cache.LikeCounter,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		likeCounter: likeCounter,
	}
}

// CreatePost persists a new post for an admin author. The slug is derived
// from the title with a millisecond suffix; posts go live immediately, there
// is no draft state.
func (s *PostService) CreatePost(authorID, title, subtitle, content, imageURL string) (*models.Post, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}

	post := &models.Post{
		Title:     title,
		Subtitle:  subtitle,
		Slug:      utils.Slugify(title),
		Content:   content,
		ImageURL:  imageURL,
		Published: true,
		AuthorID:  authorID,
	}

	if err := s.postRepo.CreatePost(post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Two submissions in the same millisecond produced the same slug.
			logger.Log.Warn("Slug collision on create",
				zap.String("slug", post.Slug),
			)
			return nil, ErrSlugConflict
		}
		logger.Log.Error("Failed to create post",
			zap.String("author_id", authorID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Post created",
		zap.String("post_id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("author_id", authorID),
	)

	return post, nil
}

// GetFeed returns published posts newest first with like counts, serving
// counts from the cache where possible and backfilling misses from the
// database in one aggregate query.
func (s *PostService) GetFeed() ([]FeedPost, error) {
	posts, err := s.postRepo.GetPublished()
	if err != nil {
		logger.Log.Error("Failed to fetch feed",
			zap.Error(err),
		)
		return nil, err
	}

	counts := make(map[string]int64, len(posts))
	var misses []string

	for _, post := range posts {
		count, ok, err := s.likeCounter.Get(post.ID)
		if err != nil {
			// Cache trouble never fails the feed; fall back to the database.
			logger.Log.Warn("Like counter read failed",
				zap.String("post_id", post.ID),
				zap.Error(err),
			)
		}
		if ok && err == nil {
			counts[post.ID] = count
		} else {
			misses = append(misses, post.ID)
		}
	}

	if len(misses) > 0 {
		dbCounts, err := s.likeRepo.CountsByPost(misses)
		if err != nil {
			logger.Log.Error("Failed to count likes",
				zap.Error(err),
			)
			return nil, err
		}
		for _, id := range misses {
			counts[id] = dbCounts[id]
			if err := s.likeCounter.Set(id, dbCounts[id]); err != nil {
				logger.Log.Warn("Like counter backfill failed",
					zap.String("post_id", id),
					zap.Error(err),
				)
			}
		}
	}

	feed := make([]FeedPost, 0, len(posts))
	for _, post := range posts {
		feed = append(feed, FeedPost{Post: post, LikeCount: counts[post.ID]})
	}

	return feed, nil
}

// GetBySlug assembles the single-post page: the post with author, like count,
// whether the current user liked it, comments newest first, and the slug of
// the next older published post. currentUserID is empty for guests.
func (s *PostService) GetBySlug(slug, currentUserID string) (*PostDetail, error) {
	post, err := s.postRepo.GetBySlug(slug)
	if err != nil {
		logger.Log.Error("Failed to fetch post",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	likeCount, err := s.getLikeCount(post.ID)
	if err != nil {
		return nil, err
	}

	likedByMe := false
	if currentUserID != "" {
		like, err := s.likeRepo.GetLike(currentUserID, post.ID)
		if err != nil {
			return nil, err
		}
		likedByMe = like != nil
	}

	comments, err := s.commentRepo.GetByPost(post.ID)
	if err != nil {
		logger.Log.Error("Failed to fetch comments",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
		return nil, err
	}

	nextSlug := ""
	next, err := s.postRepo.GetNextOlder(post.CreatedAt)
	if err != nil {
		return nil, err
	}
	if next != nil {
		nextSlug = next.Slug
	}

	return &PostDetail{
		Post:      *post,
		LikeCount: likeCount,
		LikedByMe: likedByMe,
		Comments:  comments,
		NextSlug:  nextSlug,
	}, nil
}

// GetArchive groups published posts by calendar month for the timeline page,
// months descending, posts descending within each month.
func (s *PostService) GetArchive() ([]MonthGroup, error) {
	posts, err := s.postRepo.GetPublished()
	if err != nil {
		logger.Log.Error("Failed to fetch archive",
			zap.Error(err),
		)
		return nil, err
	}

	var groups []MonthGroup
	index := make(map[string]int)

	// Posts arrive newest first, so months appear in descending order.
	for _, post := range posts {
		month := post.CreatedAt.Format("2006-01")
		i, ok := index[month]
		if !ok {
			i = len(groups)
			index[month] = i
			groups = append(groups, MonthGroup{Month: month})
		}
		groups[i].Posts = append(groups[i].Posts, post)
	}

	return groups, nil
}

func (s *PostService) getLikeCount(postID string) (int64, error) {
	count, ok, err := s.likeCounter.Get(postID)
	if ok && err == nil {
		return count, nil
	}
	if err != nil {
		logger.Log.Warn("Like counter read failed",
			zap.String("post_id", postID),
			zap.Error(err),
		)
	}

	count, err = s.likeRepo.CountByPost(postID)
	if err != nil {
		return 0, err
	}

	if err := s.likeCounter.Set(postID, count); err != nil {
		logger.Log.Warn("Like counter backfill failed",
			zap.String("post_id", postID),
			zap.Error(err),
		)
	}

	return count, nil
}
