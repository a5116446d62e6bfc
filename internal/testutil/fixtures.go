package testutil

import (
	"time"

	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/utils"
)

// CreateTestUser builds a user with a real bcrypt hash so login flows can be
// exercised end to end.
func CreateTestUser(name, email, password string, role models.Role) (*models.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}, nil
}

// DefaultMemberUser returns a regular member account
func DefaultMemberUser() (*models.User, error) {
	return CreateTestUser("Test Member", "member@example.com", "Test123456", models.RoleMember)
}

// DefaultAdminUser returns an admin account
func DefaultAdminUser() (*models.User, error) {
	return CreateTestUser("Test Admin", "admin@example.com", "Admin123456", models.RoleAdmin)
}

// CreateTestPost builds a published post owned by authorID.
func CreateTestPost(authorID, title string) *models.Post {
	return &models.Post{
		Title:     title,
		Slug:      utils.Slugify(title),
		Content:   "<p>test content</p>",
		Published: true,
		AuthorID:  authorID,
		CreatedAt: time.Now(),
	}
}

// CreateUnpublishedPost builds a post that must never show in the feed.
func CreateUnpublishedPost(authorID, title string) *models.Post {
	post := CreateTestPost(authorID, title)
	post.Published = false
	return post
}
