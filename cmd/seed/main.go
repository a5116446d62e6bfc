package main

import (
	"log"
	"os"

	"github.com/sitwithme/sitwithme/internal/config"
	"github.com/sitwithme/sitwithme/internal/database"
	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/utils"
)

// Seed data: the admin account (role escalation has no endpoint, seeding is
// the only way to mint an ADMIN) plus two sample stories.

func main() {
	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	adminName := os.Getenv("ADMIN_NAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminName == "" || adminEmail == "" || adminPassword == "" {
		log.Fatal("Missing environment variables: ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	var admin models.User
	result := database.DB.Where("email = ?", adminEmail).First(&admin)

	if result.Error == nil {
		log.Println("Admin user already exists:", admin.Email)
	} else {
		passwordHash, err := utils.HashPassword(adminPassword)
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}

		admin = models.User{
			Name:         adminName,
			Email:        adminEmail,
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
		}

		if err := database.DB.Create(&admin).Error; err != nil {
			log.Fatal("Failed to create admin:", err)
		}

		log.Println("Admin user created:", admin.Email)
	}

	seedPost(admin.ID, models.Post{
		Title:     "Our First Outreach Visit",
		Slug:      "our-first-outreach",
		Content:   "<p>We visited the streets of Eldoret today. The spirit of the children was inspiring...</p>",
		ImageURL:  "https://images.unsplash.com/photo-1488521787991-ed7bbaae773c?q=80&w=1000&auto=format&fit=crop",
		Published: true,
	})

	seedPost(admin.ID, models.Post{
		Title:     "Community Dinner Night",
		Slug:      "community-dinner",
		Content:   "<p>Sharing a meal is the oldest form of bonding. Last night we shared food and stories...</p>",
		ImageURL:  "https://images.unsplash.com/photo-1511632765486-a01980e01a18?q=80&w=1000&auto=format&fit=crop",
		Published: true,
	})
}

// seedPost creates a sample post unless its fixed slug already exists.
func seedPost(authorID string, post models.Post) {
	var existing models.Post
	if err := database.DB.Where("slug = ?", post.Slug).First(&existing).Error; err == nil {
		log.Println("Post already exists:", post.Slug)
		return
	}

	post.AuthorID = authorID
	if err := database.DB.Create(&post).Error; err != nil {
		log.Fatal("Failed to create post:", err)
	}

	log.Println("Post created:", post.Slug)
}
