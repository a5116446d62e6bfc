package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sitwithme/sitwithme/internal/cache"
	"github.com/sitwithme/sitwithme/internal/config"
	"github.com/sitwithme/sitwithme/internal/database"
	"github.com/sitwithme/sitwithme/internal/handler"
	"github.com/sitwithme/sitwithme/internal/middleware"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/internal/service"
	"github.com/sitwithme/sitwithme/pkg/logger"
)

func main() {
	cfg := config.Load()
	log.Println("Config loaded successfully")

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	// Redis: like-count cache + auth rate limiting
	likeCounter, err := cache.NewRedisLikeCounter(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize like counter: %v", err)
	}
	defer likeCounter.Close()

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	postRepo := repository.NewPostRepository(database.DB)
	likeRepo := repository.NewLikeRepository(database.DB)
	commentRepo := repository.NewCommentRepository(database.DB)

	// Access policy and services
	accessPolicy := policy.New(userRepo)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	postService := service.NewPostService(postRepo, likeRepo, commentRepo, likeCounter)
	interactionService := service.NewInteractionService(likeRepo, commentRepo, postRepo, likeCounter)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, accessPolicy, cfg.IsProduction())
	postHandler := handler.NewPostHandler(postService, accessPolicy)
	interactionHandler := handler.NewInteractionHandler(interactionService, accessPolicy)

	rateLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(cfg.IsProduction()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Auth routes, rate limited against credential stuffing
	auth := router.Group("/api/auth")
	auth.Use(rateLimiter.Middleware())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	// Public reads; the slug route reads the session when present so the
	// response can say whether the caller already liked the post.
	router.GET("/api/posts", postHandler.GetFeed)
	router.GET("/api/posts/archive", postHandler.GetArchive)
	router.GET("/api/posts/:slug", middleware.OptionalAuthMiddleware(cfg.JWTSecret), postHandler.GetBySlug)

	// Mutations require a session; role checks happen in the access policy
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/me", authHandler.Me)
		protected.POST("/posts", postHandler.Create)
		protected.POST("/posts/:id/like", interactionHandler.ToggleLike)
		protected.POST("/posts/:id/comments", interactionHandler.AddComment)
	}

	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
