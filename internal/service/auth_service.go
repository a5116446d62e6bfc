package service

import (
	"errors"
	"regexp"
	"time"

	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/internal/utils"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("name, email and password are required")

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type AuthService struct {
	userRepo      *repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register creates a member account and returns the user with a session token.
// A duplicate email surfaces as ErrEmailAlreadyExists rather than being
// swallowed; callers show it to the user.
func (s *AuthService) Register(name, email, password string) (*models.User, string, error) {
	start := time.Now()

	logger.Log.Debug("Processing user registration",
		zap.String("email", email),
	)

	if err := s.validateRegisterInput(name, email, password); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	existingUser, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if existingUser != nil {
		logger.Log.Warn("Email already exists",
			zap.String("email", email),
		)
		return nil, "", ErrEmailAlreadyExists
	}

	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Failed to hash password",
			zap.Error(err),
		)
		return nil, "", err
	}
	hashDuration := time.Since(hashStart)

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleMember, // Default role; only seed data grants ADMIN
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user in database",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID),
		zap.String("email", email),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password fail identically so callers cannot enumerate accounts.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	start := time.Now()

	logger.Log.Debug("Processing user login",
		zap.String("email", email),
	)

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found",
			zap.String("email", email),
		)
		return nil, "", ErrInvalidCredentials
	}

	verifyStart := time.Now()
	if !utils.VerifyPassword(password, user.PasswordHash) {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.String("user_id", user.ID),
		)
		return nil, "", ErrInvalidCredentials
	}
	verifyDuration := time.Since(verifyStart)

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) validateRegisterInput(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return ErrMissingFields
	}

	if len(name) > 100 {
		return errors.New("name must be at most 100 characters")
	}

	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(email) > 100 {
		return errors.New("email too long")
	}

	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return errors.New("password too long")
	}

	return nil
}
