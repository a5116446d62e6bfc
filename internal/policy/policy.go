package policy

import (
	"errors"

	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/internal/utils"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrForbidden        = errors.New("admin access required")
)

// Policy evaluates access rules before mutating operations. A valid token is
// not enough on its own: the session email must still resolve to an existing
// user row, so a token issued for a since-removed account carries no access.
type Policy struct {
	userRepo *repository.UserRepository
}

func New(userRepo *repository.UserRepository) *Policy {
	return &Policy{userRepo: userRepo}
}

// RequireAuthenticated resolves the session to a user record.
func (p *Policy) RequireAuthenticated(claims *utils.Claims) (*models.User, error) {
	if claims == nil || claims.Email == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := p.userRepo.GetUserByEmail(claims.Email)
	if err != nil {
		logger.Log.Error("Failed to resolve session user",
			zap.String("email", claims.Email),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		logger.Log.Warn("Session email has no matching user",
			zap.String("email", claims.Email),
		)
		return nil, ErrNotAuthenticated
	}

	return user, nil
}

// RequireAdmin resolves the session to a user record and checks the role.
func (p *Policy) RequireAdmin(claims *utils.Claims) (*models.User, error) {
	user, err := p.RequireAuthenticated(claims)
	if err != nil {
		return nil, err
	}

	if user.Role != models.RoleAdmin {
		logger.Log.Warn("Admin check failed",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
		return nil, ErrForbidden
	}

	return user, nil
}
