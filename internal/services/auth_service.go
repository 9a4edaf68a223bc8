package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/halcyonlabel/backend/internal/config"
	"github.com/halcyonlabel/backend/internal/models"
	jwtpkg "github.com/halcyonlabel/backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errTokenRevoked = errors.New("token is blacklisted")

// UserLookup loads an account by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthService struct {
	users UserLookup
	redis *redis.Client
	cfg   *config.Config
	log   *zap.Logger
}

func NewAuthService(users UserLookup, redis *redis.Client, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		users: users,
		redis: redis,
		cfg:   cfg,
		log:   log,
	}
}

// ValidateAccessToken validates an access token and returns claims
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ParseAccessToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	// If redis is down the request proceeds.
	if s.redis != nil {
		blacklistKey := fmt.Sprintf("blacklist:token:%s", token)
		exists, err := s.redis.Exists(ctx, blacklistKey).Result()
		if err != nil {
			s.log.Warn("could not check token blacklist", zap.Error(err))
		} else if exists > 0 {
			return nil, errTokenRevoked
		}
	}

	return claims, nil
}

// ResolveSession turns a bearer token into the requesting identity. Any
// failure is reported as ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*Requester, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.ValidateAccessToken(ctx, token)
	if err != nil {
		s.log.Debug("rejected access token", zap.Error(err))
		return nil, ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return RequesterFromUser(user), nil
}
