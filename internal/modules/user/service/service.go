package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/user/dto"
	"anoa.com/moviecatalog/internal/modules/user/repository"
	"anoa.com/moviecatalog/pkg/apperror"
	"anoa.com/moviecatalog/pkg/jwt"
	"anoa.com/moviecatalog/pkg/validator"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

var (
	errInvalidCredentials = apperror.New(http.StatusUnauthorized, "No active account found with the given credentials.", apperror.ErrUnauthorized)
	errInvalidRefresh     = apperror.New(http.StatusUnauthorized, "Token is invalid or expired.", apperror.ErrUnauthorized)
	errBlacklisted        = apperror.New(http.StatusUnauthorized, "Token is blacklisted.", apperror.ErrUnauthorized)
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput, clientIP string) (*dto.RegisterResponse, error)
	ObtainToken(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error)
	Logout(ctx context.Context, input dto.RefreshInput) error
}

type authService struct {
	repo          repository.UserRepository
	tokens        *jwt.Manager
	blacklist     TokenBlacklist
	rdb           *redis.Client
	registerLimit time.Duration
	now           func() time.Time
}

func NewAuthService(repo repository.UserRepository, tokens *jwt.Manager, blacklist TokenBlacklist, rdb *redis.Client, registerLimit time.Duration) AuthService {
	return &authService{
		repo:          repo,
		tokens:        tokens,
		blacklist:     blacklist,
		rdb:           rdb,
		registerLimit: registerLimit,
		now:           time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput, clientIP string) (*dto.RegisterResponse, error) {
	allowed, err := CheckAndSetRateLimit(ctx, s.rdb, clientIP, "register", s.registerLimit)
	if err != nil {
		log.Warn().Err(err).Msg("registration rate limit check failed")
	} else if !allowed {
		ttl, _ := GetRateLimitTTL(ctx, s.rdb, clientIP, "register")
		return nil, apperror.New(http.StatusTooManyRequests,
			fmt.Sprintf("Request was throttled. Expected available in %d seconds.", int(ttl.Seconds())),
			apperror.ErrRateLimitExceeded)
	}

	username := strings.TrimSpace(input.Username)
	fields := map[string]string{}

	if !validator.ValidUsername(username) {
		fields["username"] = validator.InvalidUsername
	} else {
		exists, err := s.repo.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if exists {
			fields["username"] = "A user with that username already exists."
		}
	}

	if msg := validatePassword(input.Password, username); msg != "" {
		fields["password"] = msg
	}

	if input.Password != input.PasswordConfirm {
		fields["password_confirm"] = "Passwords do not match."
	}

	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	role, err := s.repo.FindRoleByName(ctx, entity.RoleSpectator)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
		IsActive:     true,
		RoleID:       &role.ID,
	}

	if err := s.repo.CreateSpectator(ctx, user, &entity.Spectator{}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Field("username", "A user with that username already exists.")
		}
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("spectator registered")

	return &dto.RegisterResponse{
		Message: "Registration successful.",
		User: dto.RegisteredUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	}, nil
}

func (s *authService) ObtainToken(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	access, err := s.tokens.GenerateAccessToken(user.ID.String(), user.Role.Name)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID.String(), user.Role.Name)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{Access: access, Refresh: refresh}, nil
}

func (s *authService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(input.Refresh)
	if err != nil {
		return nil, errInvalidRefresh
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errBlacklisted
	}

	access, err := s.tokens.GenerateAccessToken(claims.UserID(), claims.Role)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{Access: access}, nil
}

func (s *authService) Logout(ctx context.Context, input dto.RefreshInput) error {
	claims, err := s.tokens.ValidateRefreshToken(input.Refresh)
	if err != nil {
		return errInvalidRefresh
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}

	return s.blacklist.Revoke(ctx, claims.ID, ttl)
}

// validatePassword returns the first rule the password breaks, or "".
func validatePassword(password, username string) string {
	if len([]rune(password)) < minPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength)
	}
	if isNumeric(password) {
		return "This password is entirely numeric."
	}
	if username != "" && strings.EqualFold(password, username) {
		return "The password is too similar to the username."
	}
	return ""
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
