package dto

import (
	"anoa.com/moviecatalog/internal/entity"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"github.com/google/uuid"
)

// UpdateProfileInput arrives as JSON or multipart form (with an avatar file).
type UpdateProfileInput struct {
	FirstName   *string `json:"first_name" form:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" form:"last_name" binding:"omitempty,max=150"`
	Bio         *string `json:"bio" form:"bio" binding:"omitempty,max=2000"`
	DateOfBirth *string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
}

type ProfileResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Bio            string    `json:"bio"`
	AvatarURL      *string   `json:"avatar_url"`
	DateOfBirth    *string   `json:"date_of_birth"`
	FavoritesCount int64     `json:"favorites_count"`
}

func NewProfileResponse(s *entity.Spectator, favorites int64) ProfileResponse {
	return ProfileResponse{
		ID:             s.UserID,
		Username:       s.User.Username,
		Email:          s.User.Email,
		FirstName:      s.User.FirstName,
		LastName:       s.User.LastName,
		Bio:            s.Bio,
		AvatarURL:      s.AvatarURL,
		DateOfBirth:    commonDto.FormatDate(s.DateOfBirth),
		FavoritesCount: favorites,
	}
}
