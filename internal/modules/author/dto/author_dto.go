package dto

import (
	"anoa.com/moviecatalog/internal/entity"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"github.com/google/uuid"
)

type AuthorFilter struct {
	Source    string `form:"source" binding:"omitempty,oneof=admin tmdb"`
	HasMovies *bool  `form:"has_movies"`
}

type CreateAuthorRequest struct {
	Username    string `json:"username" binding:"required,max=150"`
	Email       string `json:"email" binding:"omitempty,email,max=254"`
	Password    string `json:"password" binding:"omitempty,min=8"`
	FirstName   string `json:"first_name" binding:"max=150"`
	LastName    string `json:"last_name" binding:"max=150"`
	Biography   string `json:"biography"`
	Website     string `json:"website" binding:"omitempty,url,max=200"`
	Birthdate   string `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
	Nationality string `json:"nationality" binding:"max=100"`
}

// UpdateAuthorRequest only touches the fields that are present.
type UpdateAuthorRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	Biography   *string `json:"biography"`
	Website     *string `json:"website" binding:"omitempty,url,max=200"`
	Birthdate   *string `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
	Nationality *string `json:"nationality" binding:"omitempty,max=100"`
}

type AuthorResponse struct {
	ID          uuid.UUID                  `json:"id"`
	Username    string                     `json:"username"`
	FirstName   string                     `json:"first_name"`
	LastName    string                     `json:"last_name"`
	Biography   string                     `json:"biography"`
	Website     string                     `json:"website"`
	Birthdate   *string                    `json:"birthdate"`
	Nationality string                     `json:"nationality"`
	Source      string                     `json:"source"`
	TMDBID      *int64                     `json:"tmdb_id"`
	Movies      []commonDto.MovieSummary   `json:"movies"`
	Ratings     []commonDto.RatingResponse `json:"ratings"`
}

func NewAuthorResponse(a *entity.Author) AuthorResponse {
	ratings := make([]commonDto.RatingResponse, 0, len(a.Ratings))
	for i := range a.Ratings {
		ratings = append(ratings, commonDto.NewAuthorRatingResponse(&a.Ratings[i]))
	}

	return AuthorResponse{
		ID:          a.UserID,
		Username:    a.User.Username,
		FirstName:   a.User.FirstName,
		LastName:    a.User.LastName,
		Biography:   a.Biography,
		Website:     a.Website,
		Birthdate:   commonDto.FormatDate(a.Birthdate),
		Nationality: a.Nationality,
		Source:      a.Source,
		TMDBID:      a.TMDBID,
		Movies:      commonDto.NewMovieSummaries(a.Movies),
		Ratings:     ratings,
	}
}
