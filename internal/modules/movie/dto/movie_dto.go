package dto

import (
	"time"

	"anoa.com/moviecatalog/internal/entity"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"github.com/google/uuid"
)

type MovieFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=rumored planned in_production post_production released canceled"`
	Source string `form:"source" binding:"omitempty,oneof=admin tmdb"`
}

type SearchQuery struct {
	Q      string `form:"q" binding:"required,max=200"`
	Status string `form:"status" binding:"omitempty,oneof=rumored planned in_production post_production released canceled"`
	Source string `form:"source" binding:"omitempty,oneof=admin tmdb"`
	Limit  int64  `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UpdateMovieRequest backs PUT and PATCH. Absent fields are left alone;
// PUT additionally insists on a title.
type UpdateMovieRequest struct {
	Title            *string      `json:"title" binding:"omitempty,max=255"`
	Overview         *string      `json:"overview"`
	Tagline          *string      `json:"tagline" binding:"omitempty,max=500"`
	ReleaseDate      *string      `json:"release_date" binding:"omitempty,datetime=2006-01-02"`
	Status           *string      `json:"status" binding:"omitempty,oneof=rumored planned in_production post_production released canceled"`
	Evaluation       *string      `json:"evaluation" binding:"omitempty,oneof=unrated poor average good excellent"`
	Budget           *int64       `json:"budget" binding:"omitempty,min=0"`
	Revenue          *int64       `json:"revenue" binding:"omitempty,min=0"`
	OriginalLanguage *string      `json:"original_language" binding:"omitempty,max=10"`
	Adult            *bool        `json:"adult"`
	Popularity       *float64     `json:"popularity"`
	VoteAverage      *float64     `json:"vote_average" binding:"omitempty,min=0,max=10"`
	VoteCount        *int         `json:"vote_count" binding:"omitempty,min=0"`
	AuthorIDs        *[]uuid.UUID `json:"author_ids"`
}

type MovieResponse struct {
	ID               uuid.UUID                 `json:"id"`
	Title            string                    `json:"title"`
	Overview         string                    `json:"overview"`
	Tagline          string                    `json:"tagline"`
	ReleaseDate      *string                   `json:"release_date"`
	Status           string                    `json:"status"`
	Evaluation       string                    `json:"evaluation"`
	Budget           *int64                    `json:"budget"`
	Revenue          *int64                    `json:"revenue"`
	OriginalLanguage string                    `json:"original_language"`
	Adult            bool                      `json:"adult"`
	Popularity       *float64                  `json:"popularity"`
	VoteAverage      *float64                  `json:"vote_average"`
	VoteCount        *int                      `json:"vote_count"`
	Source           string                    `json:"source"`
	TMDBID           *int64                    `json:"tmdb_id"`
	Authors          []commonDto.AuthorSummary `json:"authors"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

func NewMovieResponse(m *entity.Movie) MovieResponse {
	authors := make([]commonDto.AuthorSummary, 0, len(m.Authors))
	for i := range m.Authors {
		authors = append(authors, commonDto.NewAuthorSummary(&m.Authors[i]))
	}

	return MovieResponse{
		ID:               m.ID,
		Title:            m.Title,
		Overview:         m.Overview,
		Tagline:          m.Tagline,
		ReleaseDate:      commonDto.FormatDate(m.ReleaseDate),
		Status:           m.Status,
		Evaluation:       m.Evaluation,
		Budget:           m.Budget,
		Revenue:          m.Revenue,
		OriginalLanguage: m.OriginalLanguage,
		Adult:            m.Adult,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Source:           m.Source,
		TMDBID:           m.TMDBID,
		Authors:          authors,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
