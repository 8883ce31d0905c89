package dto

import (
	"io"
	"time"

	"anoa.com/moviecatalog/internal/entity"
	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = time.DateOnly

// MovieSummary is the nested movie shape used inside authors and favorites.
type MovieSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ReleaseDate *string   `json:"release_date"`
	Status      string    `json:"status"`
}

// AuthorSummary is the nested author shape used inside movies.
type AuthorSummary struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Biography   string    `json:"biography"`
	Nationality string    `json:"nationality"`
}

type RateRequest struct {
	Score  *int   `json:"score" binding:"required,min=1,max=10"`
	Review string `json:"review" binding:"max=5000"`
}

type RatingResponse struct {
	ID        uint      `json:"id"`
	Score     int       `json:"score"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvatarFile is an uploaded image handed from a handler to a service.
type AvatarFile struct {
	Reader      io.Reader
	FileName    string
	Size        int64
	ContentType string
}

// MessageResponse is the body of informational replies.
type MessageResponse struct {
	Detail string `json:"detail"`
}

func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// ParseDate parses an optional YYYY-MM-DD value; empty input clears the date.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func NewMovieSummary(m *entity.Movie) MovieSummary {
	return MovieSummary{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: FormatDate(m.ReleaseDate),
		Status:      m.Status,
	}
}

func NewMovieSummaries(movies []entity.Movie) []MovieSummary {
	out := make([]MovieSummary, 0, len(movies))
	for i := range movies {
		out = append(out, NewMovieSummary(&movies[i]))
	}
	return out
}

func NewAuthorSummary(a *entity.Author) AuthorSummary {
	return AuthorSummary{
		ID:          a.UserID,
		Username:    a.User.Username,
		Biography:   a.Biography,
		Nationality: a.Nationality,
	}
}

func NewMovieRatingResponse(r *entity.MovieRating) RatingResponse {
	return RatingResponse{ID: r.ID, Score: r.Score, Review: r.Review, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func NewAuthorRatingResponse(r *entity.AuthorRating) RatingResponse {
	return RatingResponse{ID: r.ID, Score: r.Score, Review: r.Review, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}
