package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/movie/dto"
	"anoa.com/moviecatalog/internal/modules/movie/repository"
	search "anoa.com/moviecatalog/internal/modules/search/service"
	"anoa.com/moviecatalog/pkg/apperror"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	errNotFound         = apperror.NotFound("Not found.")
	errSearchDisabled   = apperror.New(http.StatusServiceUnavailable, "Search is not available.", apperror.ErrUnavailable)
	ErrCreateNotAllowed = apperror.New(http.StatusMethodNotAllowed, "Creating movies is not allowed.", apperror.ErrMethodNotAllowed)
	ErrDeleteNotAllowed = apperror.New(http.StatusMethodNotAllowed, "Deleting movies is not allowed.", apperror.ErrMethodNotAllowed)
)

type MovieService interface {
	List(ctx context.Context, filter dto.MovieFilter) ([]dto.MovieResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.MovieResponse, error)
	// Update applies req to the movie. partial=false is a PUT and requires a title.
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateMovieRequest, partial bool) (*dto.MovieResponse, error)
	Search(ctx context.Context, query dto.SearchQuery) (*search.SearchResult, error)
}

type movieService struct {
	repo  repository.MovieRepository
	index search.MovieIndex
}

// NewMovieService wires the movie use cases. index may be nil, which
// disables search and reindexing.
func NewMovieService(repo repository.MovieRepository, index search.MovieIndex) MovieService {
	return &movieService{repo: repo, index: index}
}

func (s *movieService) List(ctx context.Context, filter dto.MovieFilter) ([]dto.MovieResponse, error) {
	movies, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MovieResponse, 0, len(movies))
	for i := range movies {
		out = append(out, dto.NewMovieResponse(&movies[i]))
	}
	return out, nil
}

func (s *movieService) Get(ctx context.Context, id uuid.UUID) (*dto.MovieResponse, error) {
	movie, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewMovieResponse(movie)
	return &resp, nil
}

func (s *movieService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateMovieRequest, partial bool) (*dto.MovieResponse, error) {
	movie, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(movie, req, partial); err != nil {
		return nil, err
	}

	var authorIDs []uuid.UUID
	if req.AuthorIDs != nil {
		authorIDs = uniqueIDs(*req.AuthorIDs)
		found, err := s.repo.CountAuthors(ctx, authorIDs)
		if err != nil {
			return nil, err
		}
		if found != int64(len(authorIDs)) {
			return nil, apperror.Field("author_ids", "Invalid pk - object does not exist.")
		}
	}

	if err := s.repo.Update(ctx, movie, authorIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(updated)

	resp := dto.NewMovieResponse(updated)
	return &resp, nil
}

func (s *movieService) Search(ctx context.Context, query dto.SearchQuery) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, errSearchDisabled
	}

	result, err := s.index.SearchMovies(strings.TrimSpace(query.Q), search.SearchFilter{
		Status: query.Status,
		Source: query.Source,
		Limit:  query.Limit,
	})
	if err != nil {
		log.Error().Err(err).Str("query", query.Q).Msg("movie search failed")
		return nil, apperror.New(http.StatusServiceUnavailable, "Search is not available.", err)
	}
	return result, nil
}

func (s *movieService) reindex(movie *entity.Movie) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexMovies(movie); err != nil {
		log.Warn().Err(err).Str("movie_id", movie.ID.String()).Msg("failed to reindex movie")
	}
}

func (s *movieService) find(ctx context.Context, id uuid.UUID) (*entity.Movie, error) {
	movie, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return movie, nil
}

func applyUpdate(movie *entity.Movie, req dto.UpdateMovieRequest, partial bool) error {
	if req.Title == nil && !partial {
		return apperror.Field("title", "This field is required.")
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return apperror.Field("title", "This field may not be blank.")
		}
		movie.Title = title
	}

	if req.ReleaseDate != nil {
		date, err := commonDto.ParseDate(*req.ReleaseDate)
		if err != nil {
			return apperror.Field("release_date", "Date has wrong format. Use YYYY-MM-DD.")
		}
		movie.ReleaseDate = date
	}

	if req.Overview != nil {
		movie.Overview = *req.Overview
	}
	if req.Tagline != nil {
		movie.Tagline = *req.Tagline
	}
	if req.Status != nil {
		movie.Status = *req.Status
	}
	if req.Evaluation != nil {
		movie.Evaluation = *req.Evaluation
	}
	if req.Budget != nil {
		movie.Budget = req.Budget
	}
	if req.Revenue != nil {
		movie.Revenue = req.Revenue
	}
	if req.OriginalLanguage != nil {
		movie.OriginalLanguage = *req.OriginalLanguage
	}
	if req.Adult != nil {
		movie.Adult = *req.Adult
	}
	if req.Popularity != nil {
		movie.Popularity = req.Popularity
	}
	if req.VoteAverage != nil {
		movie.VoteAverage = req.VoteAverage
	}
	if req.VoteCount != nil {
		movie.VoteCount = req.VoteCount
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
