package service

import (
	"context"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/rating/repository"
	"anoa.com/moviecatalog/pkg/apperror"
	"anoa.com/moviecatalog/pkg/dto"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type RatingService interface {
	// CanRateMovie returns 404 for an unknown movie, then 403 when the caller
	// is not a spectator. Handlers call it before reading the body.
	CanRateMovie(ctx context.Context, userID, movieID uuid.UUID) error
	CanRateAuthor(ctx context.Context, userID, authorID uuid.UUID) error
	// RateMovie stores the spectator's score for the movie. The bool is true
	// when a new rating was created and false when an existing one changed.
	RateMovie(ctx context.Context, userID, movieID uuid.UUID, req dto.RateRequest) (*dto.RatingResponse, bool, error)
	RateAuthor(ctx context.Context, userID, authorID uuid.UUID, req dto.RateRequest) (*dto.RatingResponse, bool, error)
}

type ratingService struct {
	repo repository.RatingRepository
}

func NewRatingService(repo repository.RatingRepository) RatingService {
	return &ratingService{repo: repo}
}

func (s *ratingService) CanRateMovie(ctx context.Context, userID, movieID uuid.UUID) error {
	return s.ensure(ctx, s.repo.MovieExists, movieID, userID, "Only spectators can rate movies.")
}

func (s *ratingService) CanRateAuthor(ctx context.Context, userID, authorID uuid.UUID) error {
	return s.ensure(ctx, s.repo.AuthorExists, authorID, userID, "Only spectators can rate authors.")
}

func (s *ratingService) RateMovie(ctx context.Context, userID, movieID uuid.UUID, req dto.RateRequest) (*dto.RatingResponse, bool, error) {
	if err := s.CanRateMovie(ctx, userID, movieID); err != nil {
		return nil, false, err
	}

	rating := &entity.MovieRating{
		SpectatorID: userID,
		MovieID:     movieID,
		Score:       *req.Score,
		Review:      req.Review,
	}
	created, err := s.repo.UpsertMovieRating(ctx, rating)
	if err != nil {
		return nil, false, err
	}

	log.Debug().
		Str("spectator_id", userID.String()).
		Str("movie_id", movieID.String()).
		Int("score", rating.Score).
		Bool("created", created).
		Msg("movie rated")

	resp := dto.NewMovieRatingResponse(rating)
	return &resp, created, nil
}

func (s *ratingService) RateAuthor(ctx context.Context, userID, authorID uuid.UUID, req dto.RateRequest) (*dto.RatingResponse, bool, error) {
	if err := s.CanRateAuthor(ctx, userID, authorID); err != nil {
		return nil, false, err
	}

	rating := &entity.AuthorRating{
		SpectatorID: userID,
		AuthorID:    authorID,
		Score:       *req.Score,
		Review:      req.Review,
	}
	created, err := s.repo.UpsertAuthorRating(ctx, rating)
	if err != nil {
		return nil, false, err
	}

	resp := dto.NewAuthorRatingResponse(rating)
	return &resp, created, nil
}

// ensure checks the target first (404) and the caller second (403).
func (s *ratingService) ensure(ctx context.Context, targetExists func(context.Context, uuid.UUID) (bool, error), targetID, userID uuid.UUID, forbidden string) error {
	found, err := targetExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !found {
		return apperror.NotFound("Not found.")
	}

	isSpectator, err := s.repo.IsSpectator(ctx, userID)
	if err != nil {
		return err
	}
	if !isSpectator {
		return apperror.Forbidden(forbidden)
	}
	return nil
}
