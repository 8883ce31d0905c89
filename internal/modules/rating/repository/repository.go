package repository

import (
	"context"

	"anoa.com/moviecatalog/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	IsSpectator(ctx context.Context, userID uuid.UUID) (bool, error)
	MovieExists(ctx context.Context, movieID uuid.UUID) (bool, error)
	AuthorExists(ctx context.Context, authorID uuid.UUID) (bool, error)
	UpsertMovieRating(ctx context.Context, rating *entity.MovieRating) (bool, error)
	UpsertAuthorRating(ctx context.Context, rating *entity.AuthorRating) (bool, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) exists(ctx context.Context, model any, column string, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where(column+" = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ratingRepository) IsSpectator(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.exists(ctx, &entity.Spectator{}, "user_id", userID)
}

func (r *ratingRepository) MovieExists(ctx context.Context, movieID uuid.UUID) (bool, error) {
	return r.exists(ctx, &entity.Movie{}, "id", movieID)
}

func (r *ratingRepository) AuthorExists(ctx context.Context, authorID uuid.UUID) (bool, error) {
	return r.exists(ctx, &entity.Author{}, "user_id", authorID)
}

// UpsertMovieRating writes the rating for its (spectator, movie) pair and
// reports whether the row is new. rating is reloaded from the stored row.
func (r *ratingRepository) UpsertMovieRating(ctx context.Context, rating *entity.MovieRating) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = insertOrUpdate(tx, rating, &entity.MovieRating{}, "movie_id", rating.SpectatorID, rating.MovieID, rating.Score, rating.Review)
		if err != nil {
			return err
		}

		var stored entity.MovieRating
		if err := tx.Where("spectator_id = ? AND movie_id = ?", rating.SpectatorID, rating.MovieID).First(&stored).Error; err != nil {
			return err
		}
		*rating = stored
		return nil
	})
	return created, err
}

func (r *ratingRepository) UpsertAuthorRating(ctx context.Context, rating *entity.AuthorRating) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = insertOrUpdate(tx, rating, &entity.AuthorRating{}, "author_id", rating.SpectatorID, rating.AuthorID, rating.Score, rating.Review)
		if err != nil {
			return err
		}

		var stored entity.AuthorRating
		if err := tx.Where("spectator_id = ? AND author_id = ?", rating.SpectatorID, rating.AuthorID).First(&stored).Error; err != nil {
			return err
		}
		*rating = stored
		return nil
	})
	return created, err
}

// insertOrUpdate inserts rating unless the pair already has a row, then
// overwrites score and review instead. The unique index picks the single
// caller that creates the row, so concurrent first ratings report one create.
func insertOrUpdate(tx *gorm.DB, rating, model any, targetColumn string, spectatorID, targetID uuid.UUID, score int, review string) (bool, error) {
	res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spectator_id"}, {Name: targetColumn}},
		DoNothing: true,
	}).Create(rating)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	return false, tx.Model(model).
		Where("spectator_id = ? AND "+targetColumn+" = ?", spectatorID, targetID).
		Updates(map[string]any{"score": score, "review": review}).Error
}
