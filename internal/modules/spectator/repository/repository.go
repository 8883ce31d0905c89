package repository

import (
	"context"

	"anoa.com/moviecatalog/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpectatorRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Spectator, error)
	FindMovie(ctx context.Context, movieID uuid.UUID) (*entity.Movie, error)
	AddFavorite(ctx context.Context, spectatorID, movieID uuid.UUID) error
	// RemoveFavorite reports whether a favorite row was actually removed.
	RemoveFavorite(ctx context.Context, spectatorID, movieID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, spectatorID uuid.UUID) ([]entity.Movie, error)
	CountFavorites(ctx context.Context, spectatorID uuid.UUID) (int64, error)
	UpdateProfile(ctx context.Context, spectator *entity.Spectator) error
}

type spectatorRepository struct {
	db *gorm.DB
}

func NewSpectatorRepository(db *gorm.DB) SpectatorRepository {
	return &spectatorRepository{db: db}
}

func (r *spectatorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Spectator, error) {
	var spectator entity.Spectator
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&spectator).Error; err != nil {
		return nil, err
	}
	return &spectator, nil
}

func (r *spectatorRepository) FindMovie(ctx context.Context, movieID uuid.UUID) (*entity.Movie, error) {
	var movie entity.Movie
	if err := r.db.WithContext(ctx).Where("id = ?", movieID).First(&movie).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *spectatorRepository) AddFavorite(ctx context.Context, spectatorID, movieID uuid.UUID) error {
	row := &entity.FavoriteMovie{SpectatorID: spectatorID, MovieID: movieID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *spectatorRepository) RemoveFavorite(ctx context.Context, spectatorID, movieID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("spectator_id = ? AND movie_id = ?", spectatorID, movieID).
		Delete(&entity.FavoriteMovie{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *spectatorRepository) ListFavorites(ctx context.Context, spectatorID uuid.UUID) ([]entity.Movie, error) {
	var movies []entity.Movie
	if err := r.db.WithContext(ctx).
		Joins("JOIN spectator_favorite_movies fav ON fav.movie_id = movies.id").
		Where("fav.spectator_id = ?", spectatorID).
		Order("movies.release_date DESC").
		Find(&movies).Error; err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *spectatorRepository) CountFavorites(ctx context.Context, spectatorID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.FavoriteMovie{}).
		Where("spectator_id = ?", spectatorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *spectatorRepository) UpdateProfile(ctx context.Context, spectator *entity.Spectator) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.User{}).
			Where("id = ?", spectator.UserID).
			Updates(map[string]any{
				"first_name": spectator.User.FirstName,
				"last_name":  spectator.User.LastName,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Spectator{}).
			Where("user_id = ?", spectator.UserID).
			Updates(map[string]any{
				"bio":           spectator.Bio,
				"avatar_url":    spectator.AvatarURL,
				"date_of_birth": spectator.DateOfBirth,
			}).Error
	})
}
