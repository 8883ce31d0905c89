package repository

import (
	"context"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/movie/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovieRepository interface {
	List(ctx context.Context, filter dto.MovieFilter) ([]entity.Movie, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Movie, error)
	ExistsByTMDBID(ctx context.Context, tmdbID int64) (bool, error)
	Create(ctx context.Context, movie *entity.Movie) error
	// Update saves movie's columns and, when authorIDs is non-nil, replaces
	// its author links with exactly those authors.
	Update(ctx context.Context, movie *entity.Movie, authorIDs []uuid.UUID) error
	LinkAuthor(ctx context.Context, movieID, authorID uuid.UUID) error
	CountAuthors(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type movieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

func preloadAuthors(db *gorm.DB) *gorm.DB {
	return db.Preload("Authors", func(db *gorm.DB) *gorm.DB {
		return db.Order("authors.created_at ASC")
	}).Preload("Authors.User")
}

func (r *movieRepository) List(ctx context.Context, filter dto.MovieFilter) ([]entity.Movie, error) {
	query := preloadAuthors(r.db.WithContext(ctx))

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}

	var movies []entity.Movie
	if err := query.Order("release_date DESC").Order("created_at DESC").Find(&movies).Error; err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Movie, error) {
	var movie entity.Movie
	if err := preloadAuthors(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&movie).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepository) ExistsByTMDBID(ctx context.Context, tmdbID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Movie{}).
		Where("tmdb_id = ?", tmdbID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *movieRepository) Create(ctx context.Context, movie *entity.Movie) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(movie).Error
}

var updatableColumns = []string{
	"title", "overview", "tagline", "release_date", "status", "evaluation",
	"budget", "revenue", "original_language", "adult", "popularity",
	"vote_average", "vote_count", "updated_at",
}

func (r *movieRepository) Update(ctx context.Context, movie *entity.Movie, authorIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(movie).Select(updatableColumns).Omit(clause.Associations).Updates(movie)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if authorIDs == nil {
			return nil
		}

		if err := tx.Where("movie_id = ?", movie.ID).Delete(&entity.MovieAuthor{}).Error; err != nil {
			return err
		}
		if len(authorIDs) == 0 {
			return nil
		}

		links := make([]entity.MovieAuthor, 0, len(authorIDs))
		for _, id := range authorIDs {
			links = append(links, entity.MovieAuthor{MovieID: movie.ID, AuthorID: id})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

func (r *movieRepository) LinkAuthor(ctx context.Context, movieID, authorID uuid.UUID) error {
	link := &entity.MovieAuthor{MovieID: movieID, AuthorID: authorID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
}

func (r *movieRepository) CountAuthors(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Author{}).Where("user_id IN ?", ids).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
