package repository

import (
	"context"
	"errors"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/author/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrHasMovies is returned by Delete when the author is still credited on a movie.
var ErrHasMovies = errors.New("author has linked movies")

type AuthorRepository interface {
	List(ctx context.Context, filter dto.AuthorFilter) ([]entity.Author, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Author, error)
	FindByTMDBID(ctx context.Context, tmdbID int64) (*entity.Author, error)
	Create(ctx context.Context, user *entity.User, author *entity.Author) error
	Update(ctx context.Context, author *entity.Author) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type authorRepository struct {
	db *gorm.DB
}

func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

const hasMoviesClause = "EXISTS (SELECT 1 FROM movie_authors WHERE movie_authors.author_id = authors.user_id)"

func (r *authorRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Movies", func(db *gorm.DB) *gorm.DB {
			return db.Order("movies.release_date DESC")
		}).
		Preload("Ratings", func(db *gorm.DB) *gorm.DB {
			return db.Order("author_ratings.created_at DESC")
		})
}

func (r *authorRepository) List(ctx context.Context, filter dto.AuthorFilter) ([]entity.Author, error) {
	query := r.withRelations(r.db.WithContext(ctx).Model(&entity.Author{}))

	if filter.Source != "" {
		query = query.Where("authors.source = ?", filter.Source)
	}
	if filter.HasMovies != nil {
		if *filter.HasMovies {
			query = query.Where(hasMoviesClause)
		} else {
			query = query.Where("NOT " + hasMoviesClause)
		}
	}

	var authors []entity.Author
	if err := query.Order("authors.created_at ASC").Find(&authors).Error; err != nil {
		return nil, err
	}
	return authors, nil
}

func (r *authorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Author, error) {
	var author entity.Author
	if err := r.withRelations(r.db.WithContext(ctx)).
		Where("user_id = ?", id).
		First(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *authorRepository) FindByTMDBID(ctx context.Context, tmdbID int64) (*entity.Author, error) {
	var author entity.Author
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("tmdb_id = ?", tmdbID).
		First(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// Create inserts the author's user identity and profile together.
func (r *authorRepository) Create(ctx context.Context, user *entity.User, author *entity.Author) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Role").Create(user).Error; err != nil {
			return err
		}

		author.UserID = user.ID
		if err := tx.Omit("User", "Movies", "Ratings").Create(author).Error; err != nil {
			return err
		}
		author.User = *user
		return nil
	})
}

func (r *authorRepository) Update(ctx context.Context, author *entity.Author) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.User{}).
			Where("id = ?", author.UserID).
			Updates(map[string]any{
				"first_name": author.User.FirstName,
				"last_name":  author.User.LastName,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Author{}).
			Where("user_id = ?", author.UserID).
			Updates(map[string]any{
				"biography":   author.Biography,
				"website":     author.Website,
				"birthdate":   author.Birthdate,
				"nationality": author.Nationality,
			}).Error
	})
}

// Delete removes the author with its ratings and user identity, unless a
// movie still credits it, in which case nothing changes and ErrHasMovies is
// returned.
func (r *authorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var linked int64
		if err := tx.Model(&entity.MovieAuthor{}).Where("author_id = ?", id).Count(&linked).Error; err != nil {
			return err
		}
		if linked > 0 {
			return ErrHasMovies
		}

		if err := tx.Where("author_id = ?", id).Delete(&entity.AuthorRating{}).Error; err != nil {
			return err
		}

		res := tx.Where("user_id = ?", id).Delete(&entity.Author{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("id = ?", id).Delete(&entity.User{}).Error
	})
}
