package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/moviecatalog/internal/entity"
	authorRepo "anoa.com/moviecatalog/internal/modules/author/repository"
	movieRepo "anoa.com/moviecatalog/internal/modules/movie/repository"
	search "anoa.com/moviecatalog/internal/modules/search/service"
	userRepo "anoa.com/moviecatalog/internal/modules/user/repository"
	"anoa.com/moviecatalog/pkg/tmdb"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const usernameAttempts = 5

// Catalog is the slice of the TMDB API the import walks.
type Catalog interface {
	TrendingMovies(ctx context.Context, page int) (*tmdb.MoviePage, error)
	MovieCredits(ctx context.Context, movieID int64) (*tmdb.Credits, error)
	Person(ctx context.Context, personID int64) (*tmdb.Person, error)
}

type Result struct {
	MoviesImported  int `json:"movies_imported"`
	AuthorsImported int `json:"authors_imported"`
}

type ImportService interface {
	// Run imports up to count new trending movies with their directors.
	// Any TMDB or database failure aborts the run.
	Run(ctx context.Context, count int) (*Result, error)
}

type importService struct {
	catalog Catalog
	movies  movieRepo.MovieRepository
	authors authorRepo.AuthorRepository
	users   userRepo.UserRepository
	index   search.MovieIndex
}

// NewImportService wires the TMDB import. index may be nil.
func NewImportService(
	catalog Catalog,
	movies movieRepo.MovieRepository,
	authors authorRepo.AuthorRepository,
	users userRepo.UserRepository,
	index search.MovieIndex,
) ImportService {
	return &importService{
		catalog: catalog,
		movies:  movies,
		authors: authors,
		users:   users,
		index:   index,
	}
}

func (s *importService) Run(ctx context.Context, count int) (*Result, error) {
	log.Info().Int("count", count).Msg("importing movies from TMDB")

	result := &Result{}
	page := 1
	for result.MoviesImported < count {
		data, err := s.catalog.TrendingMovies(ctx, page)
		if err != nil {
			return result, fmt.Errorf("fetch trending page %d: %w", page, err)
		}

		for i := range data.Results {
			if result.MoviesImported >= count {
				break
			}
			if err := s.importMovie(ctx, &data.Results[i], result); err != nil {
				return result, err
			}
		}

		page++
		if page > data.TotalPages {
			log.Warn().
				Int("movies_imported", result.MoviesImported).
				Int("authors_imported", result.AuthorsImported).
				Msg("no more pages to import")
			break
		}
	}

	log.Info().
		Int("movies_imported", result.MoviesImported).
		Int("authors_imported", result.AuthorsImported).
		Msg("TMDB import done")
	return result, nil
}

func (s *importService) importMovie(ctx context.Context, data *tmdb.MovieResult, result *Result) error {
	exists, err := s.movies.ExistsByTMDBID(ctx, data.ID)
	if err != nil {
		return fmt.Errorf("check movie %d: %w", data.ID, err)
	}
	if exists {
		log.Info().Str("title", data.Title).Int64("tmdb_id", data.ID).Msg("skipping movie, already exists")
		return nil
	}

	movie := newMovie(data)
	if err := s.movies.Create(ctx, movie); err != nil {
		return fmt.Errorf("create movie %d: %w", data.ID, err)
	}
	result.MoviesImported++
	log.Info().Str("title", movie.Title).Msg("imported movie")

	credits, err := s.catalog.MovieCredits(ctx, data.ID)
	if err != nil {
		return fmt.Errorf("fetch credits for movie %d: %w", data.ID, err)
	}

	for _, director := range credits.Directors() {
		author, created, err := s.findOrCreateAuthor(ctx, director.ID)
		if err != nil {
			return err
		}
		if err := s.movies.LinkAuthor(ctx, movie.ID, author.UserID); err != nil {
			return fmt.Errorf("link director %d to movie %d: %w", director.ID, data.ID, err)
		}
		if created {
			result.AuthorsImported++
			log.Info().Str("username", author.User.Username).Msg("imported director")
		}
	}

	s.reindex(ctx, movie.ID)
	return nil
}

func (s *importService) findOrCreateAuthor(ctx context.Context, personID int64) (*entity.Author, bool, error) {
	existing, err := s.authors.FindByTMDBID(ctx, personID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find director %d: %w", personID, err)
	}

	person, err := s.catalog.Person(ctx, personID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch person %d: %w", personID, err)
	}

	role, err := s.users.FindRoleByName(ctx, entity.RoleAuthor)
	if err != nil {
		return nil, false, fmt.Errorf("find author role: %w", err)
	}

	name := strings.TrimSpace(person.Name)
	if name == "" {
		name = "Unknown"
	}
	username, err := s.uniqueUsername(ctx, name)
	if err != nil {
		return nil, false, err
	}

	// Imported authors get a random password nobody knows.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	first, last := splitName(name)
	user := &entity.User{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
		RoleID:       &role.ID,
	}
	tmdbID := person.ID
	author := &entity.Author{
		Biography: person.Biography,
		Birthdate: tmdb.ParseDate(person.Birthday),
		Source:    entity.SourceTMDB,
		TMDBID:    &tmdbID,
	}
	if err := s.authors.Create(ctx, user, author); err != nil {
		return nil, false, fmt.Errorf("create director %d: %w", personID, err)
	}
	return author, true, nil
}

func (s *importService) uniqueUsername(ctx context.Context, name string) (string, error) {
	for range usernameAttempts {
		username := GenerateUsername(name)
		taken, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if !taken {
			return username, nil
		}
	}
	return "", fmt.Errorf("no free username for %q after %d attempts", name, usernameAttempts)
}

func (s *importService) reindex(ctx context.Context, id uuid.UUID) {
	if s.index == nil {
		return
	}
	movie, err := s.movies.FindByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("movie_id", id.String()).Msg("failed to load movie for indexing")
		return
	}
	if err := s.index.IndexMovies(movie); err != nil {
		log.Warn().Err(err).Str("movie_id", id.String()).Msg("failed to index movie")
	}
}

func newMovie(data *tmdb.MovieResult) *entity.Movie {
	tmdbID := data.ID
	lang := data.OriginalLanguage
	if lang == "" {
		lang = "en"
	}
	return &entity.Movie{
		Title:            data.Title,
		Overview:         data.Overview,
		ReleaseDate:      tmdb.ParseDate(data.ReleaseDate),
		Status:           entity.MovieStatusReleased,
		Evaluation:       entity.EvaluationUnrated,
		OriginalLanguage: lang,
		Adult:            data.Adult,
		Popularity:       data.Popularity,
		VoteAverage:      data.VoteAverage,
		VoteCount:        data.VoteCount,
		Source:           entity.SourceTMDB,
		TMDBID:           &tmdbID,
	}
}

// GenerateUsername lowercases name, turns spaces and hyphens into
// underscores and appends a 5 character random suffix.
func GenerateUsername(name string) string {
	base := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(name))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	return base + "_" + suffix
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
