// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"anoa.com/moviecatalog/internal/bootstrap"
	"anoa.com/moviecatalog/internal/entity"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const Password = "s3cret-pass"

// NewDB opens a private in-memory SQLite database with the full schema and
// seeded roles. The pool is pinned to one connection so the database lives
// as long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return db
}

var passwordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

func createUser(t *testing.T, db *gorm.DB, username, roleName string) *entity.User {
	t.Helper()

	var role entity.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %s: %v", roleName, err)
	}

	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		IsActive:     true,
		RoleID:       &role.ID,
		Role:         role,
	}
	if err := db.Omit("Role").Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()
	return createUser(t, db, username, entity.RoleAdmin)
}

func CreateSpectator(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()
	user := createUser(t, db, username, entity.RoleSpectator)
	if err := db.Create(&entity.Spectator{UserID: user.ID}).Error; err != nil {
		t.Fatalf("create spectator: %v", err)
	}
	return user
}

func CreateAuthor(t *testing.T, db *gorm.DB, username string) *entity.Author {
	t.Helper()
	user := createUser(t, db, username, entity.RoleAuthor)
	author := &entity.Author{
		UserID:      user.ID,
		Biography:   "Bio of " + username,
		Nationality: "French",
		Source:      entity.SourceAdmin,
	}
	if err := db.Omit("User").Create(author).Error; err != nil {
		t.Fatalf("create author: %v", err)
	}
	author.User = *user
	return author
}

// CreateMovie inserts a released admin movie; opts tweak fields before insert.
func CreateMovie(t *testing.T, db *gorm.DB, title string, opts ...func(*entity.Movie)) *entity.Movie {
	t.Helper()
	release := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	movie := &entity.Movie{
		Title:            title,
		ReleaseDate:      &release,
		Status:           entity.MovieStatusReleased,
		Evaluation:       entity.EvaluationUnrated,
		OriginalLanguage: "en",
		Source:           entity.SourceAdmin,
	}
	for _, opt := range opts {
		opt(movie)
	}
	if err := db.Create(movie).Error; err != nil {
		t.Fatalf("create movie: %v", err)
	}
	return movie
}

// LinkAuthor attaches an author to a movie through movie_authors.
func LinkAuthor(t *testing.T, db *gorm.DB, movie *entity.Movie, author *entity.Author) {
	t.Helper()
	link := &entity.MovieAuthor{MovieID: movie.ID, AuthorID: author.UserID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("link author: %v", err)
	}
}
