package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source records where a catalog row came from.
const (
	SourceAdmin = "admin"
	SourceTMDB  = "tmdb"
)

const (
	MovieStatusRumored        = "rumored"
	MovieStatusPlanned        = "planned"
	MovieStatusInProduction   = "in_production"
	MovieStatusPostProduction = "post_production"
	MovieStatusReleased       = "released"
	MovieStatusCanceled       = "canceled"
)

const (
	EvaluationUnrated   = "unrated"
	EvaluationPoor      = "poor"
	EvaluationAverage   = "average"
	EvaluationGood      = "good"
	EvaluationExcellent = "excellent"
)

type Author struct {
	UserID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Biography   string         `gorm:"type:text;not null;default:''" json:"biography"`
	Website     string         `gorm:"size:200;not null;default:''" json:"website"`
	Birthdate   *time.Time     `gorm:"type:date" json:"birthdate"`
	Nationality string         `gorm:"size:100;not null;default:''" json:"nationality"`
	Source      string         `gorm:"size:10;not null;default:admin;index" json:"source"`
	TMDBID      *int64         `gorm:"column:tmdb_id;uniqueIndex" json:"tmdb_id"`
	Movies      []Movie        `gorm:"many2many:movie_authors;foreignKey:UserID;joinForeignKey:AuthorID;references:ID;joinReferences:MovieID" json:"movies,omitempty"`
	Ratings     []AuthorRating `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"ratings,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

type Spectator struct {
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	User           User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Bio            string     `gorm:"type:text;not null;default:''" json:"bio"`
	AvatarURL      *string    `gorm:"type:text" json:"avatar_url"`
	DateOfBirth    *time.Time `gorm:"type:date" json:"date_of_birth"`
	FavoriteMovies []Movie    `gorm:"many2many:spectator_favorite_movies;foreignKey:UserID;joinForeignKey:SpectatorID;references:ID;joinReferences:MovieID" json:"favorite_movies,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type Movie struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Overview         string     `gorm:"type:text;not null;default:''" json:"overview"`
	Tagline          string     `gorm:"size:500;not null;default:''" json:"tagline"`
	ReleaseDate      *time.Time `gorm:"type:date;index" json:"release_date"`
	Status           string     `gorm:"size:20;not null;default:released;index" json:"status"`
	Evaluation       string     `gorm:"size:20;not null;default:unrated" json:"evaluation"`
	Budget           *int64     `json:"budget"`
	Revenue          *int64     `json:"revenue"`
	OriginalLanguage string     `gorm:"size:10;not null;default:en" json:"original_language"`
	Adult            bool       `gorm:"not null;default:false" json:"adult"`
	Popularity       *float64   `json:"popularity"`
	VoteAverage      *float64   `json:"vote_average"`
	VoteCount        *int       `json:"vote_count"`
	Source           string     `gorm:"size:10;not null;default:admin;index" json:"source"`
	TMDBID           *int64     `gorm:"column:tmdb_id;uniqueIndex" json:"tmdb_id"`
	Authors          []Author   `gorm:"many2many:movie_authors;foreignKey:ID;joinForeignKey:MovieID;references:UserID;joinReferences:AuthorID" json:"authors,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Movie) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

// MovieRating holds one spectator's score for one movie; the pair is unique.
type MovieRating struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SpectatorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_movie_ratings_pair,priority:1" json:"spectator_id"`
	Spectator   Spectator `gorm:"foreignKey:SpectatorID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MovieID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_movie_ratings_pair,priority:2;index" json:"movie_id"`
	Movie       Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	Score       int       `gorm:"type:smallint;not null;check:chk_movie_ratings_score,score BETWEEN 1 AND 10" json:"score"`
	Review      string    `gorm:"type:text;not null;default:''" json:"review"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AuthorRating holds one spectator's score for one author; the pair is unique.
type AuthorRating struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SpectatorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_author_ratings_pair,priority:1" json:"spectator_id"`
	Spectator   Spectator `gorm:"foreignKey:SpectatorID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_author_ratings_pair,priority:2;index" json:"author_id"`
	Score       int       `gorm:"type:smallint;not null;check:chk_author_ratings_score,score BETWEEN 1 AND 10" json:"score"`
	Review      string    `gorm:"type:text;not null;default:''" json:"review"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MovieAuthor is a row of the movie_authors join table.
type MovieAuthor struct {
	MovieID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuthorID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (MovieAuthor) TableName() string { return "movie_authors" }

// FavoriteMovie is a row of the spectator_favorite_movies join table.
type FavoriteMovie struct {
	SpectatorID uuid.UUID `gorm:"type:uuid;primaryKey"`
	MovieID     uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (FavoriteMovie) TableName() string { return "spectator_favorite_movies" }
