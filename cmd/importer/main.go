// Command importer pulls trending movies and their directors from TMDB.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/moviecatalog/internal/bootstrap"
	"anoa.com/moviecatalog/internal/config"
	authorRepo "anoa.com/moviecatalog/internal/modules/author/repository"
	importer "anoa.com/moviecatalog/internal/modules/importer/service"
	movieRepo "anoa.com/moviecatalog/internal/modules/movie/repository"
	search "anoa.com/moviecatalog/internal/modules/search/service"
	userRepo "anoa.com/moviecatalog/internal/modules/user/repository"
	"anoa.com/moviecatalog/pkg/database"
	"anoa.com/moviecatalog/pkg/logger"
	"anoa.com/moviecatalog/pkg/tmdb"
	"github.com/alecthomas/kingpin/v2"
	"github.com/rs/zerolog/log"
)

var (
	app   = kingpin.New("importer", "Import movies and directors from TMDB.")
	count = app.Flag("count", "Number of movies to import.").Default("50").Int()
	index = app.Flag("index", "Push imported movies to Meilisearch when MEILISEARCH_HOST is set.").Default("true").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.AppEnv)

	if err := cfg.ValidateImporter(); err != nil {
		log.Fatal().Err(err).Msg("importer config invalid")
	}
	if *count < 1 {
		app.Fatalf("--count must be at least 1")
	}

	db, err := database.Connect(cfg.DSN(), false)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed roles")
	}

	var movieIndex search.MovieIndex
	if *index && cfg.MeiliSearchHost != "" {
		movieIndex = search.NewMeiliSearchService(search.NewMeiliClient(cfg.MeiliSearchHost, cfg.MeiliMasterKey))
	}

	svc := importer.NewImportService(
		tmdb.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey, tmdb.WithRateLimit(cfg.TMDBRateLimit)),
		movieRepo.NewMovieRepository(db),
		authorRepo.NewAuthorRepository(db),
		userRepo.NewUserRepository(db),
		movieIndex,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := svc.Run(ctx, *count)
	if err != nil {
		log.Error().Err(err).Msg("import failed")
		stop()
		os.Exit(1)
	}

	log.Info().
		Int("movies_imported", result.MoviesImported).
		Int("authors_imported", result.AuthorsImported).
		Msg("done")
}
