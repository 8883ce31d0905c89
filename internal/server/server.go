package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/moviecatalog/internal/config"
	"anoa.com/moviecatalog/internal/middleware"
	"anoa.com/moviecatalog/pkg/jwt"
	"anoa.com/moviecatalog/pkg/storage"
	"anoa.com/moviecatalog/pkg/tmdb"

	authorHttp "anoa.com/moviecatalog/internal/modules/author/delivery/http"
	authorRepo "anoa.com/moviecatalog/internal/modules/author/repository"
	authorService "anoa.com/moviecatalog/internal/modules/author/service"

	importerService "anoa.com/moviecatalog/internal/modules/importer/service"

	movieHttp "anoa.com/moviecatalog/internal/modules/movie/delivery/http"
	movieRepo "anoa.com/moviecatalog/internal/modules/movie/repository"
	movieService "anoa.com/moviecatalog/internal/modules/movie/service"

	ratingRepo "anoa.com/moviecatalog/internal/modules/rating/repository"
	ratingService "anoa.com/moviecatalog/internal/modules/rating/service"

	searchService "anoa.com/moviecatalog/internal/modules/search/service"

	spectatorHttp "anoa.com/moviecatalog/internal/modules/spectator/delivery/http"
	spectatorRepo "anoa.com/moviecatalog/internal/modules/spectator/repository"
	spectatorService "anoa.com/moviecatalog/internal/modules/spectator/service"

	userHttp "anoa.com/moviecatalog/internal/modules/user/delivery/http"
	userRepo "anoa.com/moviecatalog/internal/modules/user/repository"
	userService "anoa.com/moviecatalog/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *importerService.Scheduler
}

// NewServer wires every module. redisClient may be nil; Meilisearch,
// Cloudinary and the import schedule are enabled only when configured.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	imageStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryCloudName)
	if err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			return nil, fmt.Errorf("failed to initialize cloudinary storage: %w", err)
		}
		log.Info().Msg("cloudinary not configured, avatar uploads disabled")
	}

	var movieIndex searchService.MovieIndex
	if cfg.MeiliSearchHost != "" {
		movieIndex = searchService.NewMeiliSearchService(searchService.NewMeiliClient(cfg.MeiliSearchHost, cfg.MeiliMasterKey))
	} else {
		log.Info().Msg("meilisearch not configured, movie search disabled")
	}

	userRepository := userRepo.NewUserRepository(db)
	blacklist := userService.NewRedisBlacklist(redisClient)
	authSvc := userService.NewAuthService(userRepository, tokens, blacklist, redisClient, cfg.RateLimitRegister)
	authHandler := userHttp.NewAuthHandler(authSvc)

	ratingSvc := ratingService.NewRatingService(ratingRepo.NewRatingRepository(db))

	authorRepository := authorRepo.NewAuthorRepository(db)
	authorSvc := authorService.NewAuthorService(authorRepository, userRepository)
	authorHandler := authorHttp.NewAuthorHandler(authorSvc, ratingSvc)

	movieRepository := movieRepo.NewMovieRepository(db)
	movieSvc := movieService.NewMovieService(movieRepository, movieIndex)
	movieHandler := movieHttp.NewMovieHandler(movieSvc, ratingSvc)

	spectatorSvc := spectatorService.NewSpectatorService(spectatorRepo.NewSpectatorRepository(db), imageStorage, cfg.CloudinaryUploadFolder)
	spectatorHandler := spectatorHttp.NewSpectatorHandler(spectatorSvc)

	var scheduler *importerService.Scheduler
	if cfg.ImportSchedule != "" {
		if cfg.TMDBAPIKey == "" {
			log.Warn().Msg("IMPORT_SCHEDULE is set but TMDB_API_KEY is empty, import not scheduled")
		} else {
			catalog := tmdb.NewClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey, tmdb.WithRateLimit(cfg.TMDBRateLimit))
			importer := importerService.NewImportService(catalog, movieRepository, authorRepository, userRepository, movieIndex)
			scheduler = importerService.NewScheduler(importer, cfg.ImportCount)
			if err := scheduler.Schedule(cfg.ImportSchedule); err != nil {
				return nil, fmt.Errorf("invalid IMPORT_SCHEDULE: %w", err)
			}
			scheduler.Start()
		}
	}

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": fmt.Sprintf("Method \"%s\" not allowed.", c.Request.Method)})
	})

	s := &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}
	router.GET("/healthz", s.health)

	authMiddleware := middleware.NewAuthMiddleware(userRepository, tokens)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register/", authHandler.Register)
		auth.POST("/token/", authHandler.ObtainToken)
		auth.POST("/token/refresh/", authHandler.Refresh)
		auth.POST("/logout/", authHandler.Logout)
	}

	// Reads are public, writes need a bearer token.
	authors := api.Group("/authors")
	authors.Use(authMiddleware.ReadOnlyOrAuth())
	{
		authors.GET("/", authorHandler.List)
		authors.POST("/", authMiddleware.RequireAdmin(), authorHandler.Create)
		authors.GET("/:id/", authorHandler.Get)
		authors.PUT("/:id/", authorHandler.Update)
		authors.PATCH("/:id/", authorHandler.Update)
		authors.DELETE("/:id/", authorHandler.Delete)
		authors.POST("/:id/rate/", authorHandler.Rate)
	}

	movies := api.Group("/movies")
	movies.Use(authMiddleware.ReadOnlyOrAuth())
	{
		movies.GET("/", movieHandler.List)
		movies.POST("/", movieHandler.Create)
		movies.GET("/search/", movieHandler.Search)
		movies.GET("/favorites/", authMiddleware.RequireAuth(), spectatorHandler.Favorites)
		movies.GET("/:id/", movieHandler.Get)
		movies.PUT("/:id/", movieHandler.Replace)
		movies.PATCH("/:id/", movieHandler.Patch)
		movies.DELETE("/:id/", movieHandler.Delete)
		movies.POST("/:id/rate/", movieHandler.Rate)
		movies.POST("/:id/favorite/", spectatorHandler.AddFavorite)
		movies.DELETE("/:id/favorite/", spectatorHandler.RemoveFavorite)
	}

	profile := api.Group("/profile")
	profile.Use(authMiddleware.RequireAuth())
	{
		profile.GET("/me/", spectatorHandler.GetProfile)
		profile.PUT("/me/", spectatorHandler.UpdateProfile)
		profile.PATCH("/me/", spectatorHandler.UpdateProfile)
	}

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close stops background jobs. The database and redis clients belong to the caller.
func (s *Server) Close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("health check: database unreachable")
		status["status"] = "degraded"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}

	if s.redisClient != nil {
		status["redis"] = "ok"
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("health check: redis unreachable")
			status["status"] = "degraded"
			status["redis"] = "down"
		}
	}

	c.JSON(code, status)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
