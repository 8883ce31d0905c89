package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/spectator/dto"
	"anoa.com/moviecatalog/internal/modules/spectator/repository"
	"anoa.com/moviecatalog/pkg/apperror"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"anoa.com/moviecatalog/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	avatarFolder   = "avatars"
	maxAvatarBytes = 5 << 20
)

var allowedAvatarExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

var (
	errNotFound          = apperror.NotFound("Not found.")
	errNotFavorite       = apperror.NotFound("Movie not in favorites.")
	errManageForbidden   = apperror.Forbidden("Only spectators can manage favorites.")
	errListForbidden     = apperror.Forbidden("Only spectators have favorites movies.")
	errProfileForbidden  = apperror.Forbidden("Only spectators have a profile.")
	errAvatarUnavailable = apperror.New(http.StatusServiceUnavailable, "Avatar uploads are not available.", apperror.ErrUnavailable)
)

type SpectatorService interface {
	AddFavorite(ctx context.Context, userID, movieID uuid.UUID) (*commonDto.MessageResponse, error)
	RemoveFavorite(ctx context.Context, userID, movieID uuid.UUID) error
	Favorites(ctx context.Context, userID uuid.UUID) ([]commonDto.MovieSummary, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput, avatar *commonDto.AvatarFile) (*dto.ProfileResponse, error)
}

type spectatorService struct {
	repo         repository.SpectatorRepository
	imageStorage storage.ImageStorage
	uploadFolder string
}

// NewSpectatorService wires favorites and profiles. imageStorage may be nil,
// in which case avatar uploads are refused.
func NewSpectatorService(repo repository.SpectatorRepository, imageStorage storage.ImageStorage, uploadFolder string) SpectatorService {
	return &spectatorService{
		repo:         repo,
		imageStorage: imageStorage,
		uploadFolder: uploadFolder,
	}
}

func (s *spectatorService) AddFavorite(ctx context.Context, userID, movieID uuid.UUID) (*commonDto.MessageResponse, error) {
	movie, err := s.findMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findSpectator(ctx, userID, errManageForbidden); err != nil {
		return nil, err
	}

	if err := s.repo.AddFavorite(ctx, userID, movieID); err != nil {
		return nil, err
	}

	return &commonDto.MessageResponse{Detail: fmt.Sprintf("'%s' added to favorites.", movie.Title)}, nil
}

func (s *spectatorService) RemoveFavorite(ctx context.Context, userID, movieID uuid.UUID) error {
	if _, err := s.findMovie(ctx, movieID); err != nil {
		return err
	}
	if _, err := s.findSpectator(ctx, userID, errManageForbidden); err != nil {
		return err
	}

	removed, err := s.repo.RemoveFavorite(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if !removed {
		return errNotFavorite
	}
	return nil
}

func (s *spectatorService) Favorites(ctx context.Context, userID uuid.UUID) ([]commonDto.MovieSummary, error) {
	if _, err := s.findSpectator(ctx, userID, errListForbidden); err != nil {
		return nil, err
	}

	movies, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return commonDto.NewMovieSummaries(movies), nil
}

func (s *spectatorService) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	spectator, err := s.findSpectator(ctx, userID, errProfileForbidden)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, spectator)
}

func (s *spectatorService) UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput, avatar *commonDto.AvatarFile) (*dto.ProfileResponse, error) {
	spectator, err := s.findSpectator(ctx, userID, errProfileForbidden)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		spectator.User.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		spectator.User.LastName = *input.LastName
	}
	if input.Bio != nil {
		spectator.Bio = *input.Bio
	}
	if input.DateOfBirth != nil {
		dob, err := commonDto.ParseDate(*input.DateOfBirth)
		if err != nil {
			return nil, apperror.Field("date_of_birth", "Date has wrong format. Use YYYY-MM-DD.")
		}
		spectator.DateOfBirth = dob
	}

	var oldAvatar *string
	if avatar != nil {
		url, err := s.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		oldAvatar = spectator.AvatarURL
		spectator.AvatarURL = &url
	}

	if err := s.repo.UpdateProfile(ctx, spectator); err != nil {
		if avatar != nil {
			if delErr := s.imageStorage.DeleteImage(ctx, *spectator.AvatarURL); delErr != nil {
				log.Warn().Err(delErr).Str("url", *spectator.AvatarURL).Msg("failed to delete orphaned avatar")
			}
		}
		return nil, err
	}

	if oldAvatar != nil && *oldAvatar != "" {
		if err := s.imageStorage.DeleteImage(ctx, *oldAvatar); err != nil {
			log.Warn().Err(err).Str("url", *oldAvatar).Msg("failed to delete previous avatar")
		}
	}

	return s.profile(ctx, spectator)
}

func (s *spectatorService) uploadAvatar(ctx context.Context, avatar *commonDto.AvatarFile) (string, error) {
	if s.imageStorage == nil {
		return "", errAvatarUnavailable
	}
	if avatar.Size > maxAvatarBytes {
		return "", apperror.Field("avatar", "Avatar must be 5 MB or smaller.")
	}
	ext := strings.ToLower(filepath.Ext(avatar.FileName))
	if !allowedAvatarExt[ext] {
		return "", apperror.Field("avatar", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	folder := avatarFolder
	if s.uploadFolder != "" {
		folder = s.uploadFolder + "/" + avatarFolder
	}
	return s.imageStorage.UploadImage(ctx, avatar.Reader, folder, avatar.FileName)
}

func (s *spectatorService) profile(ctx context.Context, spectator *entity.Spectator) (*dto.ProfileResponse, error) {
	count, err := s.repo.CountFavorites(ctx, spectator.UserID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProfileResponse(spectator, count)
	return &resp, nil
}

func (s *spectatorService) findMovie(ctx context.Context, movieID uuid.UUID) (*entity.Movie, error) {
	movie, err := s.repo.FindMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return movie, nil
}

func (s *spectatorService) findSpectator(ctx context.Context, userID uuid.UUID, forbidden error) (*entity.Spectator, error) {
	spectator, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forbidden
		}
		return nil, err
	}
	return spectator, nil
}
