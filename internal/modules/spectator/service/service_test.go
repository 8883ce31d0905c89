package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/spectator/dto"
	"anoa.com/moviecatalog/internal/modules/spectator/repository"
	"anoa.com/moviecatalog/internal/testutil"
	"anoa.com/moviecatalog/pkg/apperror"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	uploads []string
	deleted []string
	failDel bool
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + fileName
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeStorage) DeleteImage(_ context.Context, fileURL string) error {
	if f.failDel {
		return errors.New("cloudinary down")
	}
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func strPtr(s string) *string { return &s }

func avatar(name string) *commonDto.AvatarFile {
	return &commonDto.AvatarFile{Reader: strings.NewReader("img"), FileName: name, Size: 3, ContentType: "image/png"}
}

func TestAddFavorite_IsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")
	movie := testutil.CreateMovie(t, db, "Alien")
	ctx := context.Background()

	msg, err := svc.AddFavorite(ctx, viewer.ID, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "'Alien' added to favorites.", msg.Detail)

	_, err = svc.AddFavorite(ctx, viewer.ID, movie.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&entity.FavoriteMovie{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddFavorite_ChecksMovieBeforeRole(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	admin := testutil.CreateAdmin(t, db, "boss")
	movie := testutil.CreateMovie(t, db, "Alien")
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, admin.ID, uuid.New())
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))

	_, err = svc.AddFavorite(ctx, admin.ID, movie.ID)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
	assert.Equal(t, "Only spectators can manage favorites.", err.Error())
}

func TestRemoveFavorite(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")
	movie := testutil.CreateMovie(t, db, "Alien")
	ctx := context.Background()

	err := svc.RemoveFavorite(ctx, viewer.ID, movie.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
	assert.Equal(t, "Movie not in favorites.", err.Error())

	_, err = svc.AddFavorite(ctx, viewer.ID, movie.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveFavorite(ctx, viewer.ID, movie.ID))

	favorites, err := svc.Favorites(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestFavorites_NewestReleaseFirst(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")
	older := testutil.CreateMovie(t, db, "Alien", func(m *entity.Movie) {
		d := time.Date(1979, 5, 25, 0, 0, 0, 0, time.UTC)
		m.ReleaseDate = &d
	})
	newer := testutil.CreateMovie(t, db, "Prometheus")
	testutil.CreateMovie(t, db, "Not a favorite")
	ctx := context.Background()

	for _, m := range []*entity.Movie{older, newer} {
		_, err := svc.AddFavorite(ctx, viewer.ID, m.ID)
		require.NoError(t, err)
	}

	favorites, err := svc.Favorites(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, "Prometheus", favorites[0].Title)
	assert.Equal(t, "Alien", favorites[1].Title)
	require.NotNil(t, favorites[1].ReleaseDate)
	assert.Equal(t, "1979-05-25", *favorites[1].ReleaseDate)
}

func TestFavorites_ForbiddenForAuthors(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	author := testutil.CreateAuthor(t, db, "scott")

	_, err := svc.Favorites(context.Background(), author.UserID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
	assert.Equal(t, "Only spectators have favorites movies.", err.Error())
}

func TestUpdateProfile_FieldsAndDate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")
	ctx := context.Background()

	profile, err := svc.UpdateProfile(ctx, viewer.ID, dto.UpdateProfileInput{
		FirstName:   strPtr("Ellen"),
		Bio:         strPtr("Watches sci-fi."),
		DateOfBirth: strPtr("1990-04-02"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ellen", profile.FirstName)
	assert.Equal(t, "Watches sci-fi.", profile.Bio)
	require.NotNil(t, profile.DateOfBirth)
	assert.Equal(t, "1990-04-02", *profile.DateOfBirth)

	reloaded, err := svc.GetProfile(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ellen", reloaded.FirstName)
	assert.Equal(t, "viewer", reloaded.Username)
	assert.Equal(t, "1990-04-02", *reloaded.DateOfBirth)
}

func TestUpdateProfile_AvatarWithoutStorage(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), nil, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")

	_, err := svc.UpdateProfile(context.Background(), viewer.ID, dto.UpdateProfileInput{}, avatar("me.png"))
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperror.MapErrorToStatus(err))
}

func TestUpdateProfile_ReplacesAvatar(t *testing.T) {
	db := testutil.NewDB(t)
	store := &fakeStorage{}
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), store, "moviecatalog")
	viewer := testutil.CreateSpectator(t, db, "viewer")
	ctx := context.Background()

	first, err := svc.UpdateProfile(ctx, viewer.ID, dto.UpdateProfileInput{}, avatar("one.png"))
	require.NoError(t, err)
	require.NotNil(t, first.AvatarURL)
	assert.Contains(t, *first.AvatarURL, "moviecatalog/avatars/one.png")

	second, err := svc.UpdateProfile(ctx, viewer.ID, dto.UpdateProfileInput{}, avatar("two.png"))
	require.NoError(t, err)
	assert.Contains(t, *second.AvatarURL, "two.png")
	assert.Equal(t, []string{*first.AvatarURL}, store.deleted)
}

func TestUpdateProfile_RejectsNonImage(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSpectatorService(repository.NewSpectatorRepository(db), &fakeStorage{}, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")

	_, err := svc.UpdateProfile(context.Background(), viewer.ID, dto.UpdateProfileInput{}, avatar("notes.txt"))
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "avatar")
}

type failingProfileRepo struct {
	repository.SpectatorRepository
}

func (failingProfileRepo) UpdateProfile(context.Context, *entity.Spectator) error {
	return errors.New("database is read-only")
}

func TestUpdateProfile_DeletesUploadWhenSaveFails(t *testing.T) {
	db := testutil.NewDB(t)
	store := &fakeStorage{}
	repo := failingProfileRepo{repository.NewSpectatorRepository(db)}
	svc := NewSpectatorService(repo, store, "")
	viewer := testutil.CreateSpectator(t, db, "viewer")

	_, err := svc.UpdateProfile(context.Background(), viewer.ID, dto.UpdateProfileInput{}, avatar("one.png"))
	require.EqualError(t, err, "database is read-only")

	require.Len(t, store.uploads, 1)
	assert.Equal(t, store.uploads, store.deleted)

	var stored entity.Spectator
	require.NoError(t, db.Where("user_id = ?", viewer.ID).First(&stored).Error)
	assert.Nil(t, stored.AvatarURL)
}
