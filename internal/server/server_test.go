package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/moviecatalog/internal/config"
	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/testutil"
	"anoa.com/moviecatalog/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		AppEnv:         "test",
		AllowedOrigins: "http://localhost:3000",
		JWTSecret:      "test-secret",
		AccessTTL:      5 * time.Minute,
		RefreshTTL:     time.Hour,
	}

	srv, err := NewServer(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv.Handler(), db
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/auth/token/", "", map[string]string{
		"username": username,
		"password": testutil.Password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]string](t, rec)["access"]
}

func releasedOn(year int) func(*entity.Movie) {
	return func(m *entity.Movie) {
		d := time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
		m.ReleaseDate = &d
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec := call(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestMovies_ListOrderAndFilter(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateMovie(t, db, "Thief", releasedOn(1981))
	testutil.CreateMovie(t, db, "Heat", releasedOn(1995))
	testutil.CreateMovie(t, db, "Blackhat", releasedOn(2015), func(m *entity.Movie) {
		m.Status = entity.MovieStatusPostProduction
	})

	rec := call(t, h, http.MethodGet, "/api/movies/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	movies := decode[[]map[string]any](t, rec)
	require.Len(t, movies, 3)
	assert.Equal(t, "Blackhat", movies[0]["title"])
	assert.Equal(t, "Heat", movies[1]["title"])
	assert.Equal(t, "Thief", movies[2]["title"])

	rec = call(t, h, http.MethodGet, "/api/movies/?status=post_production", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	movies = decode[[]map[string]any](t, rec)
	require.Len(t, movies, 1)
	assert.Equal(t, "Blackhat", movies[0]["title"])

	rec = call(t, h, http.MethodGet, "/api/movies/?status=canceled", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/movies/?status=lost", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMovies_CreateAndDeleteNotAllowed(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateAdmin(t, db, "boss")
	movie := testutil.CreateMovie(t, db, "Heat")
	token := login(t, h, "boss")

	rec := call(t, h, http.MethodPost, "/api/movies/", token, map[string]string{"title": "New"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Creating movies is not allowed.", decode[apiError](t, rec).Error)

	rec = call(t, h, http.MethodDelete, "/api/movies/"+movie.ID.String()+"/", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Deleting movies is not allowed.", decode[apiError](t, rec).Error)

	var count int64
	require.NoError(t, db.Model(&entity.Movie{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMovies_WritesNeedToken(t *testing.T) {
	h, db := newTestServer(t)
	movie := testutil.CreateMovie(t, db, "Heat")

	rec := call(t, h, http.MethodPatch, "/api/movies/"+movie.ID.String()+"/", "", map[string]string{"title": "X"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided.", decode[apiError](t, rec).Error)

	rec = call(t, h, http.MethodPatch, "/api/movies/"+movie.ID.String()+"/", "garbage", map[string]string{"title": "X"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMovies_Update(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateAdmin(t, db, "boss")
	author := testutil.CreateAuthor(t, db, "mann")
	movie := testutil.CreateMovie(t, db, "Heat")
	token := login(t, h, "boss")
	path := "/api/movies/" + movie.ID.String() + "/"

	rec := call(t, h, http.MethodPut, path, token, map[string]string{"overview": "no title"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This field is required.", decode[apiError](t, rec).Fields["title"])

	rec = call(t, h, http.MethodPatch, path, token, map[string]any{
		"tagline":    "A Los Angeles crime saga",
		"author_ids": []string{author.UserID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Heat", body["title"])
	assert.Equal(t, "A Los Angeles crime saga", body["tagline"])
	require.Len(t, body["authors"], 1)

	rec = call(t, h, http.MethodPatch, path, token, map[string]any{"author_ids": []string{movie.ID.String()}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid pk - object does not exist.", decode[apiError](t, rec).Fields["author_ids"])

	rec = call(t, h, http.MethodGet, "/api/movies/not-a-uuid/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMovies_RateCreatesThenUpdates(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateSpectator(t, db, "viewer")
	movie := testutil.CreateMovie(t, db, "Heat")
	token := login(t, h, "viewer")
	path := "/api/movies/" + movie.ID.String() + "/rate/"

	rec := call(t, h, http.MethodPost, path, token, map[string]any{"score": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(t, h, http.MethodPost, path, token, map[string]any{"score": 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, db.Model(&entity.MovieRating{}).Count(&count).Error)
	assert.Zero(t, count)

	rec = call(t, h, http.MethodPost, path, token, map[string]any{"score": 7, "review": "tense"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, path, token, map[string]any{"score": 9})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 9, decode[map[string]any](t, rec)["score"])

	var ratings []entity.MovieRating
	require.NoError(t, db.Find(&ratings).Error)
	require.Len(t, ratings, 1)
	assert.Equal(t, 9, ratings[0].Score)
}

func TestRate_RoleCheckedBeforeBody(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateAdmin(t, db, "boss")
	movie := testutil.CreateMovie(t, db, "Heat")
	author := testutil.CreateAuthor(t, db, "mann")
	token := login(t, h, "boss")

	rec := call(t, h, http.MethodPost, "/api/movies/"+movie.ID.String()+"/rate/", token, map[string]any{"score": 11})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, "Only spectators can rate movies.", decode[apiError](t, rec).Error)

	rec = call(t, h, http.MethodPost, "/api/authors/"+author.UserID.String()+"/rate/", token, map[string]any{"score": 0})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/api/movies/"+author.UserID.String()+"/rate/", token, map[string]any{"score": 11})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthors_RateScoreRange(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateSpectator(t, db, "viewer")
	author := testutil.CreateAuthor(t, db, "mann")
	token := login(t, h, "viewer")
	path := "/api/authors/" + author.UserID.String() + "/rate/"

	for _, score := range []int{0, 11} {
		rec := call(t, h, http.MethodPost, path, token, map[string]any{"score": score})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, decode[apiError](t, rec).Fields, "score")
	}

	var count int64
	require.NoError(t, db.Model(&entity.AuthorRating{}).Count(&count).Error)
	assert.Zero(t, count)

	rec := call(t, h, http.MethodPost, path, token, map[string]any{"score": 10, "review": "master"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPost, path, token, map[string]any{"score": 8})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, db.Model(&entity.AuthorRating{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMovies_FavoritesFlow(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateSpectator(t, db, "viewer")
	testutil.CreateAdmin(t, db, "boss")
	movie := testutil.CreateMovie(t, db, "Heat")
	token := login(t, h, "viewer")
	path := "/api/movies/" + movie.ID.String() + "/favorite/"

	rec := call(t, h, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Movie not in favorites.", decode[apiError](t, rec).Error)

	for range 2 {
		rec = call(t, h, http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, "'Heat' added to favorites.", decode[map[string]string](t, rec)["detail"])

	rec = call(t, h, http.MethodGet, "/api/movies/favorites/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	favorites := decode[[]map[string]any](t, rec)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Heat", favorites[0]["title"])

	rec = call(t, h, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/movies/favorites/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/movies/favorites/", login(t, h, "boss"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMovies_SearchUnavailableWithoutIndex(t *testing.T) {
	h, _ := newTestServer(t)

	rec := call(t, h, http.MethodGet, "/api/movies/search/", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/movies/search/?q=heat", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthors_DeleteGuard(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateAdmin(t, db, "boss")
	linked := testutil.CreateAuthor(t, db, "mann")
	loose := testutil.CreateAuthor(t, db, "newcomer")
	movie := testutil.CreateMovie(t, db, "Heat")
	testutil.LinkAuthor(t, db, movie, linked)
	token := login(t, h, "boss")

	rec := call(t, h, http.MethodDelete, "/api/authors/"+linked.UserID.String()+"/", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot delete author with linked movies.", decode[apiError](t, rec).Error)

	rec = call(t, h, http.MethodGet, "/api/authors/"+linked.UserID.String()+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["movies"], 1)

	rec = call(t, h, http.MethodDelete, "/api/authors/"+loose.UserID.String()+"/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/authors/"+loose.UserID.String()+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var users int64
	require.NoError(t, db.Model(&entity.User{}).Where("username = ?", "newcomer").Count(&users).Error)
	assert.Zero(t, users)
}

func TestAuthors_UpdateAndFilter(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateAdmin(t, db, "boss")
	mann := testutil.CreateAuthor(t, db, "mann")
	testutil.CreateAuthor(t, db, "idle")
	testutil.LinkAuthor(t, db, testutil.CreateMovie(t, db, "Heat"), mann)
	token := login(t, h, "boss")
	path := "/api/authors/" + mann.UserID.String() + "/"

	rec := call(t, h, http.MethodPatch, path, token, map[string]string{"nationality": "American"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "American", body["nationality"])
	assert.Equal(t, "Bio of mann", body["biography"])

	rec = call(t, h, http.MethodPut, path, token, map[string]string{"biography": "Chicago born."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "American", decode[map[string]any](t, rec)["nationality"])

	rec = call(t, h, http.MethodGet, "/api/authors/?has_movies=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	authors := decode[[]map[string]any](t, rec)
	require.Len(t, authors, 1)
	assert.Equal(t, "mann", authors[0]["username"])

	rec = call(t, h, http.MethodGet, "/api/authors/?source=tmdb", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAuthors_CreateIsAdminOnly(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateAdmin(t, db, "boss")
	testutil.CreateSpectator(t, db, "viewer")
	payload := map[string]string{"username": "villeneuve", "nationality": "Canadian"}

	rec := call(t, h, http.MethodPost, "/api/authors/", login(t, h, "viewer"), payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	bossToken := login(t, h, "boss")
	for _, username := range []string{"   ", "bad name!"} {
		rec = call(t, h, http.MethodPost, "/api/authors/", bossToken, map[string]string{"username": username})
		require.Equal(t, http.StatusBadRequest, rec.Code, username)
		assert.Equal(t, validator.InvalidUsername, decode[apiError](t, rec).Fields["username"])
	}
	var authors int64
	require.NoError(t, db.Model(&entity.Author{}).Count(&authors).Error)
	assert.Zero(t, authors)

	rec = call(t, h, http.MethodPost, "/api/authors/", bossToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "villeneuve", body["username"])
	assert.Equal(t, entity.SourceAdmin, body["source"])
}

func TestAuth_RegisterLoginRefreshLogout(t *testing.T) {
	h, db := newTestServer(t)

	rec := call(t, h, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         "newbie",
		"password":         "correct-horse",
		"password_confirm": "battery-staple",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[apiError](t, rec).Fields, "password_confirm")

	var users int64
	require.NoError(t, db.Model(&entity.User{}).Where("username = ?", "newbie").Count(&users).Error)
	assert.Zero(t, users)

	rec = call(t, h, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username":         "newbie",
		"password":         "correct-horse",
		"password_confirm": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/api/auth/token/", "", map[string]string{"username": "newbie", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	tokens := decode[map[string]string](t, rec)
	require.NotEmpty(t, tokens["refresh"])

	rec = call(t, h, http.MethodPost, "/api/auth/token/refresh/", "", map[string]string{"refresh": tokens["refresh"]})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["access"])

	rec = call(t, h, http.MethodPost, "/api/auth/token/", "", map[string]string{"username": "newbie", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No active account found with the given credentials.", decode[apiError](t, rec).Error)

	rec = call(t, h, http.MethodGet, "/api/profile/me/", tokens["access"], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "newbie", decode[map[string]any](t, rec)["username"])

	rec = call(t, h, http.MethodPost, "/api/auth/logout/", "", map[string]string{"refresh": tokens["refresh"]})
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestProfile_Update(t *testing.T) {
	h, db := newTestServer(t)
	testutil.CreateSpectator(t, db, "viewer")
	token := login(t, h, "viewer")

	rec := call(t, h, http.MethodPut, "/api/profile/me/", token, map[string]string{"date_of_birth": "02/04/1990"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[apiError](t, rec).Fields, "date_of_birth")

	rec = call(t, h, http.MethodPut, "/api/profile/me/", token, map[string]string{"bio": "Night owl.", "date_of_birth": "1990-04-02"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Night owl.", body["bio"])
	assert.Equal(t, "1990-04-02", body["date_of_birth"])
}
