package handler

import (
	"net/http"

	"anoa.com/moviecatalog/internal/modules/movie/dto"
	movie "anoa.com/moviecatalog/internal/modules/movie/service"
	rating "anoa.com/moviecatalog/internal/modules/rating/service"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"anoa.com/moviecatalog/pkg/response"
	"anoa.com/moviecatalog/pkg/validator"
	"github.com/gin-gonic/gin"
)

type MovieHandler struct {
	service movie.MovieService
	ratings rating.RatingService
}

func NewMovieHandler(service movie.MovieService, ratings rating.RatingService) *MovieHandler {
	return &MovieHandler{service: service, ratings: ratings}
}

// List handles GET /api/movies/ with optional status and source filters.
func (h *MovieHandler) List(c *gin.Context) {
	var filter dto.MovieFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	movies, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, movies)
}

func (h *MovieHandler) Get(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Create always refuses; movies come from the TMDB import only.
func (h *MovieHandler) Create(c *gin.Context) {
	response.ResponseError(c, movie.ErrCreateNotAllowed)
}

func (h *MovieHandler) Delete(c *gin.Context) {
	response.ResponseError(c, movie.ErrDeleteNotAllowed)
}

func (h *MovieHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

func (h *MovieHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *MovieHandler) update(c *gin.Context, partial bool) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req, partial)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *MovieHandler) Rate(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.ratings.CanRateMovie(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	var req commonDto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	resp, created, err := h.ratings.RateMovie(c.Request.Context(), userID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// Search handles GET /api/movies/search/?q=... against the Meilisearch index.
func (h *MovieHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	result, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
