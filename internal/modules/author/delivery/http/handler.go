package handler

import (
	"net/http"

	"anoa.com/moviecatalog/internal/modules/author/dto"
	author "anoa.com/moviecatalog/internal/modules/author/service"
	rating "anoa.com/moviecatalog/internal/modules/rating/service"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"anoa.com/moviecatalog/pkg/response"
	"anoa.com/moviecatalog/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthorHandler struct {
	service author.AuthorService
	ratings rating.RatingService
}

func NewAuthorHandler(service author.AuthorService, ratings rating.RatingService) *AuthorHandler {
	return &AuthorHandler{service: service, ratings: ratings}
}

func (h *AuthorHandler) List(c *gin.Context) {
	var filter dto.AuthorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	authors, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, authors)
}

func (h *AuthorHandler) Get(c *gin.Context) {
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

func (h *AuthorHandler) Create(c *gin.Context) {
	var req dto.CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Update serves both PUT and PATCH; every author field is optional.
func (h *AuthorHandler) Update(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthorHandler) Delete(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthorHandler) Rate(c *gin.Context) {
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

	if err := h.ratings.CanRateAuthor(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	var req commonDto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	resp, created, err := h.ratings.RateAuthor(c.Request.Context(), userID, id, req)
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
