package handler

import (
	"net/http"

	spectatorDto "anoa.com/moviecatalog/internal/modules/spectator/dto"
	spectator "anoa.com/moviecatalog/internal/modules/spectator/service"
	"anoa.com/moviecatalog/pkg/apperror"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"anoa.com/moviecatalog/pkg/response"
	"anoa.com/moviecatalog/pkg/validator"
	"github.com/gin-gonic/gin"
)

type SpectatorHandler struct {
	service spectator.SpectatorService
}

func NewSpectatorHandler(service spectator.SpectatorService) *SpectatorHandler {
	return &SpectatorHandler{service: service}
}

// AddFavorite handles POST /api/movies/:id/favorite/.
func (h *SpectatorHandler) AddFavorite(c *gin.Context) {
	movieID, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	msg, err := h.service.AddFavorite(c.Request.Context(), userID, movieID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// RemoveFavorite handles DELETE /api/movies/:id/favorite/.
func (h *SpectatorHandler) RemoveFavorite(c *gin.Context) {
	movieID, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.RemoveFavorite(c.Request.Context(), userID, movieID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SpectatorHandler) Favorites(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	movies, err := h.service.Favorites(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, movies)
}

func (h *SpectatorHandler) GetProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *SpectatorHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input spectatorDto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	var avatar *commonDto.AvatarFile
	if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.ResponseError(c, apperror.Field("avatar", "The submitted file could not be read."))
			return
		}
		defer file.Close()

		avatar = &commonDto.AvatarFile{
			Reader:      file,
			FileName:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
