package middleware

import (
	"net/http"
	"strings"

	"anoa.com/moviecatalog/internal/entity"
	userRepo "anoa.com/moviecatalog/internal/modules/user/repository"
	"anoa.com/moviecatalog/pkg/apperror"
	"anoa.com/moviecatalog/pkg/jwt"
	"anoa.com/moviecatalog/pkg/response"
	"github.com/gin-gonic/gin"
)

var (
	errNoCredentials = apperror.New(http.StatusUnauthorized, "Authentication credentials were not provided.", apperror.ErrUnauthorized)
	errBadToken      = apperror.New(http.StatusUnauthorized, "Given token not valid for any token type.", apperror.ErrUnauthorized)
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	tokens   *jwt.Manager
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, tokens *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

// ReadOnlyOrAuth lets safe methods through anonymously and requires a
// token for everything else.
func (m *AuthMiddleware) ReadOnlyOrAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			response.ResponseError(c, errBadToken)
			c.Abort()
			return
		}

		if user.Role.Name != entity.RoleAdmin {
			response.ResponseError(c, apperror.Forbidden("You do not have permission to perform this action."))
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	tokenString := bearerToken(c.GetHeader("Authorization"))
	if tokenString == "" {
		response.ResponseError(c, errNoCredentials)
		c.Abort()
		return false
	}

	claims, err := m.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		response.ResponseError(c, errBadToken)
		c.Abort()
		return false
	}

	c.Set("user_id", claims.UserID())
	c.Set("role", claims.Role)
	return true
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
