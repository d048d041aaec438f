package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/lorekeep/lorekeep/internal/types"
	"gorm.io/gorm"
)

type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthMiddleware rejects requests without a valid bearer access token and
// stores the authenticated user in the request context.
func AuthMiddleware(tokens *auth.Manager, database *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := userFromRequest(ctx, tokens, database)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or missing authorization token"})
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

// OptionalAuth stores the authenticated user when a valid bearer token is
// present but never rejects the request. Handlers that collapse private
// resources into 404 use it so anonymous and authenticated reads share a path.
func OptionalAuth(tokens *auth.Manager, database *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, ok := userFromRequest(ctx, tokens, database); ok {
			ctx.Set(types.ContextUserKey, user)
		}

		ctx.Next()
	}
}

func userFromRequest(ctx *gin.Context, tokens *auth.Manager, database *gorm.DB) (AuthenticatedUser, bool) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		return AuthenticatedUser{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" {
		return AuthenticatedUser{}, false
	}

	userID, err := tokens.VerifyToken(parts[1], auth.TokenTypeAccess)

	if err != nil {
		return AuthenticatedUser{}, false
	}

	var user models.User

	if err := database.Where("id = ?", userID).First(&user).Error; err != nil {
		return AuthenticatedUser{}, false
	}

	return AuthenticatedUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, true
}
