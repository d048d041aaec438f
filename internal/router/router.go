package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/handlers"
	"github.com/lorekeep/lorekeep/internal/mailer"
	"github.com/lorekeep/lorekeep/internal/middleware"
	"github.com/lorekeep/lorekeep/internal/storage"
	"github.com/lorekeep/lorekeep/internal/types"
	"gorm.io/gorm"
)

// Dependencies holds everything the handlers need; they are constructed once
// in main and injected, never reached through package globals.
type Dependencies struct {
	DB      *gorm.DB
	Tokens  *auth.Manager
	Mailer  mailer.Mailer
	Uploads *storage.Store
}

func New(deps Dependencies) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Tokens, deps.Mailer)
	usersHandler := handlers.NewUsersHandler(deps.DB, deps.Uploads)
	charactersHandler := handlers.NewCharactersHandler(deps.DB, deps.Uploads)
	eventsHandler := handlers.NewEventsHandler(deps.DB)

	requireAuth := middleware.AuthMiddleware(deps.Tokens, deps.DB)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.DB)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/verify/:token", authHandler.VerifyEmail)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/reset-password", authHandler.RequestPasswordReset)
			authGroup.POST("/reset-password/:token", authHandler.ResetPassword)
		}

		characters := api.Group("/characters")
		{
			characters.GET("", charactersHandler.List)
			characters.GET("/:id", optionalAuth, charactersHandler.Get)
			characters.POST("", requireAuth, charactersHandler.Create)
			characters.PUT("/:id", requireAuth, charactersHandler.Update)
			characters.DELETE("/:id", requireAuth, charactersHandler.Delete)
			characters.POST("/:id/comments", requireAuth, charactersHandler.AddComment)
			characters.POST("/:id/follow", requireAuth, charactersHandler.Follow)
			characters.POST("/:id/unfollow", requireAuth, charactersHandler.Unfollow)
		}

		events := api.Group("/events")
		{
			events.GET("", eventsHandler.List)
			events.GET("/:id", optionalAuth, eventsHandler.Get)
			events.POST("", requireAuth, eventsHandler.Create)
			events.PUT("/:id", requireAuth, eventsHandler.Update)
			events.DELETE("/:id", requireAuth, eventsHandler.Delete)
			events.POST("/:id/rsvp", requireAuth, eventsHandler.RSVP)
			events.POST("/:id/cancel-rsvp", requireAuth, eventsHandler.CancelRSVP)
			events.POST("/:id/comments", requireAuth, eventsHandler.AddComment)
		}

		api.POST("/event-series", requireAuth, eventsHandler.CreateSeries)

		users := api.Group("/users")
		{
			users.GET("/me", requireAuth, usersHandler.GetMe)
			users.PUT("/me", requireAuth, usersHandler.UpdateMe)
			users.PUT("/me/password", requireAuth, usersHandler.ChangePassword)
			users.GET("/me/characters", requireAuth, usersHandler.ListMyCharacters)
			users.GET("/me/events", requireAuth, usersHandler.ListMyEvents)
			users.GET("/me/following", requireAuth, usersHandler.ListFollowing)
			users.GET("/:id", usersHandler.GetPublicProfile)
		}
	}

	return r
}
