package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/mailer"
	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/lorekeep/lorekeep/internal/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.Manager
	mailer mailer.Mailer
}

func NewAuthHandler(database *gorm.DB, tokens *auth.Manager, m mailer.Mailer) *AuthHandler {
	return &AuthHandler{db: database, tokens: tokens, mailer: m}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User

	err := h.db.Where("username = ?", req.Username).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"message": "Username already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Msg("failed to check existing username")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	err = h.db.Where("email = ?", req.Email).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Msg("failed to check existing email")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		IsActive:     true,
		IsVerified:   false,
	}

	verification := models.AuthToken{
		Token:     uuid.New().String(),
		Purpose:   models.TokenPurposeVerification,
		ExpiresAt: time.Now().Add(verificationTokenTTL),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		verification.UserID = user.ID
		return tx.Create(&verification).Error
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to create user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	// The account is committed either way; a failed delivery only costs the
	// user a resend.
	if err := h.mailer.SendVerification(ctx.Request.Context(), user.Email, user.Username, verification.Token); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to send verification email")
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Please check your email to verify your account.",
		"user_id": user.ID,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing username or password"})
		return
	}

	var user models.User

	err := h.db.Where("username = ?", req.Username).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
			return
		}
		log.Error().Err(err).Msg("failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
		return
	}

	if !user.IsVerified {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Please verify your email before logging in"})
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(user.ID)

	if err != nil {
		log.Error().Err(err).Msg("failed to generate access token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	refreshToken, err := h.tokens.GenerateRefreshToken(user.ID)

	if err != nil {
		log.Error().Err(err).Msg("failed to generate refresh token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": types.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	token := ctx.Param("token")

	var authToken models.AuthToken

	err := h.db.Where("token = ? AND purpose = ?", token, models.TokenPurposeVerification).First(&authToken).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid verification link"})
			return
		}
		log.Error().Err(err).Msg("failed to fetch verification token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if !authToken.Usable() {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid verification link"})
		return
	}

	now := time.Now()

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", authToken.UserID).Update("is_verified", true).Error; err != nil {
			return err
		}

		return tx.Model(&authToken).Update("used_at", &now).Error
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to verify email")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Email verified successfully. You can now log in."})
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token is required"})
		return
	}

	userID, err := h.tokens.VerifyToken(parts[1], auth.TokenTypeRefresh)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired refresh token"})
		return
	}

	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired refresh token"})
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(user.ID)

	if err != nil {
		log.Error().Err(err).Msg("failed to generate access token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

const resetRequestedMessage = "If your email is registered, you will receive a password reset link"

func (h *AuthHandler) RequestPasswordReset(ctx *gin.Context) {
	var req PasswordResetRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}

	var user models.User

	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same response as the success path so account existence
			// cannot be probed.
			ctx.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
			return
		}
		log.Error().Err(err).Msg("failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	reset := models.AuthToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		Purpose:   models.TokenPurposePasswordReset,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}

	if err := h.db.Create(&reset).Error; err != nil {
		log.Error().Err(err).Msg("failed to create reset token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := h.mailer.SendPasswordReset(ctx.Request.Context(), user.Email, user.Username, reset.Token); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to send reset email")
	}

	ctx.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")

	var req ResetPasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "New password is required"})
		return
	}

	var authToken models.AuthToken

	err := h.db.Where("token = ? AND purpose = ?", token, models.TokenPurposePasswordReset).First(&authToken).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid reset link"})
			return
		}
		log.Error().Err(err).Msg("failed to fetch reset token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if !authToken.Usable() {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid reset link"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	now := time.Now()

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", authToken.UserID).Update("password_hash", string(passwordHash)).Error; err != nil {
			return err
		}

		return tx.Model(&authToken).Update("used_at", &now).Error
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to reset password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
