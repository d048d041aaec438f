package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/lorekeep/lorekeep/internal/storage"
	"github.com/lorekeep/lorekeep/internal/types"
	"github.com/lorekeep/lorekeep/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UsersHandler struct {
	db      *gorm.DB
	uploads *storage.Store
}

func NewUsersHandler(database *gorm.DB, uploads *storage.Store) *UsersHandler {
	return &UsersHandler{db: database, uploads: uploads}
}

func (h *UsersHandler) GetMe(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"avatar":     user.Avatar,
		"created_at": user.CreatedAt.Format(time.RFC3339),
	})
}

type UpdateProfileRequest struct {
	Username *string `form:"username" json:"username"`
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	var req UpdateProfileRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.Username != nil && *req.Username != user.Username {
		username := strings.TrimSpace(*req.Username)

		var existing models.User

		err := h.db.Where("username = ? AND id != ?", username, user.ID).First(&existing).Error

		if err == nil {
			ctx.JSON(http.StatusConflict, gin.H{"message": "Username already exists"})
			return
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Msg("failed to check existing username")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		updates["username"] = username
	}

	oldAvatar := ""

	if file, err := ctx.FormFile("avatar"); err == nil {
		filename, err := h.uploads.Save(file, "avatar_")

		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedType) {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Avatar must be a png, jpg, jpeg or gif file"})
				return
			}
			log.Error().Err(err).Msg("failed to save avatar")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		oldAvatar = user.Avatar
		updates["avatar"] = filename
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			if newAvatar, ok := updates["avatar"].(string); ok {
				h.uploads.Remove(newAvatar)
			}
			log.Error().Err(err).Msg("failed to update user")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		h.uploads.Remove(oldAvatar)
	}

	if err := h.db.First(&user, user.ID).Error; err != nil {
		log.Error().Err(err).Msg("failed to refresh user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"avatar":   user.Avatar,
		},
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var req ChangePasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Current password and new password are required"})
		return
	}

	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Current password is incorrect"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)

	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := h.db.Model(&user).Update("password_hash", string(passwordHash)).Error; err != nil {
		log.Error().Err(err).Msg("failed to update password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *UsersHandler) ListMyCharacters(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var characters []models.Character

	if err := h.db.Where("user_id = ?", userID).Find(&characters).Error; err != nil {
		log.Error().Err(err).Msg("failed to list characters")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	result := make([]gin.H, 0, len(characters))

	for _, character := range characters {
		result = append(result, gin.H{
			"id":         character.ID,
			"name":       character.Name,
			"race":       character.Race,
			"class":      character.Class,
			"level":      character.Level,
			"faction":    character.Faction,
			"portrait":   character.Portrait,
			"is_public":  character.IsPublic,
			"created_at": character.CreatedAt.Format(time.RFC3339),
			"updated_at": character.UpdatedAt.Format(time.RFC3339),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"characters": result})
}

type userEventEntry struct {
	event      models.Event
	rsvpStatus string
}

func (h *UsersHandler) ListMyEvents(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	filter := ctx.DefaultQuery("filter", "all") // all, created, participating

	var rsvps []models.EventParticipant

	if err := h.db.Where("user_id = ?", userID).Find(&rsvps).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch RSVPs")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	statusByEvent := make(map[uint]string, len(rsvps))

	for _, rsvp := range rsvps {
		statusByEvent[rsvp.EventID] = rsvp.RSVPStatus
	}

	entries := make(map[uint]userEventEntry)

	if filter == "created" || filter == "all" {
		var created []models.Event

		if err := h.db.Where("creator_id = ?", userID).Find(&created).Error; err != nil {
			log.Error().Err(err).Msg("failed to fetch created events")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		for _, event := range created {
			entries[event.ID] = userEventEntry{event: event, rsvpStatus: statusByEvent[event.ID]}
		}
	}

	if filter == "participating" || filter == "all" {
		ids := make([]uint, 0, len(statusByEvent))

		for id := range statusByEvent {
			ids = append(ids, id)
		}

		if len(ids) > 0 {
			var participating []models.Event

			if err := h.db.Where("id IN ?", ids).Find(&participating).Error; err != nil {
				log.Error().Err(err).Msg("failed to fetch participating events")
				ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}

			for _, event := range participating {
				entries[event.ID] = userEventEntry{event: event, rsvpStatus: statusByEvent[event.ID]}
			}
		}
	}

	sorted := make([]userEventEntry, 0, len(entries))

	for _, entry := range entries {
		sorted = append(sorted, entry)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].event.StartTime.Before(sorted[j].event.StartTime)
	})

	result := make([]gin.H, 0, len(sorted))

	for _, entry := range sorted {
		var participantCount int64

		if err := h.db.Model(&models.EventParticipant{}).Where("event_id = ?", entry.event.ID).Count(&participantCount).Error; err != nil {
			log.Error().Err(err).Msg("failed to count participants")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		var endTime interface{}

		if entry.event.EndTime != nil {
			endTime = entry.event.EndTime.Format(time.RFC3339)
		}

		var rsvpStatus interface{}

		if entry.rsvpStatus != "" {
			rsvpStatus = entry.rsvpStatus
		}

		result = append(result, gin.H{
			"id":                entry.event.ID,
			"title":             entry.event.Title,
			"event_type":        entry.event.EventType,
			"location":          entry.event.Location,
			"start_time":        entry.event.StartTime.Format(time.RFC3339),
			"end_time":          endTime,
			"is_creator":        entry.event.CreatorID == userID,
			"rsvp_status":       rsvpStatus,
			"participant_count": participantCount,
			"created_at":        entry.event.CreatedAt.Format(time.RFC3339),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"events": result})
}

func (h *UsersHandler) ListFollowing(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var follows []models.CharacterFollow

	if err := h.db.Preload("Character.User").Where("follower_id = ?", userID).Find(&follows).Error; err != nil {
		log.Error().Err(err).Msg("failed to list follows")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	following := make([]gin.H, 0, len(follows))

	for _, follow := range follows {
		character := follow.Character

		following = append(following, gin.H{
			"id":       character.ID,
			"name":     character.Name,
			"race":     character.Race,
			"class":    character.Class,
			"faction":  character.Faction,
			"portrait": character.Portrait,
			"owner": types.UserSummary{
				ID:       character.User.ID,
				Username: character.User.Username,
			},
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"following": following})
}

func (h *UsersHandler) GetPublicProfile(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	var user models.User

	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			log.Error().Err(err).Msg("failed to fetch user")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var characters []models.Character

	if err := h.db.Where("user_id = ? AND is_public = ?", user.ID, true).Find(&characters).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch characters")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	characterList := make([]gin.H, 0, len(characters))

	for _, character := range characters {
		characterList = append(characterList, gin.H{
			"id":       character.ID,
			"name":     character.Name,
			"race":     character.Race,
			"class":    character.Class,
			"faction":  character.Faction,
			"portrait": character.Portrait,
		})
	}

	var events []models.Event

	if err := h.db.Where("creator_id = ? AND is_public = ?", user.ID, true).Find(&events).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch events")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	eventList := make([]gin.H, 0, len(events))

	for _, event := range events {
		eventList = append(eventList, gin.H{
			"id":         event.ID,
			"title":      event.Title,
			"event_type": event.EventType,
			"start_time": event.StartTime.Format(time.RFC3339),
			"location":   event.Location,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"avatar":     user.Avatar,
		"joined":     user.CreatedAt.Format(time.RFC3339),
		"characters": characterList,
		"events":     eventList,
	})
}
