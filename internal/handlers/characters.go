package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/lorekeep/lorekeep/internal/storage"
	"github.com/lorekeep/lorekeep/internal/types"
	"github.com/lorekeep/lorekeep/internal/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CharactersHandler struct {
	db      *gorm.DB
	uploads *storage.Store
}

func NewCharactersHandler(database *gorm.DB, uploads *storage.Store) *CharactersHandler {
	return &CharactersHandler{db: database, uploads: uploads}
}

var characterSortFields = map[string]bool{
	"name":       true,
	"level":      true,
	"created_at": true,
	"updated_at": true,
}

type CreateCharacterRequest struct {
	Name      string `form:"name" json:"name" binding:"required"`
	Race      string `form:"race" json:"race" binding:"required"`
	Class     string `form:"class" json:"class" binding:"required"`
	Level     *int   `form:"level" json:"level"`
	Faction   string `form:"faction" json:"faction" binding:"required"`
	Backstory string `form:"backstory" json:"backstory"`
	IsPublic  *bool  `form:"is_public" json:"is_public"`
}

type UpdateCharacterRequest struct {
	Name      *string `form:"name" json:"name"`
	Race      *string `form:"race" json:"race"`
	Class     *string `form:"class" json:"class"`
	Level     *int    `form:"level" json:"level"`
	Faction   *string `form:"faction" json:"faction"`
	Backstory *string `form:"backstory" json:"backstory"`
	IsPublic  *bool   `form:"is_public" json:"is_public"`
}

type CharacterSummary struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Race      string            `json:"race"`
	Class     string            `json:"class"`
	Level     int               `json:"level"`
	Faction   string            `json:"faction"`
	Portrait  string            `json:"portrait,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Owner     types.UserSummary `json:"owner"`
}

type CharacterDetail struct {
	CharacterSummary
	Backstory string                  `json:"backstory"`
	IsPublic  bool                    `json:"is_public"`
	Comments  []types.CommentResponse `json:"comments"`
}

func characterSummary(character models.Character) CharacterSummary {
	return CharacterSummary{
		ID:        character.ID,
		Name:      character.Name,
		Race:      character.Race,
		Class:     character.Class,
		Level:     character.Level,
		Faction:   character.Faction,
		Portrait:  character.Portrait,
		CreatedAt: character.CreatedAt,
		UpdatedAt: character.UpdatedAt,
		Owner: types.UserSummary{
			ID:       character.User.ID,
			Username: character.User.Username,
		},
	}
}

func (h *CharactersHandler) List(ctx *gin.Context) {
	query := h.db.Model(&models.Character{}).Where("is_public = ?", true)

	if race := ctx.Query("race"); race != "" {
		query = query.Where("race = ?", race)
	}

	if class := ctx.Query("class"); class != "" {
		query = query.Where("class = ?", class)
	}

	if faction := ctx.Query("faction"); faction != "" {
		query = query.Where("faction = ?", faction)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		log.Error().Err(err).Msg("failed to count characters")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	page := utils.ParsePagination(ctx)
	order := utils.ParseSort(ctx, characterSortFields, "created_at", "desc")

	var characters []models.Character

	err := query.Preload("User").
		Order(order).
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&characters).Error

	if err != nil {
		log.Error().Err(err).Msg("failed to list characters")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	response := make([]CharacterSummary, 0, len(characters))

	for _, character := range characters {
		response = append(response, characterSummary(character))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"characters": response,
		"pagination": utils.NewPageInfo(page, total),
	})
}

func (h *CharactersHandler) Get(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid character id"})
		return
	}

	var character models.Character

	if err := h.db.Preload("User").First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Character not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch character")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	// A private character must be indistinguishable from a missing one for
	// everybody but its owner.
	if !character.IsPublic {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil || userID != character.UserID {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Character not found or not accessible"})
			return
		}
	}

	comments, err := h.loadComments("character_id = ?", character.ID)

	if err != nil {
		log.Error().Err(err).Msg("failed to fetch comments")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	detail := CharacterDetail{
		CharacterSummary: characterSummary(character),
		Backstory:        character.Backstory,
		IsPublic:         character.IsPublic,
		Comments:         comments,
	}

	ctx.JSON(http.StatusOK, detail)
}

func (h *CharactersHandler) loadComments(condition string, id uint) ([]types.CommentResponse, error) {
	var comments []models.Comment

	err := h.db.Preload("User").Where(condition, id).Order("created_at desc").Find(&comments).Error

	if err != nil {
		return nil, err
	}

	response := make([]types.CommentResponse, 0, len(comments))

	for _, comment := range comments {
		response = append(response, types.CommentResponse{
			ID:        comment.ID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt.Format(time.RFC3339),
			Author: types.AuthorSummary{
				ID:       comment.User.ID,
				Username: comment.User.Username,
				Avatar:   comment.User.Avatar,
			},
		})
	}

	return response, nil
}

func (h *CharactersHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var req CreateCharacterRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	character := models.Character{
		Name:      req.Name,
		Race:      req.Race,
		Class:     req.Class,
		Level:     1,
		Faction:   req.Faction,
		Backstory: req.Backstory,
		IsPublic:  true,
		UserID:    userID,
	}

	if req.Level != nil {
		character.Level = *req.Level
	}

	if req.IsPublic != nil {
		character.IsPublic = *req.IsPublic
	}

	if file, err := ctx.FormFile("portrait"); err == nil {
		filename, err := h.uploads.Save(file, "")

		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedType) {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Portrait must be a png, jpg, jpeg or gif file"})
				return
			}
			log.Error().Err(err).Msg("failed to save portrait")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		character.Portrait = filename
	}

	if err := h.db.Create(&character).Error; err != nil {
		h.uploads.Remove(character.Portrait)
		log.Error().Err(err).Msg("failed to create character")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "Character created successfully",
		"character_id": character.ID,
	})
}

func (h *CharactersHandler) Update(ctx *gin.Context) {
	character, ok := h.fetchOwnedCharacter(ctx, "update")

	if !ok {
		return
	}

	var req UpdateCharacterRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}

	if req.Race != nil {
		updates["race"] = *req.Race
	}

	if req.Class != nil {
		updates["class"] = *req.Class
	}

	if req.Level != nil {
		updates["level"] = *req.Level
	}

	if req.Faction != nil {
		updates["faction"] = *req.Faction
	}

	if req.Backstory != nil {
		updates["backstory"] = *req.Backstory
	}

	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	oldPortrait := ""

	if file, err := ctx.FormFile("portrait"); err == nil {
		filename, err := h.uploads.Save(file, "")

		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedType) {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Portrait must be a png, jpg, jpeg or gif file"})
				return
			}
			log.Error().Err(err).Msg("failed to save portrait")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		oldPortrait = character.Portrait
		updates["portrait"] = filename
	}

	if len(updates) > 0 {
		if err := h.db.Model(&character).Updates(updates).Error; err != nil {
			if newPortrait, ok := updates["portrait"].(string); ok {
				h.uploads.Remove(newPortrait)
			}
			log.Error().Err(err).Msg("failed to update character")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		h.uploads.Remove(oldPortrait)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":      "Character updated successfully",
		"character_id": character.ID,
	})
}

func (h *CharactersHandler) Delete(ctx *gin.Context) {
	character, ok := h.fetchOwnedCharacter(ctx, "delete")

	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", character.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("character_id = ?", character.ID).Delete(&models.CharacterFollow{}).Error; err != nil {
			return err
		}

		return tx.Delete(&character).Error
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to delete character")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	h.uploads.Remove(character.Portrait)

	ctx.JSON(http.StatusOK, gin.H{"message": "Character deleted successfully"})
}

// fetchOwnedCharacter loads the character and enforces ownership, writing the
// error response itself when the check fails.
func (h *CharactersHandler) fetchOwnedCharacter(ctx *gin.Context, action string) (models.Character, bool) {
	var character models.Character

	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid character id"})
		return character, false
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return character, false
	}

	if err := h.db.First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Character not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch character")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return character, false
	}

	if character.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "You do not have permission to " + action + " this character"})
		return character, false
	}

	return character, true
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *CharactersHandler) AddComment(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid character id"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var character models.Character

	if err := h.db.First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Character not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch character")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var req CommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Comment content is required"})
		return
	}

	comment := models.Comment{
		Content:     req.Content,
		UserID:      currentUser.ID,
		CharacterID: &character.ID,
	}

	if err := h.db.Create(&comment).Error; err != nil {
		log.Error().Err(err).Msg("failed to create comment")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"comment": types.CommentResponse{
			ID:        comment.ID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt.Format(time.RFC3339),
			Author: types.AuthorSummary{
				ID:       currentUser.ID,
				Username: currentUser.Username,
			},
		},
	})
}

func (h *CharactersHandler) Follow(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid character id"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var character models.Character

	if err := h.db.First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Character not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch character")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var existing models.CharacterFollow

	err = h.db.Where("follower_id = ? AND character_id = ?", userID, character.ID).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "You are already following this character"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Msg("failed to check follow")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	follow := models.CharacterFollow{
		FollowerID:  userID,
		CharacterID: character.ID,
	}

	if err := h.db.Create(&follow).Error; err != nil {
		log.Error().Err(err).Msg("failed to create follow")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "You are now following this character"})
}

func (h *CharactersHandler) Unfollow(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid character id"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var character models.Character

	if err := h.db.First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Character not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch character")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var follow models.CharacterFollow

	err = h.db.Where("follower_id = ? AND character_id = ?", userID, character.ID).First(&follow).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "You are not following this character"})
			return
		}
		log.Error().Err(err).Msg("failed to check follow")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := h.db.Delete(&follow).Error; err != nil {
		log.Error().Err(err).Msg("failed to delete follow")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "You have unfollowed this character"})
}
