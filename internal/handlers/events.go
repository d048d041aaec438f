package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/lorekeep/lorekeep/internal/types"
	"github.com/lorekeep/lorekeep/internal/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventsHandler struct {
	db *gorm.DB
}

func NewEventsHandler(database *gorm.DB) *EventsHandler {
	return &EventsHandler{db: database}
}

var eventSortFields = map[string]bool{
	"start_time": true,
	"created_at": true,
	"title":      true,
}

var errEventAtCapacity = errors.New("event at capacity")

type CreateEventRequest struct {
	Title           string             `json:"title" binding:"required"`
	Description     string             `json:"description"`
	EventType       string             `json:"event_type" binding:"required"`
	Location        string             `json:"location" binding:"required"`
	MapCoordinates  *types.Coordinates `json:"map_coordinates"`
	StartTime       string             `json:"start_time" binding:"required"`
	EndTime         string             `json:"end_time"`
	MaxParticipants *int               `json:"max_participants"`
	IsPublic        *bool              `json:"is_public"`
	SeriesID        *uint              `json:"series_id"`
}

type UpdateEventRequest struct {
	Title           *string                        `json:"title"`
	Description     *string                        `json:"description"`
	EventType       *string                        `json:"event_type"`
	Location        *string                        `json:"location"`
	MapCoordinates  *types.Coordinates             `json:"map_coordinates"`
	StartTime       *string                        `json:"start_time"`
	EndTime         types.Optional[string]         `json:"end_time"`
	MaxParticipants *int                           `json:"max_participants"`
	IsPublic        *bool                          `json:"is_public"`
	SeriesID        *uint                          `json:"series_id"`
}

type EventSummary struct {
	ID               uint               `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	EventType        string             `json:"event_type"`
	Location         string             `json:"location"`
	MapCoordinates   *types.Coordinates `json:"map_coordinates"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          *time.Time         `json:"end_time"`
	ParticipantCount int64              `json:"participant_count"`
	MaxParticipants  *int               `json:"max_participants"`
	SeriesID         *uint              `json:"series_id"`
	CreatedAt        time.Time          `json:"created_at"`
	Creator          types.UserSummary  `json:"creator"`
}

type ParticipantResponse struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar,omitempty"`
	RSVPStatus string `json:"rsvp_status"`
}

type SeriesSummary struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Frequency string `json:"frequency"`
}

type EventDetail struct {
	EventSummary
	IsPublic     bool                    `json:"is_public"`
	Participants []ParticipantResponse   `json:"participants"`
	Comments     []types.CommentResponse `json:"comments"`
	Series       *SeriesSummary          `json:"series"`
}

func decodeCoordinates(raw datatypes.JSON) *types.Coordinates {
	if len(raw) == 0 {
		return nil
	}

	var coords types.Coordinates

	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil
	}

	return &coords
}

func encodeCoordinates(coords *types.Coordinates) datatypes.JSON {
	if coords == nil {
		return nil
	}

	raw, _ := json.Marshal(coords)
	return datatypes.JSON(raw)
}

// parseEventTime accepts RFC3339 timestamps and bare dates.
func parseEventTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	return time.Parse("2006-01-02", value)
}

func (h *EventsHandler) eventSummary(event models.Event) EventSummary {
	var count int64

	if err := h.db.Model(&models.EventParticipant{}).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
		log.Error().Err(err).Uint("event_id", event.ID).Msg("failed to count participants")
	}

	return EventSummary{
		ID:               event.ID,
		Title:            event.Title,
		Description:      event.Description,
		EventType:        event.EventType,
		Location:         event.Location,
		MapCoordinates:   decodeCoordinates(event.MapCoordinates),
		StartTime:        event.StartTime,
		EndTime:          event.EndTime,
		ParticipantCount: count,
		MaxParticipants:  event.MaxParticipants,
		SeriesID:         event.SeriesID,
		CreatedAt:        event.CreatedAt,
		Creator: types.UserSummary{
			ID:       event.Creator.ID,
			Username: event.Creator.Username,
		},
	}
}

func (h *EventsHandler) List(ctx *gin.Context) {
	query := h.db.Model(&models.Event{}).Where("is_public = ?", true)

	if eventType := ctx.Query("type"); eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	// Malformed date filters are ignored rather than rejected.
	if startDate := ctx.Query("start_date"); startDate != "" {
		if t, err := parseEventTime(startDate); err == nil {
			query = query.Where("start_time >= ?", t)
		}
	}

	if endDate := ctx.Query("end_date"); endDate != "" {
		if t, err := parseEventTime(endDate); err == nil {
			query = query.Where("end_time <= ?", t)
		}
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		log.Error().Err(err).Msg("failed to count events")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	page := utils.ParsePagination(ctx)
	order := utils.ParseSort(ctx, eventSortFields, "start_time", "asc")

	var events []models.Event

	err := query.Preload("Creator").
		Order(order).
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&events).Error

	if err != nil {
		log.Error().Err(err).Msg("failed to list events")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	response := make([]EventSummary, 0, len(events))

	for _, event := range events {
		response = append(response, h.eventSummary(event))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"events":     response,
		"pagination": utils.NewPageInfo(page, total),
	})
}

func (h *EventsHandler) Get(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event id"})
		return
	}

	var event models.Event

	if err := h.db.Preload("Creator").Preload("Series").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Event not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch event")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	if !event.IsPublic {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil || userID != event.CreatorID {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Event not found or not accessible"})
			return
		}
	}

	var participants []models.EventParticipant

	if err := h.db.Preload("User").Where("event_id = ?", event.ID).Find(&participants).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch participants")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	participantList := make([]ParticipantResponse, 0, len(participants))

	for _, participant := range participants {
		participantList = append(participantList, ParticipantResponse{
			ID:         participant.User.ID,
			Username:   participant.User.Username,
			Avatar:     participant.User.Avatar,
			RSVPStatus: participant.RSVPStatus,
		})
	}

	var comments []models.Comment

	if err := h.db.Preload("User").Where("event_id = ?", event.ID).Order("created_at desc").Find(&comments).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch comments")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	commentList := make([]types.CommentResponse, 0, len(comments))

	for _, comment := range comments {
		commentList = append(commentList, types.CommentResponse{
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

	var series *SeriesSummary

	if event.Series != nil {
		series = &SeriesSummary{
			ID:        event.Series.ID,
			Title:     event.Series.Title,
			Frequency: event.Series.Frequency,
		}
	}

	detail := EventDetail{
		EventSummary: h.eventSummary(event),
		IsPublic:     event.IsPublic,
		Participants: participantList,
		Comments:     commentList,
		Series:       series,
	}

	ctx.JSON(http.StatusOK, detail)
}

func (h *EventsHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var req CreateEventRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	startTime, err := parseEventTime(req.StartTime)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date format"})
		return
	}

	var endTime *time.Time

	if req.EndTime != "" {
		t, err := parseEventTime(req.EndTime)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date format"})
			return
		}

		endTime = &t
	}

	event := models.Event{
		Title:           req.Title,
		Description:     req.Description,
		EventType:       req.EventType,
		Location:        req.Location,
		MapCoordinates:  encodeCoordinates(req.MapCoordinates),
		StartTime:       startTime,
		EndTime:         endTime,
		MaxParticipants: req.MaxParticipants,
		IsPublic:        true,
		CreatorID:       userID,
		SeriesID:        req.SeriesID,
	}

	if req.IsPublic != nil {
		event.IsPublic = *req.IsPublic
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		// The creator starts out attending their own event.
		participant := models.EventParticipant{
			UserID:     userID,
			EventID:    event.ID,
			RSVPStatus: models.RSVPAttending,
		}

		return tx.Create(&participant).Error
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to create event")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Event created successfully",
		"event_id": event.ID,
	})
}

func (h *EventsHandler) Update(ctx *gin.Context) {
	event, ok := h.fetchOwnedEvent(ctx, "update")

	if !ok {
		return
	}

	var req UpdateEventRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.Title != nil {
		updates["title"] = *req.Title
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.EventType != nil {
		updates["event_type"] = *req.EventType
	}

	if req.Location != nil {
		updates["location"] = *req.Location
	}

	if req.MapCoordinates != nil {
		updates["map_coordinates"] = encodeCoordinates(req.MapCoordinates)
	}

	if req.StartTime != nil {
		t, err := parseEventTime(*req.StartTime)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid start_time format"})
			return
		}

		updates["start_time"] = t
	}

	if req.EndTime.Set {
		if req.EndTime.Value == nil {
			// Explicit null clears the end time.
			updates["end_time"] = gorm.Expr("NULL")
		} else {
			t, err := parseEventTime(*req.EndTime.Value)

			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid end_time format"})
				return
			}

			updates["end_time"] = t
		}
	}

	if req.MaxParticipants != nil {
		updates["max_participants"] = *req.MaxParticipants
	}

	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	if req.SeriesID != nil {
		updates["series_id"] = *req.SeriesID
	}

	if len(updates) > 0 {
		if err := h.db.Model(&event).Updates(updates).Error; err != nil {
			log.Error().Err(err).Msg("failed to update event")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Event updated successfully",
		"event_id": event.ID,
	})
}

func (h *EventsHandler) Delete(ctx *gin.Context) {
	event, ok := h.fetchOwnedEvent(ctx, "delete")

	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}

		return tx.Delete(&event).Error
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to delete event")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *EventsHandler) fetchOwnedEvent(ctx *gin.Context, action string) (models.Event, bool) {
	var event models.Event

	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event id"})
		return event, false
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return event, false
	}

	if err := h.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Event not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch event")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return event, false
	}

	if event.CreatorID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "You do not have permission to " + action + " this event"})
		return event, false
	}

	return event, true
}

type RSVPRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *EventsHandler) RSVP(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event id"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var event models.Event

	if err := h.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Event not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch event")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var req RSVPRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "RSVP status is required"})
		return
	}

	if !models.ValidRSVPStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid RSVP status. Must be one of: attending, maybe, declined"})
		return
	}

	// Capacity check and upsert share a transaction so the count cannot go
	// stale between them. The store's isolation level still bounds the
	// guarantee under concurrent RSVPs.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.Status == models.RSVPAttending && event.MaxParticipants != nil {
			var attending int64

			err := tx.Model(&models.EventParticipant{}).
				Where("event_id = ? AND rsvp_status = ? AND user_id <> ?", event.ID, models.RSVPAttending, userID).
				Count(&attending).Error

			if err != nil {
				return err
			}

			if attending >= int64(*event.MaxParticipants) {
				return errEventAtCapacity
			}
		}

		var existing models.EventParticipant

		err := tx.Where("event_id = ? AND user_id = ?", event.ID, userID).First(&existing).Error

		if err == nil {
			return tx.Model(&existing).Update("rsvp_status", req.Status).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		participant := models.EventParticipant{
			UserID:     userID,
			EventID:    event.ID,
			RSVPStatus: req.Status,
		}

		return tx.Create(&participant).Error
	})

	if err != nil {
		if errors.Is(err, errEventAtCapacity) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Event is at capacity"})
			return
		}
		log.Error().Err(err).Msg("failed to update RSVP")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "RSVP status updated to " + req.Status})
}

func (h *EventsHandler) CancelRSVP(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event id"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var event models.Event

	if err := h.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Event not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch event")
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	var participant models.EventParticipant

	err = h.db.Where("event_id = ? AND user_id = ?", event.ID, userID).First(&participant).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "You are not registered for this event"})
			return
		}
		log.Error().Err(err).Msg("failed to fetch participant")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := h.db.Delete(&participant).Error; err != nil {
		log.Error().Err(err).Msg("failed to cancel RSVP")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "RSVP cancelled successfully"})
}

func (h *EventsHandler) AddComment(ctx *gin.Context) {
	id, err := utils.GetIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event id"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var event models.Event

	if err := h.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Event not found or not accessible"})
		} else {
			log.Error().Err(err).Msg("failed to fetch event")
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
		Content: req.Content,
		UserID:  currentUser.ID,
		EventID: &event.ID,
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

type CreateSeriesRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Frequency   string `json:"frequency" binding:"required"`
}

func (h *EventsHandler) CreateSeries(ctx *gin.Context) {
	if _, err := utils.GetCurrentUserID(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	var req CreateSeriesRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	series := models.EventSeries{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
	}

	if err := h.db.Create(&series).Error; err != nil {
		log.Error().Err(err).Msg("failed to create event series")
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "Event series created successfully",
		"series_id": series.ID,
	})
}
