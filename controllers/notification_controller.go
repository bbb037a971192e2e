package controllers

import (
	"context"
	"strconv"
	"time"

	"socialhub/middleware"
	"socialhub/models"
	"socialhub/services"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationReader interface {
	List(ctx context.Context, viewer primitive.ObjectID, before *models.NotificationCursor, limit int) (*models.NotificationPage, error)
	UnseenCount(ctx context.Context, viewer primitive.ObjectID) (int64, error)
	MarkAllSeen(ctx context.Context, viewer primitive.ObjectID) (int64, error)
	MarkOneRead(ctx context.Context, id, viewer primitive.ObjectID) error
}

type Announcer interface {
	Announce(ctx context.Context, author services.Principal, message string, payload map[string]string) (*models.Notification, error)
}

type NotificationController struct {
	notifications NotificationReader
	announcements Announcer
	validator     *validator.Validate
}

type AnnouncementRequest struct {
	Message string            `json:"message" validate:"required,min=1,max=500"`
	Payload map[string]string `json:"payload,omitempty" validate:"omitempty,max=10,dive,keys,min=1,max=64,endkeys,max=500"`
}

func NewNotificationController(notifications NotificationReader, announcements Announcer) *NotificationController {
	return &NotificationController{
		notifications: notifications,
		announcements: announcements,
		validator:     validator.New(),
	}
}

// List handles GET /notifications?before=<RFC3339>&before_id=<id>&limit=<n>
func (nc *NotificationController) List(c *gin.Context) {
	viewer, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	before, err := parseCursor(c.Query("before"), c.Query("before_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid cursor", err.Error())
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.BadRequestResponse(c, "Invalid limit", "limit must be a non-negative integer")
			return
		}
	}

	page, err := nc.notifications.List(c.Request.Context(), viewer, before, limit)
	if err != nil {
		respondError(c, "Failed to list notifications", err)
		return
	}

	utils.SuccessResponse(c, "Notifications retrieved successfully", page)
}

func parseCursor(rawTime, rawID string) (*models.NotificationCursor, error) {
	if rawTime == "" && rawID == "" {
		return nil, nil
	}

	cursor := &models.NotificationCursor{ID: primitive.NilObjectID}
	if rawTime == "" {
		return nil, utils.ValidationErrorf("before is required when before_id is set")
	}
	t, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil, utils.ValidationErrorf("before must be an RFC 3339 timestamp")
	}
	cursor.CreatedAt = t.UTC()

	if rawID != "" {
		id, err := utils.ValidateObjectID("before_id", rawID)
		if err != nil {
			return nil, err
		}
		cursor.ID = id
	}
	return cursor, nil
}

func (nc *NotificationController) UnseenCount(c *gin.Context) {
	viewer, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	count, err := nc.notifications.UnseenCount(c.Request.Context(), viewer)
	if err != nil {
		respondError(c, "Failed to count notifications", err)
		return
	}

	utils.SuccessResponse(c, "Unseen count retrieved successfully", gin.H{"count": count})
}

func (nc *NotificationController) MarkAllSeen(c *gin.Context) {
	viewer, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	modified, err := nc.notifications.MarkAllSeen(c.Request.Context(), viewer)
	if err != nil {
		respondError(c, "Failed to mark notifications seen", err)
		return
	}

	utils.SuccessResponse(c, "Notifications marked as seen", gin.H{"modified_count": modified})
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	viewer, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}
	id := c.MustGet("id").(primitive.ObjectID)

	if err := nc.notifications.MarkOneRead(c.Request.Context(), id, viewer); err != nil {
		respondError(c, "Failed to mark notification read", err)
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", gin.H{"updated": true})
}

// Announce publishes a global notification. Admin only.
func (nc *NotificationController) Announce(c *gin.Context) {
	author, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}
	if err := nc.validator.Struct(req); err != nil {
		utils.BadRequestResponse(c, "Validation failed", err.Error())
		return
	}

	n, err := nc.announcements.Announce(c.Request.Context(), author, req.Message, req.Payload)
	if err != nil {
		respondError(c, "Failed to publish announcement", err)
		return
	}

	utils.CreatedResponse(c, "Announcement published", n.ForViewer(author.UserID))
}
