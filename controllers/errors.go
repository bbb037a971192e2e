package controllers

import (
	"errors"

	"socialhub/services"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the response envelope.
func respondError(c *gin.Context, message string, err error) {
	switch {
	case utils.IsValidationError(err):
		utils.BadRequestResponse(c, message, err.Error())
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, err.Error())
	default:
		utils.LogError(message, err)
		utils.InternalServerErrorResponse(c, message, nil)
	}
}
