package controllers

import (
	"context"

	"socialhub/middleware"
	"socialhub/models"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileService interface {
	GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	IssueToken(ctx context.Context, userID primitive.ObjectID) (string, error)
}

type AuthController struct {
	authService ProfileService
}

func NewAuthController(authService ProfileService) *AuthController {
	return &AuthController{authService: authService}
}

// GetUserProfile retrieves the authenticated user's profile
func (ac *AuthController) GetUserProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	user, err := ac.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "User profile not found", err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

// RefreshToken generates a new JWT token
func (ac *AuthController) RefreshToken(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Invalid authentication context")
		return
	}

	newToken, err := ac.authService.IssueToken(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Token refresh failed", err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed successfully", gin.H{
		"token": newToken,
	})
}

// ValidateToken validates the current JWT token
func (ac *AuthController) ValidateToken(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Token validation failed")
		return
	}

	utils.SuccessResponse(c, "Token is valid", gin.H{
		"user_id": principal.UserID.Hex(),
		"email":   principal.Email,
		"role":    principal.Role,
	})
}
