package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialhub/models"
	"socialhub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserNotFound = errors.New("user not found")
)

// Principal is the verified identity behind a request or live session.
type Principal struct {
	UserID   primitive.ObjectID
	UserName string
	Email    string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// AuthService verifies bearer tokens and re-issues them for known users.
// Sign-in itself happens elsewhere; tokens share the configured HS256 secret.
type AuthService struct {
	users      UserStore
	jwtSecret  string
	issuer     string
	expiration time.Duration
}

func NewAuthService(users UserStore, jwtSecret, issuer string, expiration time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  jwtSecret,
		issuer:     issuer,
		expiration: expiration,
	}
}

// Verify turns a token into a principal.
func (s *AuthService) Verify(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := utils.VerifyJWTTokenWithSecret(token, s.jwtSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}

	return &Principal{
		UserID:   userID,
		UserName: claims.Name,
		Email:    claims.Email,
		Role:     role,
	}, nil
}

// IssueToken signs a fresh token for an existing user.
func (s *AuthService) IssueToken(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	token, err := utils.GenerateJWTTokenWithSecret(user, s.jwtSecret, s.issuer, s.expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT: %w", err)
	}
	return token, nil
}

func (s *AuthService) GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
