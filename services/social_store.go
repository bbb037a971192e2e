package services

import (
	"context"
	"errors"

	"socialhub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("insufficient permissions")
)

type PostCounter string

const (
	PostLikeCount    PostCounter = "like_count"
	PostCommentCount PostCounter = "comment_count"
)

type PostStore interface {
	Create(ctx context.Context, post *models.Post) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	AdjustCounter(ctx context.Context, id primitive.ObjectID, counter PostCounter, delta int64) error
}

// LikeStore keeps at most one like per (post, user).
type LikeStore interface {
	Add(ctx context.Context, like *models.Like) (created bool, err error)
	Remove(ctx context.Context, postID, userID primitive.ObjectID) (removed bool, err error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Dispatcher is what producers use to raise notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.NotificationEvent) (*models.Notification, error)
}
