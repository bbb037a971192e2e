package services

import (
	"context"
	"time"

	"socialhub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStore is the durable record of notifications.
//
// FindMany returns notifications visible to filter.Viewer (addressed to them or
// global) ordered newest first by (created_at, id), strictly older than
// filter.Before when it is set. Seen/read state of global notifications is
// tracked per user, so MarkAllSeen and MarkOneRead take the acting user.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) (primitive.ObjectID, error)
	FindMany(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CountUnseen(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAllSeen(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkOneRead(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
