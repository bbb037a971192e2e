package repositories

import (
	"context"
	"fmt"
	"time"

	"socialhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const NotificationsCollection = "notifications"

// newestFirst is the single total order of notifications; _id breaks created_at ties.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection(NotificationsCollection)}
}

func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "is_global", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "is_seen", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) (primitive.ObjectID, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert notification: %w", err)
	}
	return n.ID, nil
}

func (r *NotificationRepository) FindMany(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	opts := options.Find().SetSort(newestFirst)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, listFilter(filter.Viewer, filter.Before), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnseen(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, unseenFilter(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepository) MarkAllSeen(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	targeted, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": userID, "is_global": false, "is_seen": false},
		bson.M{"$set": bson.M{"is_seen": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications seen: %w", err)
	}

	global, err := r.collection.UpdateMany(ctx,
		bson.M{"is_global": true, "seen_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"seen_by": userID}},
	)
	if err != nil {
		return targeted.ModifiedCount, fmt.Errorf("failed to mark global notifications seen: %w", err)
	}

	return targeted.ModifiedCount + global.ModifiedCount, nil
}

func (r *NotificationRepository) MarkOneRead(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": userID, "is_global": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	res, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_global": true},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark global notification read: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *NotificationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, pruneFilter(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	return res.DeletedCount, nil
}

// listFilter selects what viewer may see, strictly older than before.
func listFilter(viewer primitive.ObjectID, before *models.NotificationCursor) bson.M {
	visible := bson.M{"$or": bson.A{
		bson.M{"recipient": viewer, "is_global": false},
		bson.M{"is_global": true},
	}}
	if before == nil {
		return visible
	}

	older := bson.M{"$or": bson.A{
		bson.M{"created_at": bson.M{"$lt": before.CreatedAt}},
		bson.M{"created_at": before.CreatedAt, "_id": bson.M{"$lt": before.ID}},
	}}
	return bson.M{"$and": bson.A{visible, older}}
}

func unseenFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"recipient": userID, "is_global": false, "is_seen": false},
		bson.M{"is_global": true, "seen_by": bson.M{"$ne": userID}},
	}}
}

// pruneFilter matches expired notifications that no longer affect any badge:
// targeted ones already seen and read, and global ones.
func pruneFilter(cutoff time.Time) bson.M {
	return bson.M{
		"created_at": bson.M{"$lt": cutoff},
		"$or": bson.A{
			bson.M{"is_global": true},
			bson.M{"is_seen": true, "is_read": true},
		},
	}
}
