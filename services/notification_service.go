package services

import (
	"context"
	"errors"
	"fmt"

	"socialhub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService answers the REST backfill and seen/read calls.
type NotificationService struct {
	store       NotificationStore
	pageSize    int
	maxPageSize int
}

func NewNotificationService(store NotificationStore, pageSize, maxPageSize int) *NotificationService {
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &NotificationService{
		store:       store,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// List returns one page of the viewer's notifications, newest first, strictly
// older than before when it is set. NextCursor is set only when older
// notifications remain.
func (s *NotificationService) List(ctx context.Context, viewer primitive.ObjectID, before *models.NotificationCursor, limit int) (*models.NotificationPage, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	// One extra row tells us whether another page exists.
	items, err := s.store.FindMany(ctx, models.NotificationFilter{
		Viewer: viewer,
		Before: before,
		Limit:  limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &models.NotificationPage{Items: make([]models.Notification, 0, limit)}
	for i, n := range items {
		if i == limit {
			last := page.Items[limit-1].Cursor()
			page.NextCursor = &last
			break
		}
		page.Items = append(page.Items, n.ForViewer(viewer))
	}
	return page, nil
}

func (s *NotificationService) UnseenCount(ctx context.Context, viewer primitive.ObjectID) (int64, error) {
	count, err := s.store.CountUnseen(ctx, viewer)
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen notifications: %w", err)
	}
	return count, nil
}

// MarkAllSeen flags every notification the viewer has not seen yet and returns
// how many changed.
func (s *NotificationService) MarkAllSeen(ctx context.Context, viewer primitive.ObjectID) (int64, error) {
	modified, err := s.store.MarkAllSeen(ctx, viewer)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications seen: %w", err)
	}
	return modified, nil
}

// MarkOneRead flags a single notification read for the viewer. It never
// changes seen state.
func (s *NotificationService) MarkOneRead(ctx context.Context, id, viewer primitive.ObjectID) error {
	ok, err := s.store.MarkOneRead(ctx, id, viewer)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
