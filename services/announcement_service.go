package services

import (
	"context"
	"fmt"

	"socialhub/models"
)

// AnnouncementService publishes global notifications visible to every user.
type AnnouncementService struct {
	dispatcher Dispatcher
}

func NewAnnouncementService(dispatcher Dispatcher) *AnnouncementService {
	return &AnnouncementService{dispatcher: dispatcher}
}

func (s *AnnouncementService) Announce(ctx context.Context, author Principal, message string, payload map[string]string) (*models.Notification, error) {
	if payload == nil {
		payload = map[string]string{}
	}
	payload[models.PayloadActorID] = author.UserID.Hex()
	payload[models.PayloadActorName] = author.UserName

	n, err := s.dispatcher.Dispatch(ctx, models.NotificationEvent{
		Type:     models.NotificationAnnouncement,
		Message:  message,
		Payload:  payload,
		IsGlobal: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish announcement: %w", err)
	}
	return n, nil
}
