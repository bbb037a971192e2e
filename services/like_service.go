package services

import (
	"context"
	"fmt"
	"time"

	"socialhub/models"
	"socialhub/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LikeService struct {
	posts      PostStore
	likes      LikeStore
	dispatcher Dispatcher
	logger     zerolog.Logger
}

type LikeResult struct {
	PostID    primitive.ObjectID `json:"post_id"`
	Liked     bool               `json:"liked"`
	LikeCount int64              `json:"like_count"`
}

func NewLikeService(posts PostStore, likes LikeStore, dispatcher Dispatcher) *LikeService {
	return &LikeService{
		posts:      posts,
		likes:      likes,
		dispatcher: dispatcher,
		logger:     utils.Logger("likes"),
	}
}

// Like records actor's like on a post. Liking twice is a no-op. Only a new
// like notifies the post owner, and never when the owner is the actor.
func (s *LikeService) Like(ctx context.Context, actor Principal, postID primitive.ObjectID) (*LikeResult, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.likes.Add(ctx, &models.Like{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    actor.UserID,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save like: %w", err)
	}

	count := post.LikeCount
	if !created {
		return &LikeResult{PostID: postID, Liked: true, LikeCount: count}, nil
	}

	if err := s.posts.AdjustCounter(ctx, postID, PostLikeCount, 1); err != nil {
		s.logger.Warn().Err(err).Str("post_id", postID.Hex()).Msg("failed to increment like count")
	} else {
		count++
	}

	if post.OwnerID != actor.UserID {
		s.notify(ctx, models.NotificationEvent{
			Type:      models.NotificationLike,
			Message:   fmt.Sprintf("%s liked your post", actor.UserName),
			Recipient: post.OwnerID,
			Payload: map[string]string{
				models.PayloadPostID:    postID.Hex(),
				models.PayloadActorID:   actor.UserID.Hex(),
				models.PayloadActorName: actor.UserName,
				models.PayloadActionAt:  now.Format(time.RFC3339Nano),
			},
		})
	}

	return &LikeResult{PostID: postID, Liked: true, LikeCount: count}, nil
}

// Unlike removes actor's like. It never raises a notification.
func (s *LikeService) Unlike(ctx context.Context, actor Principal, postID primitive.ObjectID) (*LikeResult, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	removed, err := s.likes.Remove(ctx, postID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}

	count := post.LikeCount
	if removed {
		if err := s.posts.AdjustCounter(ctx, postID, PostLikeCount, -1); err != nil {
			s.logger.Warn().Err(err).Str("post_id", postID.Hex()).Msg("failed to decrement like count")
		} else if count > 0 {
			count--
		}
	}

	return &LikeResult{PostID: postID, Liked: false, LikeCount: count}, nil
}

// notify dispatches a producer event. The triggering action has already
// succeeded, so failures are only logged.
func (s *LikeService) notify(ctx context.Context, event models.NotificationEvent) {
	if _, err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("type", string(event.Type)).
			Str("recipient", event.Recipient.Hex()).
			Msg("notification dispatch failed")
	}
}
