package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"socialhub/models"
	"socialhub/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const commentPreviewLength = 80

type CommentService struct {
	posts      PostStore
	comments   CommentStore
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewCommentService(posts PostStore, comments CommentStore, dispatcher Dispatcher) *CommentService {
	return &CommentService{
		posts:      posts,
		comments:   comments,
		dispatcher: dispatcher,
		logger:     utils.Logger("comments"),
	}
}

// Add stores a comment and notifies the post owner unless they wrote it.
func (s *CommentService) Add(ctx context.Context, actor Principal, postID primitive.ObjectID, text string) (*models.Comment, error) {
	text, err := utils.ValidateText("comment", text, utils.MaxCommentLength)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:         primitive.NewObjectID(),
		PostID:     postID,
		AuthorID:   actor.UserID,
		AuthorName: actor.UserName,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
	id, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}
	comment.ID = id

	if err := s.posts.AdjustCounter(ctx, postID, PostCommentCount, 1); err != nil {
		s.logger.Warn().Err(err).Str("post_id", postID.Hex()).Msg("failed to increment comment count")
	}

	if post.OwnerID != actor.UserID {
		event := models.NotificationEvent{
			Type:      models.NotificationComment,
			Message:   fmt.Sprintf("%s commented on your post: %s", actor.UserName, preview(text)),
			Recipient: post.OwnerID,
			Payload: map[string]string{
				models.PayloadPostID:    postID.Hex(),
				models.PayloadCommentID: comment.ID.Hex(),
				models.PayloadActorID:   actor.UserID.Hex(),
				models.PayloadActorName: actor.UserName,
				models.PayloadActionAt:  comment.CreatedAt.Format(time.RFC3339Nano),
			},
		}
		if _, err := s.dispatcher.Dispatch(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Str("post_id", postID.Hex()).
				Str("comment_id", comment.ID.Hex()).
				Msg("notification dispatch failed")
		}
	}

	return comment, nil
}

// Delete removes a comment written by actor. No notification is raised.
func (s *CommentService) Delete(ctx context.Context, actor Principal, postID, commentID primitive.ObjectID) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PostID != postID {
		return ErrCommentNotFound
	}
	if comment.AuthorID != actor.UserID {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if err := s.posts.AdjustCounter(ctx, postID, PostCommentCount, -1); err != nil {
		s.logger.Warn().Err(err).Str("post_id", postID.Hex()).Msg("failed to decrement comment count")
	}
	return nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= commentPreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:commentPreviewLength]) + "..."
}
