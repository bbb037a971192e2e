package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"socialhub/models"
	"socialhub/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostService struct {
	posts  PostStore
	media  MediaStore
	urlTTL time.Duration
	logger zerolog.Logger
}

type MediaUpload struct {
	MediaKey   string `json:"media_key"`
	PreviewURL string `json:"preview_url"`
	Size       int64  `json:"size"`
}

func NewPostService(posts PostStore, media MediaStore, urlTTL time.Duration) *PostService {
	return &PostService{
		posts:  posts,
		media:  media,
		urlTTL: urlTTL,
		logger: utils.Logger("posts"),
	}
}

func (s *PostService) Create(ctx context.Context, author Principal, caption, mediaKey string) (*models.Post, error) {
	caption, err := utils.ValidateText("caption", caption, utils.MaxCaptionLength)
	if err != nil {
		return nil, err
	}
	if mediaKey != "" && !strings.HasPrefix(mediaKey, mediaPrefix(author.UserID)) {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        primitive.NewObjectID(),
		OwnerID:   author.UserID,
		OwnerName: author.UserName,
		Caption:   caption,
		MediaKey:  mediaKey,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	post.ID = id
	s.signMedia(ctx, post)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.signMedia(ctx, post)
	return post, nil
}

// UploadMedia streams a media file into the object store under the author's
// prefix and returns its key for a later Create call.
func (s *PostService) UploadMedia(ctx context.Context, author Principal, r io.Reader, filename string) (*MediaUpload, error) {
	if err := utils.ValidateMediaFileName(filename); err != nil {
		return nil, err
	}

	key := mediaPrefix(author.UserID) + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	result, err := s.media.Upload(ctx, r, key)
	if err != nil {
		return nil, err
	}

	previewURL, err := s.media.SignedURL(ctx, key, s.urlTTL)
	if err != nil {
		return nil, err
	}

	return &MediaUpload{MediaKey: key, PreviewURL: previewURL, Size: result.Size}, nil
}

func (s *PostService) signMedia(ctx context.Context, post *models.Post) {
	if post.MediaKey == "" {
		return
	}
	url, err := s.media.SignedURL(ctx, post.MediaKey, s.urlTTL)
	if err != nil {
		// The post is still usable without its picture.
		s.logger.Warn().Err(err).Str("post_id", post.ID.Hex()).Msg("failed to sign media URL")
		return
	}
	post.MediaURL = url
}

func mediaPrefix(userID primitive.ObjectID) string {
	return fmt.Sprintf("posts/%s/", userID.Hex())
}
