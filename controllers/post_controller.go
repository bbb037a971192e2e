package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"socialhub/middleware"
	"socialhub/models"
	"socialhub/services"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostManager interface {
	Create(ctx context.Context, author services.Principal, caption, mediaKey string) (*models.Post, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	UploadMedia(ctx context.Context, author services.Principal, r io.Reader, filename string) (*services.MediaUpload, error)
}

type LikeManager interface {
	Like(ctx context.Context, actor services.Principal, postID primitive.ObjectID) (*services.LikeResult, error)
	Unlike(ctx context.Context, actor services.Principal, postID primitive.ObjectID) (*services.LikeResult, error)
}

type CommentManager interface {
	Add(ctx context.Context, actor services.Principal, postID primitive.ObjectID, text string) (*models.Comment, error)
	Delete(ctx context.Context, actor services.Principal, postID, commentID primitive.ObjectID) error
}

type PostController struct {
	posts        PostManager
	likes        LikeManager
	comments     CommentManager
	maxMediaSize int64
	validator    *validator.Validate
}

type CreatePostRequest struct {
	Caption  string `json:"caption" validate:"required"`
	MediaKey string `json:"media_key,omitempty" validate:"omitempty,max=512"`
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func NewPostController(posts PostManager, likes LikeManager, comments CommentManager, maxMediaSize int64) *PostController {
	return &PostController{
		posts:        posts,
		likes:        likes,
		comments:     comments,
		maxMediaSize: maxMediaSize,
		validator:    validator.New(),
	}
}

func (pc *PostController) Create(c *gin.Context) {
	author, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}
	if err := pc.validator.Struct(req); err != nil {
		utils.BadRequestResponse(c, "Validation failed", err.Error())
		return
	}

	post, err := pc.posts.Create(c.Request.Context(), author, req.Caption, req.MediaKey)
	if err != nil {
		respondError(c, "Failed to create post", err)
		return
	}

	utils.CreatedResponse(c, "Post created successfully", post)
}

func (pc *PostController) Get(c *gin.Context) {
	id := c.MustGet("id").(primitive.ObjectID)

	post, err := pc.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to load post", err)
		return
	}

	utils.SuccessResponse(c, "Post retrieved successfully", post)
}

// UploadMedia accepts a multipart "file" field and stores it for a later post.
func (pc *PostController) UploadMedia(c *gin.Context) {
	author, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	// Leave room for the multipart envelope.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, pc.maxMediaSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.PayloadTooLargeResponse(c, "Media file too large")
			return
		}
		utils.BadRequestResponse(c, "Media file is required", err.Error())
		return
	}
	if err := utils.ValidateMediaSize(header.Size, pc.maxMediaSize); err != nil {
		if header.Size > pc.maxMediaSize {
			utils.PayloadTooLargeResponse(c, err.Error())
			return
		}
		utils.BadRequestResponse(c, "Invalid media file", err.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read media file", err.Error())
		return
	}
	defer file.Close()

	upload, err := pc.posts.UploadMedia(c.Request.Context(), author, file, header.Filename)
	if err != nil {
		respondError(c, "Failed to upload media", err)
		return
	}

	utils.CreatedResponse(c, "Media uploaded successfully", upload)
}

func (pc *PostController) Like(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	result, err := pc.likes.Like(c.Request.Context(), actor, c.MustGet("id").(primitive.ObjectID))
	if err != nil {
		respondError(c, "Failed to like post", err)
		return
	}

	utils.SuccessResponse(c, "Post liked", result)
}

func (pc *PostController) Unlike(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	result, err := pc.likes.Unlike(c.Request.Context(), actor, c.MustGet("id").(primitive.ObjectID))
	if err != nil {
		respondError(c, "Failed to unlike post", err)
		return
	}

	utils.SuccessResponse(c, "Post unliked", result)
}

func (pc *PostController) AddComment(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}
	if err := pc.validator.Struct(req); err != nil {
		utils.BadRequestResponse(c, "Validation failed", err.Error())
		return
	}

	comment, err := pc.comments.Add(c.Request.Context(), actor, c.MustGet("id").(primitive.ObjectID), req.Text)
	if err != nil {
		respondError(c, "Failed to add comment", err)
		return
	}

	utils.CreatedResponse(c, "Comment added", comment)
}

func (pc *PostController) DeleteComment(c *gin.Context) {
	actor, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	postID := c.MustGet("id").(primitive.ObjectID)
	commentID := c.MustGet("commentId").(primitive.ObjectID)
	if err := pc.comments.Delete(c.Request.Context(), actor, postID, commentID); err != nil {
		respondError(c, "Failed to delete comment", err)
		return
	}

	utils.SuccessResponse(c, "Comment deleted", nil)
}
