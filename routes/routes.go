package routes

import (
	"context"
	"time"

	"socialhub/config"
	"socialhub/controllers"
	"socialhub/middleware"
	"socialhub/realtime"
	"socialhub/repositories"
	"socialhub/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServiceContainer holds all services and dependencies
type ServiceContainer struct {
	DB            *mongo.Database
	Notifications *repositories.NotificationRepository

	Auth          *services.AuthService
	Presence      *services.PresenceRegistry
	Dispatcher    *services.NotificationDispatcher
	Notification  *services.NotificationService
	Announcements *services.AnnouncementService
	Posts         *services.PostService
	Likes         *services.LikeService
	Comments      *services.CommentService

	Hub         *realtime.Hub
	RateLimiter *middleware.RateLimiter
}

// NewServiceContainer wires repositories and services on top of db and media.
func NewServiceContainer(db *mongo.Database, media services.MediaStore, cfg *config.Config) *ServiceContainer {
	notifications := repositories.NewNotificationRepository(db)
	posts := repositories.NewPostRepository(db)
	likes := repositories.NewLikeRepository(db)
	comments := repositories.NewCommentRepository(db)
	users := repositories.NewUserRepository(db)

	presence := services.NewPresenceRegistry()
	dispatcher := services.NewNotificationDispatcher(notifications, presence)

	return &ServiceContainer{
		DB:            db,
		Notifications: notifications,
		Auth:          services.NewAuthService(users, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiration),
		Presence:      presence,
		Dispatcher:    dispatcher,
		Notification:  services.NewNotificationService(notifications, cfg.NotificationPageSize, cfg.NotificationMaxPageSize),
		Announcements: services.NewAnnouncementService(dispatcher),
		Posts:         services.NewPostService(posts, media, cfg.MediaURLTTL),
		Likes:         services.NewLikeService(posts, likes, dispatcher),
		Comments:      services.NewCommentService(posts, comments, dispatcher),
		Hub:           realtime.NewHub(presence, cfg.AllowedOrigins),
		RateLimiter:   middleware.NewRateLimiter(cfg.ActionRateLimit, cfg.ActionRateWindow),
	}
}

// EnsureIndexes creates the indexes every collection relies on.
func (sc *ServiceContainer) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return repositories.EnsureIndexes(ctx,
		sc.Notifications,
		repositories.NewPostRepository(sc.DB),
		repositories.NewLikeRepository(sc.DB),
		repositories.NewCommentRepository(sc.DB),
		repositories.NewUserRepository(sc.DB),
	)
}

// SetupRoutesWithContainer configures all API routes using a service container
func SetupRoutesWithContainer(api *gin.RouterGroup, container *ServiceContainer, maxMediaSize int64) {
	auth := middleware.AuthMiddleware(container.Auth)

	RegisterAuthRoutes(api, auth, controllers.NewAuthController(container.Auth))
	RegisterNotificationRoutes(api, auth, controllers.NewNotificationController(container.Notification, container.Announcements))
	RegisterPostRoutes(api, auth, container.RateLimiter,
		controllers.NewPostController(container.Posts, container.Likes, container.Comments, maxMediaSize))
	RegisterRealtimeRoutes(api, auth, controllers.NewRealtimeController(container.Hub))
}
