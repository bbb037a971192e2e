package models

import (
	"bytes"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationLike         NotificationType = "Like"
	NotificationComment      NotificationType = "Comment"
	NotificationAnnouncement NotificationType = "Announcement"
)

// Payload keys shared by producers and clients for deep links.
const (
	PayloadPostID    = "post_id"
	PayloadCommentID = "comment_id"
	PayloadActorID   = "actor_id"
	PayloadActorName = "actor_name"
	PayloadActionAt  = "action_at"
)

// GlobalRecipient is stored as the recipient of notifications visible to every user.
var GlobalRecipient = primitive.NilObjectID

type Notification struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Type      NotificationType     `bson:"type" json:"type"`
	Message   string               `bson:"message" json:"message"`
	Payload   map[string]string    `bson:"payload,omitempty" json:"payload,omitempty"`
	Recipient primitive.ObjectID   `bson:"recipient" json:"recipient"`
	IsGlobal  bool                 `bson:"is_global" json:"is_global"`
	IsSeen    bool                 `bson:"is_seen" json:"is_seen"`
	IsRead    bool                 `bson:"is_read" json:"is_read"`
	SeenBy    []primitive.ObjectID `bson:"seen_by,omitempty" json:"-"` // global notifications only
	ReadBy    []primitive.ObjectID `bson:"read_by,omitempty" json:"-"` // global notifications only
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}

// ForViewer returns the notification as the given user sees it. Global
// notifications carry seen/read state per user in SeenBy/ReadBy.
func (n Notification) ForViewer(userID primitive.ObjectID) Notification {
	view := n
	if n.IsGlobal {
		view.IsSeen = containsID(n.SeenBy, userID)
		view.IsRead = containsID(n.ReadBy, userID)
	}
	view.SeenBy = nil
	view.ReadBy = nil
	return view
}

// Cursor returns the position of n in the (created_at desc, id desc) order.
func (n Notification) Cursor() NotificationCursor {
	return NotificationCursor{CreatedAt: n.CreatedAt, ID: n.ID}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// NotificationEvent is what producers hand to the dispatcher.
type NotificationEvent struct {
	Type      NotificationType   `json:"type" validate:"required"`
	Message   string             `json:"message" validate:"required,max=500"`
	Payload   map[string]string  `json:"payload,omitempty"`
	Recipient primitive.ObjectID `json:"recipient"`
	IsGlobal  bool               `json:"is_global"`
}

// NotificationCursor marks the oldest notification a client holds. Pages
// requested with it contain only strictly older notifications.
type NotificationCursor struct {
	CreatedAt time.Time          `json:"created_at"`
	ID        primitive.ObjectID `json:"id"`
}

// After reports whether c sorts before other in newest-first order.
func (c NotificationCursor) After(other NotificationCursor) bool {
	if !c.CreatedAt.Equal(other.CreatedAt) {
		return c.CreatedAt.After(other.CreatedAt)
	}
	return bytes.Compare(c.ID[:], other.ID[:]) > 0
}

type NotificationFilter struct {
	Viewer primitive.ObjectID
	Before *NotificationCursor
	Limit  int
}

type NotificationPage struct {
	Items      []Notification      `json:"items"`
	NextCursor *NotificationCursor `json:"next_cursor,omitempty"`
}
