package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"socialhub/metrics"
	"socialhub/models"
	"socialhub/utils"

	"github.com/rs/zerolog"
)

// EventNotification is the live event name carrying a notification.
const EventNotification = "notification"

var (
	ErrInvalidEvent  = errors.New("invalid notification event")
	ErrPersistFailed = errors.New("failed to persist notification")
)

// SessionDirectory is the view of presence the dispatcher needs.
type SessionDirectory interface {
	SessionsFor(userID string) []Session
	AllSessions() []Session
}

// NotificationDispatcher persists notifications and pushes them to whichever
// sessions are live. The durable record always comes first; the live push is
// a latency optimization that may be lost.
type NotificationDispatcher struct {
	store    NotificationStore
	presence SessionDirectory
	clock    *monotonicClock
	logger   zerolog.Logger
}

func NewNotificationDispatcher(store NotificationStore, presence SessionDirectory) *NotificationDispatcher {
	return &NotificationDispatcher{
		store:    store,
		presence: presence,
		clock:    newMonotonicClock(time.Now),
		logger:   utils.Logger("dispatcher"),
	}
}

// Dispatch stores the event as a notification and emits it live: to every
// session for global events, to the recipient's sessions otherwise. An
// offline recipient is a normal outcome. If the store fails nothing is emitted
// and the error wraps ErrPersistFailed.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, event models.NotificationEvent) (*models.Notification, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	n := &models.Notification{
		Type:      event.Type,
		Message:   event.Message,
		Payload:   event.Payload,
		Recipient: event.Recipient,
		IsGlobal:  event.IsGlobal,
		IsSeen:    false,
		IsRead:    false,
		CreatedAt: d.clock.Next(),
	}
	if n.IsGlobal {
		n.Recipient = models.GlobalRecipient
	}

	id, err := d.store.Insert(ctx, n)
	if err != nil {
		metrics.NotificationDispatchFailures.WithLabelValues(string(n.Type)).Inc()
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	n.ID = id

	var (
		sessions []Session
		path     string
	)
	if n.IsGlobal {
		sessions = d.presence.AllSessions()
		path = metrics.PathBroadcast
	} else {
		sessions = d.presence.SessionsFor(n.Recipient.Hex())
		path = metrics.PathLive
		if len(sessions) == 0 {
			path = metrics.PathStored
		}
	}

	delivered := d.emit(sessions, n.ForViewer(n.Recipient))
	metrics.NotificationsDispatched.WithLabelValues(string(n.Type), path).Inc()

	d.logger.Debug().
		Str("notification_id", n.ID.Hex()).
		Str("type", string(n.Type)).
		Bool("global", n.IsGlobal).
		Str("path", path).
		Int("sessions", len(sessions)).
		Int("delivered", delivered).
		Msg("notification dispatched")

	return n, nil
}

func (d *NotificationDispatcher) emit(sessions []Session, n models.Notification) int {
	delivered := 0
	for _, s := range sessions {
		if err := s.Emit(EventNotification, n); err != nil {
			metrics.NotificationLiveEmits.WithLabelValues("dropped").Inc()
			d.logger.Debug().Err(err).Str("session_id", s.ID()).Msg("live emit dropped")
			continue
		}
		metrics.NotificationLiveEmits.WithLabelValues("delivered").Inc()
		delivered++
	}
	return delivered
}

func validateEvent(event models.NotificationEvent) error {
	if event.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}
	if !event.IsGlobal && event.Recipient.IsZero() {
		return fmt.Errorf("%w: targeted notification needs a recipient", ErrInvalidEvent)
	}
	return nil
}

// monotonicClock hands out millisecond timestamps that never go backwards,
// so insertion order and created_at order agree within this process.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Millisecond)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
