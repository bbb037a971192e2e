package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"socialhub/models"
	"socialhub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	utils.InitLogger("error", "json", io.Discard)
}

var errStoreDown = errors.New("store unavailable")

// fakeSession records emitted events.
type fakeSession struct {
	id     string
	userID string

	mu      sync.Mutex
	events  []models.Notification
	names   []string
	emitErr error
	onEmit  func(payload interface{})
}

func newFakeSession(id, userID string) *fakeSession {
	return &fakeSession{id: id, userID: userID}
}

func (s *fakeSession) ID() string     { return s.id }
func (s *fakeSession) UserID() string { return s.userID }

func (s *fakeSession) Emit(event string, payload interface{}) error {
	if s.onEmit != nil {
		s.onEmit(payload)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitErr != nil {
		return s.emitErr
	}
	s.names = append(s.names, event)
	if n, ok := payload.(models.Notification); ok {
		s.events = append(s.events, n)
	}
	return nil
}

func (s *fakeSession) received() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.events...)
}

// memNotificationStore mirrors the repository semantics in memory.
type memNotificationStore struct {
	mu        sync.Mutex
	items     []models.Notification
	insertErr error
}

func (m *memNotificationStore) Insert(_ context.Context, n *models.Notification) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return primitive.NilObjectID, m.insertErr
	}
	stored := *n
	stored.ID = primitive.NewObjectID()
	m.items = append(m.items, stored)
	return stored.ID, nil
}

func (m *memNotificationStore) visible(n models.Notification, viewer primitive.ObjectID) bool {
	return n.IsGlobal || n.Recipient == viewer
}

func (m *memNotificationStore) FindMany(_ context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Notification
	for _, n := range m.items {
		if !m.visible(n, filter.Viewer) {
			continue
		}
		if filter.Before != nil && !filter.Before.After(n.Cursor()) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cursor().After(out[j].Cursor()) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memNotificationStore) CountUnseen(_ context.Context, viewer primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, n := range m.items {
		if m.visible(n, viewer) && !n.ForViewer(viewer).IsSeen {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationStore) MarkAllSeen(_ context.Context, viewer primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var modified int64
	for i, n := range m.items {
		if !m.visible(n, viewer) || n.ForViewer(viewer).IsSeen {
			continue
		}
		if n.IsGlobal {
			m.items[i].SeenBy = append(m.items[i].SeenBy, viewer)
		} else {
			m.items[i].IsSeen = true
		}
		modified++
	}
	return modified, nil
}

func (m *memNotificationStore) MarkOneRead(_ context.Context, id, viewer primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, n := range m.items {
		if n.ID != id || !m.visible(n, viewer) {
			continue
		}
		if n.IsGlobal {
			if !n.ForViewer(viewer).IsRead {
				m.items[i].ReadBy = append(m.items[i].ReadBy, viewer)
			}
		} else {
			m.items[i].IsRead = true
		}
		return true, nil
	}
	return false, nil
}

func (m *memNotificationStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	var deleted int64
	for _, n := range m.items {
		if n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.items = kept
	return deleted, nil
}

func (m *memNotificationStore) has(id primitive.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id {
			return true
		}
	}
	return false
}

func (m *memNotificationStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memNotificationStore) all() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.items...)
}

// recordingDispatcher captures producer events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event models.NotificationEvent) (*models.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	if d.err != nil {
		return nil, d.err
	}
	return &models.Notification{ID: primitive.NewObjectID(), Type: event.Type, Message: event.Message, Recipient: event.Recipient}, nil
}

func (d *recordingDispatcher) dispatched() []models.NotificationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.NotificationEvent(nil), d.events...)
}

type memPostStore struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
}

func newMemPostStore(posts ...*models.Post) *memPostStore {
	s := &memPostStore{posts: make(map[primitive.ObjectID]*models.Post)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *memPostStore) Create(_ context.Context, post *models.Post) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *post
	s.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memPostStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPostStore) AdjustCounter(_ context.Context, id primitive.ObjectID, counter PostCounter, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	switch counter {
	case PostLikeCount:
		p.LikeCount += delta
	case PostCommentCount:
		p.CommentCount += delta
	}
	return nil
}

type memLikeStore struct {
	mu    sync.Mutex
	likes map[[2]primitive.ObjectID]bool
}

func newMemLikeStore() *memLikeStore {
	return &memLikeStore{likes: make(map[[2]primitive.ObjectID]bool)}
}

func (s *memLikeStore) Add(_ context.Context, like *models.Like) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]primitive.ObjectID{like.PostID, like.UserID}
	if s.likes[key] {
		return false, nil
	}
	s.likes[key] = true
	return true, nil
}

func (s *memLikeStore) Remove(_ context.Context, postID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]primitive.ObjectID{postID, userID}
	if !s.likes[key] {
		return false, nil
	}
	delete(s.likes, key)
	return true, nil
}

type memCommentStore struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]*models.Comment
}

func newMemCommentStore() *memCommentStore {
	return &memCommentStore{comments: make(map[primitive.ObjectID]*models.Comment)}
}

func (s *memCommentStore) Create(_ context.Context, c *models.Comment) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memCommentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCommentStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

// memMediaStore keeps uploads in memory and signs URLs deterministically.
type memMediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	signErr error
}

func newMemMediaStore() *memMediaStore {
	return &memMediaStore{objects: make(map[string][]byte)}
}

func (s *memMediaStore) Upload(_ context.Context, r io.Reader, objectName string) (*UploadResult, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.objects[objectName] = buf.Bytes()
	s.mu.Unlock()
	return &UploadResult{ObjectName: objectName, Size: n}, nil
}

func (s *memMediaStore) SignedURL(_ context.Context, objectName string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://media.test/" + objectName + "?ttl=" + ttl.String(), nil
}

func principal(name string) Principal {
	return Principal{UserID: primitive.NewObjectID(), UserName: name, Role: models.RoleUser}
}
