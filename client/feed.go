// Package client is the consumer side of the notification system: a feed
// that merges live pushes with cursor-paginated backfill.
package client

import (
	"context"
	"sort"
	"sync"
	"time"

	"socialhub/utils"

	"github.com/rs/zerolog"
)

const (
	DefaultPageSize    = 20
	defaultSyncTimeout = 10 * time.Second
)

// Item is one notification as held by a feed.
type Item struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Payload   map[string]string `json:"payload,omitempty"`
	IsGlobal  bool              `json:"is_global"`
	IsSeen    bool              `json:"is_seen"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`

	// Fresh marks items that arrived live since the feed was opened.
	Fresh bool `json:"-"`
}

// Cursor identifies the oldest item a caller holds.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Page is one backfill response.
type Page struct {
	Items      []Item  `json:"items"`
	NextCursor *Cursor `json:"next_cursor,omitempty"`
}

// Backend is the server surface a feed synchronizes with.
type Backend interface {
	List(ctx context.Context, before *Cursor, limit int) (*Page, error)
	UnseenCount(ctx context.Context) (int, error)
	MarkAllSeen(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id string) error
}

// Feed holds a user's notifications newest first with at most one entry per
// id, plus the unseen badge counter. Seen/read changes are applied locally at
// once and synced to the server in the background; the server wins on the
// next Refresh.
type Feed struct {
	backend     Backend
	pageSize    int
	syncTimeout time.Duration
	logger      zerolog.Logger

	mu         sync.Mutex
	items      []Item
	ids        map[string]struct{}
	unseen     int
	hasMore    bool
	generation uint64
	reloading  bool
	arrivals   []Item // live items received while a reload is in flight

	pending sync.WaitGroup
}

type FeedOption func(*Feed)

func WithPageSize(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

func WithSyncTimeout(d time.Duration) FeedOption {
	return func(f *Feed) {
		if d > 0 {
			f.syncTimeout = d
		}
	}
}

func NewFeed(backend Backend, opts ...FeedOption) *Feed {
	f := &Feed{
		backend:     backend,
		pageSize:    DefaultPageSize,
		syncTimeout: defaultSyncTimeout,
		logger:      utils.Logger("feed"),
		ids:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open loads the first page, sets the badge from it and, when anything is
// unseen, marks everything seen.
func (f *Feed) Open(ctx context.Context) error {
	if err := f.reload(ctx, false); err != nil {
		return err
	}
	if f.Unseen() > 0 {
		f.MarkAllSeen()
	}
	return nil
}

// Refresh replaces the held items with the server's first page and takes the
// unseen count from the server.
func (f *Feed) Refresh(ctx context.Context) error {
	return f.reload(ctx, true)
}

// Reconnected is called after the live channel comes back. Pushes sent while
// it was down are not replayed, so the feed backfills from the server.
func (f *Feed) Reconnected(ctx context.Context) error {
	return f.Refresh(ctx)
}

func (f *Feed) reload(ctx context.Context, serverCount bool) error {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.reloading = true
	f.arrivals = nil
	f.mu.Unlock()

	page, err := f.backend.List(ctx, nil, f.pageSize)
	count := 0
	if err == nil && serverCount {
		count, err = f.backend.UnseenCount(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		// Superseded by a newer reload or Close.
		return err
	}
	f.reloading = false
	arrivals := f.arrivals
	f.arrivals = nil
	if err != nil {
		return err
	}

	f.items = f.items[:0]
	f.ids = make(map[string]struct{}, len(page.Items))
	unseen := 0
	for _, item := range page.Items {
		item.Fresh = false
		if f.insertLocked(item) && !item.IsSeen {
			unseen++
		}
	}
	for _, item := range arrivals {
		if f.insertLocked(item) && !item.IsSeen {
			unseen++
		}
	}
	if serverCount {
		unseen = count
	}
	f.unseen = unseen
	f.hasMore = page.NextCursor != nil
	return nil
}

// LoadMore fetches the page strictly older than the oldest held item and
// merges it. It returns how many new items were added.
func (f *Feed) LoadMore(ctx context.Context) (int, error) {
	f.mu.Lock()
	gen := f.generation
	var before *Cursor
	if n := len(f.items); n > 0 {
		last := f.items[n-1]
		before = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	f.mu.Unlock()

	page, err := f.backend.List(ctx, before, f.pageSize)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		return 0, nil
	}

	added := 0
	for _, item := range page.Items {
		item.Fresh = false
		if f.insertLocked(item) {
			added++
		}
	}
	f.hasMore = page.NextCursor != nil
	return added, nil
}

// Receive merges a live push. It reports false when the id is already held.
func (f *Feed) Receive(item Item) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	item.Fresh = true
	if f.reloading {
		f.arrivals = append(f.arrivals, item)
	}
	if !f.insertLocked(item) {
		return false
	}
	if !item.IsSeen {
		f.unseen++
	}
	return true
}

// MarkAllSeen clears the badge and flags every held item seen, then tells the
// server. A failed sync is logged and not rolled back.
func (f *Feed) MarkAllSeen() {
	f.mu.Lock()
	f.unseen = 0
	for i := range f.items {
		f.items[i].IsSeen = true
	}
	f.mu.Unlock()

	f.background("mark all seen", func(ctx context.Context) error {
		n, err := f.backend.MarkAllSeen(ctx)
		if err == nil {
			f.logger.Debug().Int64("modified", n).Msg("notifications marked seen")
		}
		return err
	})
}

// MarkRead flags one item read locally and on the server. The badge is not
// touched. It reports whether the item is held.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	found := false
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
			found = true
			break
		}
	}
	f.mu.Unlock()

	f.background("mark read", func(ctx context.Context) error {
		return f.backend.MarkRead(ctx, id)
	})
	return found
}

func (f *Feed) background(op string, fn func(ctx context.Context) error) {
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), f.syncTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			f.logger.Warn().Err(err).Str("op", op).Msg("notification sync failed")
		}
	}()
}

// WaitForSync blocks until background server calls have finished.
func (f *Feed) WaitForSync() {
	f.pending.Wait()
}

// Close discards the held items. The badge count survives.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	f.reloading = false
	f.arrivals = nil
	f.items = nil
	f.ids = make(map[string]struct{})
	f.hasMore = false
}

// Items returns a copy of the held items, newest first.
func (f *Feed) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Feed) Unseen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unseen
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// insertLocked places item at its sorted position unless its id is held.
func (f *Feed) insertLocked(item Item) bool {
	if _, ok := f.ids[item.ID]; ok {
		return false
	}
	i := sort.Search(len(f.items), func(i int) bool {
		return newerThan(item, f.items[i])
	})
	f.items = append(f.items, Item{})
	copy(f.items[i+1:], f.items[i:])
	f.items[i] = item
	f.ids[item.ID] = struct{}{}
	return true
}

// newerThan orders by created_at descending, then id descending.
func newerThan(a, b Item) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
