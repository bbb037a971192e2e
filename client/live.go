package client

import (
	"context"
	"net/http"
	"time"

	"socialhub/utils"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const eventNotification = "notification"

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Live keeps a websocket subscription open and feeds pushes into a Feed.
// Every connection after the first triggers Feed.Reconnected.
type Live struct {
	url     string
	token   string
	feed    *Feed
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	logger  zerolog.Logger
}

type LiveOption func(*Live)

// WithReconnectLimit caps how often Run dials.
func WithReconnectLimit(every time.Duration, burst int) LiveOption {
	return func(l *Live) {
		limit := rate.Inf
		if every > 0 {
			limit = rate.Every(every)
		}
		l.limiter = rate.NewLimiter(limit, burst)
	}
}

func NewLive(wsURL, token string, feed *Feed, opts ...LiveOption) *Live {
	l := &Live{
		url:     wsURL,
		token:   token,
		feed:    feed,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:  utils.Logger("live"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run connects and reconnects until ctx is done.
func (l *Live) Run(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+l.token)

	connected := false
	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		conn, _, err := l.dialer.DialContext(ctx, l.url, header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn().Err(err).Msg("live connection failed")
			continue
		}

		if connected {
			if err := l.feed.Reconnected(ctx); err != nil {
				l.logger.Warn().Err(err).Msg("backfill after reconnect failed")
			}
		}
		connected = true

		l.consume(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Info().Msg("live connection lost, reconnecting")
	}
}

func (l *Live) consume(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			l.logger.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}
		if f.Type != eventNotification {
			continue
		}

		var item Item
		if err := json.Unmarshal(f.Data, &item); err != nil {
			l.logger.Warn().Err(err).Msg("ignoring malformed notification")
			continue
		}
		l.feed.Receive(item)
	}
}
