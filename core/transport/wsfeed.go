package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"race-telemetry/core/reconcile"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// WSConfig configures the websocket push feed.
type WSConfig struct {
	URL           string
	APIKey        string
	ReconnectWait time.Duration
	ReadTimeout   time.Duration
}

// WSFeed dials a websocket feed of envelopes and keeps it connected.
type WSFeed struct {
	cfg    WSConfig
	link   Link
	dialer *websocket.Dialer
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewWSFeed creates a websocket feed for link.
func NewWSFeed(cfg WSConfig, link Link, clock clockwork.Clock, logger *zap.Logger) *WSFeed {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSFeed{
		cfg:  cfg,
		link: link,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		clock:  clock,
		logger: logger.Named("wsfeed"),
	}
}

// Run connects, reads until the connection fails, waits ReconnectWait and
// repeats until ctx is done.
func (f *WSFeed) Run(ctx context.Context) error {
	for {
		err := f.session(ctx)
		if ctx.Err() != nil {
			f.link.Submit(reconcile.DisconnectedEvent{})
			return nil
		}
		f.link.Submit(reconcile.DisconnectedEvent{Err: err})
		f.logger.Warn("Feed connection lost", zap.String("url", f.cfg.URL), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-f.clock.After(f.cfg.ReconnectWait):
		}
	}
}

func (f *WSFeed) session(ctx context.Context) error {
	header := http.Header{}
	if f.cfg.APIKey != "" {
		header.Set("X-API-Key", f.cfg.APIKey)
	}

	conn, _, err := f.dialer.DialContext(ctx, f.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	f.link.Submit(reconcile.Connected{})
	f.logger.Info("Feed connected", zap.String("url", f.cfg.URL))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	if f.cfg.ReadTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		})
	}

	for {
		if f.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read feed: %w", err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		dispatch(f.link, f.logger, data)
	}
}
