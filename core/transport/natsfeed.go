package transport

import (
	"context"
	"fmt"
	"time"

	"race-telemetry/core/reconcile"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConfig configures the NATS push feed.
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSFeed subscribes to a subject of envelopes. Connection events from the
// NATS client drive the engine's connection state.
type NATSFeed struct {
	cfg    NATSConfig
	link   Link
	logger *zap.Logger
}

// NewNATSFeed creates a NATS feed for link.
func NewNATSFeed(cfg NATSConfig, link Link, logger *zap.Logger) *NATSFeed {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSFeed{cfg: cfg, link: link, logger: logger.Named("natsfeed")}
}

// Run connects, subscribes and blocks until ctx is done.
func (f *NATSFeed) Run(ctx context.Context) error {
	nc, err := nats.Connect(f.cfg.URL, f.options()...)
	if err != nil {
		f.link.Submit(reconcile.DisconnectedEvent{Err: err})
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(f.cfg.Subject, f.handle)
	if err != nil {
		f.link.Submit(reconcile.DisconnectedEvent{Err: err})
		return fmt.Errorf("subscribe %s: %w", f.cfg.Subject, err)
	}

	f.link.Submit(reconcile.Connected{})
	f.logger.Info("Subscribed to NATS", zap.String("url", nc.ConnectedUrl()), zap.String("subject", f.cfg.Subject))

	<-ctx.Done()

	if err := sub.Unsubscribe(); err != nil {
		f.logger.Warn("NATS unsubscribe failed", zap.Error(err))
	}
	f.link.Submit(reconcile.DisconnectedEvent{})
	return nil
}

func (f *NATSFeed) options() []nats.Option {
	return []nats.Option{
		nats.Name("race-telemetry"),
		nats.MaxReconnects(f.cfg.MaxReconnects),
		nats.ReconnectWait(f.cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			f.logger.Warn("NATS disconnected", zap.Error(err))
			f.link.Submit(reconcile.DisconnectedEvent{Err: err})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			f.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
			f.link.Submit(reconcile.Connected{})
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			f.logger.Error("NATS error", zap.Error(err))
		}),
	}
}

func (f *NATSFeed) handle(msg *nats.Msg) {
	dispatch(f.link, f.logger, msg.Data)
}
