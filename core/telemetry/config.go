package telemetry

import "time"

// Transport names how push events reach the engine.
const (
	TransportWebhook   = "webhook"
	TransportWebsocket = "websocket"
	TransportNATS      = "nats"
)

// Config holds settings for the telemetry pipeline.
type Config struct {
	// Transport is webhook, websocket or nats.
	Transport string `mapstructure:"transport" default:"webhook"`
	// UpstreamURL is the timing server base URL for pull refreshes. Empty
	// disables polling.
	UpstreamURL string `mapstructure:"upstream_url" default:""`
	// UpstreamKey is sent as X-API-Key to the timing server.
	UpstreamKey string `mapstructure:"upstream_key" default:""`
	// FeedURL is the websocket push feed.
	FeedURL string `mapstructure:"feed_url" default:""`
	// PollInterval is the pull refresh period.
	PollInterval time.Duration `mapstructure:"poll_interval" default:"5s"`
	// FetchTimeout bounds one pull request.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" default:"10s"`
	// LapHistoryCap is the number of laps kept per driver, at most 50.
	LapHistoryCap int `mapstructure:"lap_history_cap" default:"50"`
	// PendingCap bounds laps held while a resync is outstanding.
	PendingCap int `mapstructure:"pending_cap" default:"256"`
	// DefaultFilter is the standings filter before a user picks one.
	DefaultFilter string `mapstructure:"default_filter" default:"all"`
	// NATSURL is the NATS server.
	NATSURL string `mapstructure:"nats_url" default:"nats://127.0.0.1:4222"`
	// NATSSubject carries envelopes.
	NATSSubject string `mapstructure:"nats_subject" default:"smartrace.events"`
	// ReconnectWait is the pause between reconnect attempts.
	ReconnectWait time.Duration `mapstructure:"reconnect_wait" default:"2s"`
	// MaxReconnects limits NATS reconnects; -1 is unlimited.
	MaxReconnects int `mapstructure:"max_reconnects" default:"-1"`
}

// IsValidTransport checks if the configured transport is supported.
func (c Config) IsValidTransport() bool {
	switch c.Transport {
	case TransportWebhook, TransportWebsocket, TransportNATS:
		return true
	default:
		return false
	}
}

// PollingEnabled reports whether pull refreshes are configured.
func (c Config) PollingEnabled() bool {
	return c.UpstreamURL != ""
}
