package telemetry_test

import (
	"testing"

	"race-telemetry/core/telemetry"

	"github.com/stretchr/testify/assert"
)

func TestConfig_IsValidTransport(t *testing.T) {
	tests := []struct {
		name      string
		transport string
		want      bool
	}{
		{"Webhook", telemetry.TransportWebhook, true},
		{"Websocket", telemetry.TransportWebsocket, true},
		{"NATS", telemetry.TransportNATS, true},
		{"Invalid", "carrier-pigeon", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := telemetry.Config{Transport: tt.transport}
			assert.Equal(t, tt.want, c.IsValidTransport())
		})
	}
}

func TestConfig_PollingEnabled(t *testing.T) {
	assert.False(t, telemetry.Config{}.PollingEnabled())
	assert.True(t, telemetry.Config{UpstreamURL: "http://timing.local"}.PollingEnabled())
}
