package server_test

import (
	"testing"

	"race-telemetry/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_AuthSkipPrefixes(t *testing.T) {
	tests := []struct {
		name string
		skip string
		want []string
	}{
		{"Single", "/webhook", []string{"/webhook"}},
		{"Multiple", "/webhook, /swagger ,", []string{"/webhook", "/swagger"}},
		{"Empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{AuthSkip: tt.skip}
			assert.Equal(t, tt.want, c.AuthSkipPrefixes())
		})
	}
}

func TestConfig_HubEnabled(t *testing.T) {
	tests := []struct {
		name string
		port string
		want bool
	}{
		{"Port", "8081", true},
		{"Empty", "", false},
		{"Zero", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{WSPort: tt.port}
			assert.Equal(t, tt.want, c.HubEnabled())
		})
	}
}
