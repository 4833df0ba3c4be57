package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the API will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// WSPort is the port of the browser websocket hub. Empty disables the hub.
	WSPort string `mapstructure:"ws_port" default:"8081"`
	// AuthSkip is a comma separated list of path prefixes served without a key.
	AuthSkip string `mapstructure:"auth_skip" default:"/webhook"`
	// Swagger serves the API docs under /swagger.
	Swagger bool `mapstructure:"swagger" default:"true"`
}

// AuthSkipPrefixes splits AuthSkip, dropping empty entries.
func (c Config) AuthSkipPrefixes() []string {
	var out []string
	for _, p := range strings.Split(c.AuthSkip, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HubEnabled reports whether the websocket hub should listen.
func (c Config) HubEnabled() bool {
	return c.WSPort != "" && c.WSPort != "0"
}
