package config

import (
	"fmt"
	"reflect"
	"strings"

	"race-telemetry/core/logger"
	"race-telemetry/core/reconcile"
	"race-telemetry/core/server"
	"race-telemetry/core/storage"
	"race-telemetry/core/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the export bucket (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Telemetry holds configuration for transports and the engine.
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate rejects settings the pipeline cannot start with.
func (c *Config) validate() error {
	t := c.Telemetry
	if !t.IsValidTransport() {
		return fmt.Errorf("invalid telemetry transport %q", t.Transport)
	}
	if t.Transport == telemetry.TransportWebsocket && t.FeedURL == "" {
		return fmt.Errorf("telemetry.feed_url is required for the websocket transport")
	}
	if t.LapHistoryCap < 1 || t.LapHistoryCap > reconcile.DefaultLapCap {
		return fmt.Errorf("telemetry.lap_history_cap must be between 1 and %d, got %d", reconcile.DefaultLapCap, t.LapHistoryCap)
	}
	if t.PollInterval <= 0 {
		return fmt.Errorf("telemetry.poll_interval must be positive, got %s", t.PollInterval)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse. time.Duration is an int64 and
		// falls through to the default below.
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
