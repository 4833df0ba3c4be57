// Package config provides configuration management for the telemetry service.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file loaded with godotenv.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: API port, API key, auth exemptions, websocket hub port
//   - Telemetry: push transport, pull refresh source, engine limits
//   - Storage: S3/MinIO credentials and export bucket settings
//   - Log: Logging level and format
//
// Defaults come from the `default` struct tags. Environment variables map to
// nested keys by replacing dots with underscores (SERVER_PORT, TELEMETRY_TRANSPORT).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Telemetry.PollInterval)
package config
