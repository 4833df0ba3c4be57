package storage

// Config holds configuration for the export bucket.
type Config struct {
	// Endpoint is the host of the S3 compatible service, with or without scheme.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use TLS.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket receives uploaded exports.
	Bucket string `mapstructure:"bucket" default:"race-telemetry"`
	// Region is the bucket location (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds connection setup and the first response byte.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// ExportPrefix is the object key prefix for exports.
	ExportPrefix string `mapstructure:"export_prefix" default:"exports"`
	// ExportRetain is how many uploads per export kind are kept; 0 keeps all.
	ExportRetain int `mapstructure:"export_retain" default:"20"`
	// Enabled turns the upload endpoints on.
	Enabled bool `mapstructure:"enabled" default:"false"`
}
