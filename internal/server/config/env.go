package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from environment variables. A .env
// file in the working directory is loaded first when present, so deployed
// instances can ship their settings alongside the binary.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("FORUM_ADDRESS"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("FORUM_DATA_DIR"); v != "" {
		config.DataDir = v
	}
	if v := os.Getenv("FORUM_CREDENTIALS_FILE"); v != "" {
		config.CredentialsFile = v
	}
	if v := os.Getenv("FORUM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WorkerPoolSize = n
		}
	}
	if v := os.Getenv("FORUM_S3_ROOT_USER"); v != "" {
		config.S3RootUser = v
	}
	if v := os.Getenv("FORUM_S3_ROOT_PASSWORD"); v != "" {
		config.S3RootPassword = v
	}
	if v := os.Getenv("FORUM_S3_BUCKET"); v != "" {
		config.S3Bucket = v
	}
	if v := os.Getenv("FORUM_S3_REGION"); v != "" {
		config.S3Region = v
	}
	if v := os.Getenv("FORUM_S3_BASE_ENDPOINT"); v != "" {
		config.S3BaseEndpoint = v
	}
}
