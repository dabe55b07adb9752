package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first when present; real environment
// variables win over file values.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.Addr, "DOCSYNC_ADDR")
	setString(&cfg.DatabaseDSN, "DOCSYNC_DATABASE_DSN")
	setString(&cfg.SessionSecret, "DOCSYNC_SESSION_SECRET")
	setString(&cfg.DropboxAppKey, "DROPBOX_APP_KEY")
	setString(&cfg.DropboxAppSecret, "DROPBOX_APP_SECRET")
	setString(&cfg.DropboxAppFolder, "DROPBOX_APP_FOLDER")
	setString(&cfg.DropboxAPIBaseURL, "DROPBOX_API_BASE_URL")
	setString(&cfg.DropboxContentURL, "DROPBOX_CONTENT_BASE_URL")
	setString(&cfg.DropboxAuthURL, "DROPBOX_AUTH_BASE_URL")
	setString(&cfg.OAuthRedirectPath, "DOCSYNC_OAUTH_REDIRECT_PATH")

	if v := os.Getenv("DOCSYNC_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
