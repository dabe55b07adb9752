package config

import (
	"flag"
	"os"
	"time"

	"github.com/akarpovs/docsync/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, or "memory" for the in-memory backend
//	-s string   session JWT HMAC secret
//	-k string   Dropbox app key
//	-p string   Dropbox app secret
//	-f string   Dropbox app folder prefix
//	-t int      provider request timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k", "-p", "-f", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret key")
	fs.StringVar(&config.DropboxAppKey, "k", config.DropboxAppKey, "Dropbox app key")
	fs.StringVar(&config.DropboxAppSecret, "p", config.DropboxAppSecret, "Dropbox app secret")
	fs.StringVar(&config.DropboxAppFolder, "f", config.DropboxAppFolder, "Dropbox app folder")

	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "provider request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
