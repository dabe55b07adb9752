// Package server initializes and runs the docsync application server.
// It wires configuration, storage backends, the provider client, the
// service layer and the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akarpovs/docsync/internal/logging"
	"github.com/akarpovs/docsync/internal/server/config"
	"github.com/akarpovs/docsync/internal/server/dropbox"
	"github.com/akarpovs/docsync/internal/server/httpapi"
	"github.com/akarpovs/docsync/internal/server/repositories/inmemory"
	"github.com/akarpovs/docsync/internal/server/repositories/repomanager"
	"github.com/akarpovs/docsync/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

// memoryDSN selects the in-memory fixture backend instead of PostgreSQL.
const memoryDSN = "memory"

type App struct {
	config *config.Config
	logger logging.Logger
	router http.Handler
	db     *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	var (
		db    *sql.DB
		repos repomanager.RepositoryManager
	)
	if cfg.DatabaseDSN == memoryDSN {
		logger.Warn(ctx, "using in-memory storage, data will not survive a restart")
		repos = inmemory.NewManager(nil)
	} else {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repos = repomanager.NewPostgresRepositoryManager()
		if err := repos.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	client := dropbox.NewClient(dropbox.ClientOptions{
		AppKey:         cfg.DropboxAppKey,
		AppSecret:      cfg.DropboxAppSecret,
		AppFolder:      cfg.DropboxAppFolder,
		APIBaseURL:     cfg.DropboxAPIBaseURL,
		ContentBaseURL: cfg.DropboxContentURL,
		AuthBaseURL:    cfg.DropboxAuthURL,
		HTTPClient:     &http.Client{Timeout: cfg.RequestTimeout},
	})

	tokens := services.NewTokenService(db, repos, client, logger)
	documents := services.NewDocumentService(db, repos, client, tokens, logger)
	projects := services.NewProjectService(db, repos)

	router := httpapi.NewRouter(cfg, logger, httpapi.Handlers{
		Documents: httpapi.NewDocumentHandler(documents),
		Tokens:    httpapi.NewTokenHandler(tokens, exchangeRedirectURI(cfg)),
		Projects:  httpapi.NewProjectHandler(projects),
		OAuth:     httpapi.NewOAuthCallback(cfg.OAuthRedirectPath),
	})

	return &App{config: cfg, logger: logger, router: router, db: db}, nil
}

// exchangeRedirectURI is the redirect_uri sent with the authorization-code
// grant. It must match the URI registered with the provider, which points
// at this server's callback endpoint.
func exchangeRedirectURI(cfg *config.Config) string {
	return "http://localhost" + cfg.Addr + "/oauth/callback"
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}
	return nil
}
