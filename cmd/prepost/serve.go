package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/prepost/internal/aggregate"
	api "github.com/mind-engage/prepost/internal/api/http"
	"github.com/mind-engage/prepost/internal/assessment"
	auth "github.com/mind-engage/prepost/internal/auth/middleware"
	"github.com/mind-engage/prepost/internal/config"
	"github.com/mind-engage/prepost/internal/storage"
	syncx "github.com/mind-engage/prepost/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbh, store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbh.Close()

		accounts, content, err := bootstrap(ctx, cfg, store)
		if err != nil {
			return err
		}

		blobs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			return err
		}

		router := api.NewRouter(api.Deps{
			Auth:           auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL),
			Store:          store,
			Engine:         assessment.NewEngine(store, nil),
			Accounts:       accounts,
			Content:        content,
			Aggregate:      aggregate.New(store),
			Blobs:          blobs,
			Events:         syncx.NewEventRepo(dbh),
			Ready:          dbh.PingContext,
			CORSOrigins:    cfg.CORSOrigins(),
			RequestTimeout: cfg.RequestTimeout,
			ExportLocale:   cfg.ExportLocale,
		})

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			log.Printf("[STARTUP] listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, store.Driver())
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		log.Printf("[SHUTDOWN] draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// bootstrap makes sure the admin account exists and, when configured, loads
// the demo content into an empty database.
func bootstrap(ctx context.Context, cfg config.Config, store assessment.Store) (*assessment.Accounts, *assessment.Content, error) {
	accounts := assessment.NewAccounts(store, assessment.DefaultBcryptCost)
	if _, err := accounts.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return nil, nil, err
	}
	content := assessment.NewContent(store)
	if cfg.SeedDemo {
		if _, err := assessment.Seed(ctx, content); err != nil {
			return nil, nil, err
		}
	}
	return accounts, content, nil
}
