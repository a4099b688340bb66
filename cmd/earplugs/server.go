package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"earplugs/internal/app/concerts"
	"earplugs/internal/app/imports"
	"earplugs/internal/app/users"
	"earplugs/internal/auth"
	"earplugs/internal/http/middleware"
	"earplugs/internal/httpapi"
	"earplugs/internal/search"
	"earplugs/internal/setlistfm"
	"earplugs/internal/store"
	"earplugs/shared/go/config"
	sharedmw "earplugs/shared/go/middleware"
)

const shutdownTimeout = 15 * time.Second

type application struct {
	cfg      *config.Config
	users    users.Service
	concerts concerts.Service
	imports  imports.Service
	search   search.Store
}

func newApplication(cfg *config.Config, db *sql.DB, dataStore *store.Store) *application {
	userSvc := users.New(dataStore, auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL))
	concertSvc := concerts.New(dataStore)

	var fetcher imports.SetlistFetcher
	if cfg.SetlistFM.APIKey != "" {
		fetcher = setlistfm.New(setlistfm.Config{
			APIKey:            cfg.SetlistFM.APIKey,
			BaseURL:           cfg.SetlistFM.BaseURL,
			RequestsPerSecond: cfg.SetlistFM.RequestsPerSecond,
		})
		log.Info().Float64("rps", cfg.SetlistFM.RequestsPerSecond).Msg("setlist.fm client initialized")
	} else {
		log.Info().Msg("SETLISTFM_API_KEY not provided, setlist.fm lookups disabled")
	}

	importSvc := imports.New(dataStore, fetcher, imports.Options{
		MaxAttempts:  cfg.Import.MaxAttempts,
		RetryBackoff: cfg.Import.RetryBackoff,
	})

	return &application{
		cfg:      cfg,
		users:    userSvc,
		concerts: concertSvc,
		imports:  importSvc,
		search:   search.NewPGStore(db),
	}
}

func (a *application) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/search", search.NewHandler(a.search))
	mux.Handle("/", httpapi.New(a.users, a.concerts, a.imports).Routes())

	var h http.Handler = mux
	h = middleware.CORS(a.cfg.CORS.AllowedOrigins)(h)
	h = sharedmw.RequestLogging()(h)
	return sharedmw.Recovery()(h)
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("API listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
