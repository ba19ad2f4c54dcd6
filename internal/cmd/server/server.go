// Package server parses server command flags and composes the account and
// table surfaces into one HTTP process.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	entrypoint "github.com/hanulsoft/jantable/internal/platform/cmd"
	"github.com/hanulsoft/jantable/internal/platform/timeouts"
	authapp "github.com/hanulsoft/jantable/internal/services/auth/app"
	"github.com/hanulsoft/jantable/internal/services/auth/storage/sqlite"
	"github.com/hanulsoft/jantable/internal/services/auth/token"
	parlorapp "github.com/hanulsoft/jantable/internal/services/parlor/app"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr    string        `env:"JANTABLE_HTTP_ADDR"    envDefault:":8080"`
	DBPath      string        `env:"JANTABLE_DB_PATH"      envDefault:"jantable.db"`
	TokenSecret string        `env:"JANTABLE_TOKEN_SECRET"`
	TokenIssuer string        `env:"JANTABLE_TOKEN_ISSUER" envDefault:"jantable"`
	TokenTTL    time.Duration `env:"JANTABLE_TOKEN_TTL"    envDefault:"1h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.TokenIssuer, "token-issuer", cfg.TokenIssuer, "token issuer name")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run composes the service and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		handler, cleanup, err := newHandler(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		return serveHTTP(ctx, cfg.HTTPAddr, handler)
	})
}

// newHandler wires storage, token signing, and both HTTP surfaces. The
// returned cleanup closes the store.
func newHandler(cfg Config) (http.Handler, func(), error) {
	secret := strings.TrimSpace(cfg.TokenSecret)
	if secret == "" {
		return nil, nil, errors.New("token secret is required (JANTABLE_TOKEN_SECRET)")
	}

	issuer, err := token.NewIssuer(cfg.TokenIssuer, []byte(secret), cfg.TokenTTL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("init token issuer: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open auth store: %w", err)
	}

	authHandler := authapp.Handler(store, issuer, nil)
	mux := http.NewServeMux()
	mux.Handle("/api/signup", authHandler)
	mux.Handle("/api/login", authHandler)
	mux.Handle("/", parlorapp.NewServer(issuer).Handler())

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("close auth store: %v", err)
		}
	}
	return mux, cleanup, nil
}

// serveHTTP runs the HTTP server until the context ends, then shuts it down
// gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	log.Printf("server listening on %s", addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
