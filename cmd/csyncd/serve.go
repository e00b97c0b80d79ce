package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/csync/internal/auth"
	"github.com/dreamware/csync/internal/config"
	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/events"
	"github.com/dreamware/csync/internal/eventserver"
	"github.com/dreamware/csync/internal/handlers"
	"github.com/dreamware/csync/internal/httpserver"
	"github.com/dreamware/csync/internal/recycler"
	"github.com/dreamware/csync/internal/revision"
	"github.com/dreamware/csync/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the csync server (HTTP surface, events server, recycler)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := store.Open(filepath.Join(cfg.DataDir, "csync.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	privPEM, err := os.ReadFile(cfg.JWTPrivateKeyFile)
	if err != nil {
		return fmt.Errorf("read jwt private key: %w", err)
	}
	pubPEM, err := os.ReadFile(cfg.JWTPublicKeyFile)
	if err != nil {
		return fmt.Errorf("read jwt public key: %w", err)
	}

	jwtGen, err := crypto.NewJWTGenerator(privPEM, cfg.JWTExpiry)
	if err != nil {
		return fmt.Errorf("build jwt generator: %w", err)
	}
	jwtValidator, err := crypto.NewJWTValidator(pubPEM)
	if err != nil {
		return fmt.Errorf("build jwt validator: %w", err)
	}

	rev := revision.NewRegister()
	bus := events.NewBus()
	pipeline := auth.NewPipeline(db, jwtValidator, cfg.AdminPassword)

	h := &handlers.Handlers{
		DB:       db,
		Revision: rev,
		Bus:      bus,
		JWT:      jwtGen,
		Cfg: handlers.Config{
			RecycleSeconds:    cfg.RecycleSeconds,
			TruncateTextWidth: cfg.TruncateTextWidth,
			SaltLength:        cfg.SaltLength,
			JWTExpiry:         cfg.JWTExpiry,
		},
		Log: log.With().Str("component", "handlers").Logger(),
	}

	evSrv := &eventserver.Server{
		Addr:          cfg.EventsAddr,
		DB:            db,
		Bus:           bus,
		AdminPassword: cfg.AdminPassword,
		Log:           log.With().Str("component", "eventserver").Logger(),
	}

	rec := &recycler.Recycler{
		DB:       db,
		Revision: rev,
		Bus:      bus,
		Interval: time.Duration(cfg.RecycleSeconds) * time.Second,
		Log:      log.With().Str("component", "recycler").Logger(),
	}

	httpSrv := &httpserver.Server{
		Addr:     cfg.HTTPAddr,
		Handlers: h,
		Pipeline: pipeline,
		TLS: httpserver.TLSConfig{
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		},
		MaxPayloadBytes: cfg.MaxPayloadMiB * 1024 * 1024,
		Log:             log.With().Str("component", "httpserver").Logger(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go rec.Run(ctx)
	go func() {
		if err := evSrv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("events server stopped")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	var httpErr error
	go func() {
		defer wg.Done()
		httpErr = httpSrv.Run(ctx)
	}()

	log.Info().Str("http_addr", cfg.HTTPAddr).Str("events_addr", cfg.EventsAddr).Msg("csyncd started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	wg.Wait()

	if httpErr != nil {
		return fmt.Errorf("http server: %w", httpErr)
	}
	return nil
}
