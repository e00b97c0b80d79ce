// Package httpserver implements the HTTP surface (C9): the route table,
// the payload-size cap, optional TLS, and the systemd readiness signal,
// adapted from the original server's restful.rs/sd_notify wiring.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/csync/internal/auth"
	"github.com/dreamware/csync/internal/handlers"
)

// TLSConfig carries the optional certificate/key pair. Both fields empty
// means plaintext HTTP.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Server wraps http.Server with the config knobs spec section 4.9 names.
type Server struct {
	Addr            string
	Handlers        *handlers.Handlers
	Pipeline        *auth.Pipeline
	TLS             TLSConfig
	MaxPayloadBytes int64
	Log             zerolog.Logger

	httpSrv *http.Server
}

// Run binds Addr, serves until ctx is canceled, then shuts down gracefully
// within 5 seconds. It signals readiness to the process supervisor (or a
// no-op fallback when NOTIFY_SOCKET is unset) right before accepting.
func (s *Server) Run(ctx context.Context) error {
	maxBytes := s.MaxPayloadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxPayloadMiB * 1024 * 1024
	}

	handler := withPayloadCap(maxBytes, newRouter(s.Handlers, s.Pipeline))

	s.httpSrv = &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.TLS.CertFile != "" && s.TLS.KeyFile != "" {
			s.Log.Info().Str("addr", s.Addr).Msg("binding https")
			err = s.httpSrv.ListenAndServeTLS(s.TLS.CertFile, s.TLS.KeyFile)
		} else {
			s.Log.Warn().Msg("using HTTP without TLS; this is dangerous, do not use in production")
			s.Log.Info().Str("addr", s.Addr).Msg("binding http")
			err = s.httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if err := notifyReady(); err != nil {
		s.Log.Warn().Err(err).Msg("systemd readiness notification failed")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.Log.Error().Err(err).Msg("http server shutdown error")
		return err
	}
	<-errCh
	return nil
}

// notifyReady writes a systemd "READY=1" datagram to $NOTIFY_SOCKET. When
// the variable is unset (no supervisor, or running outside systemd) this
// is a silent no-op rather than an error.
func notifyReady() error {
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return nil
	}

	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write([]byte("READY=1"))
	return err
}
