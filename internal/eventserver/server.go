package eventserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net"

	"github.com/rs/zerolog"

	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/events"
	"github.com/dreamware/csync/internal/metrics"
	"github.com/dreamware/csync/internal/store"
)

// Server accepts one TCP connection per subscriber and streams that
// subscriber's events as encrypted, length-prefixed JSON frames.
type Server struct {
	Addr          string
	DB            store.Store
	Bus           *events.Bus
	AdminPassword string
	Log           zerolog.Logger
}

// established is the handshake response sent once per connection.
type established struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Salt    string `json:"salt,omitempty"`
}

// Run binds Addr and accepts connections until ctx is canceled. A failure
// to bind is the only fatal error; per-connection errors are logged and
// only terminate that connection.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	s.Log.Info().Str("addr", s.Addr).Msg("events server listening")
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.Log.Error().Err(err).Msg("accept events connection")
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReaderSize(conn, readBufferSize)

	nameFrame, err := readFrame(reader)
	if err != nil {
		s.Log.Debug().Err(err).Msg("read subscriber name frame")
		return
	}
	name := string(nameFrame)

	creds, ok := s.resolveCredentials(ctx, name)
	if !ok {
		_ = writeFrame(conn, mustJSON(established{OK: false, Message: "user not found"}))
		return
	}

	if err := writeFrame(conn, mustJSON(established{OK: true})); err != nil {
		s.Log.Debug().Err(err).Str("user", name).Msg("write handshake response")
		return
	}

	cipher, err := crypto.NewStreamCipher(deriveConnectionKey(creds.PasswordHash))
	if err != nil {
		s.Log.Error().Err(err).Str("user", name).Msg("build connection cipher")
		return
	}
	out := &cipherWriter{w: conn, cipher: cipher}

	sink, unsubscribe := s.Bus.Subscribe(name)
	metrics.EventSubscribersActive.Inc()
	defer metrics.EventSubscribersActive.Dec()
	defer unsubscribe()

	s.Log.Debug().Str("user", name).Msg("events connection established")
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sink:
			if !ok {
				return
			}
			if err := out.write(mustJSON(event)); err != nil {
				s.Log.Debug().Err(err).Str("user", name).Msg("write event frame")
				return
			}
		}
	}
}

// resolveCredentials looks up the password hash used to derive the
// connection cipher key. The admin pseudo-user has no row; its credentials
// come straight from configuration.
func (s *Server) resolveCredentials(ctx context.Context, name string) (store.UserCredentials, bool) {
	if name == "admin" {
		return store.UserCredentials{Name: "admin", PasswordHash: s.AdminPassword, Admin: true}, true
	}

	var creds store.UserCredentials
	var found bool
	err := s.DB.WithTx(ctx, func(tx store.Tx) error {
		has, err := tx.HasUser(ctx, name)
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
		creds, err = tx.GetUserCredentials(ctx, name)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		s.Log.Error().Err(err).Str("user", name).Msg("resolve events subscriber credentials")
		return store.UserCredentials{}, false
	}
	return creds, found
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{}`)
	}
	return data
}
