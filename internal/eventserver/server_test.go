package eventserver

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/events"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

func startTestServer(t *testing.T, db store.Store, bus *events.Bus) (addr string, stop func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &Server{DB: db, Bus: bus, AdminPassword: "adminpw", Log: zerolog.Nop()}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.handleConn(ctx, conn)
		}
	}()

	return ln.Addr().String(), func() {
		cancel()
		_ = ln.Close()
	}
}

func TestHandshakeUnknownUserFails(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "csync.db"))
	require.NoError(t, err)
	defer db.Close()
	bus := events.NewBus()

	addr, stop := startTestServer(t, db, bus)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeFrame(conn, []byte("ghost")))

	resp, err := readFrame(conn)
	require.NoError(t, err)

	var est established
	require.NoError(t, json.Unmarshal(resp, &est))
	assert.False(t, est.OK)
}

func TestHandshakeAndEventDeliveryRoundTrip(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "csync.db"))
	require.NoError(t, err)
	defer db.Close()
	bus := events.NewBus()

	salt := "salt"
	hash := crypto.HashPassword("s3cret", salt)
	err = db.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.CreateUser(context.Background(), store.CreateUserParams{
			Name: "carol", PasswordHash: hash, Salt: salt, UpdateTime: 1,
		})
	})
	require.NoError(t, err)

	addr, stop := startTestServer(t, db, bus)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeFrame(conn, []byte("carol")))

	resp, err := readFrame(conn)
	require.NoError(t, err)
	var est established
	require.NoError(t, json.Unmarshal(resp, &est))
	require.True(t, est.OK)

	cipher, err := crypto.NewStreamCipher(deriveConnectionKey(hash))
	require.NoError(t, err)
	in := &cipherReader{r: conn, cipher: cipher}

	// Give the dispatcher a moment to register the subscription before
	// publishing, since Subscribe and Publish both go through the same
	// single-goroutine dispatcher but over independent channels.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(types.Event{
		EventType: types.EventPut,
		Items:     []types.Metadata{{ID: 1, Owner: "carol", Summary: "hi"}},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	payload, err := in.read()
	require.NoError(t, err)

	var ev types.Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, types.EventPut, ev.EventType)
	require.Len(t, ev.Items, 1)
	assert.Equal(t, "carol", ev.Items[0].Owner)
}
