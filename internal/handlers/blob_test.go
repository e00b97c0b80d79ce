package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/csync/internal/events"
	"github.com/dreamware/csync/internal/revision"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "csync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &Handlers{
		DB:       db,
		Revision: revision.NewRegister(),
		Bus:      events.NewBus(),
		Cfg:      Config{RecycleSeconds: 3600, TruncateTextWidth: 200, SaltLength: 16},
		Log:      zerolog.Nop(),
	}
}

func putBlobRequest(t *testing.T, user types.User, body string, sha256 string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPut, "/v1/blob", bytes.NewBufferString(body))
	req.Header.Set("X-Csync-Blob-Type", "text")
	req.Header.Set("X-Csync-Sha256", sha256)
	return req.WithContext(ContextWithUser(req.Context(), user))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

// TestPutBlobHashConsistency covers the "Hash consistency" property and
// scenario S6: a sha256 header that doesn't match the body is rejected with
// 400 and no row is inserted.
func TestPutBlobHashConsistency(t *testing.T) {
	h := newTestHandlers(t)
	alice := types.User{Name: "alice"}

	req := putBlobRequest(t, alice, "abc", "0000000000000000000000000000000000000000000000000000000000000000")
	rec := httptest.NewRecorder()
	h.PutBlob(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	err := h.DB.WithTx(req.Context(), func(tx store.Tx) error {
		count, err := tx.CountMetadatas(req.Context(), types.MetadataQuery{})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), count, "total must not change when the hash check fails")
		return nil
	})
	require.NoError(t, err)
}

func TestPutBlobSuccess(t *testing.T) {
	h := newTestHandlers(t)
	alice := types.User{Name: "alice"}

	req := putBlobRequest(t, alice, "hello", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	rec := httptest.NewRecorder()
	h.PutBlob(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Code)

	rev, latest := h.Revision.Snapshot()
	assert.Equal(t, uint64(1), rev)
	require.NotNil(t, latest)
	assert.Equal(t, "alice", latest.Owner)
}

// TestOwnershipIsolation covers scenario S4: a non-admin user gets 404 for
// GET/PATCH/DELETE of another owner's blob; admin can still GET it.
func TestOwnershipIsolation(t *testing.T) {
	h := newTestHandlers(t)
	vera := types.User{Name: "vera"}
	umar := types.User{Name: "umar"}

	putReq := putBlobRequest(t, vera, "secret", "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b")
	putRec := httptest.NewRecorder()
	h.PutBlob(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	_, latest := h.Revision.Snapshot()
	require.NotNil(t, latest)
	id := latest.ID

	getReq := httptest.NewRequest(http.MethodGet, "/v1/blob?id="+itoa(id), nil)
	getReq = getReq.WithContext(ContextWithUser(getReq.Context(), umar))
	getRec := httptest.NewRecorder()
	h.GetBlob(getRec, getReq)
	assert.Equal(t, http.StatusNotFound, getRec.Code)

	patchReq := httptest.NewRequest(http.MethodPatch, "/v1/blob?id="+itoa(id)+"&pin=true", nil)
	patchReq = patchReq.WithContext(ContextWithUser(patchReq.Context(), umar))
	patchRec := httptest.NewRecorder()
	h.PatchBlob(patchRec, patchReq)
	assert.Equal(t, http.StatusNotFound, patchRec.Code)

	delReq := httptest.NewRequest(http.MethodDelete, "/v1/blob?id="+itoa(id), nil)
	delReq = delReq.WithContext(ContextWithUser(delReq.Context(), umar))
	delRec := httptest.NewRecorder()
	h.DeleteBlob(delRec, delReq)
	assert.Equal(t, http.StatusNotFound, delRec.Code)

	admin := types.User{Name: "admin", Admin: true}
	adminGetReq := httptest.NewRequest(http.MethodGet, "/v1/blob?id="+itoa(id), nil)
	adminGetReq = adminGetReq.WithContext(ContextWithUser(adminGetReq.Context(), admin))
	adminGetRec := httptest.NewRecorder()
	h.GetBlob(adminGetRec, adminGetReq)
	require.Equal(t, http.StatusOK, adminGetRec.Code)
	data, err := io.ReadAll(adminGetRec.Body)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(data))
}

// TestDeleteBlobEmitsDeleteEvent covers the "every mutation emits an event"
// decision: an explicit DELETE publishes EventDelete, not just the recycler.
func TestDeleteBlobEmitsDeleteEvent(t *testing.T) {
	h := newTestHandlers(t)
	alice := types.User{Name: "alice"}

	putReq := putBlobRequest(t, alice, "gone", "283bb9deef02e6843abfb538efa1eca70801bd8a701c3f98191e123496339247")
	putRec := httptest.NewRecorder()
	h.PutBlob(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	_, latest := h.Revision.Snapshot()
	require.NotNil(t, latest)
	id := latest.ID

	sink, unsubscribe := h.Bus.Subscribe("alice")
	defer unsubscribe()

	delReq := httptest.NewRequest(http.MethodDelete, "/v1/blob?id="+itoa(id), nil)
	delReq = delReq.WithContext(ContextWithUser(delReq.Context(), alice))
	delRec := httptest.NewRecorder()
	h.DeleteBlob(delRec, delReq)
	require.Equal(t, http.StatusOK, delRec.Code)

	select {
	case ev := <-sink:
		assert.Equal(t, types.EventDelete, ev.EventType)
		require.Len(t, ev.Items, 1)
		assert.Equal(t, id, ev.Items[0].ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delete event")
	}
}

// TestPinSemantics covers the "Pin semantics" property: pin=true zeroes
// recycle_time, pin=false re-arms it to now+TTL.
func TestPinSemantics(t *testing.T) {
	h := newTestHandlers(t)
	alice := types.User{Name: "alice"}

	putReq := putBlobRequest(t, alice, "pinme", "c2896076470c070714a3a8f3aa00100a989c0b21f85e1d21c1a3e41acce01380")
	putRec := httptest.NewRecorder()
	h.PutBlob(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	_, latest := h.Revision.Snapshot()
	require.NotNil(t, latest)
	id := latest.ID

	pinReq := httptest.NewRequest(http.MethodPatch, "/v1/blob?id="+itoa(id)+"&pin=true", nil)
	pinReq = pinReq.WithContext(ContextWithUser(pinReq.Context(), alice))
	pinRec := httptest.NewRecorder()
	h.PatchBlob(pinRec, pinReq)
	require.Equal(t, http.StatusOK, pinRec.Code)

	err := h.DB.WithTx(pinReq.Context(), func(tx store.Tx) error {
		m, err := tx.GetMetadata(pinReq.Context(), id)
		require.NoError(t, err)
		assert.True(t, m.Pin)
		assert.Equal(t, uint64(0), m.RecycleTime)
		return nil
	})
	require.NoError(t, err)

	unpinReq := httptest.NewRequest(http.MethodPatch, "/v1/blob?id="+itoa(id)+"&pin=false", nil)
	unpinReq = unpinReq.WithContext(ContextWithUser(unpinReq.Context(), alice))
	unpinRec := httptest.NewRecorder()
	h.PatchBlob(unpinRec, unpinReq)
	require.Equal(t, http.StatusOK, unpinRec.Code)

	err = h.DB.WithTx(unpinReq.Context(), func(tx store.Tx) error {
		m, err := tx.GetMetadata(unpinReq.Context(), id)
		require.NoError(t, err)
		assert.False(t, m.Pin)
		assert.Greater(t, m.RecycleTime, uint64(0))
		return nil
	})
	require.NoError(t, err)
}

func itoa(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
