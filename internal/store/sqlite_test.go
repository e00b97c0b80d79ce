package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/csync/internal/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "csync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestDedupBySHA256 covers scenario S1 and the "Dedup" property: two
// successful PUTs with identical bodies leave only the most recent row,
// whose sha256 matches the digest of the shared body.
func TestDedupBySHA256(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	const sha = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	var firstID, secondID uint64
	err := db.WithTx(ctx, func(tx Tx) error {
		id, err := tx.CreateBlob(ctx, CreateBlobParams{
			Data: []byte("hello"), SHA256: sha, Owner: "alice", UpdateTime: 1,
		})
		firstID = id
		return err
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		id, err := tx.CreateBlob(ctx, CreateBlobParams{
			Data: []byte("hello"), SHA256: sha, Owner: "alice", UpdateTime: 2,
		})
		secondID = id
		return err
	})
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	err = db.WithTx(ctx, func(tx Tx) error {
		count, err := tx.CountMetadatas(ctx, types.MetadataQuery{})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)

		metas, err := tx.GetMetadatas(ctx, types.MetadataQuery{})
		require.NoError(t, err)
		require.Len(t, metas, 1)
		assert.Equal(t, secondID, metas[0].ID)
		assert.Equal(t, sha, metas[0].SHA256)
		return nil
	})
	require.NoError(t, err)
}

// TestPinBlocksRecycleThenUnpinRearms covers S2 and S3: pinning a blob
// clears its recycle_time, and unpinning it re-arms a recycle_time.
func TestPinBlocksRecycleThenUnpinRearms(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	var id uint64
	err := db.WithTx(ctx, func(tx Tx) error {
		var err error
		id, err = tx.CreateBlob(ctx, CreateBlobParams{
			Data: []byte("x"), SHA256: "deadbeef", Owner: "alice",
			UpdateTime: 1, RecycleTime: 100,
		})
		return err
	})
	require.NoError(t, err)

	pin := true
	err = db.WithTx(ctx, func(tx Tx) error {
		return tx.UpdateBlob(ctx, PatchBlobParams{ID: id, Pin: &pin, UpdateTime: 2})
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		m, err := tx.GetMetadata(ctx, id)
		require.NoError(t, err)
		assert.True(t, m.Pin)
		assert.Equal(t, uint64(0), m.RecycleTime)
		return nil
	})
	require.NoError(t, err)

	unpin := false
	err = db.WithTx(ctx, func(tx Tx) error {
		return tx.UpdateBlob(ctx, PatchBlobParams{ID: id, Pin: &unpin, RecycleTime: 500, UpdateTime: 3})
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		m, err := tx.GetMetadata(ctx, id)
		require.NoError(t, err)
		assert.False(t, m.Pin)
		assert.Equal(t, uint64(500), m.RecycleTime)
		return nil
	})
	require.NoError(t, err)
}

func TestGetBlobNotFound(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx Tx) error {
		_, err := tx.GetBlob(ctx, 999)
		return err
	})
	assert.Error(t, err)
}

func TestDeleteBlobsRemovesEveryListedID(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	var ids []uint64
	err := db.WithTx(ctx, func(tx Tx) error {
		for i := 0; i < 3; i++ {
			id, err := tx.CreateBlob(ctx, CreateBlobParams{
				Data: []byte{byte(i)}, SHA256: string(rune('a' + i)), Owner: "alice", UpdateTime: uint64(i),
			})
			require.NoError(t, err)
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		n, err := tx.DeleteBlobs(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
		return nil
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		count, err := tx.CountMetadatas(ctx, types.MetadataQuery{})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), count)
		return nil
	})
	require.NoError(t, err)
}

func TestRollbackOnError(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	sentinel := assertError{}
	err := db.WithTx(ctx, func(tx Tx) error {
		_, err := tx.CreateBlob(ctx, CreateBlobParams{
			Data: []byte("x"), SHA256: "abc", Owner: "alice", UpdateTime: 1,
		})
		require.NoError(t, err)
		return sentinel
	})
	assert.Equal(t, sentinel, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		count, err := tx.CountMetadatas(ctx, types.MetadataQuery{})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), count, "a rolled-back transaction must not leave a row behind")
		return nil
	})
	require.NoError(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "sentinel rollback error" }

func TestUserCRUDAndCascadeDelete(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx Tx) error {
		return tx.CreateUser(ctx, CreateUserParams{
			Name: "alice", PasswordHash: "h", Salt: "s", Admin: false, UpdateTime: 1,
		})
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		_, err := tx.CreateBlob(ctx, CreateBlobParams{
			Data: []byte("x"), SHA256: "abc", Owner: "alice", UpdateTime: 1,
		})
		return err
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteUser(ctx, "alice")
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx Tx) error {
		has, err := tx.HasUser(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, has)

		count, err := tx.CountMetadatas(ctx, types.MetadataQuery{Owner: "alice", HasOwner: true})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), count, "deleting a user must cascade-delete their blobs")
		return nil
	})
	require.NoError(t, err)
}
