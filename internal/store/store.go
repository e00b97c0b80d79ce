// Package store implements the server's transactional persistence layer:
// blob and user CRUD, dedup-aware blob insertion, and paginated/searchable
// metadata and user queries, backed by SQLite.
package store

import (
	"context"

	"github.com/dreamware/csync/internal/types"
)

// CreateBlobParams carries everything needed to insert a new blob row.
// Summary, UpdateTime and RecycleTime are computed by the caller before the
// transaction, per spec: summary derivation and TTL math are handler-layer
// concerns, not storage ones. The row's ID is assigned by the database and
// returned by CreateBlob.
type CreateBlobParams struct {
	Data         []byte
	BlobType     types.BlobType
	SHA256       string
	FileName     string
	FileMode     uint32
	Owner        string
	Summary      string
	UpdateTime   uint64
	RecycleTime  uint64
	HasFileField bool
}

// PatchBlobParams carries a pin-flag mutation for an existing blob.
type PatchBlobParams struct {
	ID          uint64
	Pin         *bool
	UpdateTime  uint64
	RecycleTime uint64
}

// CreateUserParams carries everything needed to insert a new user row.
type CreateUserParams struct {
	Name         string
	PasswordHash string
	Salt         string
	Admin        bool
	UpdateTime   uint64
}

// PatchUserParams carries an optional password and/or admin-flag mutation.
type PatchUserParams struct {
	Name         string
	PasswordHash *string
	Salt         *string
	Admin        *bool
	UpdateTime   uint64
}

// UserCredentials is the narrow projection of User the auth pipeline needs
// to verify a basic-auth attempt.
type UserCredentials struct {
	Name         string
	PasswordHash string
	Salt         string
	Admin        bool
}

// Tx is the transactional surface every mutation and read runs through. A
// single Tx value carries one set of operations; either all of them commit
// or all roll back, per spec section 4.1.
type Tx interface {
	CreateBlob(ctx context.Context, params CreateBlobParams) (uint64, error)
	UpdateBlob(ctx context.Context, params PatchBlobParams) error
	DeleteBlob(ctx context.Context, id uint64) error
	DeleteBlobs(ctx context.Context, ids []uint64) (uint64, error)
	GetBlob(ctx context.Context, id uint64) (types.Blob, error)
	HasBlob(ctx context.Context, id uint64) (bool, error)

	GetMetadata(ctx context.Context, id uint64) (types.Metadata, error)
	CountMetadatas(ctx context.Context, q types.MetadataQuery) (uint64, error)
	GetMetadatas(ctx context.Context, q types.MetadataQuery) ([]types.Metadata, error)

	CreateUser(ctx context.Context, params CreateUserParams) error
	UpdateUser(ctx context.Context, params PatchUserParams) error
	DeleteUser(ctx context.Context, name string) error
	HasUser(ctx context.Context, name string) (bool, error)
	GetUserCredentials(ctx context.Context, name string) (UserCredentials, error)
	CountUsers(ctx context.Context, q types.UserQuery) (uint64, error)
	GetUsers(ctx context.Context, q types.UserQuery) ([]types.User, error)
}

// Store opens transactions against the persisted database.
type Store interface {
	// WithTx runs fn inside a single transaction, committing if fn returns
	// nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
