package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/types"
)

// SQLiteStore is the production Store, backed by modernc.org/sqlite (a
// pure-Go driver, so the binary stays cgo-free). A single process-wide
// mutex serializes transactions: the spec asks for sequential, one-at-a-
// time mutation semantics rather than SQLite-level MVCC, so correctness
// does not depend on the driver's own locking.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if absent) the SQLite database at path in WAL mode
// and ensures the schema exists.
func Open(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx serializes callers through s.mu, then runs fn inside a real SQL
// transaction, committing on nil error and rolling back otherwise.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(fmt.Errorf("begin transaction: %w", err))
	}

	tx := &sqliteTx{tx: sqlTx}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperr.Database(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// sqliteTx implements Tx against a live *sql.Tx.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) CreateBlob(ctx context.Context, p CreateBlobParams) (uint64, error) {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM blob WHERE sha256 = ?", p.SHA256); err != nil {
		return 0, apperr.Database(fmt.Errorf("dedup existing blobs: %w", err))
	}

	const insertSQL = `
	INSERT INTO blob (data, blob_type, summary, sha256, size, pin, file_name, file_mode, owner, update_time, recycle_time)
	VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`

	var fileName, fileMode any
	if p.HasFileField {
		fileName, fileMode = p.FileName, p.FileMode
	}

	res, err := t.tx.ExecContext(ctx, insertSQL,
		p.Data, int(p.BlobType), p.Summary, p.SHA256, len(p.Data),
		fileName, fileMode, p.Owner, p.UpdateTime, p.RecycleTime)
	if err != nil {
		return 0, apperr.Database(fmt.Errorf("insert blob: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Database(fmt.Errorf("read inserted blob id: %w", err))
	}
	return uint64(id), nil
}

func (t *sqliteTx) UpdateBlob(ctx context.Context, p PatchBlobParams) error {
	u := newUpdate("blob")
	if p.Pin != nil {
		u.set("pin", *p.Pin)
		if *p.Pin {
			u.set("recycle_time", uint64(0))
		} else {
			u.set("recycle_time", p.RecycleTime)
		}
	}
	u.set("update_time", p.UpdateTime)
	u.where("id = ?", p.ID)

	sqlStr, values := u.build()
	if sqlStr == "" {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, sqlStr, values...); err != nil {
		return apperr.Database(fmt.Errorf("update blob: %w", err))
	}
	return nil
}

func (t *sqliteTx) DeleteBlob(ctx context.Context, id uint64) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM blob WHERE id = ?", id); err != nil {
		return apperr.Database(fmt.Errorf("delete blob: %w", err))
	}
	return nil
}

func (t *sqliteTx) DeleteBlobs(ctx context.Context, ids []uint64) (uint64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	sqlStr := "DELETE FROM blob WHERE id IN (" + string(placeholders) + ")"
	res, err := t.tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, apperr.Database(fmt.Errorf("delete blobs: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Database(fmt.Errorf("read deleted blob count: %w", err))
	}
	return uint64(n), nil
}

func (t *sqliteTx) GetBlob(ctx context.Context, id uint64) (types.Blob, error) {
	const q = "SELECT data, sha256, blob_type, file_name, file_mode, owner, summary, pin, update_time, recycle_time, size FROM blob WHERE id = ?"

	var b types.Blob
	var blobType int
	var fileName sql.NullString
	var fileMode sql.NullInt64
	row := t.tx.QueryRowContext(ctx, q, id)
	err := row.Scan(&b.Data, &b.SHA256, &blobType, &fileName, &fileMode, &b.Owner, &b.Summary, &b.Pin, &b.UpdateTime, &b.RecycleTime, &b.Size)
	if err == sql.ErrNoRows {
		return types.Blob{}, apperr.NotFound("blob %d not found", id)
	}
	if err != nil {
		return types.Blob{}, apperr.Database(fmt.Errorf("get blob: %w", err))
	}

	b.ID = id
	b.BlobType = types.BlobType(blobType)
	b.FileName = fileName.String
	if fileMode.Valid {
		b.FileMode = uint32(fileMode.Int64)
	}
	return b, nil
}

func (t *sqliteTx) HasBlob(ctx context.Context, id uint64) (bool, error) {
	count, err := t.CountMetadatas(ctx, types.MetadataQuery{ID: id, HasID: true})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *sqliteTx) GetMetadata(ctx context.Context, id uint64) (types.Metadata, error) {
	metas, err := t.GetMetadatas(ctx, types.MetadataQuery{ID: id, HasID: true})
	if err != nil {
		return types.Metadata{}, err
	}
	if len(metas) == 0 {
		return types.Metadata{}, apperr.NotFound("blob %d not found", id)
	}
	return metas[0], nil
}

func (t *sqliteTx) CountMetadatas(ctx context.Context, q types.MetadataQuery) (uint64, error) {
	sel := buildMetadataSelect(true, q)
	sqlStr, values := sel.build()

	var count int64
	if err := t.tx.QueryRowContext(ctx, sqlStr, values...).Scan(&count); err != nil {
		return 0, apperr.Database(fmt.Errorf("count metadata: %w", err))
	}
	return uint64(count), nil
}

func (t *sqliteTx) GetMetadatas(ctx context.Context, q types.MetadataQuery) ([]types.Metadata, error) {
	sel := buildMetadataSelect(false, q)
	sqlStr, values := sel.build()

	rows, err := t.tx.QueryContext(ctx, sqlStr, values...)
	if err != nil {
		return nil, apperr.Database(fmt.Errorf("query metadata: %w", err))
	}
	defer rows.Close()

	var out []types.Metadata
	for rows.Next() {
		var m types.Metadata
		var blobType int
		var fileName sql.NullString
		var fileMode sql.NullInt64
		if err := rows.Scan(&m.ID, &blobType, &m.Summary, &m.SHA256, &m.Size, &fileName, &fileMode, &m.Pin, &m.Owner, &m.UpdateTime, &m.RecycleTime); err != nil {
			return nil, apperr.Database(fmt.Errorf("scan metadata row: %w", err))
		}
		m.BlobType = types.BlobType(blobType)
		m.FileName = fileName.String
		if fileMode.Valid {
			m.FileMode = uint32(fileMode.Int64)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(fmt.Errorf("iterate metadata rows: %w", err))
	}
	return out, nil
}

func buildMetadataSelect(count bool, q types.MetadataQuery) *selectBuilder {
	var sel *selectBuilder
	if count {
		sel = newCountSelect("blob")
	} else {
		sel = newSelect("blob", "id", "blob_type", "summary", "sha256", "size", "file_name", "file_mode", "pin", "owner", "update_time", "recycle_time")
	}

	if q.HasID {
		sel.where("id = ?", q.ID)
	}
	if q.HasOwner {
		sel.where("owner = ?", q.Owner)
	}
	if q.HasSHA256 {
		sel.where("sha256 = ?", q.SHA256)
	}
	if q.HasRecycleBefore {
		sel.where("recycle_time > 0 AND recycle_time < ?", q.RecycleBefore)
	}

	sel.applyQuery(newBaseQuery(q.Query), "summary")
	sel.addOrderBy("pin DESC")
	sel.addOrderBy("update_time DESC")
	return sel
}

func (t *sqliteTx) CreateUser(ctx context.Context, p CreateUserParams) error {
	const insertSQL = `INSERT INTO user (name, password_hash, salt, admin, update_time) VALUES (?, ?, ?, ?, ?)`
	if _, err := t.tx.ExecContext(ctx, insertSQL, p.Name, p.PasswordHash, p.Salt, p.Admin, p.UpdateTime); err != nil {
		return apperr.Database(fmt.Errorf("insert user: %w", err))
	}
	return nil
}

func (t *sqliteTx) UpdateUser(ctx context.Context, p PatchUserParams) error {
	u := newUpdate("user")
	if p.PasswordHash != nil {
		u.set("password_hash", *p.PasswordHash)
	}
	if p.Salt != nil {
		u.set("salt", *p.Salt)
	}
	if p.Admin != nil {
		u.set("admin", *p.Admin)
	}
	u.set("update_time", p.UpdateTime)
	u.where("name = ?", p.Name)

	sqlStr, values := u.build()
	if sqlStr == "" {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, sqlStr, values...); err != nil {
		return apperr.Database(fmt.Errorf("update user: %w", err))
	}
	return nil
}

func (t *sqliteTx) DeleteUser(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM blob WHERE owner = ?", name); err != nil {
		return apperr.Database(fmt.Errorf("cascade delete user blobs: %w", err))
	}
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM user WHERE name = ?", name); err != nil {
		return apperr.Database(fmt.Errorf("delete user: %w", err))
	}
	return nil
}

func (t *sqliteTx) HasUser(ctx context.Context, name string) (bool, error) {
	count, err := t.CountUsers(ctx, types.UserQuery{Name: name, HasName: true})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *sqliteTx) GetUserCredentials(ctx context.Context, name string) (UserCredentials, error) {
	const q = "SELECT name, password_hash, salt, admin FROM user WHERE name = ?"
	var c UserCredentials
	err := t.tx.QueryRowContext(ctx, q, name).Scan(&c.Name, &c.PasswordHash, &c.Salt, &c.Admin)
	if err == sql.ErrNoRows {
		return UserCredentials{}, apperr.NotFound("user %q not found", name)
	}
	if err != nil {
		return UserCredentials{}, apperr.Database(fmt.Errorf("get user credentials: %w", err))
	}
	return c, nil
}

func (t *sqliteTx) CountUsers(ctx context.Context, q types.UserQuery) (uint64, error) {
	sel := buildUserSelect(true, q)
	sqlStr, values := sel.build()

	var count int64
	if err := t.tx.QueryRowContext(ctx, sqlStr, values...).Scan(&count); err != nil {
		return 0, apperr.Database(fmt.Errorf("count users: %w", err))
	}
	return uint64(count), nil
}

func (t *sqliteTx) GetUsers(ctx context.Context, q types.UserQuery) ([]types.User, error) {
	sel := buildUserSelect(false, q)
	sqlStr, values := sel.build()

	rows, err := t.tx.QueryContext(ctx, sqlStr, values...)
	if err != nil {
		return nil, apperr.Database(fmt.Errorf("query users: %w", err))
	}
	defer rows.Close()

	var out []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.Name, &u.Admin, &u.UpdateTime); err != nil {
			return nil, apperr.Database(fmt.Errorf("scan user row: %w", err))
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(fmt.Errorf("iterate user rows: %w", err))
	}
	return out, nil
}

func buildUserSelect(count bool, q types.UserQuery) *selectBuilder {
	var sel *selectBuilder
	if count {
		sel = newCountSelect("user")
	} else {
		sel = newSelect("user", "name", "admin", "update_time")
	}

	if q.HasName {
		sel.where("name = ?", q.Name)
	}

	sel.applyQuery(newBaseQuery(q.Query), "name")
	sel.addOrderBy("update_time DESC")
	return sel
}
