package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blob (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	data BLOB NOT NULL,
	blob_type INTEGER NOT NULL,
	summary TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	size INTEGER NOT NULL,
	pin INTEGER NOT NULL,
	file_name TEXT DEFAULT NULL,
	file_mode INTEGER DEFAULT NULL,
	owner TEXT NOT NULL,
	update_time INTEGER NOT NULL,
	recycle_time INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_blob_owner ON blob(owner);
CREATE INDEX IF NOT EXISTS idx_blob_sha256 ON blob(sha256);
CREATE INDEX IF NOT EXISTS idx_blob_summary ON blob(summary);
CREATE INDEX IF NOT EXISTS idx_blob_update_time ON blob(update_time);
CREATE INDEX IF NOT EXISTS idx_blob_recycle_time ON blob(recycle_time);

CREATE TABLE IF NOT EXISTS user (
	name TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	salt TEXT NOT NULL,
	admin INTEGER NOT NULL,
	update_time INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_update_time ON user(update_time);
`
