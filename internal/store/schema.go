package store

import (
	"context"
	"database/sql"
)

const ddl = `
CREATE TABLE IF NOT EXISTS chunks (
    position  INTEGER PRIMARY KEY,
    id        TEXT NOT NULL,
    doc_id    TEXT NOT NULL,
    chunk_idx INTEGER NOT NULL,
    source    TEXT NOT NULL DEFAULT '',
    text      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
    position INTEGER PRIMARY KEY REFERENCES chunks(position) ON DELETE CASCADE,
    vector   BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables if they don't exist.
func Init(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, ddl)
	return err
}
