package store

import (
	"database/sql"
	"fmt"
)

// The vec0 table is created with a fixed embedding dimension, so the
// collection is bound to one embedding model for its whole lifetime.
const ddlTemplate = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS chunks (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    source  TEXT NOT NULL,
    page    INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables if they don't exist.
func Init(db *sql.DB, dimension int) error {
	_, err := db.Exec(fmt.Sprintf(ddlTemplate, dimension))
	return err
}
