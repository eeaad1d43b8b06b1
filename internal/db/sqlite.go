/*
   BlogDedup - trend and content deduplication service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var ErrConflict = errors.New("already exists")

type DB struct {
	*sql.DB
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	excerpt TEXT NOT NULL DEFAULT '',
	source_hash TEXT,
	ai_generated BOOLEAN NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'DRAFT',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_ai_status ON articles(ai_generated, status, created_at);

CREATE TABLE IF NOT EXISTS processed_trends (
	id TEXT PRIMARY KEY,
	trend_hash TEXT NOT NULL UNIQUE,
	query TEXT NOT NULL,
	traffic TEXT,
	date TEXT NOT NULL,
	source_data TEXT,
	processed BOOLEAN NOT NULL DEFAULT 0,
	article_created BOOLEAN NOT NULL DEFAULT 0,
	article_id TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	CHECK (article_created = 0 OR article_id IS NOT NULL)
);
CREATE INDEX IF NOT EXISTS idx_trends_cleanup ON processed_trends(article_created, created_at);

CREATE TABLE IF NOT EXISTS content_hashes (
	id TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trend_blacklist (
	id TEXT PRIMARY KEY,
	keyword TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blacklist_active ON trend_blacklist(active);
`

// NewDB opens (creating if needed) the SQLite database at path. The pool is
// limited to one connection so writers never race each other for the file.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{DB: db, now: time.Now}, nil
}

// SetClock replaces the time source used for created/updated timestamps and
// retention cutoffs.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) Now() time.Time {
	return db.now()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func buildErr(what string, err error) error {
	return fmt.Errorf("build %s query: %w", what, err)
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
