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
	"Unbewohnte/BlogDedup/internal/domain"
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var blacklistColumns = []string{"id", "keyword", "reason", "active", "created_at"}

// AddBlacklistEntry stores keyword lowercased as a new active entry. The same
// keyword may be added more than once.
func (db *DB) AddBlacklistEntry(ctx context.Context, keyword, reason string) (*domain.BlacklistEntry, error) {
	entry := domain.BlacklistEntry{
		ID:        uuid.NewString(),
		Keyword:   strings.ToLower(strings.TrimSpace(keyword)),
		Reason:    reason,
		Active:    true,
		CreatedAt: fromMillis(toMillis(db.now())),
	}

	query, args, err := builder.Insert("trend_blacklist").
		Columns(blacklistColumns...).
		Values(entry.ID, entry.Keyword, entry.Reason, entry.Active, toMillis(entry.CreatedAt)).
		ToSql()
	if err != nil {
		return nil, buildErr("insert blacklist", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert blacklist entry: %w", err)
	}
	return &entry, nil
}

// FindBlacklistMatch returns the first active entry whose keyword occurs in
// the lowercased query, or nil, nil. Entries are tried oldest first.
func (db *DB) FindBlacklistMatch(ctx context.Context, query string) (*domain.BlacklistEntry, error) {
	lowered := strings.ToLower(strings.TrimSpace(query))

	stmt, args, err := builder.Select(blacklistColumns...).
		From("trend_blacklist").
		Where(sq.Eq{"active": true}).
		Where(sq.NotEq{"keyword": ""}).
		Where(sq.Or{
			sq.Eq{"keyword": lowered},
			sq.Expr("instr(?, keyword) > 0", lowered),
		}).
		OrderBy("created_at ASC", "rowid ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, buildErr("blacklist match", err)
	}

	entry, err := scanBlacklist(db.QueryRowContext(ctx, stmt, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blacklist match: %w", err)
	}
	return entry, nil
}

func (db *DB) ListBlacklist(ctx context.Context, activeOnly bool) ([]domain.BlacklistEntry, error) {
	stmt := builder.Select(blacklistColumns...).From("trend_blacklist")
	if activeOnly {
		stmt = stmt.Where(sq.Eq{"active": true})
	}

	query, args, err := stmt.OrderBy("created_at ASC", "rowid ASC").ToSql()
	if err != nil {
		return nil, buildErr("list blacklist", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()

	var entries []domain.BlacklistEntry
	for rows.Next() {
		entry, err := scanBlacklist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blacklist: %w", err)
	}
	return entries, nil
}

// SetBlacklistActive flips the active flag. Entries are never deleted.
func (db *DB) SetBlacklistActive(ctx context.Context, id string, active bool) (*domain.BlacklistEntry, error) {
	query, args, err := builder.Update("trend_blacklist").
		Set("active", active).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(blacklistColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, buildErr("toggle blacklist", err)
	}

	entry, err := scanBlacklist(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blacklist entry %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle blacklist entry: %w", err)
	}
	return entry, nil
}

func scanBlacklist(row rowScanner) (*domain.BlacklistEntry, error) {
	var (
		e         domain.BlacklistEntry
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Keyword, &e.Reason, &e.Active, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = fromMillis(createdAt)
	return &e, nil
}
