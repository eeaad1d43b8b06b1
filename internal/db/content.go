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

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var contentColumns = []string{"id", "content_hash", "title", "source", "created_at"}

// GetContentFingerprint returns nil, nil when the hash was never registered.
func (db *DB) GetContentFingerprint(ctx context.Context, contentHash string) (*domain.ContentFingerprint, error) {
	query, args, err := builder.Select(contentColumns...).
		From("content_hashes").
		Where(sq.Eq{"content_hash": contentHash}).
		ToSql()
	if err != nil {
		return nil, buildErr("get content hash", err)
	}

	var (
		fp        domain.ContentFingerprint
		createdAt int64
	)
	err = db.QueryRowContext(ctx, query, args...).Scan(
		&fp.ID,
		&fp.ContentHash,
		&fp.Title,
		&fp.Source,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content hash: %w", err)
	}

	fp.CreatedAt = fromMillis(createdAt)
	return &fp, nil
}

// SaveContentFingerprint writes the fingerprint once. When the hash is already
// known the stored row is returned unchanged and created is false.
func (db *DB) SaveContentFingerprint(ctx context.Context, fp domain.ContentFingerprint) (stored *domain.ContentFingerprint, created bool, err error) {
	if fp.ID == "" {
		fp.ID = uuid.NewString()
	}
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = db.now().UTC()
	}

	query, args, err := builder.Insert("content_hashes").
		Columns(contentColumns...).
		Values(fp.ID, fp.ContentHash, fp.Title, fp.Source, toMillis(fp.CreatedAt)).
		Suffix("ON CONFLICT(content_hash) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, false, buildErr("insert content hash", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("insert content hash: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 1 {
		fp.CreatedAt = fromMillis(toMillis(fp.CreatedAt))
		return &fp, true, nil
	}

	existing, err := db.GetContentFingerprint(ctx, fp.ContentHash)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("content hash %s vanished after conflict", fp.ContentHash)
	}
	return existing, false, nil
}
