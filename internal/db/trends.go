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
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var trendColumns = []string{
	"id", "trend_hash", "query", "traffic", "date", "source_data",
	"processed", "article_created", "article_id", "created_at", "updated_at",
}

// GetTrend returns nil, nil for an unknown hash.
func (db *DB) GetTrend(ctx context.Context, trendHash string) (*domain.TrendRecord, error) {
	query, args, err := builder.Select(trendColumns...).
		From("processed_trends").
		Where(sq.Eq{"trend_hash": trendHash}).
		ToSql()
	if err != nil {
		return nil, buildErr("get trend", err)
	}

	trend, err := scanTrend(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trend: %w", err)
	}
	return trend, nil
}

// MarkProcessing upserts the trend keyed by its hash in a single statement.
// A new row starts as processed without an article; an existing row only has
// processed and updated_at refreshed. The unique index on trend_hash settles
// concurrent calls.
func (db *DB) MarkProcessing(ctx context.Context, trend domain.TrendRecord) (*domain.TrendRecord, error) {
	now := toMillis(db.now())

	var sourceData sql.NullString
	if len(trend.SourceData) > 0 && string(trend.SourceData) != "null" {
		sourceData = sql.NullString{String: string(trend.SourceData), Valid: true}
	}

	query, args, err := builder.Insert("processed_trends").
		Columns(trendColumns...).
		Values(
			uuid.NewString(),
			trend.TrendHash,
			trend.Query,
			nullable(trend.Traffic),
			trend.Date,
			sourceData,
			true,
			false,
			nil,
			now,
			now,
		).
		Suffix(
			"ON CONFLICT(trend_hash) DO UPDATE SET processed = 1, updated_at = excluded.updated_at RETURNING " +
				strings.Join(trendColumns, ", "),
		).ToSql()
	if err != nil {
		return nil, buildErr("mark processing", err)
	}

	record, err := scanTrend(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert trend: %w", err)
	}
	return record, nil
}

// MarkArticleCreated links an article to an already recorded trend.
func (db *DB) MarkArticleCreated(ctx context.Context, trendHash, articleID string) (*domain.TrendRecord, error) {
	query, args, err := builder.Update("processed_trends").
		Set("processed", true).
		Set("article_created", true).
		Set("article_id", articleID).
		Set("updated_at", toMillis(db.now())).
		Where(sq.Eq{"trend_hash": trendHash}).
		Suffix("RETURNING " + strings.Join(trendColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, buildErr("mark article created", err)
	}

	record, err := scanTrend(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trend %s: %w", trendHash, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mark article created: %w", err)
	}
	return record, nil
}

// CleanupStale deletes trends created before cutoff that never produced an
// article and returns how many were removed.
func (db *DB) CleanupStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := builder.Delete("processed_trends").
		Where(sq.Lt{"created_at": toMillis(cutoff)}).
		Where(sq.Eq{"article_created": false}).
		ToSql()
	if err != nil {
		return 0, buildErr("cleanup", err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale trends: %w", err)
	}
	return result.RowsAffected()
}

// Statistics counts trends and active blacklist entries inside one read
// transaction so the numbers come from the same snapshot.
func (db *DB) Statistics(ctx context.Context) (domain.TrendStatistics, error) {
	var stats domain.TrendStatistics

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin statistics: %w", err)
	}
	defer tx.Rollback()

	counts := []struct {
		dest  *int64
		table string
		where sq.Eq
	}{
		{&stats.TotalProcessed, "processed_trends", nil},
		{&stats.ArticlesCreated, "processed_trends", sq.Eq{"article_created": true}},
		{&stats.BlacklistedActive, "trend_blacklist", sq.Eq{"active": true}},
	}

	for _, c := range counts {
		stmt := builder.Select("COUNT(*)").From(c.table)
		if c.where != nil {
			stmt = stmt.Where(c.where)
		}
		query, args, err := stmt.ToSql()
		if err != nil {
			return stats, buildErr("count "+c.table, err)
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	stats.DuplicatesSkipped = stats.TotalProcessed - stats.ArticlesCreated
	return stats, tx.Commit()
}

// ListTrends returns trends newest first. limit <= 0 returns all of them.
func (db *DB) ListTrends(ctx context.Context, limit int) ([]domain.TrendRecord, error) {
	stmt := builder.Select(trendColumns...).
		From("processed_trends").
		OrderBy("created_at DESC", "rowid DESC")
	if limit > 0 {
		stmt = stmt.Limit(uint64(limit))
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, buildErr("list trends", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}
	defer rows.Close()

	var trends []domain.TrendRecord
	for rows.Next() {
		trend, err := scanTrend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		trends = append(trends, *trend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}
	return trends, nil
}

func scanTrend(row rowScanner) (*domain.TrendRecord, error) {
	var (
		t                    domain.TrendRecord
		traffic, articleID   sql.NullString
		sourceData           sql.NullString
		createdAt, updatedAt int64
	)

	if err := row.Scan(
		&t.ID,
		&t.TrendHash,
		&t.Query,
		&traffic,
		&t.Date,
		&sourceData,
		&t.Processed,
		&t.ArticleCreated,
		&articleID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	t.Traffic = traffic.String
	t.ArticleID = articleID.String
	if sourceData.Valid {
		t.SourceData = []byte(sourceData.String)
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}
