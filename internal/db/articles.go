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

var articleColumns = []string{
	"id", "title", "slug", "content", "excerpt", "source_hash",
	"ai_generated", "status", "created_at",
}

// ArticleFilter narrows RecentArticles. Zero values mean "any".
type ArticleFilter struct {
	AIGenerated    *bool
	Statuses       []domain.Status
	WithSourceHash bool
	Limit          int
}

// SaveArticle inserts a new article, filling in ID and CreatedAt when unset.
// A taken slug yields ErrConflict.
func (db *DB) SaveArticle(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = db.now().UTC()
	}

	query, args, err := builder.Insert("articles").
		Columns(articleColumns...).
		Values(
			article.ID,
			article.Title,
			article.Slug,
			article.Content,
			article.Excerpt,
			nullable(article.SourceHash),
			article.AIGenerated,
			string(article.Status),
			toMillis(article.CreatedAt),
		).ToSql()
	if err != nil {
		return buildErr("insert article", err)
	}

	if _, err = db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("article slug %q: %w", article.Slug, ErrConflict)
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetArticle returns nil, nil when there is no article with that id.
func (db *DB) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	query, args, err := builder.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, buildErr("get article", err)
	}

	article, err := scanArticle(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// RecentArticles returns matching articles, newest first.
func (db *DB) RecentArticles(ctx context.Context, filter ArticleFilter) ([]domain.ArticleSummary, error) {
	stmt := builder.Select(articleColumns...).From("articles")

	if filter.AIGenerated != nil {
		stmt = stmt.Where(sq.Eq{"ai_generated": *filter.AIGenerated})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		stmt = stmt.Where(sq.Eq{"status": statuses})
	}
	if filter.WithSourceHash {
		stmt = stmt.Where(sq.NotEq{"source_hash": nil})
	}

	stmt = stmt.OrderBy("created_at DESC", "rowid DESC")
	if filter.Limit > 0 {
		stmt = stmt.Limit(uint64(filter.Limit))
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, buildErr("recent articles", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	defer rows.Close()

	var results []domain.ArticleSummary
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		results = append(results, article.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return results, nil
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var (
		a          domain.Article
		sourceHash sql.NullString
		status     string
		createdAt  int64
	)

	if err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Slug,
		&a.Content,
		&a.Excerpt,
		&sourceHash,
		&a.AIGenerated,
		&status,
		&createdAt,
	); err != nil {
		return nil, err
	}

	a.SourceHash = sourceHash.String
	a.Status = domain.Status(status)
	a.CreatedAt = fromMillis(createdAt)
	return &a, nil
}
