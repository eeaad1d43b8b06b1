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

package dedup

import (
	"Unbewohnte/BlogDedup/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TrendAdmission tells whether a trend was seen before and whether its query
// hits the blacklist.
type TrendAdmission struct {
	Exists         bool
	Blacklisted    bool
	Reason         string
	Existing       *domain.TrendRecord
	BlacklistEntry *domain.BlacklistEntry
}

func (c *Checker) EvaluateTrend(ctx context.Context, trendHash, query string) (TrendAdmission, error) {
	existing, err := c.store.GetTrend(ctx, trendHash)
	if err != nil {
		return TrendAdmission{}, fmt.Errorf("look up trend: %w", err)
	}

	entry, err := c.store.FindBlacklistMatch(ctx, query)
	if err != nil {
		return TrendAdmission{}, fmt.Errorf("look up blacklist: %w", err)
	}

	admission := TrendAdmission{
		Exists:         existing != nil,
		Existing:       existing,
		Blacklisted:    entry != nil,
		BlacklistEntry: entry,
	}
	if entry != nil {
		admission.Reason = entry.Reason
	}
	return admission, nil
}

type ProcessingRequest struct {
	TrendHash  string
	Query      string
	Traffic    string
	Date       string
	SourceData json.RawMessage
}

func (c *Checker) MarkProcessing(ctx context.Context, req ProcessingRequest) (*domain.TrendRecord, error) {
	var ve domain.ValidationError
	ve.Required("trendHash", req.TrendHash)
	ve.Required("query", req.Query)
	ve.Required("date", req.Date)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	record, err := c.store.MarkProcessing(ctx, domain.TrendRecord{
		TrendHash:  req.TrendHash,
		Query:      req.Query,
		Traffic:    req.Traffic,
		Date:       req.Date,
		SourceData: req.SourceData,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("trend marked as processing", "trend_hash", record.TrendHash, "query", record.Query)
	return record, nil
}

func (c *Checker) MarkArticleCreated(ctx context.Context, trendHash, articleID string) (*domain.TrendRecord, error) {
	var ve domain.ValidationError
	ve.Required("trendHash", trendHash)
	ve.Required("articleId", articleID)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	record, err := c.store.MarkArticleCreated(ctx, trendHash, articleID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("article linked to trend", "trend_hash", trendHash, "article_id", articleID)
	return record, nil
}

// AddToBlacklist stores a new active keyword. Duplicate keywords are allowed.
func (c *Checker) AddToBlacklist(ctx context.Context, keyword, reason string) (*domain.BlacklistEntry, error) {
	var ve domain.ValidationError
	ve.Required("keyword", keyword)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	entry, err := c.store.AddBlacklistEntry(ctx, strings.ToLower(strings.TrimSpace(keyword)), reason)
	if err != nil {
		return nil, err
	}

	c.logger.Info("keyword blacklisted", "keyword", entry.Keyword, "reason", reason)
	return entry, nil
}

// CleanupStale removes trends older than retentionDays that never produced an
// article. retentionDays <= 0 uses the configured retention.
func (c *Checker) CleanupStale(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = c.opts.RetentionDays
	}

	cutoff := c.store.Now().AddDate(0, 0, -retentionDays)
	removed, err := c.store.CleanupStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	c.logger.Info("stale trends removed", "count", removed, "retention_days", retentionDays)
	return removed, nil
}

func (c *Checker) Statistics(ctx context.Context) (domain.TrendStatistics, error) {
	return c.store.Statistics(ctx)
}
