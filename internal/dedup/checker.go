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
	"Unbewohnte/BlogDedup/internal/db"
	"Unbewohnte/BlogDedup/internal/domain"
	"Unbewohnte/BlogDedup/internal/similarity"
	"context"
	"log/slog"
	"time"
)

// Store is the persistence the checker needs. *db.DB implements it.
type Store interface {
	Now() time.Time

	RecentArticles(ctx context.Context, filter db.ArticleFilter) ([]domain.ArticleSummary, error)

	GetContentFingerprint(ctx context.Context, contentHash string) (*domain.ContentFingerprint, error)
	SaveContentFingerprint(ctx context.Context, fp domain.ContentFingerprint) (*domain.ContentFingerprint, bool, error)

	GetTrend(ctx context.Context, trendHash string) (*domain.TrendRecord, error)
	MarkProcessing(ctx context.Context, trend domain.TrendRecord) (*domain.TrendRecord, error)
	MarkArticleCreated(ctx context.Context, trendHash, articleID string) (*domain.TrendRecord, error)
	CleanupStale(ctx context.Context, cutoff time.Time) (int64, error)
	Statistics(ctx context.Context) (domain.TrendStatistics, error)

	FindBlacklistMatch(ctx context.Context, query string) (*domain.BlacklistEntry, error)
	AddBlacklistEntry(ctx context.Context, keyword, reason string) (*domain.BlacklistEntry, error)
}

var _ Store = (*db.DB)(nil)

type Options struct {
	SimilarityThreshold float64
	RecentWindow        int // AI articles compared against new content
	SampleSize          int // recent sourced articles returned by hash checks
	ReviewThreshold     int // sample size above which review is recommended
	RetentionDays       int
	Scorer              *similarity.Composite
}

func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.7,
		RecentWindow:        50,
		SampleSize:          5,
		ReviewThreshold:     3,
		RetentionDays:       30,
		Scorer:              similarity.Default(),
	}
}

// Checker decides whether a trend or a piece of generated content should go
// further down the pipeline.
type Checker struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

func NewChecker(store Store, opts Options, logger *slog.Logger) *Checker {
	defaults := DefaultOptions()
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = defaults.RecentWindow
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = defaults.SampleSize
	}
	if opts.ReviewThreshold <= 0 {
		opts.ReviewThreshold = defaults.ReviewThreshold
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = defaults.RetentionDays
	}
	if opts.Scorer == nil {
		opts.Scorer = defaults.Scorer
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

func (c *Checker) Options() Options {
	return c.opts
}
