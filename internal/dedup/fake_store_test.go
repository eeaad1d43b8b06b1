package dedup

import (
	"Unbewohnte/BlogDedup/internal/db"
	"Unbewohnte/BlogDedup/internal/domain"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
)

var errStoreDown = errors.New("store down")

// fakeStore keeps everything in memory. Setting fail makes every call error.
type fakeStore struct {
	now       time.Time
	fail      bool
	articles  []domain.ArticleSummary
	content   map[string]domain.ContentFingerprint
	trends    map[string]domain.TrendRecord
	blacklist []domain.BlacklistEntry
	cutoff    time.Time
	lastQuery db.ArticleFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		content: map[string]domain.ContentFingerprint{},
		trends:  map[string]domain.TrendRecord{},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *fakeStore) Now() time.Time { return s.now }

func (s *fakeStore) RecentArticles(_ context.Context, filter db.ArticleFilter) ([]domain.ArticleSummary, error) {
	s.lastQuery = filter
	if s.fail {
		return nil, errStoreDown
	}
	var out []domain.ArticleSummary
	for _, a := range s.articles {
		if filter.WithSourceHash && a.SourceHash == "" {
			continue
		}
		out = append(out, a)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) GetContentFingerprint(_ context.Context, hash string) (*domain.ContentFingerprint, error) {
	if s.fail {
		return nil, errStoreDown
	}
	fp, ok := s.content[hash]
	if !ok {
		return nil, nil
	}
	return &fp, nil
}

func (s *fakeStore) SaveContentFingerprint(_ context.Context, fp domain.ContentFingerprint) (*domain.ContentFingerprint, bool, error) {
	if s.fail {
		return nil, false, errStoreDown
	}
	if existing, ok := s.content[fp.ContentHash]; ok {
		return &existing, false, nil
	}
	fp.ID = "fp-" + fp.ContentHash[:8]
	s.content[fp.ContentHash] = fp
	return &fp, true, nil
}

func (s *fakeStore) GetTrend(_ context.Context, hash string) (*domain.TrendRecord, error) {
	if s.fail {
		return nil, errStoreDown
	}
	t, ok := s.trends[hash]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *fakeStore) MarkProcessing(_ context.Context, trend domain.TrendRecord) (*domain.TrendRecord, error) {
	if s.fail {
		return nil, errStoreDown
	}
	if existing, ok := s.trends[trend.TrendHash]; ok {
		existing.Processed = true
		existing.UpdatedAt = s.now
		s.trends[trend.TrendHash] = existing
		return &existing, nil
	}
	trend.ID = "trend-" + trend.TrendHash
	trend.Processed = true
	trend.CreatedAt, trend.UpdatedAt = s.now, s.now
	s.trends[trend.TrendHash] = trend
	return &trend, nil
}

func (s *fakeStore) MarkArticleCreated(_ context.Context, hash, articleID string) (*domain.TrendRecord, error) {
	if s.fail {
		return nil, errStoreDown
	}
	t, ok := s.trends[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.ArticleCreated, t.ArticleID = true, articleID
	s.trends[hash] = t
	return &t, nil
}

func (s *fakeStore) CleanupStale(_ context.Context, cutoff time.Time) (int64, error) {
	if s.fail {
		return 0, errStoreDown
	}
	s.cutoff = cutoff
	var removed int64
	for hash, t := range s.trends {
		if t.CreatedAt.Before(cutoff) && !t.ArticleCreated {
			delete(s.trends, hash)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) Statistics(context.Context) (domain.TrendStatistics, error) {
	if s.fail {
		return domain.TrendStatistics{}, errStoreDown
	}
	var stats domain.TrendStatistics
	for _, t := range s.trends {
		stats.TotalProcessed++
		if t.ArticleCreated {
			stats.ArticlesCreated++
		}
	}
	for _, e := range s.blacklist {
		if e.Active {
			stats.BlacklistedActive++
		}
	}
	stats.DuplicatesSkipped = stats.TotalProcessed - stats.ArticlesCreated
	return stats, nil
}

func (s *fakeStore) FindBlacklistMatch(_ context.Context, query string) (*domain.BlacklistEntry, error) {
	if s.fail {
		return nil, errStoreDown
	}
	lowered := strings.ToLower(strings.TrimSpace(query))
	for _, e := range s.blacklist {
		if e.Active && e.Keyword != "" && strings.Contains(lowered, e.Keyword) {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) AddBlacklistEntry(_ context.Context, keyword, reason string) (*domain.BlacklistEntry, error) {
	if s.fail {
		return nil, errStoreDown
	}
	e := domain.BlacklistEntry{ID: "bl-" + keyword, Keyword: strings.ToLower(keyword), Reason: reason, Active: true}
	s.blacklist = append(s.blacklist, e)
	return &e, nil
}
