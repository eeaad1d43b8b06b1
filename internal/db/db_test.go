package db

import (
	"Unbewohnte/BlogDedup/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestNewDBCreatesTables(t *testing.T) {
	db := newTestDB(t)

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		found[name] = true
	}
	for _, tbl := range []string{"articles", "processed_trends", "content_hashes", "trend_blacklist"} {
		if !found[tbl] {
			t.Fatalf("expected table %s", tbl)
		}
	}
}

func TestMarkProcessingIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	db.SetClock(clock.Now)

	first, err := db.MarkProcessing(ctx, domain.TrendRecord{
		TrendHash:  "H1",
		Query:      "solar",
		Traffic:    "10K+",
		Date:       "2024-01-01",
		SourceData: json.RawMessage(`{"rank":1}`),
	})
	if err != nil {
		t.Fatalf("first MarkProcessing: %v", err)
	}
	if !first.Processed || first.ArticleCreated {
		t.Fatalf("unexpected new record: %+v", first)
	}
	if string(first.SourceData) != `{"rank":1}` || first.Traffic != "10K+" {
		t.Fatalf("payload not stored: %+v", first)
	}

	if _, err := db.MarkArticleCreated(ctx, "H1", "article-1"); err != nil {
		t.Fatalf("MarkArticleCreated: %v", err)
	}

	clock.Set(clock.Now().Add(time.Hour))
	second, err := db.MarkProcessing(ctx, domain.TrendRecord{
		TrendHash: "H1",
		Query:     "something else",
		Date:      "2024-01-02",
	})
	if err != nil {
		t.Fatalf("second MarkProcessing: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s and %s", first.ID, second.ID)
	}
	if !second.ArticleCreated || second.ArticleID != "article-1" {
		t.Fatalf("article link lost: %+v", second)
	}
	if second.Query != "solar" {
		t.Fatalf("existing fields must be kept, got query %q", second.Query)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updatedAt not refreshed: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("createdAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM processed_trends WHERE trend_hash = 'H1'`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestMarkProcessingConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.MarkProcessing(ctx, domain.TrendRecord{TrendHash: "RACE", Query: "q", Date: "2024-01-01"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("MarkProcessing: %v", err)
		}
	}

	stats, err := db.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalProcessed != 1 {
		t.Fatalf("expected a single trend row, got %d", stats.TotalProcessed)
	}
}

func TestGetTrendMissing(t *testing.T) {
	db := newTestDB(t)
	trend, err := db.GetTrend(context.Background(), "nope")
	if err != nil || trend != nil {
		t.Fatalf("GetTrend(nope) = %+v, %v", trend, err)
	}
}

func TestMarkArticleCreatedUnknownTrend(t *testing.T) {
	db := newTestDB(t)
	_, err := db.MarkArticleCreated(context.Background(), "missing", "a1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCleanupStale(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now.AddDate(0, 0, -31)}
	db.SetClock(clock.Now)

	for _, hash := range []string{"old-orphan", "old-with-article"} {
		if _, err := db.MarkProcessing(ctx, domain.TrendRecord{TrendHash: hash, Query: hash, Date: "2024-01-30"}); err != nil {
			t.Fatalf("MarkProcessing: %v", err)
		}
	}
	if _, err := db.MarkArticleCreated(ctx, "old-with-article", "a1"); err != nil {
		t.Fatalf("MarkArticleCreated: %v", err)
	}

	clock.Set(now.AddDate(0, 0, -2))
	if _, err := db.MarkProcessing(ctx, domain.TrendRecord{TrendHash: "fresh", Query: "fresh", Date: "2024-02-28"}); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	removed, err := db.CleanupStale(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("CleanupStale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	for hash, wantKept := range map[string]bool{"old-orphan": false, "old-with-article": true, "fresh": true} {
		trend, err := db.GetTrend(ctx, hash)
		if err != nil {
			t.Fatalf("GetTrend: %v", err)
		}
		if (trend != nil) != wantKept {
			t.Fatalf("trend %s kept=%v, want %v", hash, trend != nil, wantKept)
		}
	}
}

func TestStatistics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, hash := range []string{"a", "b", "c"} {
		if _, err := db.MarkProcessing(ctx, domain.TrendRecord{TrendHash: hash, Query: hash, Date: "2024-01-01"}); err != nil {
			t.Fatalf("MarkProcessing: %v", err)
		}
	}
	if _, err := db.MarkArticleCreated(ctx, "a", "article-a"); err != nil {
		t.Fatalf("MarkArticleCreated: %v", err)
	}
	entry, err := db.AddBlacklistEntry(ctx, "crypto", "spam")
	if err != nil {
		t.Fatalf("AddBlacklistEntry: %v", err)
	}
	if _, err := db.AddBlacklistEntry(ctx, "casino", "spam"); err != nil {
		t.Fatalf("AddBlacklistEntry: %v", err)
	}
	if _, err := db.SetBlacklistActive(ctx, entry.ID, false); err != nil {
		t.Fatalf("SetBlacklistActive: %v", err)
	}

	stats, err := db.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	want := domain.TrendStatistics{TotalProcessed: 3, ArticlesCreated: 1, BlacklistedActive: 1, DuplicatesSkipped: 2}
	if stats != want {
		t.Fatalf("Statistics = %+v, want %+v", stats, want)
	}
}

func TestBlacklistMatching(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.AddBlacklistEntry(ctx, "  Crypto ", "finance spam")
	if err != nil {
		t.Fatalf("AddBlacklistEntry: %v", err)
	}
	if first.Keyword != "crypto" || !first.Active {
		t.Fatalf("unexpected entry: %+v", first)
	}
	if _, err := db.AddBlacklistEntry(ctx, "coins", "later entry"); err != nil {
		t.Fatalf("AddBlacklistEntry: %v", err)
	}

	match, err := db.FindBlacklistMatch(ctx, "Best Crypto Coins 2024")
	if err != nil {
		t.Fatalf("FindBlacklistMatch: %v", err)
	}
	if match == nil || match.ID != first.ID {
		t.Fatalf("expected first entry to win, got %+v", match)
	}

	match, err = db.FindBlacklistMatch(ctx, "solar panels")
	if err != nil || match != nil {
		t.Fatalf("unexpected match %+v, %v", match, err)
	}

	if _, err := db.SetBlacklistActive(ctx, first.ID, false); err != nil {
		t.Fatalf("SetBlacklistActive: %v", err)
	}
	match, err = db.FindBlacklistMatch(ctx, "crypto only")
	if err != nil || match != nil {
		t.Fatalf("inactive entry matched: %+v, %v", match, err)
	}

	all, err := db.ListBlacklist(ctx, false)
	if err != nil {
		t.Fatalf("ListBlacklist: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("deactivation must not delete, got %d entries", len(all))
	}
	active, err := db.ListBlacklist(ctx, true)
	if err != nil {
		t.Fatalf("ListBlacklist: %v", err)
	}
	if len(active) != 1 || active[0].Keyword != "coins" {
		t.Fatalf("unexpected active entries: %+v", active)
	}

	if _, err := db.SetBlacklistActive(ctx, "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestContentFingerprintWriteOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stored, created, err := db.SaveContentFingerprint(ctx, domain.ContentFingerprint{ContentHash: "C1", Title: "First", Source: "pipeline"})
	if err != nil || !created {
		t.Fatalf("first save: created=%v err=%v", created, err)
	}

	again, created, err := db.SaveContentFingerprint(ctx, domain.ContentFingerprint{ContentHash: "C1", Title: "Second", Source: "other"})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if created {
		t.Fatal("second save must not create")
	}
	if again.ID != stored.ID || again.Title != "First" {
		t.Fatalf("fingerprint mutated: %+v", again)
	}

	got, err := db.GetContentFingerprint(ctx, "C1")
	if err != nil || got == nil || got.Source != "pipeline" {
		t.Fatalf("GetContentFingerprint = %+v, %v", got, err)
	}
	missing, err := db.GetContentFingerprint(ctx, "C2")
	if err != nil || missing != nil {
		t.Fatalf("GetContentFingerprint(C2) = %+v, %v", missing, err)
	}
}

func TestRecentArticlesFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	db.SetClock(clock.Now)

	articles := []domain.Article{
		{Title: "AI published", Slug: "a1", Content: "x", AIGenerated: true, Status: domain.StatusPublished, SourceHash: "s1"},
		{Title: "AI review", Slug: "a2", Content: "x", AIGenerated: true, Status: domain.StatusReview},
		{Title: "AI draft", Slug: "a3", Content: "x", AIGenerated: true, Status: domain.StatusDraft, SourceHash: "s3"},
		{Title: "Human published", Slug: "h1", Content: "x", AIGenerated: false, Status: domain.StatusPublished, SourceHash: "s4"},
	}
	for i := range articles {
		clock.Set(clock.Now().Add(time.Minute))
		if err := db.SaveArticle(ctx, &articles[i]); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
	}

	ai := true
	got, err := db.RecentArticles(ctx, ArticleFilter{AIGenerated: &ai, Statuses: domain.ComparableStatuses, Limit: 50})
	if err != nil {
		t.Fatalf("RecentArticles: %v", err)
	}
	if len(got) != 2 || got[0].Title != "AI review" || got[1].Title != "AI published" {
		t.Fatalf("unexpected window: %+v", got)
	}

	got, err = db.RecentArticles(ctx, ArticleFilter{AIGenerated: &ai, WithSourceHash: true, Limit: 1})
	if err != nil {
		t.Fatalf("RecentArticles: %v", err)
	}
	if len(got) != 1 || got[0].Title != "AI draft" {
		t.Fatalf("unexpected sample: %+v", got)
	}

	dup := domain.Article{Title: "Dup", Slug: "a1", Content: "x", Status: domain.StatusDraft}
	if err := db.SaveArticle(ctx, &dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, err := db.GetArticle(ctx, articles[0].ID)
	if err != nil || stored == nil || stored.SourceHash != "s1" || !stored.AIGenerated {
		t.Fatalf("GetArticle = %+v, %v", stored, err)
	}
}

func TestListTrends(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	db.SetClock(clock.Now)

	for _, hash := range []string{"t1", "t2", "t3"} {
		clock.Set(clock.Now().Add(time.Second))
		if _, err := db.MarkProcessing(ctx, domain.TrendRecord{TrendHash: hash, Query: hash, Date: "2024-01-01"}); err != nil {
			t.Fatalf("MarkProcessing: %v", err)
		}
	}

	trends, err := db.ListTrends(ctx, 2)
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if len(trends) != 2 || trends[0].TrendHash != "t3" || trends[1].TrendHash != "t2" {
		t.Fatalf("unexpected trends: %+v", trends)
	}
}
