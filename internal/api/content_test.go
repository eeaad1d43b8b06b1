package api

import (
	"Unbewohnte/BlogDedup/internal/domain"
	"Unbewohnte/BlogDedup/internal/fingerprint"
	"math"
	"net/http"
	"strings"
	"testing"
)

func TestCheckHashAndRegister(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/content/check-hash", testToken, map[string]string{"contentHash": ""})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[errorResponse](t, rec); len(got.Details) != 1 || got.Details[0].Field != "contentHash" {
		t.Fatalf("unexpected details: %+v", got)
	}

	hash := fingerprint.Content("Solar power", "Body text")
	rec = do(t, h, http.MethodPost, "/content/check-hash", testToken, map[string]string{"contentHash": hash})
	expectStatus(t, rec, http.StatusOK)
	check := decode[checkHashResponse](t, rec)
	if check.Exists || check.ExistingContent != nil || check.Recommendation != domain.RecommendProceed {
		t.Fatalf("unexpected check: %+v", check)
	}
	if !strings.Contains(rec.Body.String(), `"similarArticles":[]`) {
		t.Fatalf("similarArticles must be an empty list: %s", rec.Body.String())
	}

	register := map[string]string{"title": "Solar power", "content": "Body text", "source": "trends"}
	rec = do(t, h, http.MethodPost, "/content/register", testToken, register)
	expectStatus(t, rec, http.StatusCreated)
	reg := decode[registerContentResponse](t, rec)
	if !reg.Created || reg.Content.ContentHash != hash {
		t.Fatalf("unexpected registration: %+v", reg)
	}

	rec = do(t, h, http.MethodPost, "/content/register", testToken, register)
	expectStatus(t, rec, http.StatusOK)
	if again := decode[registerContentResponse](t, rec); again.Created || again.Content.ID != reg.Content.ID {
		t.Fatalf("re-registration must return the original row: %+v", again)
	}

	rec = do(t, h, http.MethodPost, "/content/check-hash", testToken, map[string]string{"contentHash": hash})
	expectStatus(t, rec, http.StatusOK)
	check = decode[checkHashResponse](t, rec)
	if !check.Exists || check.ExistingContent == nil || check.ExistingContent.Source != "trends" {
		t.Fatalf("unexpected check: %+v", check)
	}
	if check.Recommendation != domain.RecommendSkipDuplicate {
		t.Fatalf("recommendation = %s", check.Recommendation)
	}
}

func TestCheckHashReviewRecommendation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, title := range []string{"one", "two", "three", "four"} {
		rec := do(t, h, http.MethodPost, "/articles", testToken, map[string]any{
			"title":       "Article " + title,
			"content":     "text",
			"aiGenerated": true,
			"status":      "published",
			"sourceHash":  "src-" + title,
		})
		expectStatus(t, rec, http.StatusCreated)
	}

	rec := do(t, h, http.MethodPost, "/content/check-hash", testToken, map[string]string{"contentHash": "unknown"})
	expectStatus(t, rec, http.StatusOK)
	check := decode[checkHashResponse](t, rec)
	if len(check.SimilarArticles) != 4 || check.Recommendation != domain.RecommendReviewSimilarity {
		t.Fatalf("unexpected check: %+v", check)
	}
	if check.SimilarArticles[0].Title != "Article four" || check.SimilarArticles[0].SourceHash != "src-four" {
		t.Fatalf("newest article must come first: %+v", check.SimilarArticles[0])
	}
}

func TestCheckSimilarity(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/articles", testToken, map[string]any{
		"title":       "Solar panels hit record low prices",
		"content":     "Module prices dropped again this quarter.",
		"aiGenerated": true,
		"status":      "PUBLISHED",
	})
	expectStatus(t, rec, http.StatusCreated)
	article := decode[domain.Article](t, rec)

	rec = do(t, h, http.MethodPost, "/content/check-similarity", testToken, map[string]any{
		"title":   "Solar panels hit record low prices",
		"content": "Module prices dropped again this quarter.",
	})
	expectStatus(t, rec, http.StatusOK)
	got := decode[checkSimilarityResponse](t, rec)
	if math.Abs(got.Score-1) > 1e-9 || got.ExistingArticleID == nil || *got.ExistingArticleID != article.ID {
		t.Fatalf("unexpected similarity: %+v", got)
	}
	if got.Recommendation != domain.RecommendSkipDuplicate || got.Degraded {
		t.Fatalf("unexpected similarity: %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/content/check-similarity", testToken, map[string]any{
		"title":   "Football results",
		"content": "The match ended in a draw.",
	})
	expectStatus(t, rec, http.StatusOK)
	got = decode[checkSimilarityResponse](t, rec)
	if got.ExistingArticleID != nil || got.Reason != "no similar content found" || got.Recommendation != domain.RecommendProceed {
		t.Fatalf("unexpected similarity: %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/content/check-similarity", testToken, map[string]any{
		"title": "t", "content": "c", "threshold": 2,
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestFingerprintEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/fingerprint/trend", testToken, map[string]string{
		"query": "  SOLAR PANELS  ", "date": "2024-01-01", "traffic": "high",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["trendHash"]; got != fingerprint.Trend("Solar Panels", "2024-01-01", "high") {
		t.Fatalf("trendHash = %q", got)
	}

	rec = do(t, h, http.MethodPost, "/fingerprint/content", testToken, map[string]string{
		"title": "Title", "content": "Body!",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["contentHash"]; got != fingerprint.Content("Title", "Body!") {
		t.Fatalf("contentHash = %q", got)
	}

	rec = do(t, h, http.MethodPost, "/fingerprint/trend", testToken, map[string]string{"query": "x"})
	expectStatus(t, rec, http.StatusBadRequest)
}
