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
	"Unbewohnte/BlogDedup/internal/fingerprint"
	"context"
	"fmt"
	"strings"
)

const (
	ReasonSimilarTitle   = "very similar title found"
	ReasonSimilarContent = "very similar content found"
	ReasonSimilarArticle = "similar article found"
	ReasonNoSimilar      = "no similar content found"

	titleDominance = 0.8
	bodyDominance  = 0.7
)

// ContentSimilarity is the outcome of comparing new content with recent AI
// articles. Err is set when the comparison could not run; the rest of the
// result then holds the "nothing similar" default.
type ContentSimilarity struct {
	Score             float64 `json:"score"`
	Reason            string  `json:"reason"`
	ExistingArticleID string  `json:"existingArticleId,omitempty"`
	Err               error   `json:"-"`
}

func (r ContentSimilarity) Degraded() bool {
	return r.Err != nil
}

func (r ContentSimilarity) IsDuplicate() bool {
	return r.ExistingArticleID != ""
}

func (r ContentSimilarity) Recommendation() domain.Recommendation {
	if r.IsDuplicate() {
		return domain.RecommendSkipDuplicate
	}
	return domain.RecommendProceed
}

// EvaluateContent scores title and body against the most recent AI-generated
// published or in-review articles. A score above threshold reports the best
// match. Lookup failures never surface as errors here.
func (c *Checker) EvaluateContent(ctx context.Context, title, body string, threshold float64) ContentSimilarity {
	aiGenerated := true
	candidates, err := c.store.RecentArticles(ctx, db.ArticleFilter{
		AIGenerated: &aiGenerated,
		Statuses:    domain.ComparableStatuses,
		Limit:       c.opts.RecentWindow,
	})
	if err != nil {
		c.logger.Warn("similarity check failed, assuming no duplicate", "error", err)
		return ContentSimilarity{
			Score:  0,
			Reason: ReasonNoSimilar,
			Err:    fmt.Errorf("load recent articles: %w", err),
		}
	}

	var (
		maxScore  float64
		matchedID string
		reason    string
	)
	for _, candidate := range candidates {
		breakdown := c.opts.Scorer.Compare(title, body, candidate.Title, candidate.Content)
		if breakdown.Overall <= maxScore {
			continue
		}

		maxScore = breakdown.Overall
		matchedID = candidate.ID
		switch {
		case breakdown.Title > titleDominance:
			reason = ReasonSimilarTitle
		case breakdown.Body > bodyDominance:
			reason = ReasonSimilarContent
		default:
			reason = ReasonSimilarArticle
		}
	}

	if maxScore <= threshold {
		return ContentSimilarity{Score: maxScore, Reason: ReasonNoSimilar}
	}

	c.logger.Debug("similar content found", "article_id", matchedID, "score", maxScore)
	return ContentSimilarity{
		Score:             maxScore,
		Reason:            reason,
		ExistingArticleID: matchedID,
	}
}

// HashCheck answers whether an exact content fingerprint is already known.
type HashCheck struct {
	Exists          bool
	Existing        *domain.ContentFingerprint
	SimilarArticles []domain.ArticleSummary
	Recommendation  domain.Recommendation
}

// Recommend returns SKIP_DUPLICATE for a known hash, REVIEW_SIMILARITY when
// the similar sample is larger than reviewThreshold and PROCEED otherwise.
func Recommend(exists bool, similarCount, reviewThreshold int) domain.Recommendation {
	switch {
	case exists:
		return domain.RecommendSkipDuplicate
	case similarCount > reviewThreshold:
		return domain.RecommendReviewSimilarity
	default:
		return domain.RecommendProceed
	}
}

func (c *Checker) CheckContentHash(ctx context.Context, contentHash string) (HashCheck, error) {
	existing, err := c.store.GetContentFingerprint(ctx, contentHash)
	if err != nil {
		return HashCheck{}, err
	}

	aiGenerated := true
	similar, err := c.store.RecentArticles(ctx, db.ArticleFilter{
		AIGenerated:    &aiGenerated,
		WithSourceHash: true,
		Limit:          c.opts.SampleSize,
	})
	if err != nil {
		return HashCheck{}, err
	}
	if similar == nil {
		similar = []domain.ArticleSummary{}
	}

	return HashCheck{
		Exists:          existing != nil,
		Existing:        existing,
		SimilarArticles: similar,
		Recommendation:  Recommend(existing != nil, len(similar), c.opts.ReviewThreshold),
	}, nil
}

// RegisterContent records the fingerprint of accepted content. Registering
// the same content again returns the original record with created false.
func (c *Checker) RegisterContent(ctx context.Context, title, body, source string) (*domain.ContentFingerprint, bool, error) {
	fp := domain.ContentFingerprint{
		ContentHash: fingerprint.Content(title, body),
		Title:       strings.TrimSpace(title),
		Source:      source,
	}

	stored, created, err := c.store.SaveContentFingerprint(ctx, fp)
	if err != nil {
		return nil, false, err
	}
	if created {
		c.logger.Info("content registered", "content_hash", stored.ContentHash, "source", source)
	}
	return stored, created, nil
}
