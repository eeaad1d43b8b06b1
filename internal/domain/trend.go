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

package domain

import (
	"encoding/json"
	"time"
)

// TrendRecord is a search trend that has already been seen by the pipeline.
// TrendHash is unique, Processed never goes back to false and ArticleCreated
// is only set together with ArticleID.
type TrendRecord struct {
	ID             string          `json:"id"`
	TrendHash      string          `json:"trendHash"`
	Query          string          `json:"query"`
	Traffic        string          `json:"traffic,omitempty"`
	Date           string          `json:"date"`
	SourceData     json.RawMessage `json:"sourceData,omitempty"`
	Processed      bool            `json:"processed"`
	ArticleCreated bool            `json:"articleCreated"`
	ArticleID      string          `json:"articleId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type TrendStatistics struct {
	TotalProcessed    int64 `json:"totalProcessed"`
	ArticlesCreated   int64 `json:"articlesCreated"`
	BlacklistedActive int64 `json:"blacklistedActive"`
	DuplicatesSkipped int64 `json:"duplicatesSkipped"`
}

// ContentFingerprint is written once, when generated content is accepted.
type ContentFingerprint struct {
	ID          string    `json:"id"`
	ContentHash string    `json:"contentHash"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

type BlacklistEntry struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	Reason    string    `json:"reason"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type Recommendation string

const (
	RecommendProceed          Recommendation = "PROCEED"
	RecommendReviewSimilarity Recommendation = "REVIEW_SIMILARITY"
	RecommendSkipDuplicate    Recommendation = "SKIP_DUPLICATE"
)
