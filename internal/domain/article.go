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
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReview    Status = "REVIEW"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ParseStatus accepts any letter case. Empty input yields StatusDraft.
func ParseStatus(value string) (Status, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return StatusDraft, true
	}
	s := Status(strings.ToUpper(value))
	return s, s.Valid()
}

// ComparableStatuses are the article states new AI content is checked against.
var ComparableStatuses = []Status{StatusPublished, StatusReview}

type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Excerpt     string    `json:"excerpt"`
	SourceHash  string    `json:"sourceHash,omitempty"`
	AIGenerated bool      `json:"aiGenerated"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ArticleSummary is the read-only projection used for similarity comparison
// and for the recent sample returned by hash checks.
type ArticleSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug,omitempty"`
	Content     string    `json:"-"`
	Excerpt     string    `json:"excerpt,omitempty"`
	SourceHash  string    `json:"sourceHash,omitempty"`
	AIGenerated bool      `json:"aiGenerated"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a Article) Summary() ArticleSummary {
	return ArticleSummary{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Content:     a.Content,
		Excerpt:     a.Excerpt,
		SourceHash:  a.SourceHash,
		AIGenerated: a.AIGenerated,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
	}
}
