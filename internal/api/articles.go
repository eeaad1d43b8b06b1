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

package api

import (
	"Unbewohnte/BlogDedup/internal/db"
	"Unbewohnte/BlogDedup/internal/domain"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

type createArticleRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Slug        string `json:"slug"`
	Status      string `json:"status"`
	AIGenerated bool   `json:"aiGenerated"`
	SourceHash  string `json:"sourceHash"`
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("title", req.Title)
	ve.Required("content", req.Content)
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		ve.Add("status", "unknown status "+strconv.Quote(req.Status))
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = domain.Slugify(req.Title)
	}
	if slug == "" && strings.TrimSpace(req.Title) != "" {
		ve.Add("slug", "cannot be derived from title")
	}
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	text, err := domain.PlainText(req.Content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	article := domain.Article{
		Title:       strings.TrimSpace(req.Title),
		Slug:        slug,
		Content:     req.Content,
		Excerpt:     domain.Excerpt(text, domain.DefaultExcerptLength),
		SourceHash:  strings.TrimSpace(req.SourceHash),
		AIGenerated: req.AIGenerated,
		Status:      status,
	}
	if err := s.store.SaveArticle(r.Context(), &article); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Publish(EventArticleCreated, article.Summary())
	writeJSON(w, http.StatusCreated, article)
}

type recentArticlesResponse struct {
	Articles []domain.ArticleSummary `json:"articles"`
}

// handleRecentArticles lists the newest articles. Filters: limit,
// aiGenerated=true|false and status=PUBLISHED,REVIEW.
func (s *Server) handleRecentArticles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var ve domain.ValidationError
	filter := db.ArticleFilter{Limit: defaultRecentLimit}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			ve.Add("limit", "must be a positive integer")
		} else {
			filter.Limit = min(limit, maxRecentLimit)
		}
	}
	if raw := query.Get("aiGenerated"); raw != "" {
		ai, err := strconv.ParseBool(raw)
		if err != nil {
			ve.Add("aiGenerated", "must be a boolean")
		} else {
			filter.AIGenerated = &ai
		}
	}
	if raw := query.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := domain.ParseStatus(part)
			if !ok || strings.TrimSpace(part) == "" {
				ve.Add("status", "unknown status "+strconv.Quote(part))
				continue
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	articles, err := s.store.RecentArticles(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if articles == nil {
		articles = []domain.ArticleSummary{}
	}
	writeJSON(w, http.StatusOK, recentArticlesResponse{Articles: articles})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	article, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if article == nil {
		s.respondError(w, r, fmt.Errorf("article %s: %w", id, domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, article)
}
