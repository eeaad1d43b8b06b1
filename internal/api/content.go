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
	"Unbewohnte/BlogDedup/internal/domain"
	"Unbewohnte/BlogDedup/internal/fingerprint"
	"net/http"
	"time"
)

type existingContent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

type similarArticle struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	SourceHash string    `json:"sourceHash"`
	CreatedAt  time.Time `json:"createdAt"`
}

type checkHashRequest struct {
	ContentHash string `json:"contentHash"`
}

type checkHashResponse struct {
	Exists          bool                  `json:"exists"`
	ExistingContent *existingContent      `json:"existingContent"`
	SimilarArticles []similarArticle      `json:"similarArticles"`
	Recommendation  domain.Recommendation `json:"recommendation"`
}

func (s *Server) handleCheckHash(w http.ResponseWriter, r *http.Request) {
	var req checkHashRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("contentHash", req.ContentHash)
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	check, err := s.checker.CheckContentHash(r.Context(), req.ContentHash)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := checkHashResponse{
		Exists:          check.Exists,
		SimilarArticles: make([]similarArticle, 0, len(check.SimilarArticles)),
		Recommendation:  check.Recommendation,
	}
	if check.Existing != nil {
		resp.ExistingContent = &existingContent{
			ID:        check.Existing.ID,
			Title:     check.Existing.Title,
			Source:    check.Existing.Source,
			CreatedAt: check.Existing.CreatedAt,
		}
	}
	for _, a := range check.SimilarArticles {
		resp.SimilarArticles = append(resp.SimilarArticles, similarArticle{
			ID:         a.ID,
			Title:      a.Title,
			Slug:       a.Slug,
			SourceHash: a.SourceHash,
			CreatedAt:  a.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type checkSimilarityRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Threshold *float64 `json:"threshold"`
}

type checkSimilarityResponse struct {
	Score             float64               `json:"score"`
	Reason            string                `json:"reason"`
	ExistingArticleID *string               `json:"existingArticleId"`
	Recommendation    domain.Recommendation `json:"recommendation"`
	Degraded          bool                  `json:"degraded"`
}

func (s *Server) handleCheckSimilarity(w http.ResponseWriter, r *http.Request) {
	var req checkSimilarityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("title", req.Title)
	ve.Required("content", req.Content)
	threshold := s.conf.SimilarityThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
		if threshold < 0 || threshold > 1 {
			ve.Add("threshold", "must be between 0 and 1")
		}
	}
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	result := s.checker.EvaluateContent(r.Context(), req.Title, req.Content, threshold)
	resp := checkSimilarityResponse{
		Score:          result.Score,
		Reason:         result.Reason,
		Recommendation: result.Recommendation(),
		Degraded:       result.Degraded(),
	}
	if result.IsDuplicate() {
		resp.ExistingArticleID = &result.ExistingArticleID
	}

	writeJSON(w, http.StatusOK, resp)
}

type registerContentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

type registerContentResponse struct {
	Success bool                       `json:"success"`
	Created bool                       `json:"created"`
	Content *domain.ContentFingerprint `json:"content"`
}

func (s *Server) handleRegisterContent(w http.ResponseWriter, r *http.Request) {
	var req registerContentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("title", req.Title)
	ve.Required("content", req.Content)
	ve.Required("source", req.Source)
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	fp, created, err := s.checker.RegisterContent(r.Context(), req.Title, req.Content, req.Source)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		s.hub.Publish(EventContentRegistered, fp)
	}
	writeJSON(w, status, registerContentResponse{
		Success: true,
		Created: created,
		Content: fp,
	})
}

type trendFingerprintRequest struct {
	Query   string `json:"query"`
	Date    string `json:"date"`
	Traffic string `json:"traffic"`
}

func (s *Server) handleTrendFingerprint(w http.ResponseWriter, r *http.Request) {
	var req trendFingerprintRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("query", req.Query)
	ve.Required("date", req.Date)
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"trendHash": fingerprint.Trend(req.Query, req.Date, req.Traffic),
	})
}

type contentFingerprintRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleContentFingerprint(w http.ResponseWriter, r *http.Request) {
	var req contentFingerprintRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("title", req.Title)
	ve.Required("content", req.Content)
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"contentHash": fingerprint.Content(req.Title, req.Content),
	})
}
