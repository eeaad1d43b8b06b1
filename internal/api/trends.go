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
	"Unbewohnte/BlogDedup/internal/dedup"
	"Unbewohnte/BlogDedup/internal/domain"
	"Unbewohnte/BlogDedup/internal/spreadsheet"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type checkProcessedRequest struct {
	TrendHash string `json:"trendHash"`
	Query     string `json:"query"`
	Date      string `json:"date"`
}

type existingTrend struct {
	ID             string    `json:"id"`
	Processed      bool      `json:"processed"`
	ArticleCreated bool      `json:"articleCreated"`
	ArticleID      *string   `json:"articleId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type checkProcessedResponse struct {
	IsProcessed     bool           `json:"isProcessed"`
	IsBlacklisted   bool           `json:"isBlacklisted"`
	ExistingTrend   *existingTrend `json:"existingTrend"`
	BlacklistReason *string        `json:"blacklistReason"`
}

func (s *Server) handleCheckProcessed(w http.ResponseWriter, r *http.Request) {
	var req checkProcessedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var ve domain.ValidationError
	ve.Required("trendHash", req.TrendHash)
	ve.Required("query", req.Query)
	if err := ve.Err(); err != nil {
		s.respondError(w, r, err)
		return
	}

	admission, err := s.checker.EvaluateTrend(r.Context(), req.TrendHash, req.Query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := checkProcessedResponse{
		IsProcessed:   admission.Exists,
		IsBlacklisted: admission.Blacklisted,
	}
	if trend := admission.Existing; trend != nil {
		resp.ExistingTrend = &existingTrend{
			ID:             trend.ID,
			Processed:      trend.Processed,
			ArticleCreated: trend.ArticleCreated,
			CreatedAt:      trend.CreatedAt,
		}
		if trend.ArticleID != "" {
			resp.ExistingTrend.ArticleID = &trend.ArticleID
		}
	}
	if admission.Blacklisted && admission.Reason != "" {
		resp.BlacklistReason = &admission.Reason
	}

	writeJSON(w, http.StatusOK, resp)
}

type markProcessingRequest struct {
	TrendHash  string          `json:"trendHash"`
	Query      string          `json:"query"`
	Traffic    string          `json:"traffic"`
	Date       string          `json:"date"`
	SourceData json.RawMessage `json:"sourceData"`
}

type processedTrend struct {
	ID        string    `json:"id"`
	TrendHash string    `json:"trendHash"`
	Query     string    `json:"query"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"createdAt"`
}

type markProcessingResponse struct {
	Success        bool           `json:"success"`
	ProcessedTrend processedTrend `json:"processedTrend"`
}

func (s *Server) handleMarkProcessing(w http.ResponseWriter, r *http.Request) {
	var req markProcessingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	sourceData := req.SourceData
	if bytes.Equal(bytes.TrimSpace(sourceData), []byte("null")) {
		sourceData = nil
	}

	record, err := s.checker.MarkProcessing(r.Context(), dedup.ProcessingRequest{
		TrendHash:  req.TrendHash,
		Query:      req.Query,
		Traffic:    req.Traffic,
		Date:       req.Date,
		SourceData: sourceData,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Publish(EventTrendProcessing, record)
	writeJSON(w, http.StatusOK, markProcessingResponse{
		Success: true,
		ProcessedTrend: processedTrend{
			ID:        record.ID,
			TrendHash: record.TrendHash,
			Query:     record.Query,
			Processed: record.Processed,
			CreatedAt: record.CreatedAt,
		},
	})
}

type markArticleRequest struct {
	TrendHash string `json:"trendHash"`
	ArticleID string `json:"articleId"`
}

type trendResponse struct {
	Success bool                `json:"success"`
	Trend   *domain.TrendRecord `json:"trend"`
}

func (s *Server) handleMarkArticle(w http.ResponseWriter, r *http.Request) {
	var req markArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	record, err := s.checker.MarkArticleCreated(r.Context(), req.TrendHash, req.ArticleID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Publish(EventTrendArticleCreated, record)
	writeJSON(w, http.StatusOK, trendResponse{Success: true, Trend: record})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.checker.Statistics(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type cleanupRequest struct {
	RetentionDays int `json:"retentionDays"`
}

type cleanupResponse struct {
	Success       bool  `json:"success"`
	Removed       int64 `json:"removed"`
	RetentionDays int   `json:"retentionDays"`
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.RetentionDays < 0 {
		var ve domain.ValidationError
		ve.Add("retentionDays", "must not be negative")
		s.respondError(w, r, ve)
		return
	}

	days := req.RetentionDays
	if days == 0 {
		days = s.checker.Options().RetentionDays
	}

	removed, err := s.checker.CleanupStale(r.Context(), days)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Publish(EventTrendsCleanup, map[string]any{"removed": removed, "retentionDays": days})
	writeJSON(w, http.StatusOK, cleanupResponse{
		Success:       true,
		Removed:       removed,
		RetentionDays: days,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	trends, err := s.store.ListTrends(r.Context(), 0)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	stats, err := s.checker.Statistics(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	buf, err := spreadsheet.GenerateTrendReport(trends, &stats)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	fileName := fmt.Sprintf("trends_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
