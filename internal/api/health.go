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
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 3 * time.Second

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime,omitempty"`
	Environment string  `json:"environment,omitempty"`
	Version     string  `json:"version,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// handleHealth serves both GET and HEAD; HEAD gets the status code only.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.store.PingContext(ctx); err != nil {
		s.logger.Error("health check failed", "error", err)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Error:     "Health check failed",
			Timestamp: now,
		})
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Timestamp:   now,
		Uptime:      time.Since(s.started).Seconds(),
		Environment: s.conf.Environment,
		Version:     s.conf.Version,
	})
}
