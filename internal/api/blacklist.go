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
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

type blacklistListResponse struct {
	Entries []domain.BlacklistEntry `json:"entries"`
}

func (s *Server) handleListBlacklist(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			var ve domain.ValidationError
			ve.Add("active", "must be a boolean")
			s.respondError(w, r, ve)
			return
		}
		activeOnly = parsed
	}

	entries, err := s.store.ListBlacklist(r.Context(), activeOnly)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.BlacklistEntry{}
	}
	writeJSON(w, http.StatusOK, blacklistListResponse{Entries: entries})
}

type addBlacklistRequest struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

type blacklistEntryResponse struct {
	Success bool                   `json:"success"`
	Entry   *domain.BlacklistEntry `json:"entry"`
}

func (s *Server) handleAddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req addBlacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	entry, err := s.checker.AddToBlacklist(r.Context(), req.Keyword, req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Publish(EventBlacklistAdded, entry)
	writeJSON(w, http.StatusCreated, blacklistEntryResponse{Success: true, Entry: entry})
}

type toggleBlacklistRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleToggleBlacklist(w http.ResponseWriter, r *http.Request) {
	var req toggleBlacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Active == nil {
		var ve domain.ValidationError
		ve.Add("active", "required")
		s.respondError(w, r, ve)
		return
	}

	entry, err := s.store.SetBlacklistActive(r.Context(), mux.Vars(r)["id"], *req.Active)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info("blacklist entry toggled", "id", entry.ID, "keyword", entry.Keyword, "active", entry.Active)
	s.hub.Publish(EventBlacklistToggled, entry)
	writeJSON(w, http.StatusOK, blacklistEntryResponse{Success: true, Entry: entry})
}
