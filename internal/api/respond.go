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
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error   string              `json:"error"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads the request body into dst. Unknown fields are ignored,
// malformed bodies come back as a ValidationError.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}

	var ve domain.ValidationError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		ve.Add("body", "request body is empty")
	case errors.As(err, &typeErr):
		ve.Add(typeErr.Field, "expected "+typeErr.Type.String())
	case errors.As(err, &maxErr):
		ve.Add("body", "request body is too large")
	default:
		ve.Add("body", "malformed JSON")
	}
	return ve
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(r *http.Request, dst any) error {
	err := decodeJSON(r, dst)
	var ve domain.ValidationError
	if errors.As(err, &ve) && len(ve.Items) == 1 && ve.Items[0].Message == "request body is empty" {
		return nil
	}
	return err
}

// respondError maps err onto the JSON error taxonomy. Anything unexpected is
// logged and reported as a bare 500.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request data",
			Details: ve.Items,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, db.ErrConflict):
		writeError(w, http.StatusConflict, "Already exists")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
