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
	"Unbewohnte/BlogDedup/internal/dedup"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Config struct {
	APIToken            string
	TokenTTL            time.Duration
	Environment         string
	Version             string
	SimilarityThreshold float64
}

type Server struct {
	conf    Config
	store   *db.DB
	checker *dedup.Checker
	hub     *Hub
	logger  *slog.Logger
	started time.Time
	router  *mux.Router
}

func NewServer(conf Config, store *db.DB, checker *dedup.Checker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if conf.SimilarityThreshold <= 0 {
		conf.SimilarityThreshold = checker.Options().SimilarityThreshold
	}

	s := &Server{
		conf:    conf,
		store:   store,
		checker: checker,
		hub:     NewHub(logger.With("component", "events")),
		logger:  logger,
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverPanics, s.tagRequests, s.logRequests)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.requireToken)

	protected.HandleFunc("/content/check-hash", s.handleCheckHash).Methods(http.MethodPost)
	protected.HandleFunc("/content/check-similarity", s.handleCheckSimilarity).Methods(http.MethodPost)
	protected.HandleFunc("/content/register", s.handleRegisterContent).Methods(http.MethodPost)

	protected.HandleFunc("/trends/check-processed", s.handleCheckProcessed).Methods(http.MethodPost)
	protected.HandleFunc("/trends/mark-processing", s.handleMarkProcessing).Methods(http.MethodPost)
	protected.HandleFunc("/trends/mark-article", s.handleMarkArticle).Methods(http.MethodPost)
	protected.HandleFunc("/trends/stats", s.handleStats).Methods(http.MethodGet)
	protected.HandleFunc("/trends/cleanup", s.handleCleanup).Methods(http.MethodPost)
	protected.HandleFunc("/trends/export", s.handleExport).Methods(http.MethodGet)

	protected.HandleFunc("/blacklist", s.handleListBlacklist).Methods(http.MethodGet)
	protected.HandleFunc("/blacklist", s.handleAddBlacklist).Methods(http.MethodPost)
	protected.HandleFunc("/blacklist/{id}", s.handleToggleBlacklist).Methods(http.MethodPatch)

	protected.HandleFunc("/articles", s.handleCreateArticle).Methods(http.MethodPost)
	protected.HandleFunc("/articles/recent", s.handleRecentArticles).Methods(http.MethodGet)
	protected.HandleFunc("/articles/{id}", s.handleGetArticle).Methods(http.MethodGet)

	protected.HandleFunc("/fingerprint/trend", s.handleTrendFingerprint).Methods(http.MethodPost)
	protected.HandleFunc("/fingerprint/content", s.handleContentFingerprint).Methods(http.MethodPost)

	protected.Handle("/events", s.hub).Methods(http.MethodGet)

	// Registered after the subrouter so a method mismatch here still
	// yields 405.
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the event feed so other components can publish to it.
func (s *Server) Hub() *Hub {
	return s.hub
}

type ListenOptions struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, opts ListenOptions) error {
	srv := &http.Server{
		Addr:         opts.Address,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("web server started", "address", opts.Address)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("web server stopped")
	return nil
}
