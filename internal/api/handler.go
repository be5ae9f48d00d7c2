// internal/api/handler.go
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "github-repo-mirror/internal/errors"
	"github-repo-mirror/internal/query"
)

const dateLayout = "2006-01-02"

// Handler is the container for API dependencies.
type Handler struct {
	queries *query.Engine
	logger  *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// The API is read-only: it serves the local mirror and never triggers a
// remote fetch.
func NewRouter(queries *query.Engine, logger *slog.Logger) http.Handler {
	h := &Handler{
		queries: queries,
		logger:  logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos/{owner}/{name}", h.getSummary)
		r.Get("/repos/{owner}/{name}/commits/frequency", h.getCommitFrequency)
		r.Get("/repos/{owner}/{name}/commits/search", h.searchCommits)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getSummary returns repository metadata plus issue-label stats.
// GET /v1/repos/{owner}/{name}
func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	repoName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	summary, err := h.queries.RepositorySummary(r.Context(), repoName)
	if err != nil {
		var notFound *custom_errors.ErrNotFound
		if errors.As(err, &notFound) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("Failed to get repository summary", "repo", repoName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// getCommitFrequency returns the per-day commit counts in a date range.
// GET /v1/repos/{owner}/{name}/commits/frequency?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) getCommitFrequency(w http.ResponseWriter, r *http.Request) {
	repoName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	start, err := parseDateParam(r, "start")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'start' parameter. Must be YYYY-MM-DD.")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'end' parameter. Must be YYYY-MM-DD.")
		return
	}
	if end != nil {
		// Make the end date cover the whole day.
		e := end.Add(24*time.Hour - time.Nanosecond)
		end = &e
	}

	points, err := h.queries.CommitFrequency(r.Context(), repoName, start, end)
	if err != nil {
		h.logger.Error("Failed to compute commit frequency", "repo", repoName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"series":  points,
		"summary": query.Summarize(points),
	})
}

// searchCommits returns commits whose message contains the literal query.
// GET /v1/repos/{owner}/{name}/commits/search?q=...
func (h *Handler) searchCommits(w http.ResponseWriter, r *http.Request) {
	repoName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	q := r.URL.Query().Get("q")
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'q' parameter.")
		return
	}

	commits, err := h.queries.SearchCommitMessages(r.Context(), repoName, q)
	if err != nil {
		h.logger.Error("Failed to search commits", "repo", repoName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, commits)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter as a UTC time.
func parseDateParam(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
