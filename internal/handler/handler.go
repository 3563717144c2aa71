package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"taskboard/internal/handler/dto"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/static"
	"taskboard/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	client      store.Client
	taskRepo    *repository.TaskRepository
	commentRepo *repository.CommentRepository
	session     *middleware.SessionMiddleware
	baseURL     string
}

// New creates a new Handler instance with all dependencies. The store
// client is injected rather than reached through any shared global, so
// tests can swap in a different implementation.
func New(client store.Client, sessionSecret, baseURL string) *Handler {
	return &Handler{
		client:      client,
		taskRepo:    repository.NewTaskRepository(client),
		commentRepo: repository.NewCommentRepository(client),
		session:     middleware.NewSessionMiddleware(sessionSecret),
		baseURL:     baseURL,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Landing page
	mux.HandleFunc("GET /{$}", h.handleIndex)

	// API v1 routes. The task detail is deliberately reachable without a
	// session: public tasks are shareable with anonymous visitors.
	mux.Handle("GET /api/v1/tasks", h.session.Require(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("POST /api/v1/tasks", h.session.Require(http.HandlerFunc(h.handleCreateTask)))
	mux.Handle("GET /api/v1/tasks/stream", h.session.Require(http.HandlerFunc(h.handleStreamTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", h.session.Optional(http.HandlerFunc(h.handleGetTask)))
	mux.Handle("DELETE /api/v1/tasks/{id}", h.session.Require(http.HandlerFunc(h.handleDeleteTask)))
	mux.Handle("POST /api/v1/tasks/{id}/comments", h.session.Require(http.HandlerFunc(h.handleCreateComment)))
	mux.Handle("DELETE /api/v1/comments/{id}", h.session.Require(http.HandlerFunc(h.handleDeleteComment)))
}

// handleHealthz returns 200 OK if the store is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := h.client.Query(ctx, "healthz", nil, store.OrderNewestFirst); err != nil {
		slog.Error("store health check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleIndex serves the embedded landing page.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(static.IndexHTML))
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// extractID extracts and validates an id path parameter.
// Returns (id, true) if valid, ("", false) if invalid (error already sent
// to client).
func extractID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
		return "", false
	}

	return id, true
}
