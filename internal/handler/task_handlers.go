package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/handler/dto"
	"taskboard/internal/middleware"
	"taskboard/internal/view"
)

// handleCreateTask creates a new task for the authenticated identity.
// No optimistic insert happens here: open streams receive the task through
// their subscription, triggered by the write itself.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := middleware.GetSessionFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	// Tasks default to private; going public is an explicit choice.
	visibility := domain.TaskVisibilityPrivate
	if req.Visibility != "" {
		visibility = domain.TaskVisibility(req.Visibility)
	}

	task, err := h.taskRepo.Create(ctx, session.Identity, req.Body, visibility)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	slog.Info("task created",
		"task_id", task.ID,
		"owner", task.Owner,
		"visibility", task.Visibility,
	)

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task, h.baseURL))
}

// handleListTasks returns the current snapshot of the identity's tasks,
// newest first.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := middleware.GetSessionFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	tasks, err := h.taskRepo.List(ctx, session.Identity)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTasksListResponse(tasks, h.baseURL))
}

// handleStreamTasks streams the identity's task list over SSE. Every event
// carries the complete current snapshot; the client replaces its state
// wholesale on each one. The view (and with it the subscription) is torn
// down when the client disconnects.
func (h *Handler) handleStreamTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := middleware.GetSessionFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming unsupported")
		return
	}

	list := view.NewTaskList(h.taskRepo, session.Identity)
	if err := list.Start(ctx); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}
	defer list.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-list.Updates():
			if !ok {
				return
			}
			payload, err := json.Marshal(dto.ToTasksListResponse(snapshot, h.baseURL))
			if err != nil {
				slog.Error("failed to encode stream snapshot", "error", err)
				return
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// handleGetTask serves the task detail with its comment thread. Public
// tasks are visible to anyone; private tasks read as missing to everyone
// but their owner, so the response never confirms whether the id exists.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	requester := ""
	if session, err := middleware.GetSessionFromContext(ctx); err == nil {
		requester = session.Identity
	}

	detail := view.NewTaskDetail(h.taskRepo, h.commentRepo, taskID)
	if err := detail.Load(ctx, requester); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			respondError(w, http.StatusNotFound, "TASK_NOT_FOUND", domain.ErrTaskNotFound.Error())
			return
		}
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetailResponse(detail.Task(), detail.Comments(), h.baseURL))
}

// handleDeleteTask deletes a task owned by the authenticated identity.
// Deleting an id that no longer exists succeeds; comments attached to the
// task are left in place.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := middleware.GetSessionFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	task, err := h.taskRepo.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	if !domain.CanDeleteTask(task, session.Identity) {
		respondError(w, http.StatusForbidden, "INSUFFICIENT_ACCESS", "permission denied")
		return
	}

	if err := h.taskRepo.Delete(ctx, taskID); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	slog.Info("task deleted", "task_id", taskID, "owner", session.Identity)

	w.WriteHeader(http.StatusNoContent)
}
