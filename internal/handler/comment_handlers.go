package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/handler/dto"
	"taskboard/internal/middleware"
	"taskboard/internal/view"
)

// handleCreateComment adds a comment to a task the requester can read. The
// detail view performs the read-policy check and the optimistic append; the
// returned record is what the client would have appended locally.
func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
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

	var req dto.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	detail := view.NewTaskDetail(h.taskRepo, h.commentRepo, taskID)
	if err := detail.Load(ctx, session.Identity); err != nil {
		// Same masking as the detail fetch: an unreadable task and a
		// missing one answer identically.
		if errors.Is(err, domain.ErrPermissionDenied) {
			respondError(w, http.StatusNotFound, "TASK_NOT_FOUND", domain.ErrTaskNotFound.Error())
			return
		}
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	comment, err := detail.AddComment(ctx, session, req.Body)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToCommentResponse(comment))
}

// handleDeleteComment deletes a comment authored by the authenticated
// identity. Deleting an id that no longer exists succeeds.
func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := middleware.GetSessionFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	commentID, ok := extractID(w, r)
	if !ok {
		return
	}

	comment, err := h.commentRepo.Get(ctx, commentID)
	if err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	if !domain.CanDeleteComment(comment, session.Identity) {
		respondError(w, http.StatusForbidden, "INSUFFICIENT_ACCESS", "permission denied")
		return
	}

	if err := h.commentRepo.Delete(ctx, commentID); err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	slog.Info("comment deleted", "comment_id", commentID, "author", session.Identity)

	w.WriteHeader(http.StatusNoContent)
}
