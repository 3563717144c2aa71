package dto_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"taskboard/internal/domain"
	"taskboard/internal/handler/dto"
	"taskboard/internal/store"
)

func TestShareURL(t *testing.T) {
	assert.Equal(t, "https://x.com/task/abc", dto.ShareURL("https://x.com", "abc"))
	assert.Equal(t, "https://x.com/task/abc", dto.ShareURL("https://x.com/", "abc"), "trailing slash is trimmed")
}

func TestToTaskResponse_ShareURLOnlyForPublic(t *testing.T) {
	public := &domain.Task{ID: "t1", Owner: "a@x.com", Visibility: domain.TaskVisibilityPublic}
	private := &domain.Task{ID: "t2", Owner: "a@x.com", Visibility: domain.TaskVisibilityPrivate}

	assert.Equal(t, "https://x.com/task/t1", dto.ToTaskResponse(public, "https://x.com").ShareURL)
	assert.Empty(t, dto.ToTaskResponse(private, "https://x.com").ShareURL)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty body", domain.ErrEmptyBody, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"invalid visibility", domain.ErrInvalidVisibility, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing identity", domain.ErrMissingIdentity, http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"permission denied", domain.ErrPermissionDenied, http.StatusForbidden, "INSUFFICIENT_ACCESS"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND"},
		{"comment not found", domain.ErrCommentNotFound, http.StatusNotFound, "COMMENT_NOT_FOUND"},
		{"store unavailable", store.ErrUnavailable, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"wrapped store unavailable", errors.Join(errors.New("query"), store.ErrUnavailable), http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := dto.MapDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
