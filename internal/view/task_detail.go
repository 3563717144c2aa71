package view

import (
	"context"
	"log/slog"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// TaskDetail is the projection of a single task and its comment thread.
// The thread is fetched one-shot, not subscribed: the view's own comment
// writes are appended optimistically and the projection stays a mix of
// authoritative and local records until the next full fetch.
type TaskDetail struct {
	tasks    *repository.TaskRepository
	comments *repository.CommentRepository
	taskID   string

	mu      sync.RWMutex
	state   State
	task    *domain.Task
	thread  []domain.Comment
	stopped bool
}

// NewTaskDetail creates an uninitialized detail view for the task id.
func NewTaskDetail(tasks *repository.TaskRepository, comments *repository.CommentRepository, taskID string) *TaskDetail {
	return &TaskDetail{
		tasks:    tasks,
		comments: comments,
		taskID:   taskID,
		state:    StateUninitialized,
	}
}

// Load fetches the task and its comment thread. Requesters who may not read
// the task (private, not the owner) get ErrPermissionDenied; a missing task
// yields ErrTaskNotFound. On any failure the projection is left unchanged.
func (v *TaskDetail) Load(ctx context.Context, requester string) error {
	v.mu.Lock()
	v.state = StateLoading
	v.mu.Unlock()

	task, err := v.tasks.Get(ctx, v.taskID)
	if err != nil {
		return err
	}
	if !domain.CanRead(task, requester) {
		return domain.ErrPermissionDenied
	}

	thread, err := v.comments.ListByTask(ctx, v.taskID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if !v.stopped {
		v.task = task
		v.thread = thread
		v.state = StateSynced
	}
	v.mu.Unlock()
	return nil
}

// State returns the current view state.
func (v *TaskDetail) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Task returns the loaded task, or nil before a successful Load.
func (v *TaskDetail) Task() *domain.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.task == nil {
		return nil
	}
	task := *v.task
	return &task
}

// Comments returns a copy of the comment thread, oldest first. An empty
// slice is exactly the "no comments yet" condition.
func (v *TaskDetail) Comments() []domain.Comment {
	v.mu.RLock()
	defer v.mu.RUnlock()
	thread := make([]domain.Comment, len(v.thread))
	copy(thread, v.thread)
	return thread
}

// AddComment writes a comment as the session's identity and appends the
// returned record to the projection immediately. Because the thread is not
// subscribed, this local append is the only way the new comment shows up
// before a reload. A failed write leaves the projection unchanged.
func (v *TaskDetail) AddComment(ctx context.Context, session *domain.Session, body string) (*domain.Comment, error) {
	if !session.IsAuthenticated() || session.DisplayName == "" {
		return nil, domain.ErrMissingIdentity
	}

	comment, err := v.comments.Create(ctx, v.taskID, session.Identity, session.DisplayName, body)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	if !v.stopped {
		v.thread = append(v.thread, *comment)
	}
	v.mu.Unlock()

	slog.Info("comment added",
		"comment_id", comment.ID,
		"task_id", comment.TaskID,
		"author", comment.Author,
	)
	return comment, nil
}

// RemoveComment deletes a comment authored by the requester and drops it
// from the projection. An id not present in the projection is a successful
// no-op.
func (v *TaskDetail) RemoveComment(ctx context.Context, commentID, requester string) error {
	v.mu.RLock()
	comment := findComment(v.thread, commentID)
	v.mu.RUnlock()

	if comment == nil {
		return nil
	}
	if !domain.CanDeleteComment(comment, requester) {
		return domain.ErrPermissionDenied
	}

	if err := v.comments.Delete(ctx, commentID); err != nil {
		return err
	}

	v.mu.Lock()
	if !v.stopped {
		v.thread = removeComment(v.thread, commentID)
	}
	v.mu.Unlock()

	slog.Info("comment deleted", "comment_id", commentID, "author", requester)
	return nil
}

// Stop tears the view down; write completions arriving afterwards no-op.
func (v *TaskDetail) Stop() {
	v.mu.Lock()
	v.stopped = true
	v.mu.Unlock()
}

func findComment(thread []domain.Comment, commentID string) *domain.Comment {
	for i := range thread {
		if thread[i].ID == commentID {
			comment := thread[i]
			return &comment
		}
	}
	return nil
}

func removeComment(thread []domain.Comment, commentID string) []domain.Comment {
	kept := thread[:0:0]
	for _, comment := range thread {
		if comment.ID != commentID {
			kept = append(kept, comment)
		}
	}
	return kept
}
