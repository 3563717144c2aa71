package view

import (
	"context"
	"log/slog"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// TaskList is the live projection of one identity's tasks, newest first.
// It is bound to that identity for its whole lifetime: a different identity
// gets a fresh view, never a merge into this one.
type TaskList struct {
	repo  *repository.TaskRepository
	owner string

	mu      sync.RWMutex
	state   State
	tasks   []domain.Task
	sub     *repository.TaskSubscription
	stopped bool

	updates chan []domain.Task
}

// NewTaskList creates an uninitialized task-list view for the identity.
func NewTaskList(repo *repository.TaskRepository, owner string) *TaskList {
	return &TaskList{
		repo:    repo,
		owner:   owner,
		state:   StateUninitialized,
		updates: make(chan []domain.Task, 1),
	}
}

// Start opens the subscription and moves the view to Loading. The first
// snapshot delivery moves it to Synced.
func (v *TaskList) Start(ctx context.Context) error {
	sub, err := v.repo.Subscribe(ctx, v.owner)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.sub = sub
	v.state = StateLoading
	v.mu.Unlock()

	go v.pump()
	return nil
}

// pump applies subscription deliveries until the subscription closes. It is
// the only sender on v.updates.
func (v *TaskList) pump() {
	defer close(v.updates)
	for snapshot := range v.sub.Snapshots() {
		if !v.apply(snapshot) {
			return
		}
	}
}

// apply replaces the projection wholesale with the delivered snapshot.
// Deliveries racing a Stop are dropped: a torn-down view no longer owns a
// projection to update.
func (v *TaskList) apply(snapshot []domain.Task) bool {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return false
	}
	v.tasks = snapshot
	v.state = StateSynced
	v.mu.Unlock()

	select {
	case v.updates <- snapshot:
	default:
		select {
		case <-v.updates:
		default:
		}
		v.updates <- snapshot
	}
	return true
}

// Updates streams the projection after each applied delivery, latest-wins.
// The channel closes when the view stops.
func (v *TaskList) Updates() <-chan []domain.Task {
	return v.updates
}

// State returns the current view state.
func (v *TaskList) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Tasks returns a copy of the current projection.
func (v *TaskList) Tasks() []domain.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	tasks := make([]domain.Task, len(v.tasks))
	copy(tasks, v.tasks)
	return tasks
}

// Create writes a new task for the view's identity. There is no optimistic
// insert: the write triggers a subscription delivery and the projection is
// replaced wholesale when it arrives, which avoids duplicate or ghost
// entries.
func (v *TaskList) Create(ctx context.Context, body string, visibility domain.TaskVisibility) (*domain.Task, error) {
	task, err := v.repo.Create(ctx, v.owner, body, visibility)
	if err != nil {
		return nil, err
	}

	slog.Info("task created",
		"task_id", task.ID,
		"owner", task.Owner,
		"visibility", task.Visibility,
	)
	return task, nil
}

// Delete removes a task owned by the view's identity. An id not present in
// the projection is a successful no-op. On store success the entry is
// removed locally by id; there is no rollback path if the store delete
// later proves to have failed.
func (v *TaskList) Delete(ctx context.Context, taskID string) error {
	v.mu.RLock()
	task := findTask(v.tasks, taskID)
	v.mu.RUnlock()

	if task == nil {
		return nil
	}
	if !domain.CanDeleteTask(task, v.owner) {
		return domain.ErrPermissionDenied
	}

	if err := v.repo.Delete(ctx, taskID); err != nil {
		// Projection left unchanged; the next delivery resynchronizes.
		return err
	}

	v.mu.Lock()
	if !v.stopped {
		v.tasks = removeTask(v.tasks, taskID)
	}
	v.mu.Unlock()

	slog.Info("task deleted", "task_id", taskID, "owner", v.owner)
	return nil
}

// Stop tears the view down: the subscription is closed, no further
// deliveries are applied, and late write completions become no-ops.
func (v *TaskList) Stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	sub := v.sub
	v.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func findTask(tasks []domain.Task, taskID string) *domain.Task {
	for i := range tasks {
		if tasks[i].ID == taskID {
			task := tasks[i]
			return &task
		}
	}
	return nil
}

func removeTask(tasks []domain.Task, taskID string) []domain.Task {
	kept := tasks[:0:0]
	for _, task := range tasks {
		if task.ID != taskID {
			kept = append(kept, task)
		}
	}
	return kept
}
