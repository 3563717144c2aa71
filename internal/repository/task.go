package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskboard/internal/domain"
	"taskboard/internal/store"
)

// taskRecord is the stored payload for a task. The id and creation time are
// store-assigned and live on the document envelope, not in the payload.
type taskRecord struct {
	Owner      string `json:"owner"`
	Body       string `json:"body"`
	Visibility string `json:"visibility"`
}

// TaskRepository is the task store accessor: creation, deletion, point
// reads, and live owner-filtered subscriptions. It performs no ownership
// checks; callers must have applied the access policy already.
type TaskRepository struct {
	store store.Client
}

// NewTaskRepository creates a new TaskRepository on the given store client.
func NewTaskRepository(client store.Client) *TaskRepository {
	return &TaskRepository{store: client}
}

// taskFromDocument decodes a stored document into a Task.
func taskFromDocument(doc *store.Document) (*domain.Task, error) {
	var rec taskRecord
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}
	return &domain.Task{
		ID:         doc.ID,
		Owner:      rec.Owner,
		Body:       rec.Body,
		Visibility: domain.TaskVisibility(rec.Visibility),
		CreatedAt:  doc.CreatedAt,
	}, nil
}

// Create validates and stores a new task, returning it with the
// store-assigned id and creation time. Creation also triggers delivery to
// any subscription whose owner filter matches.
func (r *TaskRepository) Create(ctx context.Context, owner, body string, visibility domain.TaskVisibility) (*domain.Task, error) {
	if body == "" {
		return nil, domain.ErrEmptyBody
	}
	if owner == "" {
		return nil, domain.ErrMissingIdentity
	}
	if !visibility.IsValid() {
		return nil, domain.ErrInvalidVisibility
	}

	doc, err := r.store.Create(ctx, TasksCollection, taskRecord{
		Owner:      owner,
		Body:       body,
		Visibility: string(visibility),
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return taskFromDocument(doc)
}

// Get retrieves a task by id.
func (r *TaskRepository) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	doc, err := r.store.Get(ctx, TasksCollection, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return taskFromDocument(doc)
}

// Delete removes a task by id. Deleting a task that no longer exists is
// success, not an error.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	if err := r.store.Delete(ctx, TasksCollection, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// List returns the current set of tasks owned by the identity, newest first.
func (r *TaskRepository) List(ctx context.Context, owner string) ([]domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrMissingIdentity
	}

	docs, err := r.store.Query(ctx, TasksCollection, store.Filters{"owner": owner}, store.OrderNewestFirst)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasksFromDocuments(docs), nil
}

// Subscribe opens a live subscription streaming full snapshots of the
// identity's tasks, newest first. The caller owns the returned subscription
// and must Close it on teardown.
func (r *TaskRepository) Subscribe(ctx context.Context, owner string) (*TaskSubscription, error) {
	if owner == "" {
		return nil, domain.ErrMissingIdentity
	}

	sub, err := r.store.Subscribe(ctx, TasksCollection, store.Filters{"owner": owner}, store.OrderNewestFirst)
	if err != nil {
		return nil, fmt.Errorf("subscribe tasks: %w", err)
	}
	return newTaskSubscription(sub), nil
}

// tasksFromDocuments decodes a snapshot, skipping documents that fail to
// decode so one bad record cannot take down the whole list.
func tasksFromDocuments(docs []store.Document) []domain.Task {
	tasks := make([]domain.Task, 0, len(docs))
	for i := range docs {
		task, err := taskFromDocument(&docs[i])
		if err != nil {
			slog.Warn("skipping undecodable task document", "document_id", docs[i].ID, "error", err)
			continue
		}
		tasks = append(tasks, *task)
	}
	return tasks
}

// TaskSubscription adapts a raw document subscription into typed task
// snapshots, preserving the latest-wins delivery semantics.
type TaskSubscription struct {
	sub       *store.Subscription
	snapshots chan []domain.Task
}

func newTaskSubscription(sub *store.Subscription) *TaskSubscription {
	ts := &TaskSubscription{
		sub:       sub,
		snapshots: make(chan []domain.Task, 1),
	}
	go ts.pump()
	return ts
}

// pump decodes and forwards snapshots until the underlying subscription
// closes. It is the only sender on ts.snapshots.
func (ts *TaskSubscription) pump() {
	defer close(ts.snapshots)
	for docs := range ts.sub.Snapshots() {
		tasks := tasksFromDocuments(docs)
		select {
		case ts.snapshots <- tasks:
		default:
			// Replace the undelivered snapshot with the newer one.
			select {
			case <-ts.snapshots:
			default:
			}
			ts.snapshots <- tasks
		}
	}
}

// Snapshots returns the typed delivery channel. It is closed when the
// subscription ends.
func (ts *TaskSubscription) Snapshots() <-chan []domain.Task {
	return ts.snapshots
}

// Close cancels the subscription; no further deliveries occur.
func (ts *TaskSubscription) Close() {
	ts.sub.Close()
}
