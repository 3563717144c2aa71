package domain

import "time"

// TaskVisibility represents whether a task is public or private.
type TaskVisibility string

const (
	TaskVisibilityPublic  TaskVisibility = "public"
	TaskVisibilityPrivate TaskVisibility = "private"
)

// IsValid checks if the visibility is one of the allowed values.
func (v TaskVisibility) IsValid() bool {
	return v == TaskVisibilityPublic || v == TaskVisibilityPrivate
}

// Task represents a user-authored note. Tasks have no update path: the body
// and visibility are fixed at creation, and change only via delete+recreate.
type Task struct {
	ID         string
	Owner      string // identity of the creating user (email-like string)
	Body       string
	Visibility TaskVisibility
	CreatedAt  time.Time
}

// IsPublic returns true if any visitor may view the task.
func (t *Task) IsPublic() bool {
	return t.Visibility == TaskVisibilityPublic
}

// IsOwnedBy checks if the task belongs to the given identity.
func (t *Task) IsOwnedBy(identity string) bool {
	return identity != "" && t.Owner == identity
}
