package domain

import "time"

// Comment represents a user-authored reply attached to a task.
//
// TaskID is a plain foreign reference: the store enforces no referential
// integrity, and deleting a task does not cascade to its comments. A comment
// whose task no longer exists is still a valid record.
type Comment struct {
	ID         string
	TaskID     string
	Author     string // identity of the commenting user
	AuthorName string // display name shown in the thread
	Body       string
	CreatedAt  time.Time
}

// IsAuthoredBy checks if the comment was written by the given identity.
func (c *Comment) IsAuthoredBy(identity string) bool {
	return identity != "" && c.Author == identity
}
