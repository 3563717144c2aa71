package repository

// Document-store collection names.
const (
	TasksCollection    = "tasks"
	CommentsCollection = "comments"
)
