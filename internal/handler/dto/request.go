package dto

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Body       string `json:"body"`
	Visibility string `json:"visibility,omitempty"`
}

// CreateCommentRequest represents the request body for POST /tasks/:id/comments.
type CreateCommentRequest struct {
	Body string `json:"body"`
}
