package dto

import (
	"fmt"
	"strings"
	"time"

	"taskboard/internal/domain"
)

// TaskResponse represents a task in API responses. ShareURL is set only for
// public tasks.
type TaskResponse struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Body       string    `json:"body"`
	Visibility string    `json:"visibility"`
	ShareURL   string    `json:"share_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TasksListResponse represents the response for GET /tasks and the payload
// of each stream snapshot.
type TasksListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	Author     string    `json:"author"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskDetailResponse represents the public task detail with its comment
// thread.
type TaskDetailResponse struct {
	Task     TaskResponse      `json:"task"`
	Comments []CommentResponse `json:"comments"`
}

// ShareURL formats the shareable link for a task.
func ShareURL(baseURL, taskID string) string {
	return fmt.Sprintf("%s/task/%s", strings.TrimSuffix(baseURL, "/"), taskID)
}

// ToTaskResponse converts a domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task, baseURL string) TaskResponse {
	resp := TaskResponse{
		ID:         task.ID,
		Owner:      task.Owner,
		Body:       task.Body,
		Visibility: string(task.Visibility),
		CreatedAt:  task.CreatedAt,
	}
	if task.IsPublic() {
		resp.ShareURL = ShareURL(baseURL, task.ID)
	}
	return resp
}

// ToTasksListResponse converts a task snapshot to TasksListResponse.
func ToTasksListResponse(tasks []domain.Task, baseURL string) TasksListResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = ToTaskResponse(&tasks[i], baseURL)
	}
	return TasksListResponse{Tasks: out, Total: len(out)}
}

// ToCommentResponse converts a domain.Comment to CommentResponse.
func ToCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID,
		TaskID:     comment.TaskID,
		Author:     comment.Author,
		AuthorName: comment.AuthorName,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}
}

// ToTaskDetailResponse converts a loaded detail view to TaskDetailResponse.
func ToTaskDetailResponse(task *domain.Task, comments []domain.Comment, baseURL string) TaskDetailResponse {
	out := make([]CommentResponse, len(comments))
	for i := range comments {
		out[i] = ToCommentResponse(&comments[i])
	}
	return TaskDetailResponse{
		Task:     ToTaskResponse(task, baseURL),
		Comments: out,
	}
}
