package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskboard/internal/domain"
	"taskboard/internal/store"
)

// commentRecord is the stored payload for a comment. task_id is a plain
// reference: no referential integrity is enforced, and a comment may outlive
// its task.
type commentRecord struct {
	TaskID     string `json:"task_id"`
	Author     string `json:"author"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
}

// CommentRepository is the comment store accessor. Comments are fetched
// one-shot rather than subscribed: the thread view appends its own writes
// optimistically and refetches on reload.
type CommentRepository struct {
	store store.Client
}

// NewCommentRepository creates a new CommentRepository on the given store
// client.
func NewCommentRepository(client store.Client) *CommentRepository {
	return &CommentRepository{store: client}
}

// commentFromDocument decodes a stored document into a Comment.
func commentFromDocument(doc *store.Document) (*domain.Comment, error) {
	var rec commentRecord
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}
	return &domain.Comment{
		ID:         doc.ID,
		TaskID:     rec.TaskID,
		Author:     rec.Author,
		AuthorName: rec.AuthorName,
		Body:       rec.Body,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

// Create validates and stores a new comment, returning it synchronously so
// the caller can append it to a local projection without waiting for a
// read-back. The author fields are required even though the presentation
// layer gates on authentication first.
func (r *CommentRepository) Create(ctx context.Context, taskID, author, authorName, body string) (*domain.Comment, error) {
	if body == "" {
		return nil, domain.ErrEmptyBody
	}
	if author == "" || authorName == "" {
		return nil, domain.ErrMissingIdentity
	}

	doc, err := r.store.Create(ctx, CommentsCollection, commentRecord{
		TaskID:     taskID,
		Author:     author,
		AuthorName: authorName,
		Body:       body,
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	return commentFromDocument(doc)
}

// Get retrieves a comment by id.
func (r *CommentRepository) Get(ctx context.Context, commentID string) (*domain.Comment, error) {
	doc, err := r.store.Get(ctx, CommentsCollection, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return commentFromDocument(doc)
}

// Delete removes a comment by id. Deleting a comment that no longer exists
// is success, not an error.
func (r *CommentRepository) Delete(ctx context.Context, commentID string) error {
	if err := r.store.Delete(ctx, CommentsCollection, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// ListByTask returns all comments attached to the task in creation order,
// oldest first, so the thread reads naturally. The task itself is never
// dereferenced: comments of a deleted task are returned as-is.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Comment, error) {
	docs, err := r.store.Query(ctx, CommentsCollection, store.Filters{"task_id": taskID}, store.OrderOldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(docs))
	for i := range docs {
		comment, err := commentFromDocument(&docs[i])
		if err != nil {
			slog.Warn("skipping undecodable comment document", "document_id", docs[i].ID, "error", err)
			continue
		}
		comments = append(comments, *comment)
	}
	return comments, nil
}
