package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql is the shared Squirrel statement builder configured for PostgreSQL
// dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// documentColumns is the shared list of columns for document queries.
var documentColumns = []string{"id", "data", "created_at"}

// PostgresClient implements Client on a single jsonb-backed documents table.
// Writes announce themselves on the notifier so subscriptions in this and
// other processes refresh their snapshots.
type PostgresClient struct {
	pool     *pgxpool.Pool
	notifier Notifier
}

// NewPostgresClient creates a PostgresClient.
func NewPostgresClient(pool *pgxpool.Pool, notifier Notifier) *PostgresClient {
	return &PostgresClient{pool: pool, notifier: notifier}
}

// scanDocument scans a single row into a Document.
func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Data, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

// scanDocuments scans all rows into a slice of Documents.
func scanDocuments(rows pgx.Rows) ([]Document, error) {
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return docs, nil
}

// Create stores a new document and returns it with the store-assigned id
// and creation time.
func (c *PostgresClient) Create(ctx context.Context, collection string, value any) (*Document, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	query, args, err := psql.
		Insert("documents").
		Columns("collection", "data").
		Values(collection, data).
		Suffix("RETURNING id, data, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query: %w", err)
	}

	var doc Document
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&doc.ID, &doc.Data, &doc.CreatedAt); err != nil {
		return nil, unavailable("create document", err)
	}

	c.notifier.Announce(ctx, collection)

	return &doc, nil
}

// Get retrieves a document by id. Malformed ids are reported as ErrNotFound:
// an id the store never issued cannot name an existing document.
func (c *PostgresClient) Get(ctx context.Context, collection, id string) (*Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query, args, err := psql.
		Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Get query: %w", err)
	}

	doc, err := scanDocument(c.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, unavailable("get document", err)
	}
	return doc, nil
}

// Delete removes a document by id. Deleting a document that no longer
// exists (or an id the store never issued) is success, not an error.
func (c *PostgresClient) Delete(ctx context.Context, collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	query, args, err := psql.
		Delete("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query: %w", err)
	}

	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return unavailable("delete document", err)
	}

	if tag.RowsAffected() > 0 {
		c.notifier.Announce(ctx, collection)
	}

	return nil
}

// Query returns all matching documents ordered by creation time, with id as
// the tie-break so equal timestamps keep a stable order across redeliveries.
func (c *PostgresClient) Query(ctx context.Context, collection string, filters Filters, order Order) ([]Document, error) {
	qb := psql.
		Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"collection": collection})

	for field, value := range filters {
		qb = qb.Where(sq.Expr("data->>? = ?", field, value))
	}

	if order == OrderOldestFirst {
		qb = qb.OrderBy("created_at ASC", "id ASC")
	} else {
		qb = qb.OrderBy("created_at DESC", "id DESC")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Query query: %w", err)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query documents", err)
	}

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, unavailable("query documents", err)
	}
	return docs, nil
}

// Subscribe opens a live subscription: the current matching set is delivered
// immediately, and a fresh full snapshot follows every announced change to
// the collection. The subscription ends when the caller closes it, the
// context is cancelled, or the notifier watch shuts down.
func (c *PostgresClient) Subscribe(ctx context.Context, collection string, filters Filters, order Order) (*Subscription, error) {
	docs, err := c.Query(ctx, collection, filters, order)
	if err != nil {
		return nil, err
	}

	ticks, stop := c.notifier.Watch(ctx, collection)

	sub := NewSubscription()
	sub.Publish(docs)

	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case <-sub.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					sub.Close()
					return
				}
				docs, err := c.Query(ctx, collection, filters, order)
				if err != nil {
					// Keep the previous snapshot; the next tick retries.
					slog.Warn("snapshot refresh failed", "collection", collection, "error", err)
					continue
				}
				sub.Publish(docs)
			}
		}
	}()

	return sub, nil
}
