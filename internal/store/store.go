// Package store provides the document-store contract the rest of the
// application is written against: create, point-read, delete, filtered
// queries, and live full-snapshot subscriptions over named collections.
// Records are opaque JSON documents; callers decode them into their own
// types.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by Get when no document matches the id.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable wraps network/driver failures at the store boundary.
	ErrUnavailable = errors.New("store unavailable")
)

// Order selects the creation-time ordering of query and subscription results.
// Documents sharing a timestamp keep a stable relative order across
// redeliveries (id is the tie-break).
type Order string

const (
	OrderNewestFirst Order = "newest_first"
	OrderOldestFirst Order = "oldest_first"
)

// Filters holds exact-match conditions on top-level document fields.
type Filters map[string]string

// Document is a stored record: a store-assigned id and creation time plus
// the caller's JSON payload.
type Document struct {
	ID        string
	CreatedAt time.Time
	Data      json.RawMessage
}

// Decode unmarshals the document payload into v.
func (d *Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Client is the document-store access contract. Implementations must
// normalize "delete of a missing document" to success and must deliver
// each subscription snapshot as the complete current matching set.
type Client interface {
	Create(ctx context.Context, collection string, value any) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters Filters, order Order) ([]Document, error)
	Subscribe(ctx context.Context, collection string, filters Filters, order Order) (*Subscription, error)
}

// unavailable normalizes a driver failure into ErrUnavailable while keeping
// the cause text for logs.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
