package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryClient is an in-memory Client implementation. It backs `serve
// --memory` for local development and serves as the injectable test double
// for the accessors and views. Snapshot fan-out is synchronous: a write
// publishes refreshed snapshots to matching subscriptions before returning.
type MemoryClient struct {
	mu          sync.Mutex
	seq         uint64
	collections map[string]map[string]*memoryDocument
	subs        map[*memorySubscription]struct{}
}

type memoryDocument struct {
	doc    Document
	fields map[string]any // decoded payload, used for filter matching
	seq    uint64
}

type memorySubscription struct {
	sub        *Subscription
	collection string
	filters    Filters
	order      Order
}

// NewMemoryClient creates an empty in-memory store.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		collections: make(map[string]map[string]*memoryDocument),
		subs:        make(map[*memorySubscription]struct{}),
	}
}

// Create stores a new document and synchronously refreshes matching
// subscriptions.
func (c *MemoryClient) Create(ctx context.Context, collection string, value any) (*Document, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	docs, ok := c.collections[collection]
	if !ok {
		docs = make(map[string]*memoryDocument)
		c.collections[collection] = docs
	}

	c.seq++
	md := &memoryDocument{
		doc: Document{
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
			Data:      data,
		},
		fields: fields,
		seq:    c.seq,
	}
	docs[md.doc.ID] = md

	c.broadcastLocked(collection)

	doc := md.doc
	return &doc, nil
}

// Get retrieves a document by id.
func (c *MemoryClient) Get(ctx context.Context, collection, id string) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	md, ok := c.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	doc := md.doc
	return &doc, nil
}

// Delete removes a document by id; a missing id is success.
func (c *MemoryClient) Delete(ctx context.Context, collection, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs := c.collections[collection]
	if _, ok := docs[id]; !ok {
		return nil
	}
	delete(docs, id)

	c.broadcastLocked(collection)
	return nil
}

// Query returns the current matching set in creation order.
func (c *MemoryClient) Query(ctx context.Context, collection string, filters Filters, order Order) ([]Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(collection, filters, order), nil
}

// Subscribe opens a live subscription fed synchronously by writes to the
// collection.
func (c *MemoryClient) Subscribe(ctx context.Context, collection string, filters Filters, order Order) (*Subscription, error) {
	c.mu.Lock()

	ms := &memorySubscription{
		sub:        NewSubscription(),
		collection: collection,
		filters:    filters,
		order:      order,
	}
	c.subs[ms] = struct{}{}
	ms.sub.Publish(c.snapshotLocked(collection, filters, order))

	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			ms.sub.Close()
		case <-ms.sub.Done():
		}
		c.mu.Lock()
		delete(c.subs, ms)
		c.mu.Unlock()
	}()

	return ms.sub, nil
}

// broadcastLocked refreshes every subscription watching the collection.
// Callers must hold c.mu.
func (c *MemoryClient) broadcastLocked(collection string) {
	for ms := range c.subs {
		if ms.collection != collection {
			continue
		}
		ms.sub.Publish(c.snapshotLocked(collection, ms.filters, ms.order))
	}
}

// snapshotLocked builds the current matching set. Callers must hold c.mu.
func (c *MemoryClient) snapshotLocked(collection string, filters Filters, order Order) []Document {
	var matched []*memoryDocument
	for _, md := range c.collections[collection] {
		if matchesFilters(md.fields, filters) {
			matched = append(matched, md)
		}
	}

	// Insertion sequence is the tie-break for equal timestamps, keeping
	// snapshots stable across redeliveries.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.doc.CreatedAt.Equal(b.doc.CreatedAt) {
			if order == OrderOldestFirst {
				return a.doc.CreatedAt.Before(b.doc.CreatedAt)
			}
			return a.doc.CreatedAt.After(b.doc.CreatedAt)
		}
		if order == OrderOldestFirst {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})

	docs := make([]Document, len(matched))
	for i, md := range matched {
		docs[i] = md.doc
	}
	return docs
}

// matchesFilters applies exact-match conditions against string fields.
func matchesFilters(fields map[string]any, filters Filters) bool {
	for field, want := range filters {
		got, ok := fields[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
