package store

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// changeChannelPrefix namespaces the per-collection pub/sub channels.
const changeChannelPrefix = "store:changes:"

// Notifier announces document changes so that live subscriptions know to
// requery. Announcements carry no payload: granularity is the collection,
// and every subscriber re-runs its own filtered query on each tick.
type Notifier interface {
	// Announce signals that a document in the collection was created or
	// deleted. Best effort: failures are logged, not returned, because the
	// write that triggered the announcement has already been committed.
	Announce(ctx context.Context, collection string)

	// Watch returns a channel that ticks on every announcement for the
	// collection, plus a stop function releasing the watch. Ticks coalesce:
	// a burst of announcements may surface as a single tick.
	Watch(ctx context.Context, collection string) (<-chan struct{}, func())
}

// RedisNotifier fans change announcements out through redis pub/sub,
// reaching subscribers in every process sharing the store.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier creates a RedisNotifier on the given client.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

// Announce publishes a change signal for the collection.
func (n *RedisNotifier) Announce(ctx context.Context, collection string) {
	if err := n.rdb.Publish(ctx, changeChannelPrefix+collection, "1").Err(); err != nil {
		slog.Warn("change announcement failed", "collection", collection, "error", err)
	}
}

// Watch subscribes to the collection's change channel.
func (n *RedisNotifier) Watch(ctx context.Context, collection string) (<-chan struct{}, func()) {
	sub := n.rdb.Subscribe(ctx, changeChannelPrefix+collection)
	ticks := make(chan struct{}, 1)

	go func() {
		defer close(ticks)
		for range sub.Channel() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() {
		if err := sub.Close(); err != nil {
			slog.Warn("close change watch failed", "collection", collection, "error", err)
		}
	}
	return ticks, stop
}
