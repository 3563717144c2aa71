package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) *RedisNotifier {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisNotifier(rdb)
}

func TestRedisNotifier_AnnounceReachesWatch(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	ticks, stop := notifier.Watch(ctx, "tasks")
	defer stop()

	// The pub/sub subscription is established asynchronously; retry the
	// announcement until the tick lands.
	require.Eventually(t, func() bool {
		notifier.Announce(ctx, "tasks")
		select {
		case <-ticks:
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisNotifier_WatchIsPerCollection(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	taskTicks, stopTasks := notifier.Watch(ctx, "tasks")
	defer stopTasks()
	commentTicks, stopComments := notifier.Watch(ctx, "comments")
	defer stopComments()

	require.Eventually(t, func() bool {
		notifier.Announce(ctx, "comments")
		select {
		case <-commentTicks:
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case <-taskTicks:
		t.Fatal("tasks watch must not tick for a comments announcement")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisNotifier_StopClosesTicks(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	ticks, stop := notifier.Watch(ctx, "tasks")
	stop()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ticks:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}
