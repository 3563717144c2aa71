package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_LatestWins(t *testing.T) {
	sub := NewSubscription()
	defer sub.Close()

	first := []Document{{ID: "a"}}
	second := []Document{{ID: "b"}}
	third := []Document{{ID: "c"}}

	// Nothing drained between publishes: only the newest survives.
	sub.Publish(first)
	sub.Publish(second)
	sub.Publish(third)

	got := <-sub.Snapshots()
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestSubscription_CloseStopsDeliveries(t *testing.T) {
	sub := NewSubscription()
	sub.Close()

	// Publishing after close is a no-op, not a panic.
	sub.Publish([]Document{{ID: "a"}})

	_, ok := <-sub.Snapshots()
	assert.False(t, ok, "snapshots channel should be closed")

	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel should be closed")
	}

	// Close is idempotent.
	sub.Close()
}

func TestSubscription_PendingSnapshotReadableAfterClose(t *testing.T) {
	sub := NewSubscription()
	sub.Publish([]Document{{ID: "a"}})
	sub.Close()

	got, ok := <-sub.Snapshots()
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	_, ok = <-sub.Snapshots()
	assert.False(t, ok)
}
