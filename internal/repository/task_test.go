package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/store"
)

func waitTasks(t *testing.T, sub *repository.TaskSubscription) []domain.Task {
	t.Helper()
	select {
	case tasks, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed unexpectedly")
		return tasks
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task snapshot")
		return nil
	}
}

// waitTasksUntil drains snapshots until one satisfies the predicate. Delivery
// is latest-wins, so intermediate snapshots may be skipped.
func waitTasksUntil(t *testing.T, sub *repository.TaskSubscription, ok func([]domain.Task) bool) []domain.Task {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tasks, open := <-sub.Snapshots():
			require.True(t, open, "subscription closed unexpectedly")
			if ok(tasks) {
				return tasks
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching task snapshot")
			return nil
		}
	}
}

func TestTaskRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	task, err := repo.Create(ctx, "a@x.com", "write the report", domain.TaskVisibilityPublic)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "a@x.com", task.Owner)
	assert.Equal(t, "write the report", task.Body)
	assert.Equal(t, domain.TaskVisibilityPublic, task.Visibility)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestTaskRepository_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	_, err := repo.Create(ctx, "a@x.com", "", domain.TaskVisibilityPublic)
	assert.ErrorIs(t, err, domain.ErrEmptyBody)

	_, err = repo.Create(ctx, "", "body", domain.TaskVisibilityPublic)
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)

	_, err = repo.Create(ctx, "a@x.com", "body", domain.TaskVisibility("shared"))
	assert.ErrorIs(t, err, domain.ErrInvalidVisibility)
}

func TestTaskRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	created, err := repo.Create(ctx, "a@x.com", "body", domain.TaskVisibilityPrivate)
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, domain.TaskVisibilityPrivate, got.Visibility)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepository_DeleteTolerant(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	created, err := repo.Create(ctx, "a@x.com", "body", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	// Double delete and deleting the never-existed are both success.
	assert.NoError(t, repo.Delete(ctx, created.ID))
	assert.NoError(t, repo.Delete(ctx, "never-existed"))

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepository_ListFiltersByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	first, err := repo.Create(ctx, "a@x.com", "first", domain.TaskVisibilityPublic)
	require.NoError(t, err)
	second, err := repo.Create(ctx, "a@x.com", "second", domain.TaskVisibilityPrivate)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "b@x.com", "not mine", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	tasks, err := repo.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)

	_, err = repo.List(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)
}

func TestTaskRepository_SubscribeDeliversFullSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	seed, err := repo.Create(ctx, "a@x.com", "seed", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	sub, err := repo.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	defer sub.Close()

	tasks := waitTasks(t, sub)
	require.Len(t, tasks, 1)
	assert.Equal(t, seed.ID, tasks[0].ID)

	created, err := repo.Create(ctx, "a@x.com", "new", domain.TaskVisibilityPrivate)
	require.NoError(t, err)

	tasks = waitTasksUntil(t, sub, func(ts []domain.Task) bool { return len(ts) == 2 })
	assert.Equal(t, created.ID, tasks[0].ID, "newest first")
	assert.Equal(t, seed.ID, tasks[1].ID)

	require.NoError(t, repo.Delete(ctx, seed.ID))

	tasks = waitTasksUntil(t, sub, func(ts []domain.Task) bool { return len(ts) == 1 })
	assert.Equal(t, created.ID, tasks[0].ID)
}

func TestTaskRepository_SubscribeRequiresOwner(t *testing.T) {
	repo := repository.NewTaskRepository(store.NewMemoryClient())

	_, err := repo.Subscribe(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingIdentity)
}

func TestTaskRepository_SubscriptionCloseEndsDeliveries(t *testing.T) {
	ctx := context.Background()
	client := store.NewMemoryClient()
	repo := repository.NewTaskRepository(client)

	sub, err := repo.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)

	waitTasks(t, sub) // initial empty snapshot
	sub.Close()

	_, err = repo.Create(ctx, "a@x.com", "after close", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-sub.Snapshots():
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
