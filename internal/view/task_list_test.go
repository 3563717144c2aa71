package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/store"
	"taskboard/internal/view"
)

// waitListUntil drains the view's update stream until a delivered projection
// satisfies the predicate. Delivery is latest-wins, so intermediate
// projections may never be observed.
func waitListUntil(t *testing.T, list *view.TaskList, ok func([]domain.Task) bool) []domain.Task {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tasks, open := <-list.Updates():
			require.True(t, open, "update stream closed unexpectedly")
			if ok(tasks) {
				return tasks
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching projection")
			return nil
		}
	}
}

func newListFixture(t *testing.T) (*repository.TaskRepository, *store.MemoryClient) {
	t.Helper()
	client := store.NewMemoryClient()
	return repository.NewTaskRepository(client), client
}

func TestTaskList_StatesAcrossStart(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	assert.Equal(t, view.StateUninitialized, list.State())
	assert.Empty(t, list.Tasks())

	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	waitListUntil(t, list, func([]domain.Task) bool { return true })
	assert.Equal(t, view.StateSynced, list.State())
}

func TestTaskList_CreateShowsUpThroughSubscription(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	created, err := list.Create(ctx, "buy milk", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	tasks := waitListUntil(t, list, func(ts []domain.Task) bool { return len(ts) == 1 })
	assert.Equal(t, created.ID, tasks[0].ID)
	assert.Equal(t, "buy milk", tasks[0].Body)
}

func TestTaskList_ProjectionReplacedWholesale(t *testing.T) {
	ctx := context.Background()
	repo, client := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	first, err := list.Create(ctx, "first", domain.TaskVisibilityPublic)
	require.NoError(t, err)
	second, err := list.Create(ctx, "second", domain.TaskVisibilityPrivate)
	require.NoError(t, err)

	waitListUntil(t, list, func(ts []domain.Task) bool { return len(ts) == 2 })

	// Remove a task out of band. The projection must converge on the store's
	// truth, not diff against its previous contents.
	require.NoError(t, client.Delete(ctx, repository.TasksCollection, first.ID))

	tasks := waitListUntil(t, list, func(ts []domain.Task) bool { return len(ts) == 1 })
	assert.Equal(t, second.ID, tasks[0].ID)
}

func TestTaskList_ExcludesOtherOwners(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	_, err := repo.Create(ctx, "b@x.com", "not mine", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	mine, err := list.Create(ctx, "mine", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	tasks := waitListUntil(t, list, func(ts []domain.Task) bool { return len(ts) == 1 })
	assert.Equal(t, mine.ID, tasks[0].ID)
}

func TestTaskList_DeleteRemovesLocally(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	created, err := list.Create(ctx, "doomed", domain.TaskVisibilityPublic)
	require.NoError(t, err)
	waitListUntil(t, list, func(ts []domain.Task) bool { return len(ts) == 1 })

	require.NoError(t, list.Delete(ctx, created.ID))
	assert.Empty(t, list.Tasks(), "removed from the projection without waiting for a delivery")

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskList_DeleteUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	assert.NoError(t, list.Delete(ctx, "not-in-projection"))
}

func TestTaskList_CreateValidationSurfaces(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))
	defer list.Stop()

	_, err := list.Create(ctx, "", domain.TaskVisibilityPublic)
	assert.ErrorIs(t, err, domain.ErrEmptyBody)
}

func TestTaskList_StopClosesUpdates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newListFixture(t)

	list := view.NewTaskList(repo, "a@x.com")
	require.NoError(t, list.Start(ctx))

	waitListUntil(t, list, func([]domain.Task) bool { return true })
	list.Stop()
	list.Stop() // idempotent

	// A write after Stop must not resurrect deliveries.
	_, err := repo.Create(ctx, "a@x.com", "late", domain.TaskVisibilityPublic)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-list.Updates():
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
