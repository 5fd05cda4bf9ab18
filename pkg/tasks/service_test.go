package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/raywall/fast-task-service/pkg/storage/memory"
	"github.com/raywall/fast-task-service/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, task tasks.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockStore) Get(ctx context.Context, userID, taskID string) (*tasks.Task, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tasks.Task), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, userID, taskID string, changes tasks.Changes, updatedAt time.Time) (*tasks.Task, error) {
	args := m.Called(ctx, userID, taskID, changes, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tasks.Task), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, userID, taskID string) error {
	return m.Called(ctx, userID, taskID).Error(0)
}

func (m *MockStore) Query(ctx context.Context, userID string, q tasks.Query) ([]tasks.Task, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tasks.Task), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event tasks.Event) error {
	return m.Called(ctx, event).Error(0)
}

type rejectAll struct{}

func (rejectAll) Evaluate(op tasks.Operation, userID string, input map[string]any) error {
	return tasks.Validation("rejected by rule")
}

// --- Helpers ---

// stepClock avança um segundo a cada chamada.
func stepClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%02d", n)
	}
}

func newService(opts ...tasks.Option) (*tasks.Service, *memory.Store) {
	store := memory.New()
	opts = append([]tasks.Option{tasks.WithClock(stepClock()), tasks.WithIDGenerator(seqIDs())}, opts...)
	return tasks.NewService(store, opts...), store
}

func ptr(s string) *string { return &s }

// --- Testes ---

func TestCreate_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: "Buy milk", Description: "2L"})
	require.NoError(t, err)

	assert.Equal(t, "task-01", created.TaskID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, tasks.DefaultStatus, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.Get(ctx, "u1", created.TaskID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

func TestCreate_KeepsExplicitStatus(t *testing.T) {
	svc, _ := newService()

	created, err := svc.Create(context.Background(), "u1", tasks.CreateInput{Title: "x", Status: "in-progress"})
	require.NoError(t, err)
	assert.Equal(t, "in-progress", created.Status)
}

func TestCreate_MissingTitleDoesNotWrite(t *testing.T) {
	store := new(MockStore)
	svc := tasks.NewService(store)

	for _, title := range []string{"", "   "} {
		_, err := svc.Create(context.Background(), "u1", tasks.CreateInput{Title: title})
		require.Error(t, err)
		assert.Equal(t, tasks.ValidationError, tasks.KindOf(err))
		assert.Equal(t, "Missing required field: title", tasks.AsError(err).Message)
	}

	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_StoreFailureIsWrapped(t *testing.T) {
	store := new(MockStore)
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("ProvisionedThroughputExceeded"))
	svc := tasks.NewService(store)

	_, err := svc.Create(context.Background(), "u1", tasks.CreateInput{Title: "x"})

	require.Error(t, err)
	e := tasks.AsError(err)
	assert.Equal(t, tasks.StoreError, e.Kind)
	assert.Equal(t, "Failed to create task", e.Message)
	assert.NotContains(t, e.Message, "Provisioned")
}

func TestCreate_RulesReject(t *testing.T) {
	store := new(MockStore)
	svc := tasks.NewService(store, tasks.WithRules(rejectAll{}))

	_, err := svc.Create(context.Background(), "u1", tasks.CreateInput{Title: "x"})

	assert.Equal(t, tasks.ValidationError, tasks.KindOf(err))
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, "alice", tasks.CreateInput{Title: "private"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", created.TaskID)
	assert.Equal(t, tasks.NotFoundError, tasks.KindOf(err))

	_, err = svc.Update(ctx, "bob", tasks.UpdateInput{TaskID: created.TaskID, Changes: tasks.Changes{Title: ptr("hijack")}})
	assert.Equal(t, tasks.NotFoundError, tasks.KindOf(err))

	_, err = svc.Delete(ctx, "bob", created.TaskID)
	assert.Equal(t, tasks.NotFoundError, tasks.KindOf(err))

	list, err := svc.List(ctx, "bob", tasks.ListInput{})
	require.NoError(t, err)
	assert.Zero(t, list.Count)

	still, err := svc.Get(ctx, "alice", created.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "private", still.Title)
}

func TestUpdate_PartialPreservesOtherFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: "Write docs", Description: "README"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "u1", tasks.UpdateInput{
		TaskID:  created.TaskID,
		Changes: tasks.Changes{Status: ptr("completed")},
	})
	require.NoError(t, err)

	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "Write docs", updated.Title)
	assert.Equal(t, "README", updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdate_NoFieldsOnlyTouchesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: "x"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "u1", tasks.UpdateInput{TaskID: created.TaskID})
	require.NoError(t, err)
	assert.Equal(t, "x", updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdate_Validation(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Update(context.Background(), "u1", tasks.UpdateInput{})
	assert.Equal(t, "Missing required field: taskId", tasks.AsError(err).Message)

	_, err = svc.Update(context.Background(), "u1", tasks.UpdateInput{TaskID: "t", Changes: tasks.Changes{Title: ptr("")}})
	assert.Equal(t, tasks.ValidationError, tasks.KindOf(err))
}

func TestUpdate_MissingIsNotFabricated(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	_, err := svc.Update(ctx, "u1", tasks.UpdateInput{TaskID: "ghost", Changes: tasks.Changes{Title: ptr("x")}})
	assert.Equal(t, tasks.NotFoundError, tasks.KindOf(err))
	assert.Equal(t, "Task not found", tasks.AsError(err).Message)

	_, err = store.Get(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestUpdate_RemovedBetweenGetAndUpdate(t *testing.T) {
	store := new(MockStore)
	existing := &tasks.Task{UserID: "u1", TaskID: "t1", Title: "x"}
	store.On("Get", mock.Anything, "u1", "t1").Return(existing, nil)
	store.On("Update", mock.Anything, "u1", "t1", mock.Anything, mock.Anything).Return(nil, tasks.ErrNotFound)
	svc := tasks.NewService(store)

	_, err := svc.Update(context.Background(), "u1", tasks.UpdateInput{TaskID: "t1", Changes: tasks.Changes{Status: ptr("done")}})

	assert.Equal(t, tasks.NotFoundError, tasks.KindOf(err))
}

func TestDelete_ReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: "Old", Status: "archived"})
	require.NoError(t, err)

	snap, err := svc.Delete(ctx, "u1", created.TaskID)
	require.NoError(t, err)
	assert.Equal(t, tasks.Snapshot{TaskID: created.TaskID, Title: "Old", Status: "archived"}, *snap)

	_, err = svc.Delete(ctx, "u1", created.TaskID)
	assert.Equal(t, tasks.NotFoundError, tasks.KindOf(err))
}

func TestDelete_ConcurrentRemovalStillSucceeds(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "u1", "t1").Return(&tasks.Task{UserID: "u1", TaskID: "t1", Title: "x", Status: "pending"}, nil)
	store.On("Delete", mock.Anything, "u1", "t1").Return(tasks.ErrNotFound)
	svc := tasks.NewService(store)

	snap, err := svc.Delete(context.Background(), "u1", "t1")

	require.NoError(t, err)
	assert.Equal(t, "x", snap.Title)
}

func TestList_OrderFilterLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	for i, status := range []string{"pending", "completed", "pending", "pending"} {
		_, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: fmt.Sprintf("t%d", i), Status: status})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "u1", tasks.ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Count)
	assert.Equal(t, "t3", all.Tasks[0].Title, "mais recente primeiro")

	pending, err := svc.List(ctx, "u1", tasks.ListInput{Status: "pending", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, pending.Count)
	assert.Equal(t, "t3", pending.Tasks[0].Title)
	assert.Equal(t, "t2", pending.Tasks[1].Title)
}

func TestList_LimitBounds(t *testing.T) {
	svc, _ := newService(tasks.WithLimits(10, 50))

	_, err := svc.List(context.Background(), "u1", tasks.ListInput{Limit: 51})
	assert.Equal(t, tasks.ValidationError, tasks.KindOf(err))

	_, err = svc.List(context.Background(), "u1", tasks.ListInput{Limit: -1})
	assert.Equal(t, tasks.ValidationError, tasks.KindOf(err))

	empty, err := svc.List(context.Background(), "u1", tasks.ListInput{Limit: 50})
	require.NoError(t, err)
	assert.NotNil(t, empty.Tasks)
	assert.Equal(t, 50, svc.MaxLimit())
}

func TestList_UsesDefaultLimit(t *testing.T) {
	store := new(MockStore)
	store.On("Query", mock.Anything, "u1", tasks.Query{Status: "", Limit: 100}).Return([]tasks.Task{}, nil)
	svc := tasks.NewService(store)

	_, err := svc.List(context.Background(), "u1", tasks.ListInput{})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestPublish_FailureDoesNotFailOperation(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e tasks.Event) bool {
		return e.Type == tasks.EventCreated && e.UserID == "u1"
	})).Return(errors.New("queue unavailable"))

	svc, _ := newService(tasks.WithPublisher(pub))

	created, err := svc.Create(context.Background(), "u1", tasks.CreateInput{Title: "x"})

	require.NoError(t, err)
	assert.NotEmpty(t, created.TaskID)
	pub.AssertExpectations(t)
}

func TestParseLimit(t *testing.T) {
	n, err := tasks.ParseLimit("")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = tasks.ParseLimit(" 25 ")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	for _, raw := range []string{"abc", "0", "-3", "1.5"} {
		_, err := tasks.ParseLimit(raw)
		assert.Equal(t, tasks.ValidationError, tasks.KindOf(err), raw)
	}
}

func TestOperationForMethod(t *testing.T) {
	op, ok := tasks.OperationForMethod("patch")
	assert.True(t, ok)
	assert.Equal(t, tasks.OpUpdate, op)

	_, ok = tasks.OperationForMethod("OPTIONS")
	assert.False(t, ok)

	parsed, err := tasks.ParseOperation(" Delete ")
	require.NoError(t, err)
	assert.Equal(t, "DELETE", parsed.Method())

	_, err = tasks.ParseOperation("archive")
	assert.Error(t, err)
}
