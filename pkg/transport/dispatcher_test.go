package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/metrics"
	"github.com/raywall/fast-task-service/pkg/responder"
	"github.com/raywall/fast-task-service/pkg/storage/memory"
	"github.com/raywall/fast-task-service/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(store tasks.Store) *tasks.Service {
	seq := 0
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return tasks.NewService(store,
		tasks.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("task-%d", seq)
		}),
		tasks.WithClock(func() time.Time {
			base = base.Add(time.Second)
			return base
		}),
	)
}

func newTestDispatcher(permissive bool, opts ...DispatcherOption) (*Dispatcher, *memory.Store) {
	store := memory.New()
	resolver := identity.NewResolver(config.IdentityConf{Permissive: permissive, FallbackUser: "test-user"})
	return NewDispatcher(newTestService(store), resolver, responder.NewBuilder(config.CORSConf{}, ""), opts...), store
}

func decode(t *testing.T, resp responder.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	return body
}

func TestDispatch_CreateThenList(t *testing.T) {
	d, _ := newTestDispatcher(true)
	ctx := context.Background()

	resp := d.Dispatch(ctx, Request{Method: http.MethodPost, Body: []byte(`{"title":"Buy milk"}`)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode(t, resp)
	assert.Equal(t, true, created["success"])
	assert.Equal(t, "task-1", created["taskId"])
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "test-user", created["userId"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	resp = d.Dispatch(ctx, Request{Method: http.MethodGet})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode(t, resp)
	assert.EqualValues(t, 1, listed["count"])
	assert.Equal(t, "test-user", listed["userId"])
}

func TestDispatch_Preflight(t *testing.T) {
	d, _ := newTestDispatcher(false)

	resp := d.Dispatch(context.Background(), Request{Method: http.MethodOptions})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "Content-Type, Authorization", resp.Headers["Access-Control-Allow-Headers"])
}

func TestDispatch_MissingTitle(t *testing.T) {
	d, store := newTestDispatcher(true)

	resp := d.Dispatch(context.Background(), Request{Method: http.MethodPost, Body: []byte(`{"description":"x"}`)})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Missing required field: title", body["error"])
	assert.Equal(t, "ValidationError", body["kind"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	items, err := store.Query(context.Background(), "test-user", tasks.Query{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDispatch_InvalidJSON(t *testing.T) {
	d, _ := newTestDispatcher(true)

	resp := d.Dispatch(context.Background(), Request{Method: http.MethodPost, Body: []byte(`{not json`)})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Invalid JSON in request body", body["error"])
	assert.Equal(t, "MalformedInputError", body["kind"])
}

func TestDispatch_UpdateTaskIDPrecedence(t *testing.T) {
	d, store := newTestDispatcher(true)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, tasks.Task{UserID: "test-user", TaskID: "from-body", Title: "a", Status: "pending"}))

	// Corpo vence o path no Update
	resp := d.Dispatch(ctx, Request{
		Method:     http.MethodPut,
		PathParams: map[string]string{"taskId": "from-path"},
		Body:       []byte(`{"taskId":"from-body","status":"done"}`),
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	task, err := store.Get(ctx, "test-user", "from-body")
	require.NoError(t, err)
	assert.Equal(t, "done", task.Status)
	assert.Equal(t, "a", task.Title)
}

func TestDispatch_DeleteTaskIDPrecedence(t *testing.T) {
	d, store := newTestDispatcher(true)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, tasks.Task{UserID: "test-user", TaskID: "from-path", Title: "a", Status: "pending"}))

	// Path vence o corpo no Delete
	resp := d.Dispatch(ctx, Request{
		Method:     http.MethodDelete,
		PathParams: map[string]string{"taskId": "from-path"},
		Body:       []byte(`{"taskId":"from-body"}`),
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "from-path", body["taskId"])
	assert.Equal(t, map[string]interface{}{"title": "a", "status": "pending"}, body["deletedTask"])

	resp = d.Dispatch(ctx, Request{Method: http.MethodDelete, PathParams: map[string]string{"taskId": "from-path"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Task not found", decode(t, resp)["error"])
}

func TestDispatch_UpdateMissingTaskID(t *testing.T) {
	d, _ := newTestDispatcher(true)

	resp := d.Dispatch(context.Background(), Request{Method: http.MethodPatch, Body: []byte(`{"title":"x"}`)})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required field: taskId", decode(t, resp)["error"])
}

func TestDispatch_ListLimitValidation(t *testing.T) {
	d, _ := newTestDispatcher(true)

	for _, limit := range []string{"0", "-3", "abc", "1001"} {
		resp := d.Dispatch(context.Background(), Request{Method: http.MethodGet, Query: map[string]string{"limit": limit}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
	}
}

func TestDispatch_ListFilterAndLimit(t *testing.T) {
	d, _ := newTestDispatcher(true)
	ctx := context.Background()
	for i, status := range []string{"pending", "done", "done", "done"} {
		body := fmt.Sprintf(`{"title":"t%d","status":"%s"}`, i, status)
		require.Equal(t, http.StatusOK, d.Dispatch(ctx, Request{Method: http.MethodPost, Body: []byte(body)}).StatusCode)
	}

	resp := d.Dispatch(ctx, Request{Method: http.MethodGet, Query: map[string]string{"status": "done", "limit": "2"}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.EqualValues(t, 2, body["count"])
	items := body["tasks"].([]interface{})
	assert.Equal(t, "t3", items[0].(map[string]interface{})["title"])
	assert.Equal(t, "t2", items[1].(map[string]interface{})["title"])
}

func TestDispatch_IdentityIsolation(t *testing.T) {
	d, _ := newTestDispatcher(false)
	ctx := context.Background()
	alice := identity.Signals{Claims: map[string]interface{}{"sub": "alice"}}
	bob := identity.Signals{PayloadUserID: "bob"}

	resp := d.Dispatch(ctx, Request{Method: http.MethodPost, Identity: alice, Body: []byte(`{"title":"secret"}`)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	taskID := decode(t, resp)["taskId"].(string)

	resp = d.Dispatch(ctx, Request{Method: http.MethodDelete, Identity: bob, PathParams: map[string]string{"taskId": taskID}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = d.Dispatch(ctx, Request{Method: http.MethodGet, Identity: bob})
	assert.EqualValues(t, 0, decode(t, resp)["count"])
}

func TestDispatch_StrictIdentity(t *testing.T) {
	d, _ := newTestDispatcher(false)

	resp := d.Dispatch(context.Background(), Request{Method: http.MethodGet})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UnauthenticatedError", decode(t, resp)["kind"])
}

func TestDispatch_PinnedOperationIgnoresMethod(t *testing.T) {
	d, _ := newTestDispatcher(true, WithOperation(tasks.OpCreate))

	resp := d.Dispatch(context.Background(), Request{Method: "", Body: []byte(`{"title":"direct"}`)})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "direct", decode(t, resp)["title"])
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d, _ := newTestDispatcher(true)

	resp := d.Dispatch(context.Background(), Request{Method: "TRACE"})

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type recordingProvider struct {
	mock.Mock
}

func (m *recordingProvider) Count(name string, value float64, tags []string) error {
	return m.Called(name, value, tags).Error(0)
}

func (m *recordingProvider) Gauge(name string, value float64, tags []string) error {
	return m.Called(name, value, tags).Error(0)
}

func (m *recordingProvider) Histogram(name string, value float64, tags []string) error {
	return m.Called(name, value, tags).Error(0)
}

func TestDispatch_RecordsMetrics(t *testing.T) {
	provider := new(recordingProvider)
	tags := []string{"operation:list", "status:200"}
	provider.On("Count", metrics.MetricRequests, 1.0, tags).Return(nil).Once()
	provider.On("Histogram", metrics.MetricLatency, mock.AnythingOfType("float64"), tags).Return(nil).Once()

	d, _ := newTestDispatcher(true, WithRecorder(metrics.NewRecorder(provider)))
	d.Dispatch(context.Background(), Request{Method: http.MethodGet})

	provider.AssertExpectations(t)
}
