package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_ServerBootstrap(t *testing.T) {
	path := writeConfig(t, `
service:
  name: boot-test
  runtime: local
  port: 9999
  route: /api/tasks
  timeout: 1s
storage:
  backend: memory
identity:
  permissive: true
  fallback_user: boot-user
logging:
  level: error
graphql:
  route: /graphql
`)

	var handler http.Handler
	originalStarter := serverStarter
	serverStarter = func(ctx context.Context, h http.Handler, port int) error {
		assert.Equal(t, 9999, port)
		handler = h
		return nil
	}
	defer func() { serverStarter = originalStarter }()

	require.NoError(t, run(context.Background(), path))
	require.NotNil(t, handler, "o servidor HTTP não foi iniciado")

	// O handler entregue ao servidor já atende a rota configurada
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"boot"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"boot-user"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ tasks { count } }"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"tasks":{"count":1}}}`, rec.Body.String())
}

func TestRun_LambdaBootstrap(t *testing.T) {
	path := writeConfig(t, `
service:
  runtime: lambda
  operation: list
storage:
  backend: memory
logging:
  enabled: false
`)

	var started interface{}
	originalStarter := lambdaStarter
	lambdaStarter = func(handler interface{}) { started = handler }
	defer func() { lambdaStarter = originalStarter }()

	require.NoError(t, run(context.Background(), path))
	assert.NotNil(t, started)
}

func TestRun_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  runtime: kubernetes
storage:
  backend: memory
`)

	err := run(context.Background(), path)
	assert.Error(t, err)
}

func TestRun_MissingFile(t *testing.T) {
	err := run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
