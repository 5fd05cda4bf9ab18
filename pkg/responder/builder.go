package responder

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

// Builder monta as respostas de cada operação com os headers CORS.
type Builder struct {
	headers map[string]string
	now     func() time.Time
}

// NewBuilder cria o builder. Com op definido (deploy de uma operação só) o
// Allow-Methods anuncia apenas o verbo dela; vazio anuncia todos.
func NewBuilder(cors config.CORSConf, op tasks.Operation) *Builder {
	methods := "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	if op != "" {
		methods = op.Method() + ", OPTIONS"
	}

	origin := cors.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	allowHeaders := cors.AllowHeaders
	if allowHeaders == "" {
		allowHeaders = "Content-Type, Authorization"
	}

	return &Builder{
		headers: map[string]string{
			"Access-Control-Allow-Origin":  origin,
			"Access-Control-Allow-Methods": methods,
			"Access-Control-Allow-Headers": allowHeaders,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Preflight responde OPTIONS: 200, corpo vazio e headers CORS.
func (b *Builder) Preflight() Response {
	return Response{StatusCode: http.StatusOK, Headers: b.baseHeaders()}
}

func (b *Builder) TaskCreated(task *tasks.Task) Response {
	return b.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"taskId":      task.TaskID,
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"userId":      task.UserID,
		"createdAt":   task.CreatedAt,
		"updatedAt":   task.UpdatedAt,
		"message":     "Task created successfully",
	})
}

func (b *Builder) TaskList(userID string, result *tasks.ListResult) Response {
	return b.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"tasks":     result.Tasks,
		"count":     result.Count,
		"userId":    userID,
		"timestamp": b.now(),
	})
}

func (b *Builder) TaskUpdated(task *tasks.Task) Response {
	return b.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    task,
		"message": "Task updated successfully",
	})
}

func (b *Builder) TaskDeleted(snap *tasks.Snapshot) Response {
	return b.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"taskId":  snap.TaskID,
		"deletedTask": map[string]string{
			"title":  snap.Title,
			"status": snap.Status,
		},
		"message": "Task deleted successfully",
	})
}

// Error mapeia o Kind para o status HTTP. Apenas a mensagem segura do
// *tasks.Error é exposta; a causa original nunca vai para o corpo.
func (b *Builder) Error(err error) Response {
	e := tasks.AsError(err)
	return b.JSON(StatusFor(e.Kind), map[string]interface{}{
		"success":   false,
		"kind":      e.Kind,
		"error":     e.Message,
		"timestamp": b.now(),
	})
}

// JSON serializa body com os headers padrão.
func (b *Builder) JSON(status int, body interface{}) Response {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"success":false,"kind":"StoreError","error":"Internal error"}`)
	}

	headers := b.baseHeaders()
	headers["Content-Type"] = "application/json"
	return Response{StatusCode: status, Headers: headers, Body: data}
}

func (b *Builder) baseHeaders() map[string]string {
	h := make(map[string]string, len(b.headers)+1)
	for k, v := range b.headers {
		h[k] = v
	}
	return h
}

// StatusFor devolve o status HTTP de cada Kind.
func StatusFor(kind tasks.Kind) int {
	switch kind {
	case tasks.ValidationError, tasks.MalformedInputError:
		return http.StatusBadRequest
	case tasks.NotFoundError:
		return http.StatusNotFound
	case tasks.UnauthenticatedError:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsPreflight informa se o método é OPTIONS.
func IsPreflight(method string) bool {
	return strings.EqualFold(method, http.MethodOptions)
}
