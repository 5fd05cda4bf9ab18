package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/metrics"
	"github.com/raywall/fast-task-service/pkg/responder"
	"github.com/raywall/fast-task-service/pkg/tasks"
	"github.com/rs/zerolog"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

// Request é a forma neutra de uma requisição, montada pelo adaptador Lambda
// ou pelo servidor HTTP.
type Request struct {
	Method     string
	Path       string
	Headers    map[string]string
	Query      map[string]string
	PathParams map[string]string
	Body       []byte
	Identity   identity.Signals
}

// Dispatcher liga uma requisição à operação correspondente do Service.
type Dispatcher struct {
	svc       *tasks.Service
	resolver  *identity.Resolver
	responses *responder.Builder
	recorder  *metrics.Recorder
	pinned    tasks.Operation
	timeout   time.Duration
}

// DispatcherOption configura o Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithOperation fixa a operação (deploy de uma função por operação).
func WithOperation(op tasks.Operation) DispatcherOption {
	return func(d *Dispatcher) { d.pinned = op }
}

func WithRecorder(r *metrics.Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = timeout }
}

func NewDispatcher(svc *tasks.Service, resolver *identity.Resolver, responses *responder.Builder, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		svc:       svc,
		resolver:  resolver,
		responses: responses,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Responses expõe o builder usado pelo dispatcher.
func (d *Dispatcher) Responses() *responder.Builder {
	return d.responses
}

// Operation decide a operação: a fixada vence; sem ela, roteia pelo verbo.
func (d *Dispatcher) Operation(method string) (tasks.Operation, bool) {
	if d.pinned != "" {
		return d.pinned, true
	}
	return tasks.OperationForMethod(method)
}

// Dispatch executa a requisição e devolve sempre uma resposta pronta; falhas
// viram respostas de erro com headers CORS.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) responder.Response {
	if responder.IsPreflight(req.Method) {
		return d.responses.Preflight()
	}

	start := time.Now()
	op, ok := d.Operation(req.Method)
	if !ok {
		return d.responses.JSON(http.StatusMethodNotAllowed, map[string]interface{}{
			"success": false,
			"kind":    tasks.ValidationError,
			"error":   "Method not allowed",
		})
	}

	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("operation", string(op))
	})

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp := d.run(ctx, op, req)
	if d.recorder != nil {
		d.recorder.RecordRequest(string(op), resp.StatusCode, time.Since(start))
	}
	return resp
}

func (d *Dispatcher) run(ctx context.Context, op tasks.Operation, req Request) responder.Response {
	userID, err := d.resolver.Resolve(ctx, req.Identity)
	if err != nil {
		return d.fail(ctx, err)
	}

	switch op {
	case tasks.OpCreate:
		var in tasks.CreateInput
		if err := decodeBody(req.Body, &in); err != nil {
			return d.fail(ctx, err)
		}
		task, err := d.svc.Create(ctx, userID, in)
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.responses.TaskCreated(task)

	case tasks.OpList:
		limit, err := tasks.ParseLimit(req.Query["limit"])
		if err != nil {
			return d.fail(ctx, err)
		}
		result, err := d.svc.List(ctx, userID, tasks.ListInput{Status: req.Query["status"], Limit: limit})
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.responses.TaskList(userID, result)

	case tasks.OpUpdate:
		var body updateBody
		if err := decodeBody(req.Body, &body); err != nil {
			return d.fail(ctx, err)
		}
		// Update: corpo antes do path
		taskID := firstNonEmpty(body.TaskID, req.PathParams["taskId"])
		task, err := d.svc.Update(ctx, userID, tasks.UpdateInput{
			TaskID: taskID,
			Changes: tasks.Changes{
				Title:       body.Title,
				Description: body.Description,
				Status:      body.Status,
			},
		})
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.responses.TaskUpdated(task)

	case tasks.OpDelete:
		var body deleteBody
		if err := decodeBody(req.Body, &body); err != nil {
			return d.fail(ctx, err)
		}
		// Delete: path antes do corpo
		taskID := firstNonEmpty(req.PathParams["taskId"], body.TaskID)
		snap, err := d.svc.Delete(ctx, userID, taskID)
		if err != nil {
			return d.fail(ctx, err)
		}
		return d.responses.TaskDeleted(snap)
	}

	return d.fail(ctx, tasks.Validation("Unsupported operation"))
}

// fail registra a causa completa e devolve apenas a mensagem segura.
func (d *Dispatcher) fail(ctx context.Context, err error) responder.Response {
	e := tasks.AsError(err)
	event := zerolog.Ctx(ctx).Warn()
	if e.Kind == tasks.StoreError {
		event = zerolog.Ctx(ctx).Error()
	}
	event.Err(err).Str("kind", string(e.Kind)).Msg("operation failed")
	return d.responses.Error(e)
}

type updateBody struct {
	TaskID      string  `json:"taskId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type deleteBody struct {
	TaskID string `json:"taskId"`
}

// decodeBody aceita corpo vazio como objeto vazio.
func decodeBody(raw []byte, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return malformedBody(err)
	}
	return nil
}

func malformedBody(err error) error {
	return tasks.Malformed("Invalid JSON in request body", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
