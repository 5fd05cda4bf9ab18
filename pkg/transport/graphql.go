package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/responder"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

// GraphQLExecutor executa documentos GraphQL sobre o mesmo Service.
type GraphQLExecutor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result
}

type graphQLBody struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// DispatchGraphQL resolve a identidade uma vez e a entrega aos resolvers pelo
// contexto. Erros de campo seguem no corpo GraphQL com status 200.
func (d *Dispatcher) DispatchGraphQL(ctx context.Context, exec GraphQLExecutor, req Request) responder.Response {
	if responder.IsPreflight(req.Method) {
		return d.responses.Preflight()
	}

	start := time.Now()
	resp := d.runGraphQL(ctx, exec, req)
	if d.recorder != nil {
		d.recorder.RecordRequest("graphql", resp.StatusCode, time.Since(start))
	}
	return resp
}

func (d *Dispatcher) runGraphQL(ctx context.Context, exec GraphQLExecutor, req Request) responder.Response {
	userID, err := d.resolver.Resolve(ctx, req.Identity)
	if err != nil {
		return d.fail(ctx, err)
	}

	var body graphQLBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return d.fail(ctx, malformedBody(err))
	}
	if body.Query == "" {
		return d.fail(ctx, tasks.Validation("Missing required field: query"))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result := exec.Execute(identity.WithUserID(ctx, userID), body.Query, body.Variables)
	return d.responses.JSON(200, result)
}
