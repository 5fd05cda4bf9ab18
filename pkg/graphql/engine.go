package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

// Engine expõe o Service de tarefas como endpoint GraphQL.
type Engine struct {
	Schema graphql.Schema
}

func NewEngine(svc *tasks.Service) (*Engine, error) {
	schema, err := buildSchema(&resolver{svc: svc})
	if err != nil {
		return nil, err
	}
	return &Engine{Schema: schema}, nil
}

// Execute roda o documento. O usuário deve estar no contexto
// (identity.WithUserID); sem ele os resolvers falham com UnauthenticatedError.
func (e *Engine) Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         e.Schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
}
