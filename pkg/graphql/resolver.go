package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

type resolver struct {
	svc *tasks.Service
}

func (r *resolver) tasks(p graphql.ResolveParams) (interface{}, error) {
	userID, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}

	limit, _ := p.Args["limit"].(int)
	status, _ := p.Args["status"].(string)
	result, err := r.svc.List(p.Context, userID, tasks.ListInput{Status: status, Limit: limit})
	return result, fieldError(err)
}

func (r *resolver) task(p graphql.ResolveParams) (interface{}, error) {
	userID, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}

	task, err := r.svc.Get(p.Context, userID, stringArg(p.Args, "taskId"))
	return task, fieldError(err)
}

func (r *resolver) createTask(p graphql.ResolveParams) (interface{}, error) {
	userID, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}

	task, err := r.svc.Create(p.Context, userID, tasks.CreateInput{
		Title:       stringArg(p.Args, "title"),
		Description: stringArg(p.Args, "description"),
		Status:      stringArg(p.Args, "status"),
	})
	return task, fieldError(err)
}

func (r *resolver) updateTask(p graphql.ResolveParams) (interface{}, error) {
	userID, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}

	task, err := r.svc.Update(p.Context, userID, tasks.UpdateInput{
		TaskID: stringArg(p.Args, "taskId"),
		Changes: tasks.Changes{
			Title:       optionalArg(p.Args, "title"),
			Description: optionalArg(p.Args, "description"),
			Status:      optionalArg(p.Args, "status"),
		},
	})
	return task, fieldError(err)
}

func (r *resolver) deleteTask(p graphql.ResolveParams) (interface{}, error) {
	userID, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}

	snap, err := r.svc.Delete(p.Context, userID, stringArg(p.Args, "taskId"))
	return snap, fieldError(err)
}

func currentUser(ctx context.Context) (string, error) {
	if ctx != nil {
		if id, ok := identity.UserIDFrom(ctx); ok {
			return id, nil
		}
	}
	return "", fieldError(tasks.Unauthenticated("Unable to resolve user identity"))
}

// Error expõe apenas a mensagem segura e o kind em extensions.
type Error struct {
	Kind    tasks.Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"kind": string(e.Kind)}
}

// fieldError converte falhas do Service; nil continua nil.
func fieldError(err error) error {
	if err == nil {
		return nil
	}
	e := tasks.AsError(err)
	return &Error{Kind: e.Kind, Message: e.Message}
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

// optionalArg distingue argumento ausente de string vazia.
func optionalArg(args map[string]interface{}, name string) *string {
	s, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &s
}
