// Package dynamo implementa tasks.Store sobre a tabela DynamoDB
// (userId HASH, taskId RANGE) usando o pacote dyndb.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raywall/fast-task-service/dyndb"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

const (
	hashKey = "userId"
	sortKey = "taskId"
)

type Store struct {
	table dyndb.Store[tasks.Task]
}

// New cria o adaptador sobre um cliente DynamoDB já configurado.
func New(client dyndb.DynamoDBClient, tableName string) *Store {
	return &Store{
		table: dyndb.New(client, dyndb.TableConfig[tasks.Task]{
			TableName: tableName,
			HashKey:   hashKey,
			SortKey:   sortKey,
		}),
	}
}

func (s *Store) Put(ctx context.Context, task tasks.Task) error {
	return s.table.Put(ctx, task)
}

func (s *Store) Get(ctx context.Context, userID, taskID string) (*tasks.Task, error) {
	task, err := s.table.Get(ctx, userID, taskID)
	if errors.Is(err, dyndb.ErrNotFound) {
		return nil, tasks.ErrNotFound
	}
	return task, err
}

// Update usa attribute_exists(userId) para nunca recriar uma tarefa removida.
func (s *Store) Update(ctx context.Context, userID, taskID string, changes tasks.Changes, updatedAt time.Time) (*tasks.Task, error) {
	fields := changes.Fields()
	fields["updatedAt"] = updatedAt

	task, err := s.table.Update(ctx, userID, taskID, fields, dyndb.RequireExisting())
	if errors.Is(err, dyndb.ErrConditionFailed) {
		return nil, tasks.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) Delete(ctx context.Context, userID, taskID string) error {
	return s.table.Delete(ctx, userID, taskID)
}

// Query lê a partição inteira: taskId é UUID aleatório e não ordena por
// criação, então a ordenação por createdAt é feita aqui.
func (s *Store) Query(ctx context.Context, userID string, q tasks.Query) ([]tasks.Task, error) {
	qb := s.table.Query().KeyEqual(hashKey, userID)
	if q.Status != "" {
		qb = qb.FilterEqual("status", q.Status)
	}

	items, err := qb.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query tasks for %s: %w", userID, err)
	}
	return tasks.Newest(items, q), nil
}
