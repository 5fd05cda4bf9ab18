// Package redis implementa tasks.Store no Redis.
//
// Cada tarefa é um JSON em task:{userId}:{taskId}; o índice da partição é o
// sorted set tasks:{userId}, com score igual ao createdAt em milissegundos.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raywall/fast-task-service/pkg/tasks"
	goredis "github.com/redis/go-redis/v9"
)

type Store struct {
	client goredis.UniversalClient
}

func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// NewClient cria o cliente a partir de endereço, senha e DB.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func taskKey(userID, taskID string) string {
	return fmt.Sprintf("task:%s:%s", userID, taskID)
}

func indexKey(userID string) string {
	return fmt.Sprintf("tasks:%s", userID)
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func (s *Store) Put(ctx context.Context, task tasks.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("redis: marshal task: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, taskKey(task.UserID, task.TaskID), data, 0)
		p.ZAdd(ctx, indexKey(task.UserID), goredis.Z{Score: score(task.CreatedAt), Member: task.TaskID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: put task: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, taskID string) (*tasks.Task, error) {
	raw, err := s.client.Get(ctx, taskKey(userID, taskID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, tasks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get task: %w", err)
	}
	return decode(raw)
}

// Update faz read-modify-write sob WATCH; uma escrita concorrente na mesma
// chave aborta a transação com erro.
func (s *Store) Update(ctx context.Context, userID, taskID string, changes tasks.Changes, updatedAt time.Time) (*tasks.Task, error) {
	key := taskKey(userID, taskID)
	var result *tasks.Task

	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return tasks.ErrNotFound
		}
		if err != nil {
			return err
		}

		task, err := decode(raw)
		if err != nil {
			return err
		}
		changes.Apply(task, updatedAt)

		data, err := json.Marshal(task)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = task
		return nil
	}, key)

	if errors.Is(err, tasks.ErrNotFound) {
		return nil, tasks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: update task: %w", err)
	}
	return result, nil
}

func (s *Store) Delete(ctx context.Context, userID, taskID string) error {
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, taskKey(userID, taskID))
		p.ZRem(ctx, indexKey(userID), taskID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: delete task: %w", err)
	}
	return nil
}

// Query percorre o índice do mais novo para o mais antigo. Sem filtro de
// status basta ler os primeiros Limit membros.
func (s *Store) Query(ctx context.Context, userID string, q tasks.Query) ([]tasks.Task, error) {
	stop := int64(-1)
	if q.Status == "" && q.Limit > 0 {
		stop = int64(q.Limit - 1)
	}

	ids, err := s.client.ZRevRange(ctx, indexKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read index: %w", err)
	}
	if len(ids) == 0 {
		return []tasks.Task{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(userID, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read tasks: %w", err)
	}

	items := make([]tasks.Task, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Índice aponta para chave já removida
			continue
		}
		task, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		items = append(items, *task)
	}

	return tasks.Newest(items, q), nil
}

func decode(raw []byte) (*tasks.Task, error) {
	var task tasks.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("redis: decode task: %w", err)
	}
	return &task, nil
}
