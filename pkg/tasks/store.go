package tasks

import (
	"context"
	"sort"
	"time"
)

// Query filtra a listagem de uma partição.
type Query struct {
	Status string
	Limit  int
}

// Store é o contrato dos adaptadores de persistência.
//
// Put é um upsert incondicional. Update falha com ErrNotFound quando a chave
// não existe e devolve o registro completo após a escrita. Delete é
// idempotente. Query devolve as tarefas mais recentes primeiro (createdAt
// desc), filtradas por status quando informado e truncadas em Limit.
type Store interface {
	Put(ctx context.Context, task Task) error
	Get(ctx context.Context, userID, taskID string) (*Task, error)
	Update(ctx context.Context, userID, taskID string, changes Changes, updatedAt time.Time) (*Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	Query(ctx context.Context, userID string, q Query) ([]Task, error)
}

// Publisher recebe eventos de mudança após mutações bem sucedidas.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RuleEvaluator avalia regras de entrada antes de create/update.
type RuleEvaluator interface {
	Evaluate(op Operation, userID string, input map[string]any) error
}

// EventType identifica o tipo de mudança publicada.
type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// Event descreve uma mutação concluída.
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"userId"`
	TaskID     string    `json:"taskId"`
	Task       *Task     `json:"task,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Newest aplica o filtro de status, ordena por createdAt desc e trunca em
// q.Limit. Usado por adaptadores cuja chave não ordena cronologicamente.
func Newest(items []Task, q Query) []Task {
	out := make([]Task, 0, len(items))
	for _, t := range items {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TaskID > out[j].TaskID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
