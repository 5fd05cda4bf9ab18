package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// CreateInput é o payload de criação.
type CreateInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateInput é o payload de atualização parcial.
type UpdateInput struct {
	TaskID  string `validate:"required"`
	Changes Changes
}

// ListInput filtra a listagem. Limit zero usa o padrão configurado.
type ListInput struct {
	Status string
	Limit  int
}

// Service implementa as operações de ciclo de vida sobre um Store.
type Service struct {
	store        Store
	publisher    Publisher
	rules        RuleEvaluator
	validate     *validator.Validate
	now          func() time.Time
	newID        func() string
	defaultLimit int
	maxLimit     int
}

type Option func(*Service)

// WithPublisher habilita a publicação de eventos de mudança.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRules habilita a avaliação de regras de entrada.
func WithRules(r RuleEvaluator) Option {
	return func(s *Service) { s.rules = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithLimits define o limite padrão e o máximo aceito em List.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		validate:     validator.New(),
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:        uuid.NewString,
		defaultLimit: DefaultListLimit,
		maxLimit:     MaxListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxLimit é o maior limit aceito em List.
func (s *Service) MaxLimit() int {
	return s.maxLimit
}

// Create grava uma nova tarefa com taskId gerado no servidor.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*Task, error) {
	if err := s.validate.Struct(in); err != nil || strings.TrimSpace(in.Title) == "" {
		return nil, Validation("Missing required field: title")
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}

	if err := s.evaluate(OpCreate, userID, map[string]any{
		"title":       in.Title,
		"description": in.Description,
		"status":      in.Status,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	task := Task{
		UserID:      userID,
		TaskID:      s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Put(ctx, task); err != nil {
		return nil, StoreFailure("Failed to create task", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("task_id", task.TaskID).
		Msg("task created")

	s.publish(ctx, EventCreated, &task)
	return &task, nil
}

// List devolve as tarefas do usuário, mais recentes primeiro.
func (s *Service) List(ctx context.Context, userID string, in ListInput) (*ListResult, error) {
	limit := in.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 || limit > s.maxLimit {
		return nil, Validation(fmt.Sprintf("limit must be between 1 and %d", s.maxLimit))
	}

	items, err := s.store.Query(ctx, userID, Query{Status: in.Status, Limit: limit})
	if err != nil {
		return nil, StoreFailure("Failed to list tasks", err)
	}
	if items == nil {
		items = []Task{}
	}

	return &ListResult{Tasks: items, Count: len(items)}, nil
}

// Get devolve uma tarefa do usuário.
func (s *Service) Get(ctx context.Context, userID, taskID string) (*Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, Validation("Missing required field: taskId")
	}

	task, err := s.store.Get(ctx, userID, taskID)
	if errors.Is(err, ErrNotFound) {
		return nil, NotFound("Task not found")
	}
	if err != nil {
		return nil, StoreFailure("Failed to get task", err)
	}
	return task, nil
}

// Update aplica somente os campos presentes e renova updatedAt.
func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (*Task, error) {
	if err := s.validate.Struct(in); err != nil || strings.TrimSpace(in.TaskID) == "" {
		return nil, Validation("Missing required field: taskId")
	}
	if in.Changes.Title != nil && strings.TrimSpace(*in.Changes.Title) == "" {
		return nil, Validation("Field title cannot be empty")
	}

	if _, err := s.Get(ctx, userID, in.TaskID); err != nil {
		return nil, err
	}

	input := in.Changes.Fields()
	input["taskId"] = in.TaskID
	if err := s.evaluate(OpUpdate, userID, input); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, userID, in.TaskID, in.Changes, s.now())
	if errors.Is(err, ErrNotFound) {
		// Removida entre o Get e o Update
		return nil, NotFound("Task not found")
	}
	if err != nil {
		return nil, StoreFailure("Failed to update task", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("task_id", in.TaskID).
		Msg("task updated")

	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

// Delete remove a tarefa e devolve um snapshot de title e status.
func (s *Service) Delete(ctx context.Context, userID, taskID string) (*Snapshot, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, userID, taskID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, StoreFailure("Failed to delete task", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("task_id", taskID).
		Msg("task deleted")

	s.publish(ctx, EventDeleted, task)
	return &Snapshot{TaskID: task.TaskID, Title: task.Title, Status: task.Status}, nil
}

// ParseLimit converte o parâmetro textual limit. Vazio devolve zero.
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, Validation("limit must be a positive integer")
	}
	return n, nil
}

func (s *Service) evaluate(op Operation, userID string, input map[string]any) error {
	if s.rules == nil {
		return nil
	}
	return s.rules.Evaluate(op, userID, input)
}

// publish nunca falha a operação; erros são apenas registrados.
func (s *Service) publish(ctx context.Context, typ EventType, task *Task) {
	if s.publisher == nil {
		return
	}

	event := Event{
		Type:       typ,
		UserID:     task.UserID,
		TaskID:     task.TaskID,
		Task:       task,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("event", string(typ)).
			Str("task_id", task.TaskID).
			Msg("failed to publish task event")
	}
}
