// Package postgres implementa tasks.Store numa tabela Postgres com chave
// primária (user_id, task_id).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

const columns = "user_id, task_id, title, description, status, created_at, updated_at"

type Store struct {
	db    *sql.DB
	table string
}

// Open abre a conexão com o driver lib/pq.
func Open(dsn, table string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir conexão SQL: %w", err)
	}
	return New(db, table), nil
}

func New(db *sql.DB, table string) *Store {
	if table == "" {
		table = "tasks"
	}
	return &Store{db: db, table: table}
}

// DB expõe a conexão (usado pelo taskctl e para Close).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Schema devolve o DDL da tabela e do índice de listagem.
func Schema(table string) string {
	quoted := pq.QuoteIdentifier(table)
	index := pq.QuoteIdentifier(table + "_user_created_idx")
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	user_id     TEXT        NOT NULL,
	task_id     TEXT        NOT NULL,
	title       TEXT        NOT NULL,
	description TEXT        NOT NULL DEFAULT '',
	status      TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, task_id)
);
CREATE INDEX IF NOT EXISTS %s ON %s (user_id, created_at DESC);
`, quoted, index, quoted)
}

// EnsureSchema cria tabela e índice se ainda não existirem.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema(s.table)); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, task tasks.Task) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, task_id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	status = EXCLUDED.status,
	created_at = EXCLUDED.created_at,
	updated_at = EXCLUDED.updated_at`, pq.QuoteIdentifier(s.table), columns)

	_, err := s.db.ExecContext(ctx, query,
		task.UserID, task.TaskID, task.Title, task.Description, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: put task: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, taskID string) (*tasks.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1 AND task_id = $2", columns, pq.QuoteIdentifier(s.table))

	task, err := scanTask(s.db.QueryRowContext(ctx, query, userID, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tasks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get task: %w", err)
	}
	return task, nil
}

// Update só altera linhas existentes; nenhuma linha afetada vira ErrNotFound.
func (s *Store) Update(ctx context.Context, userID, taskID string, changes tasks.Changes, updatedAt time.Time) (*tasks.Task, error) {
	query, args := buildUpdate(s.table, userID, taskID, changes, updatedAt)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tasks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: update task: %w", err)
	}
	return task, nil
}

func (s *Store) Delete(ctx context.Context, userID, taskID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND task_id = $2", pq.QuoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, query, userID, taskID); err != nil {
		return fmt.Errorf("postgres: delete task: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, userID string, q tasks.Query) ([]tasks.Task, error) {
	query, args := buildQuery(s.table, userID, q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query tasks: %w", err)
	}
	defer rows.Close()

	items := []tasks.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan task: %w", err)
		}
		items = append(items, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query tasks: %w", err)
	}
	return items, nil
}

func buildUpdate(table, userID, taskID string, changes tasks.Changes, updatedAt time.Time) (string, []any) {
	args := []any{userID, taskID}
	var sets []string

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Description != nil {
		add("description", *changes.Description)
	}
	if changes.Status != nil {
		add("status", *changes.Status)
	}
	add("updated_at", updatedAt)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE user_id = $1 AND task_id = $2 RETURNING %s",
		pq.QuoteIdentifier(table), strings.Join(sets, ", "), columns)
	return query, args
}

func buildQuery(table, userID string, q tasks.Query) (string, []any) {
	args := []any{userID}
	where := "user_id = $1"
	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, task_id DESC",
		columns, pq.QuoteIdentifier(table), where)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*tasks.Task, error) {
	var t tasks.Task
	if err := row.Scan(&t.UserID, &t.TaskID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
