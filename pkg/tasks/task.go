package tasks

import (
	"time"
)

// DefaultStatus é aplicado quando Create não recebe status.
const DefaultStatus = "pending"

// Task é o item de tarefa de um usuário. (UserID, TaskID) é a única chave.
type Task struct {
	UserID      string    `json:"userId" dynamodbav:"userId"`
	TaskID      string    `json:"taskId" dynamodbav:"taskId"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	Status      string    `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// Changes carrega apenas os campos presentes num Update parcial.
type Changes struct {
	Title       *string
	Description *string
	Status      *string
}

// Empty indica que nenhum campo editável foi informado.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil
}

// Fields devolve os atributos presentes com o nome persistido.
func (c Changes) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if c.Title != nil {
		fields["title"] = *c.Title
	}
	if c.Description != nil {
		fields["description"] = *c.Description
	}
	if c.Status != nil {
		fields["status"] = *c.Status
	}
	return fields
}

// Apply aplica as mudanças e o novo updatedAt sobre t.
func (c Changes) Apply(t *Task, updatedAt time.Time) {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	t.UpdatedAt = updatedAt
}

// Snapshot é o resumo devolvido por Delete.
type Snapshot struct {
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// ListResult é o resultado de List: tarefas mais recentes primeiro.
type ListResult struct {
	Tasks []Task `json:"tasks"`
	Count int    `json:"count"`
}
