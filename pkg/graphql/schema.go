package graphql

import (
	"github.com/graphql-go/graphql"
)

// buildSchema monta o schema fixo de tarefas sobre os resolvers.
func buildSchema(r *resolver) (graphql.Schema, error) {
	// 1. Tipos
	taskType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Task",
		Description: "Tarefa de um usuário",
		Fields: graphql.Fields{
			"taskId":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt":   &graphql.Field{Type: graphql.DateTime},
			"updatedAt":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	taskListType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TaskList",
		Fields: graphql.Fields{
			"tasks": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(taskType)))},
			"count": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	deletedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeletedTask",
		Fields: graphql.Fields{
			"taskId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":  &graphql.Field{Type: graphql.String},
			"status": &graphql.Field{Type: graphql.String},
		},
	})

	// 2. Root Query
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"tasks": &graphql.Field{
				Type:        taskListType,
				Description: "Tarefas do usuário, mais recentes primeiro",
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.tasks,
			},
			"task": &graphql.Field{
				Type: taskType,
				Args: graphql.FieldConfigArgument{
					"taskId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.task,
			},
		},
	})

	// 3. Root Mutation
	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createTask": &graphql.Field{
				Type: taskType,
				Args: graphql.FieldConfigArgument{
					"title":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"status":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.createTask,
			},
			"updateTask": &graphql.Field{
				Type: taskType,
				Args: graphql.FieldConfigArgument{
					"taskId":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"title":       &graphql.ArgumentConfig{Type: graphql.String},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"status":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.updateTask,
			},
			"deleteTask": &graphql.Field{
				Type: deletedType,
				Args: graphql.FieldConfigArgument{
					"taskId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteTask,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
