// Package dyndb fornece uma abstração genérica e fortemente tipada sobre o
// AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote `dyndb` oferece a interface `Store[T]`, que simplifica as operações
// de item único (Get, Put, Update, Delete) e a Query por partição, eliminando
// a necessidade de lidar diretamente com AttributeValue e Expression Builders.
//
// Funcionalidades Principais:
//   - CRUD Tipado: `Get`, `Put`, `Delete` usando tipos Go nativos.
//   - Update Parcial: `Update` gera "SET ..." apenas com os atributos alterados;
//     `RequireExisting()` impede que o Update crie um item novo.
//   - Builder Fluente: `Query().KeyEqual(...).FilterEqual(...).Descending().All(ctx)`.
//   - Paginação Automática: `All` segue `LastEvaluatedKey` até o fim da partição.
//   - Mock Integrado: `MockDynamoClient` para testes de adaptadores.
//
// Exemplo:
//
//	type Task struct {
//		UserID string `dynamodbav:"userId"`
//		TaskID string `dynamodbav:"taskId"`
//		Status string `dynamodbav:"status"`
//	}
//
//	store := dyndb.New(client, dyndb.TableConfig[Task]{
//		TableName: "Tasks", HashKey: "userId", SortKey: "taskId",
//	})
//
//	task, err := store.Get(ctx, "user-1", "task-1")
//	if errors.Is(err, dyndb.ErrNotFound) { /* ... */ }
//
//	updated, err := store.Update(ctx, "user-1", "task-1",
//		map[string]any{"status": "completed"}, dyndb.RequireExisting())
//
//	pending, err := store.Query().
//		KeyEqual("userId", "user-1").
//		FilterEqual("status", "pending").
//		Descending().
//		All(ctx)
//
// Configuração:
// Campos vazios de `TableConfig[T]` são lidos de DYNAMODB_TABLE_NAME,
// DYNAMODB_HASH_KEY e DYNAMODB_SORT_KEY.
package dyndb
