// Package fasttask é o serviço de tarefas por usuário: criação, listagem,
// atualização parcial e remoção de tarefas, isoladas pelo userId resolvido
// em cada requisição.
//
// Visão Geral:
// O mesmo núcleo (pkg/tasks) atende três superfícies: funções Lambda atrás do
// API Gateway (uma por operação, via TASK_OPERATION, ou uma única roteando
// pelo verbo HTTP), um servidor HTTP local (gorilla/mux) e um endpoint GraphQL.
//
// Sub-Pacotes Principais:
//
// 1. envloader:
//   - Carregamento de configurações via tags "env", "envDefault" e "envRequired".
//   - Carga em etapas (LoadDefaults / LoadEnv) para overlays YAML.
//
// 2. dyndb:
//   - Store[T] genérico e tipado sobre DynamoDB.
//   - Update condicional (RequireExisting) e QueryBuilder com paginação.
//
// 3. pkg/tasks:
//   - Service com as operações Create, List, Update e Delete.
//   - Erros tipados por Kind, mapeados para status HTTP em pkg/responder.
//
// 4. pkg/storage:
//   - Adaptadores do Store de tarefas: dynamodb, redis, postgres e memory.
//
// 5. pkg/transport e cmd/server:
//   - Dispatcher comum, adaptador Lambda e servidor HTTP local.
//
// Exemplo de Início Rápido:
//
//	export STORAGE_BACKEND=memory SERVICE_RUNTIME=local PORT=8080
//	go run ./cmd/server
//
//	curl -XPOST localhost:8080/tasks -H 'X-User-Sub: alice' -d '{"title":"Buy milk"}'
//	curl localhost:8080/tasks?status=pending -H 'X-User-Sub: alice'
package fasttask
