// Package storage escolhe e constrói o adaptador tasks.Store configurado.
package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/storage/dynamo"
	"github.com/raywall/fast-task-service/pkg/storage/memory"
	"github.com/raywall/fast-task-service/pkg/storage/postgres"
	"github.com/raywall/fast-task-service/pkg/storage/redis"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

// Backends suportados em STORAGE_BACKEND.
const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Backend agrupa o store e a liberação dos recursos associados.
type Backend struct {
	Store tasks.Store
	Name  string
	close func() error
}

// Close libera conexões do backend (no-op para DynamoDB e memória).
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// New constrói o backend descrito em cfg.Storage.
func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Backend {
	case BackendDynamoDB, "":
		awsCfg, err := config.AWS(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Storage.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.DynamoDB.Endpoint)
			}
		})
		return &Backend{
			Store: dynamo.New(client, cfg.Storage.DynamoDB.TableName),
			Name:  BackendDynamoDB,
		}, nil

	case BackendRedis:
		client := redis.NewClient(cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("falha ao conectar no redis: %w", err)
		}
		return &Backend{Store: redis.New(client), Name: BackendRedis, close: client.Close}, nil

	case BackendPostgres:
		store, err := postgres.Open(cfg.Storage.Postgres.DSN, cfg.Storage.Postgres.Table)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Name: BackendPostgres, close: store.DB().Close}, nil

	case BackendMemory:
		return &Backend{Store: memory.New(), Name: BackendMemory}, nil
	}

	return nil, fmt.Errorf("backend de storage desconhecido: %q", cfg.Storage.Backend)
}
