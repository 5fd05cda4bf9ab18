// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dyndb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ErrNotFound é o erro padrão quando o item não existe
var ErrNotFound = errors.New("dyndb: item not found")

// ErrConditionFailed é retornado quando a ConditionExpression de uma escrita
// não é satisfeita (ex: Update com RequireExisting sobre chave inexistente).
var ErrConditionFailed = errors.New("dyndb: condition check failed")

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store é a interface principal (genérica)
type Store[T any] interface {
	Get(ctx context.Context, hashKey, sortKey any) (*T, error)
	Put(ctx context.Context, item T) error
	Delete(ctx context.Context, hashKey, sortKey any) error

	// Update aplica SET apenas nos atributos de changes e devolve o item
	// completo após a escrita (ReturnValues ALL_NEW).
	Update(ctx context.Context, hashKey, sortKey any, changes map[string]any, opts ...UpdateOption) (*T, error)

	Query() *QueryBuilder[T]
}

// TableConfig descreve a tabela e suas chaves
type TableConfig[T any] struct {
	TableName string `env:"DYNAMODB_TABLE_NAME" envDefault:"Tasks"`
	HashKey   string `env:"DYNAMODB_HASH_KEY" envDefault:"userId"`
	SortKey   string `env:"DYNAMODB_SORT_KEY" envDefault:"taskId"` // opcional
}

// UpdateOption altera o comportamento de Store.Update
type UpdateOption func(*updateOptions)

type updateOptions struct {
	requireExisting bool
}

// RequireExisting adiciona a condição attribute_exists(hashKey), fazendo
// o Update falhar com ErrConditionFailed em vez de criar o item.
func RequireExisting() UpdateOption {
	return func(o *updateOptions) {
		o.requireExisting = true
	}
}

// QueryBuilder monta Queries de forma fluente
type QueryBuilder[T any] struct {
	store       *dynamoStore[T]
	keyCond     *expression.KeyConditionBuilder
	filterCond  *expression.ConditionBuilder
	scanForward *bool
}
