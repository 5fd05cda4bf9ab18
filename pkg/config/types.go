package config

import "time"

// Config representa a configuração completa do serviço de tarefas.
//
// Os campos com tag `env` são lidos do ambiente; o YAML opcional
// (CONFIG_FILE_PATH) é aplicado antes e perde para o ambiente.
type Config struct {
	Service  ServiceConf  `yaml:"service"`
	AWS      AWSConf      `yaml:"aws"`
	Storage  StorageConf  `yaml:"storage"`
	Identity IdentityConf `yaml:"identity"`
	CORS     CORSConf     `yaml:"cors"`
	Logging  LoggingConf  `yaml:"logging"`
	Metrics  MetricsConf  `yaml:"metrics"`
	Events   EventsConf   `yaml:"events"`
	GraphQL  GraphQLConf  `yaml:"graphql"`
	List     ListConf     `yaml:"list"`
	Rules    []RuleConf   `yaml:"rules" validate:"dive"`
}

// ServiceConf contém os metadados e configurações de runtime do serviço.
type ServiceConf struct {
	Name      string        `yaml:"name" env:"SERVICE_NAME" envDefault:"fast-task-service" validate:"required,hostname_rfc1123"`
	Runtime   string        `yaml:"runtime" env:"SERVICE_RUNTIME" envDefault:"lambda" validate:"required,oneof=local lambda"`
	Port      int           `yaml:"port" env:"PORT" envDefault:"8080" validate:"required_if=Runtime local"`
	Operation string        `yaml:"operation" env:"TASK_OPERATION" validate:"omitempty,oneof=create list update delete"`
	Route     string        `yaml:"route" env:"SERVICE_ROUTE" envDefault:"/tasks" validate:"required,startswith=/"`
	Timeout   time.Duration `yaml:"timeout" env:"SERVICE_TIMEOUT" envDefault:"30s"`
}

type AWSConf struct {
	Region string `yaml:"region" env:"AWS_REGION" envDefault:"us-east-1"`
}

// StorageConf seleciona o backend e os parâmetros de cada adaptador.
type StorageConf struct {
	Backend  string       `yaml:"backend" env:"STORAGE_BACKEND" envDefault:"dynamodb" validate:"oneof=dynamodb redis postgres memory"`
	DynamoDB DynamoDBConf `yaml:"dynamodb"`
	Redis    RedisConf    `yaml:"redis"`
	Postgres PostgresConf `yaml:"postgres"`
}

type DynamoDBConf struct {
	TableName string `yaml:"table_name" env:"DYNAMODB_TABLE_NAME" envDefault:"Tasks"`
	Endpoint  string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`
}

type RedisConf struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" validate:"gte=0"`
}

type PostgresConf struct {
	DSN   string `yaml:"dsn" env:"POSTGRES_DSN"`
	Table string `yaml:"table" env:"POSTGRES_TABLE" envDefault:"tasks"`
}

// IdentityConf controla o fallback de identidade.
// Com Permissive=false, requisições sem identidade falham com 401.
type IdentityConf struct {
	Permissive   bool   `yaml:"permissive" env:"IDENTITY_PERMISSIVE" envDefault:"true"`
	FallbackUser string `yaml:"fallback_user" env:"IDENTITY_FALLBACK_USER" envDefault:"test-user"`
	Header       string `yaml:"header" env:"IDENTITY_HEADER" envDefault:"X-User-Sub"`
}

type CORSConf struct {
	AllowOrigin  string `yaml:"allow_origin" env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
	AllowHeaders string `yaml:"allow_headers" env:"CORS_ALLOW_HEADERS" envDefault:"Content-Type, Authorization"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"LOG_ENABLED" envDefault:"true"`
	Level   string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"tasks."`
}

// EventsConf habilita a publicação de eventos de mudança no SQS.
type EventsConf struct {
	QueueURL string `yaml:"queue_url" env:"TASK_EVENTS_QUEUE_URL" validate:"omitempty,url"`
}

type GraphQLConf struct {
	Route string `yaml:"route" env:"GRAPHQL_ROUTE" validate:"omitempty,startswith=/"`
}

type ListConf struct {
	DefaultLimit int `yaml:"default_limit" env:"LIST_DEFAULT_LIMIT" envDefault:"100" validate:"gte=1"`
	MaxLimit     int `yaml:"max_limit" env:"LIST_MAX_LIMIT" envDefault:"1000" validate:"gte=1"`
}

// RuleConf é uma expressão CEL booleana avaliada nas entradas de
// create/update. Quando o resultado é false a operação falha com Message.
type RuleConf struct {
	ID         string   `yaml:"id" validate:"required"`
	Expr       string   `yaml:"expr" validate:"required"`
	Message    string   `yaml:"message" validate:"required"`
	Operations []string `yaml:"operations" validate:"dive,oneof=create update"`
}

// AppliesTo informa se a regra vale para a operação. Lista vazia vale para todas.
func (r RuleConf) AppliesTo(operation string) bool {
	if len(r.Operations) == 0 {
		return true
	}
	for _, op := range r.Operations {
		if op == operation {
			return true
		}
	}
	return false
}

// HTTPRuntime indica se o serviço sobe um servidor HTTP local.
func (s ServiceConf) HTTPRuntime() bool {
	return s.Runtime == "local"
}
