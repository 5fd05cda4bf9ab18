package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/fast-task-service/envloader"
	"github.com/raywall/fast-task-service/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath é a variável que aponta para o overlay YAML opcional.
const EnvConfigPath = "CONFIG_FILE_PATH"

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader monta a Config em camadas: defaults, overlay YAML (arquivo local ou
// s3://bucket/key), ambiente, placeholders e por fim validação.
type Loader struct {
	validator *ConfigValidator
	s3        S3Downloader
	injOpts   []injector.Option
}

type LoaderOption func(*Loader)

// WithS3 injeta o cliente usado para fontes s3://.
func WithS3(client S3Downloader) LoaderOption {
	return func(l *Loader) { l.s3 = client }
}

// WithInjectorOptions repassa opções ao injector (clientes SSM/Secrets).
func WithInjectorOptions(opts ...injector.Option) LoaderOption {
	return func(l *Loader) { l.injOpts = append(l.injOpts, opts...) }
}

// NewLoader cria uma nova instância.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{validator: NewValidator()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load é a função simplificada usada pelos binários: lê CONFIG_FILE_PATH
// (opcional) e o ambiente.
func Load(ctx context.Context) (*Config, error) {
	return NewLoader().Load(ctx, os.Getenv(EnvConfigPath))
}

// Load carrega a configuração. source vazio significa apenas ambiente.
func (l *Loader) Load(ctx context.Context, source string) (*Config, error) {
	cfg := &Config{}
	if err := envloader.LoadDefaults(cfg); err != nil {
		return nil, fmt.Errorf("falha nos defaults: %w", err)
	}

	if source != "" {
		rawData, err := l.read(ctx, cfg, source)
		if err != nil {
			return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
		}
		if err := yaml.Unmarshal(rawData, cfg); err != nil {
			return nil, fmt.Errorf("YAML malformado: %w", err)
		}
	}

	if err := envloader.LoadEnv(cfg); err != nil {
		return nil, fmt.Errorf("falha leitura do ambiente: %w", err)
	}

	opts := append([]injector.Option{injector.WithRegion(cfg.AWS.Region)}, l.injOpts...)
	if err := injector.New(opts...).Inject(ctx, cfg); err != nil {
		return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
	}

	if err := l.validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validação da configuração falhou: %w", err)
	}

	return cfg, nil
}

// --- Estratégias de carregamento ---

func (l *Loader) read(ctx context.Context, cfg *Config, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "s3://") {
		// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
		return os.ReadFile(strings.TrimPrefix(source, "file://"))
	}

	client := l.s3
	if client == nil {
		awsCfg, err := AWS(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		client = s3.NewFromConfig(awsCfg)
	}
	return loadFromS3(ctx, client, source)
}

func loadFromS3(ctx context.Context, client S3Downloader, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("URL S3 inválida: %s", uri)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
