package injector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db#password}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Injector resolve placeholders em todos os campos string de uma struct.
type Injector struct {
	region  string
	ssm     SSMClient
	secrets SecretsClient

	once   sync.Once
	awsCfg aws.Config
	awsErr error
}

type Option func(*Injector)

// WithRegion define a região usada quando os clientes reais são criados.
func WithRegion(region string) Option {
	return func(i *Injector) { i.region = region }
}

func WithSSM(client SSMClient) Option {
	return func(i *Injector) { i.ssm = client }
}

func WithSecrets(client SecretsClient) Option {
	return func(i *Injector) { i.secrets = client }
}

func New(opts ...Option) *Injector {
	i := &Injector{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		newValue, err := i.interpolateString(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(newValue)

	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			if err := i.injectRecursive(ctx, v.Field(k)); err != nil {
				return err
			}
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}

		// match é algo como "${env.VAR_NAME}"
		groups := pattern.FindStringSubmatch(match)
		val, resolveErr := i.fetchValue(ctx, groups[1], groups[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		// Variável não encontrada retorna vazio
		return os.Getenv(key), nil

	case "ssm":
		client, err := i.ssmClient(ctx)
		if err != nil {
			return "", err
		}
		return getParameter(ctx, client, key)

	case "secret":
		client, err := i.secretsClient(ctx)
		if err != nil {
			return "", err
		}
		id, field, _ := strings.Cut(key, "#")
		return getSecret(ctx, client, id, field)
	}

	return "", fmt.Errorf("fonte de placeholder desconhecida: %s", sourceType)
}

func (i *Injector) loadAWS(ctx context.Context) (aws.Config, error) {
	i.once.Do(func() {
		opts := []func(*awsconfig.LoadOptions) error{}
		if i.region != "" {
			opts = append(opts, awsconfig.WithRegion(i.region))
		}
		i.awsCfg, i.awsErr = awsconfig.LoadDefaultConfig(ctx, opts...)
	})
	return i.awsCfg, i.awsErr
}

func (i *Injector) ssmClient(ctx context.Context) (SSMClient, error) {
	if i.ssm != nil {
		return i.ssm, nil
	}
	cfg, err := i.loadAWS(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro config aws: %w", err)
	}
	i.ssm = ssm.NewFromConfig(cfg)
	return i.ssm, nil
}

func (i *Injector) secretsClient(ctx context.Context) (SecretsClient, error) {
	if i.secrets != nil {
		return i.secrets, nil
	}
	cfg, err := i.loadAWS(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro config aws: %w", err)
	}
	i.secrets = secretsmanager.NewFromConfig(cfg)
	return i.secrets, nil
}

func getParameter(ctx context.Context, client SSMClient, path string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter (%s): %w", path, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("parâmetro SSM vazio: %s", path)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// getSecret devolve o SecretString inteiro ou, com field, a chave do JSON.
func getSecret(ctx context.Context, client SecretsClient, secretID, field string) (string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager (%s): %w", secretID, err)
	}

	val := aws.ToString(out.SecretString)
	if field == "" {
		return val, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("secret %s não é JSON: %w", secretID, err)
	}
	v, ok := data[field]
	if !ok {
		return "", errors.New("chave '" + field + "' ausente no secret " + secretID)
	}
	return fmt.Sprintf("%v", v), nil
}
