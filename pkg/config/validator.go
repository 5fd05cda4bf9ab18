package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuração nula")
	}

	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *Config) error {
	// 1. Cada backend exige seus parâmetros de conexão
	switch cfg.Storage.Backend {
	case "redis":
		if cfg.Storage.Redis.Addr == "" {
			return errors.New("backend 'redis' exige REDIS_ADDR")
		}
	case "postgres":
		if cfg.Storage.Postgres.DSN == "" {
			return errors.New("backend 'postgres' exige POSTGRES_DSN")
		}
	}

	// 2. Limites de listagem coerentes
	if cfg.List.DefaultLimit > cfg.List.MaxLimit {
		return fmt.Errorf("list.default_limit (%d) maior que list.max_limit (%d)",
			cfg.List.DefaultLimit, cfg.List.MaxLimit)
	}

	// 3. Sem fallback não há como identificar chamadas sem claims
	if cfg.Identity.Permissive && cfg.Identity.FallbackUser == "" {
		return errors.New("identity.permissive exige identity.fallback_user")
	}

	// 4. Unicidade de IDs de regras
	seenIDs := make(map[string]bool)
	for _, rule := range cfg.Rules {
		if seenIDs[rule.ID] {
			return fmt.Errorf("rule ID duplicado detectado: '%s'", rule.ID)
		}
		seenIDs[rule.ID] = true
	}

	// 5. GraphQL não pode sombrear a rota REST
	if cfg.GraphQL.Route != "" && cfg.GraphQL.Route == cfg.Service.Route {
		return fmt.Errorf("graphql.route '%s' conflita com service.route", cfg.GraphQL.Route)
	}

	return nil
}
