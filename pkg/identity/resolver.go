// Package identity resolve o usuário que está agindo numa requisição a partir
// dos sinais disponíveis (claims do autorizador, payload direto, query string).
//
// A credencial nunca é verificada aqui: o provedor de identidade externo já
// validou o token e este pacote apenas lê o resultado.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/tasks"
	"github.com/rs/zerolog"
)

// Source indica qual sinal produziu a identidade.
type Source string

const (
	SourceClaims   Source = "claims"
	SourcePayload  Source = "payload"
	SourceQuery    Source = "query"
	SourceFallback Source = "fallback"
)

// Signals reúne os sinais de identidade de uma requisição.
type Signals struct {
	// Claims do autorizador (ex: Cognito). Apenas "sub" é lido.
	Claims map[string]interface{}
	// PayloadUserID vem do campo userId de uma invocação direta.
	PayloadUserID string
	// QueryUserID vem do parâmetro ?userId=.
	QueryUserID string
}

// Resolver aplica a ordem claims > payload > query > fallback.
type Resolver struct {
	permissive bool
	fallback   string
}

func NewResolver(cfg config.IdentityConf) *Resolver {
	return &Resolver{
		permissive: cfg.Permissive,
		fallback:   cfg.FallbackUser,
	}
}

// Resolve devolve o userId. Sem sinais e fora do modo permissivo falha com
// UnauthenticatedError.
func (r *Resolver) Resolve(ctx context.Context, s Signals) (string, error) {
	id, source := r.resolve(s)
	if id == "" {
		return "", tasks.Unauthenticated("Unable to resolve user identity")
	}

	if source == SourceFallback {
		zerolog.Ctx(ctx).Warn().
			Str("user_id", id).
			Msg("no identity signal on request, using fallback user")
	}
	return id, nil
}

func (r *Resolver) resolve(s Signals) (string, Source) {
	if sub := claimString(s.Claims, "sub"); sub != "" {
		return sub, SourceClaims
	}
	if id := strings.TrimSpace(s.PayloadUserID); id != "" {
		return id, SourcePayload
	}
	if id := strings.TrimSpace(s.QueryUserID); id != "" {
		return id, SourceQuery
	}
	if r.permissive && r.fallback != "" {
		return r.fallback, SourceFallback
	}
	return "", ""
}

// ClaimsFromAuthorizer extrai "claims" do contexto de autorizador do API
// Gateway. Autorizadores Lambda entregam os campos no nível raiz.
func ClaimsFromAuthorizer(authorizer map[string]interface{}) map[string]interface{} {
	if authorizer == nil {
		return nil
	}
	if claims, ok := authorizer["claims"].(map[string]interface{}); ok {
		return claims
	}
	return authorizer
}

func claimString(claims map[string]interface{}, key string) string {
	v, ok := claims[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

type ctxKey struct{}

// WithUserID guarda o usuário resolvido no contexto (usado pelos resolvers GraphQL).
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFrom lê o usuário guardado por WithUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
