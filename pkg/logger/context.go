package logger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CorrelationHeader é o header propagado entre serviços.
const CorrelationHeader = "x-correlation-id"

// CorrelationID lê o header (case-insensitive) ou gera um UUID novo.
func CorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, CorrelationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// WithRequest associa ao contexto um logger filho com correlation_id.
func WithRequest(ctx context.Context, base zerolog.Logger, correlationID string) (context.Context, zerolog.Logger) {
	l := base.With().Str("correlation_id", correlationID).Logger()
	return l.WithContext(ctx), l
}
