package metrics

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Recorder registra as métricas padrão de cada requisição.
type Recorder struct {
	provider Provider
}

func NewRecorder(provider Provider) *Recorder {
	return &Recorder{provider: provider}
}

// RecordRequest envia "requests" (count) e "latency_ms" (histogram),
// ambos com as tags operation e status. Falhas de envio são apenas logadas.
func (r *Recorder) RecordRequest(operation string, status int, latency time.Duration) {
	if r == nil || r.provider == nil {
		return
	}

	tags := []string{
		"operation:" + operation,
		"status:" + strconv.Itoa(status),
	}

	if err := r.provider.Count(MetricRequests, 1, tags); err != nil {
		log.Debug().Err(err).Str("metric", MetricRequests).Msg("falha ao enviar métrica")
	}
	ms := float64(latency.Microseconds()) / 1000
	if err := r.provider.Histogram(MetricLatency, ms, tags); err != nil {
		log.Debug().Err(err).Str("metric", MetricLatency).Msg("falha ao enviar métrica")
	}
}
