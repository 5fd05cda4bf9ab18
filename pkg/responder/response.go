// Package responder traduz resultados e falhas das operações de tarefas em
// respostas de transporte (JSON + CORS), iguais para Lambda e HTTP.
package responder

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Response é a resposta neutra de transporte.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// APIGateway converte para o formato de proxy do API Gateway.
func (r Response) APIGateway() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       string(r.Body),
	}
}

// Write escreve headers, status e corpo num http.ResponseWriter.
func (r Response) Write(w http.ResponseWriter) {
	for k, v := range r.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(r.StatusCode)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}
