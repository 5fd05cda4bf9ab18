package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event é o evento do API Gateway acrescido dos campos aceitos em invocação
// direta: userId no topo e body como string JSON ou objeto inline.
type Event struct {
	events.APIGatewayProxyRequest
	UserID string `json:"userId"`
}

// UnmarshalJSON separa o body antes de decodificar o restante, porque o
// APIGatewayProxyRequest só aceita body string.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	body := bytes.TrimSpace(raw["body"])
	delete(raw, "body")

	if uid, ok := raw["userId"]; ok {
		if err := json.Unmarshal(uid, &e.UserID); err != nil {
			return fmt.Errorf("userId: %w", err)
		}
		delete(raw, "userId")
	}

	rest, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rest, &e.APIGatewayProxyRequest); err != nil {
		return err
	}

	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
		e.Body = ""
	case body[0] == '"':
		return json.Unmarshal(body, &e.Body)
	default:
		e.Body = string(body)
	}
	return nil
}

// LambdaHandler adapta eventos do API Gateway para o Dispatcher.
type LambdaHandler struct {
	dispatcher   *Dispatcher
	graphql      GraphQLExecutor
	graphqlRoute string
}

// LambdaOption configura o LambdaHandler.
type LambdaOption func(*LambdaHandler)

// WithGraphQL expõe o executor GraphQL em route.
func WithGraphQL(exec GraphQLExecutor, route string) LambdaOption {
	return func(h *LambdaHandler) {
		h.graphql = exec
		h.graphqlRoute = route
	}
}

func NewLambdaHandler(d *Dispatcher, opts ...LambdaOption) *LambdaHandler {
	h := &LambdaHandler{dispatcher: d}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processa a requisição Lambda
func (h *LambdaHandler) Handle(ctx context.Context, evt Event) (events.APIGatewayProxyResponse, error) {
	start := time.Now()

	corrID := logger.CorrelationID(evt.Headers)
	ctx, _ = logger.WithRequest(ctx, log.Logger, corrID)

	req, err := h.request(evt)
	var response events.APIGatewayProxyResponse
	switch {
	case err != nil:
		response = h.dispatcher.fail(ctx, err).APIGateway()
	case h.graphql != nil && h.graphqlRoute != "" && evt.Path == h.graphqlRoute:
		response = h.dispatcher.DispatchGraphQL(ctx, h.graphql, req).APIGateway()
	default:
		response = h.dispatcher.Dispatch(ctx, req).APIGateway()
	}

	zerolog.Ctx(ctx).Info().
		Str("method", evt.HTTPMethod).
		Str("path", evt.Path).
		Int("status", response.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("lambda request completed")

	if response.Headers == nil {
		response.Headers = make(map[string]string)
	}
	response.Headers[HeaderCorrelationID] = corrID

	return response, nil
}

func (h *LambdaHandler) request(evt Event) (Request, error) {
	body := []byte(evt.Body)
	if evt.IsBase64Encoded && evt.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			return Request{}, malformedBody(err)
		}
		body = decoded
	}

	return Request{
		Method:     evt.HTTPMethod,
		Path:       evt.Path,
		Headers:    evt.Headers,
		Query:      evt.QueryStringParameters,
		PathParams: evt.PathParameters,
		Body:       body,
		Identity: identity.Signals{
			Claims:        identity.ClaimsFromAuthorizer(evt.RequestContext.Authorizer),
			PayloadUserID: evt.UserID,
			QueryUserID:   evt.QueryStringParameters["userId"],
		},
	}, nil
}
