package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Router monta as rotas REST (e GraphQL, se configurado) sobre o Dispatcher.
type Router struct {
	dispatcher     *Dispatcher
	graphql        GraphQLExecutor
	route          string
	graphqlRoute   string
	identityHeader string
}

// NewRouter cria o roteador. exec pode ser nil quando não há GraphQL.
func NewRouter(d *Dispatcher, cfg *config.Config, exec GraphQLExecutor) *Router {
	return &Router{
		dispatcher:     d,
		graphql:        exec,
		route:          strings.TrimSuffix(cfg.Service.Route, "/"),
		graphqlRoute:   cfg.GraphQL.Route,
		identityHeader: cfg.Identity.Header,
	}
}

// Handler devolve o http.Handler completo, já com o middleware de observabilidade.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(ObservabilityMiddleware)

	if rt.graphql != nil && rt.graphqlRoute != "" {
		r.HandleFunc(rt.graphqlRoute, rt.serveGraphQL).
			Methods(http.MethodPost, http.MethodOptions)
	}

	collection := rt.route
	if collection == "" {
		collection = "/"
	}
	r.HandleFunc(collection, rt.serveREST).
		Methods(http.MethodPost, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions)
	r.HandleFunc(rt.route+"/{taskId}", rt.serveREST).
		Methods(http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions)

	return r
}

func (rt *Router) serveREST(w http.ResponseWriter, r *http.Request) {
	req, err := rt.request(r)
	if err != nil {
		rt.dispatcher.fail(r.Context(), err).Write(w)
		return
	}
	rt.dispatcher.Dispatch(r.Context(), req).Write(w)
}

func (rt *Router) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	req, err := rt.request(r)
	if err != nil {
		rt.dispatcher.fail(r.Context(), err).Write(w)
		return
	}
	rt.dispatcher.DispatchGraphQL(r.Context(), rt.graphql, req).Write(w)
}

func (rt *Router) request(r *http.Request) (Request, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return Request{}, malformedBody(err)
	}
	defer r.Body.Close()

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	// O header confiável faz o papel das claims do autorizador
	var claims map[string]interface{}
	if rt.identityHeader != "" {
		if sub := r.Header.Get(rt.identityHeader); sub != "" {
			claims = map[string]interface{}{"sub": sub}
		}
	}

	return Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Query:      query,
		PathParams: mux.Vars(r),
		Body:       body,
		Identity: identity.Signals{
			Claims:      claims,
			QueryUserID: query["userId"],
		},
	}, nil
}

// StartHTTPServer sobe o servidor e encerra de forma graciosa quando ctx termina.
func StartHTTPServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Servidor HTTP ouvindo em %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Encerrando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	}
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	duration := time.Since(rw.startTime)
	rw.Header().Set(HeaderLatency, fmt.Sprintf("%d", duration.Milliseconds()))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// ObservabilityMiddleware propaga o correlation id, injeta o logger no
// contexto e registra o resultado de cada requisição.
func ObservabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		corrID := logger.CorrelationID(map[string]string{
			HeaderCorrelationID: r.Header.Get(HeaderCorrelationID),
		})
		w.Header().Set(HeaderCorrelationID, corrID)

		ctx, _ := logger.WithRequest(r.Context(), log.Logger, corrID)

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			startTime:      start,
		}

		next.ServeHTTP(wrapper, r.WithContext(ctx))

		// Lido do contexto para incluir campos adicionados pelo Dispatcher
		zerolog.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Msg("request completed")
	})
}
