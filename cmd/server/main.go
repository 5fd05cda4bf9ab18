package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/events"
	"github.com/raywall/fast-task-service/pkg/graphql"
	"github.com/raywall/fast-task-service/pkg/identity"
	"github.com/raywall/fast-task-service/pkg/logger"
	"github.com/raywall/fast-task-service/pkg/metrics"
	"github.com/raywall/fast-task-service/pkg/observability"
	"github.com/raywall/fast-task-service/pkg/responder"
	"github.com/raywall/fast-task-service/pkg/rules"
	"github.com/raywall/fast-task-service/pkg/storage"
	"github.com/raywall/fast-task-service/pkg/tasks"
	"github.com/raywall/fast-task-service/pkg/transport"
	"github.com/rs/zerolog/log"
)

var (
	// Variáveis injetáveis para mocking
	serverStarter = transport.StartHTTPServer
	lambdaStarter = lambda.Start
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv(config.EnvConfigPath)); err != nil {
		log.Fatal().Err(err).Msg("FATAL: falha na inicialização")
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, cfgPath string) error {
	// 1. Configuração
	cfg, err := config.NewLoader().Load(ctx, cfgPath)
	if err != nil {
		return err
	}
	logger.Configure(cfg.Logging)

	// 2. Dependências (boot time)
	app, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	// 3. Seleciona Runtime Strategy
	if cfg.Service.HTTPRuntime() {
		router := transport.NewRouter(app.dispatcher, cfg, app.graphqlExecutor())
		return serverStarter(ctx, router.Handler(), cfg.Service.Port)
	}

	opts := []transport.LambdaOption{}
	if app.graphql != nil {
		opts = append(opts, transport.WithGraphQL(app.graphql, cfg.GraphQL.Route))
	}
	lambdaStarter(transport.NewLambdaHandler(app.dispatcher, opts...).Handle)
	return nil
}

type application struct {
	dispatcher *transport.Dispatcher
	graphql    *graphql.Engine
	closers    []func() error
}

// graphqlExecutor evita um GraphQLExecutor não-nil envolvendo ponteiro nil.
func (a *application) graphqlExecutor() transport.GraphQLExecutor {
	if a.graphql == nil {
		return nil
	}
	return a.graphql
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("falha ao liberar recurso")
		}
	}
}

func bootstrap(ctx context.Context, cfg *config.Config) (*application, error) {
	app := &application{}

	backend, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	app.closers = append(app.closers, backend.Close)

	svcOpts := []tasks.Option{tasks.WithLimits(cfg.List.DefaultLimit, cfg.List.MaxLimit)}

	evaluator, err := rules.NewEvaluator(cfg.Rules)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("rules: %w", err)
	}
	if evaluator.Len() > 0 {
		svcOpts = append(svcOpts, tasks.WithRules(evaluator))
	}

	publisher, err := events.New(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("events: %w", err)
	}
	if publisher != nil {
		svcOpts = append(svcOpts, tasks.WithPublisher(publisher))
	}

	provider, err := observability.SetupMetrics(cfg.Metrics, cfg.Service.Name)
	if err != nil {
		app.close()
		return nil, err
	}
	if dd, ok := provider.(*observability.DatadogProvider); ok {
		app.closers = append(app.closers, dd.Close)
	}

	svc := tasks.NewService(backend.Store, svcOpts...)

	var pinned tasks.Operation
	if cfg.Service.Operation != "" {
		if pinned, err = tasks.ParseOperation(cfg.Service.Operation); err != nil {
			app.close()
			return nil, err
		}
	}

	app.dispatcher = transport.NewDispatcher(
		svc,
		identity.NewResolver(cfg.Identity),
		responder.NewBuilder(cfg.CORS, pinned),
		transport.WithOperation(pinned),
		transport.WithRecorder(metrics.NewRecorder(provider)),
		transport.WithTimeout(cfg.Service.Timeout),
	)

	if cfg.GraphQL.Route != "" {
		if app.graphql, err = graphql.NewEngine(svc); err != nil {
			app.close()
			return nil, fmt.Errorf("graphql: %w", err)
		}
	}

	log.Info().
		Str("service", cfg.Service.Name).
		Str("runtime", cfg.Service.Runtime).
		Str("storage", backend.Name).
		Str("operation", string(pinned)).
		Msg("serviço inicializado")

	return app, nil
}
