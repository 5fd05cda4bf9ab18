package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/rules"
	"github.com/raywall/fast-task-service/pkg/storage/postgres"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run devolve o exit code, para ser testável sem os.Exit.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Comandos esperados: validate, schema")
		return 1
	}

	switch args[0] {
	case "validate":
		return runValidate(ctx, args[1:], stdout, stderr)
	case "schema":
		return runSchema(ctx, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Comando desconhecido: %s\n", args[0])
		return 1
	}
}

// Report é a saída JSON de validate (OUTPUT_FORMAT=json).
type Report struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors,omitempty"`
	Runtime   string   `json:"runtime,omitempty"`
	Storage   string   `json:"storage,omitempty"`
	Operation string   `json:"operation,omitempty"`
	Rules     int      `json:"rules"`
}

func runValidate(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "Caminho do arquivo YAML (local, file:// ou s3://)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(stderr, "Erro: flag -file é obrigatória")
		return 2
	}

	report := validate(ctx, *file)

	if os.Getenv("OUTPUT_FORMAT") == "json" {
		_ = json.NewEncoder(stdout).Encode(report)
	} else if report.Valid {
		fmt.Fprintf(stdout, "Configuração válida: runtime=%s storage=%s regras=%d\n", report.Runtime, report.Storage, report.Rules)
	} else {
		fmt.Fprintln(stdout, "A configuração contém erros:")
		for _, e := range report.Errors {
			fmt.Fprintf(stdout, " - %s\n", e)
		}
	}

	if !report.Valid {
		return 1
	}
	return 0
}

// validate carrega a configuração e compila as regras CEL, sem abrir o store.
func validate(ctx context.Context, path string) Report {
	cfg, err := config.NewLoader().Load(ctx, path)
	if err != nil {
		return Report{Errors: []string{err.Error()}}
	}

	report := Report{
		Valid:     true,
		Runtime:   cfg.Service.Runtime,
		Storage:   cfg.Storage.Backend,
		Operation: cfg.Service.Operation,
		Rules:     len(cfg.Rules),
	}
	if _, err := rules.NewEvaluator(cfg.Rules); err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, err.Error())
	}
	return report
}

func runSchema(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	table := fs.String("table", envOr("POSTGRES_TABLE", "tasks"), "Nome da tabela")
	apply := fs.Bool("apply", false, "Aplica o DDL no banco em vez de apenas imprimir")
	dsn := fs.String("dsn", os.Getenv("POSTGRES_DSN"), "DSN do Postgres (obrigatório com -apply)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !*apply {
		fmt.Fprintln(stdout, postgres.Schema(*table))
		return 0
	}
	if *dsn == "" {
		fmt.Fprintln(stderr, "Erro: -dsn (ou POSTGRES_DSN) é obrigatório com -apply")
		return 2
	}

	store, err := postgres.Open(*dsn, *table)
	if err != nil {
		fmt.Fprintf(stderr, "Erro ao conectar: %v\n", err)
		return 1
	}
	defer store.DB().Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(stderr, "Erro ao aplicar schema: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Schema aplicado na tabela %s\n", *table)
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
