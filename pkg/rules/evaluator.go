package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/raywall/fast-task-service/pkg/config"
	"github.com/raywall/fast-task-service/pkg/tasks"
)

type compiledRule struct {
	conf    config.RuleConf
	program cel.Program
}

// Evaluator aplica as regras de entrada configuradas. As expressões são
// compiladas uma única vez, no boot.
type Evaluator struct {
	rules []compiledRule
}

// NewEvaluator compila todas as regras; uma expressão inválida impede o boot.
func NewEvaluator(confs []config.RuleConf) (*Evaluator, error) {
	rm, err := NewRuleManager()
	if err != nil {
		return nil, err
	}

	e := &Evaluator{}
	for _, conf := range confs {
		prg, err := rm.CompileProgram(conf.Expr)
		if err != nil {
			return nil, fmt.Errorf("regra '%s': %w", conf.ID, err)
		}
		e.rules = append(e.rules, compiledRule{conf: conf, program: prg})
	}
	return e, nil
}

// Len devolve o número de regras compiladas.
func (e *Evaluator) Len() int {
	return len(e.rules)
}

// Evaluate devolve ValidationError com a mensagem da primeira regra que
// resultar false. Erros de execução também reprovam a entrada.
func (e *Evaluator) Evaluate(op tasks.Operation, userID string, input map[string]any) error {
	vars := map[string]interface{}{
		"input":     input,
		"operation": string(op),
		"userId":    userID,
	}

	for _, rule := range e.rules {
		if !rule.conf.AppliesTo(string(op)) {
			continue
		}

		ok, err := evalBool(rule.program, vars)
		if err != nil {
			return &tasks.Error{Kind: tasks.ValidationError, Message: rule.conf.Message, Err: err}
		}
		if !ok {
			return tasks.Validation(rule.conf.Message)
		}
	}
	return nil
}
