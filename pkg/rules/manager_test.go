package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBool(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	data := map[string]interface{}{
		"input":     map[string]interface{}{"title": "Buy milk", "status": "pending"},
		"operation": "create",
		"userId":    "u1",
	}

	ok, err := rm.EvaluateBool("size(input.title) <= 20 && operation == 'create'", data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rm.EvaluateBool("input.status in ['done', 'archived']", data)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rm.EvaluateBool("", data)
	require.NoError(t, err)
	assert.True(t, ok, "expressão vazia aprova")
}

func TestCompileProgram_Errors(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	_, err = rm.CompileProgram("input.title ==")
	assert.Error(t, err, "sintaxe inválida")

	_, err = rm.CompileProgram("userId + 'x'")
	assert.Error(t, err, "resultado não booleano")

	_, err = rm.CompileProgram("unknownVar == 1")
	assert.Error(t, err, "variável não declarada")
}
