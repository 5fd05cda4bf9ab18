package tasks

import (
	"fmt"
	"net/http"
	"strings"
)

// Operation identifica uma das operações de ciclo de vida.
type Operation string

const (
	OpCreate Operation = "create"
	OpList   Operation = "list"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operations lista todas as operações, na ordem de exibição.
var Operations = []Operation{OpCreate, OpList, OpUpdate, OpDelete}

// ParseOperation converte o valor de TASK_OPERATION.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Operations {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Method é o verbo HTTP principal da operação.
func (o Operation) Method() string {
	switch o {
	case OpCreate:
		return http.MethodPost
	case OpList:
		return http.MethodGet
	case OpUpdate:
		return http.MethodPut
	case OpDelete:
		return http.MethodDelete
	}
	return ""
}

// OperationForMethod faz o roteamento por verbo (PATCH também é update).
func OperationForMethod(method string) (Operation, bool) {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return OpCreate, true
	case http.MethodGet:
		return OpList, true
	case http.MethodPut, http.MethodPatch:
		return OpUpdate, true
	case http.MethodDelete:
		return OpDelete, true
	}
	return "", false
}
