package tasks

import (
	"errors"
	"fmt"
)

// ErrNotFound é devolvido pelos adaptadores quando a chave não existe.
var ErrNotFound = errors.New("tasks: not found")

// Kind é a categoria estável de uma falha, usada no mapeamento de status.
type Kind string

const (
	ValidationError      Kind = "ValidationError"
	NotFoundError        Kind = "NotFoundError"
	MalformedInputError  Kind = "MalformedInputError"
	StoreError           Kind = "StoreError"
	UnauthenticatedError Kind = "UnauthenticatedError"
)

// Error é a falha tipada devolvida por todas as operações.
// Message é segura para o cliente; Err guarda a causa original para logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: ValidationError, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: NotFoundError, Message: msg}
}

func Malformed(msg string, err error) *Error {
	return &Error{Kind: MalformedInputError, Message: msg, Err: err}
}

func StoreFailure(msg string, err error) *Error {
	return &Error{Kind: StoreError, Message: msg, Err: err}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: UnauthenticatedError, Message: msg}
}

// KindOf extrai o Kind de err. Erros não tipados contam como StoreError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StoreError
}

// AsError garante um *Error, encapsulando falhas desconhecidas como StoreError.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return StoreFailure("Internal error", err)
}
