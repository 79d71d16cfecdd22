// Package errs — таксономия ошибок планировщика.
//
// Все фатальные ситуации ядра (некорректный экземпляр, неоптимальный
// статус решателя, неподдерживаемая окрестность) выражаются через *Error
// с кодом, по которому вызывающая сторона принимает решение.
package errs

import (
	"errors"
	"fmt"
)

// Code — код ошибки.
type Code string

const (
	CodeUnknown                 Code = "UNKNOWN"
	CodeInvalidInstance         Code = "INVALID_INSTANCE"
	CodeInvalidConfig           Code = "INVALID_CONFIG"
	CodeSolverInfeasible        Code = "SOLVER_INFEASIBLE"
	CodeUnsupportedNeighborhood Code = "UNSUPPORTED_NEIGHBORHOOD"
	CodeEmptyNeighborhoodInput  Code = "EMPTY_NEIGHBORHOOD_INPUT"
	CodeDegenerateInstance      Code = "DEGENERATE_INSTANCE"
)

// Error — ошибка с кодом, причиной и произвольными полями контекста
// (например, последовательность или окно, на котором упал решатель).
type Error struct {
	Code    Code
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithField добавляет поле контекста.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// New создаёт ошибку с кодом.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает cause в ошибку с кодом.
func Wrap(cause error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is проверяет, что в цепочке err есть *Error с данным кодом.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf возвращает код первой *Error в цепочке или CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// FieldsOf возвращает поля контекста первой *Error в цепочке.
func FieldsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// IsInstanceClass — ошибки входных данных и конфигурации,
// обнаруживаемые до начала оптимизации.
func IsInstanceClass(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidInstance, CodeInvalidConfig, CodeUnsupportedNeighborhood:
		return true
	}
	return false
}

func InvalidInstance(format string, args ...any) *Error {
	return New(CodeInvalidInstance, format, args...)
}

func InvalidConfig(format string, args ...any) *Error {
	return New(CodeInvalidConfig, format, args...)
}

func SolverInfeasible(cause error, format string, args ...any) *Error {
	return Wrap(cause, CodeSolverInfeasible, format, args...)
}

func UnsupportedNeighborhood(id int) *Error {
	return New(CodeUnsupportedNeighborhood, "неподдерживаемая окрестность %d", id).WithField("neighborhood", id)
}

func EmptyNeighborhoodInput(format string, args ...any) *Error {
	return New(CodeEmptyNeighborhoodInput, format, args...)
}

func DegenerateInstance(format string, args ...any) *Error {
	return New(CodeDegenerateInstance, format, args...)
}
