// Package apperr define la taxonomía de errores del core de vinculación.
// Los servicios validan precondiciones y fallan con un kind específico antes
// de cualquier mutación; la capa HTTP traduce kinds a códigos de respuesta.
package apperr

import (
	"errors"
	"fmt"
)

// Kind clase de error
type Kind int

const (
	// NotFound entidad referenciada inexistente o eliminada
	NotFound Kind = iota + 1
	// Validation precondición o invariante violada
	Validation
	// Forbidden el actor no tiene el rol/asignación requerido
	Forbidden
	// Conflict valor único duplicado, asignación duplicada o conflicto de versión
	Conflict
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Error error con kind
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is permite errors.Is contra otro *Error del mismo kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New crea un error con kind y mensaje formateado
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap envuelve err con kind y mensaje
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf kind del error, 0 si no tiene
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind true si err es un *Error del kind dado
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
