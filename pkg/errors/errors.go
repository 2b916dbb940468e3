// Package errors provides error handling for promptforge.
//
// This package re-exports github.com/cockroachdb/errors and declares the
// sentinel errors every template and chat operation reports through:
//
//	tmpl, err := template.New("Hello {name} and {{other}}")
//	if errors.Is(err, errors.ErrMalformedTemplate) {
//	    // mixed brace styles
//	}
//
//	_, err = tmpl.Format(nil)
//	if name, ok := errors.MissingVariableName(err); ok {
//	    // name is the first declared variable that was not supplied
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for template construction and formatting.
// Use these with errors.Is(); wrap them with Wrapf to add context.
var (
	// ErrMalformedTemplate covers unbalanced or mixed braces, a placeholder
	// slot without exactly one variable, and undecodable JSON/TOML/YAML.
	ErrMalformedTemplate = New("malformed template")

	// ErrUnsupportedFormat means the brace structure is balanced but no
	// template format applies, e.g. "{two words}".
	ErrUnsupportedFormat = New("unsupported format")

	// ErrMissingVariable means a declared variable had no value at format time.
	ErrMissingVariable = New("missing variable")

	// ErrInvalidRole means a role cannot produce or accept a concrete
	// message, or a role string is unknown.
	ErrInvalidRole = New("invalid role")

	// ErrRender wraps failures reported by the Mustache engine.
	ErrRender = New("render error")
)

// MissingVariableError reports the first declared variable (in declaration
// order) absent from the merged variable map.
type MissingVariableError struct {
	Name     string
	Expected []string
	Received []string
}

func (e *MissingVariableError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("missing variable: %s", e.Name)
	}
	return fmt.Sprintf("missing variable: %s (expected [%s], received [%s])",
		e.Name, strings.Join(e.Expected, ", "), strings.Join(e.Received, ", "))
}

// Unwrap lets errors.Is(err, ErrMissingVariable) match.
func (e *MissingVariableError) Unwrap() error {
	return ErrMissingVariable
}

// MissingVariable creates a MissingVariableError.
func MissingVariable(name string, expected, received []string) error {
	return &MissingVariableError{Name: name, Expected: expected, Received: received}
}

// MissingVariableName returns the variable name carried by a missing-variable
// error anywhere in err's chain.
func MissingVariableName(err error) (string, bool) {
	var mv *MissingVariableError
	if As(err, &mv) {
		return mv.Name, true
	}
	return "", false
}

// Malformed wraps ErrMalformedTemplate with a formatted message.
func Malformed(format string, args ...interface{}) error {
	return Wrapf(ErrMalformedTemplate, format, args...)
}

// Unsupported wraps ErrUnsupportedFormat with a formatted message.
func Unsupported(format string, args ...interface{}) error {
	return Wrapf(ErrUnsupportedFormat, format, args...)
}

// InvalidRole wraps ErrInvalidRole with a formatted message.
func InvalidRole(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRole, format, args...)
}

// Render marks an engine failure as ErrRender while keeping the cause.
func Render(err error) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, "render error"), ErrRender)
}

// IsMalformed checks if an error is or wraps ErrMalformedTemplate
func IsMalformed(err error) bool {
	return err != nil && Is(err, ErrMalformedTemplate)
}

// IsMissingVariable checks if an error is or wraps ErrMissingVariable
func IsMissingVariable(err error) bool {
	return err != nil && Is(err, ErrMissingVariable)
}

// IsInvalidRole checks if an error is or wraps ErrInvalidRole
func IsInvalidRole(err error) bool {
	return err != nil && Is(err, ErrInvalidRole)
}
