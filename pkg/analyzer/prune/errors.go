package prune

import (
	"errors"
	"fmt"
)

var (
	// ErrStaticName is returned when an export clause names an undeclared local.
	ErrStaticName = errors.New("export names undeclared binding")
	// ErrNameCollision is returned when one name is declared with different kinds.
	ErrNameCollision = errors.New("conflicting top-level declarations")
	// ErrInconsistent is returned when pruning would drop an exported binding.
	ErrInconsistent = errors.New("exported binding marked dead")
	// ErrSyntax is returned when the module does not parse cleanly.
	ErrSyntax = errors.New("syntax error")
)

// StaticNameError reports an export of a name with no top-level declaration.
type StaticNameError struct {
	Path string
	Name string
	Line uint32
}

func (e *StaticNameError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %s", e.Path, e.Line, ErrStaticName, e.Name)
}

func (e *StaticNameError) Unwrap() error { return ErrStaticName }

// NameCollisionError reports a name declared twice with different kinds.
type NameCollisionError struct {
	Path   string
	Name   string
	First  Kind
	Second Kind
	Line   uint32
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %s declared as %s and %s", e.Path, e.Line, ErrNameCollision, e.Name, e.First, e.Second)
}

func (e *NameCollisionError) Unwrap() error { return ErrNameCollision }

// InconsistencyError reports an export-clause local found dead after reachability.
type InconsistencyError struct {
	Path string
	Name string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Path, ErrInconsistent, e.Name)
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistent }

// ParseError reports a module that tree-sitter could not parse cleanly.
type ParseError struct {
	Path   string
	Line   uint32
	Column uint32
	Near   string
}

func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("%s:%d:%d: %v near %q", e.Path, e.Line, e.Column, ErrSyntax, e.Near)
	}
	return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, ErrSyntax)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

// Identifier returns the offending identifier of a pruning error, if any.
func Identifier(err error) string {
	var sn *StaticNameError
	if errors.As(err, &sn) {
		return sn.Name
	}
	var nc *NameCollisionError
	if errors.As(err, &nc) {
		return nc.Name
	}
	var ie *InconsistencyError
	if errors.As(err, &ie) {
		return ie.Name
	}
	return ""
}

// Code classifies a pruning error for reports.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrSyntax):
		return "syntax"
	case errors.Is(err, ErrStaticName):
		return "static_name"
	case errors.Is(err, ErrNameCollision):
		return "name_collision"
	case errors.Is(err, ErrInconsistent):
		return "inconsistent"
	}
	return "error"
}
