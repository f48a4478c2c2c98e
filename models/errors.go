package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownInsight is matched by *UnknownInsightError.
	ErrUnknownInsight = errors.New("unknown insight")
	// ErrShapeMismatch is matched by *ShapeMismatchError.
	ErrShapeMismatch = errors.New("chart shape mismatch")
	// ErrSchema is matched by *SchemaError.
	ErrSchema = errors.New("dataset schema error")
	// ErrDivisionUndefined is returned by ratio helpers when the denominator is zero.
	ErrDivisionUndefined = errors.New("division undefined")
	// ErrUndefined marks an aggregation over an empty group.
	ErrUndefined = errors.New("aggregation undefined")
)

// UnknownInsightError is returned when a selector key is not registered.
type UnknownInsightError struct {
	Key string
}

func (e *UnknownInsightError) Error() string {
	return fmt.Sprintf("unknown insight %q", e.Key)
}

func (e *UnknownInsightError) Is(target error) bool { return target == ErrUnknownInsight }

// ShapeMismatchError is returned when chart input does not match the shape
// the archetype requires.
type ShapeMismatchError struct {
	Archetype Archetype
	Want      Shape
	Got       Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s chart requires %s input, got %s", e.Archetype, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// SchemaError lists required dataset fields that are absent.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Source, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// RequiredFields are the columns every dataset provider must expose.
var RequiredFields = []string{"age", "fare", "sex", "class", "survived"}
