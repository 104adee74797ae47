// Package param declares typed request parameters.
//
// A parameter knows its name, how to parse a raw form value, its default and
// how to describe itself for generated help. Services declare their
// parameters once and read them per request:
//
//	var repeat = param.IntInRange("repeat", "How many times to repeat", 1, 1, 100)
//
//	n, err := repeat.Value(r.Form)
//
// A missing or blank value yields the default. A value that does not parse
// yields an *InvalidValueError naming the parameter.
package param

import (
	"fmt"
	"net/url"
	"strings"

	"xjsf/internal/models"
)

// Parameter is the type-erased view used by descriptors and groups.
type Parameter interface {
	Name() string
	Describe() models.ParameterDescription
	// Specified reports whether values carries a parseable, non-default value.
	Specified(values url.Values) bool
}

// InvalidValueError reports a present but unusable parameter value.
type InvalidValueError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid value %q for parameter %s", e.Value, e.Name)
	}
	return fmt.Sprintf("invalid value %q for parameter %s: %s", e.Value, e.Name, e.Reason)
}

// Typed is a parameter whose values have Go type T.
type Typed[T any] struct {
	name        string
	description string
	typeTag     string
	def         T
	parse       func(raw string) (T, error)
	format      func(T) string
	equal       func(a, b T) bool
	values      []models.ValueDescription
}

func (p *Typed[T]) Name() string { return p.name }

func (p *Typed[T]) Default() T { return p.def }

// Format renders v the way help and examples show it.
func (p *Typed[T]) Format(v T) string { return p.format(v) }

// Raw looks up the parameter's raw value. Blank counts as absent.
func (p *Typed[T]) Raw(values url.Values) (string, bool) {
	raw := strings.TrimSpace(values.Get(p.name))
	return raw, raw != ""
}

// Value extracts the parameter from values.
func (p *Typed[T]) Value(values url.Values) (T, error) {
	raw, ok := p.Raw(values)
	if !ok {
		return p.def, nil
	}
	v, err := p.parse(raw)
	if err != nil {
		reason := ""
		if err != errInvalid {
			reason = err.Error()
		}
		return p.def, &InvalidValueError{Name: p.name, Value: raw, Reason: reason}
	}
	return v, nil
}

func (p *Typed[T]) Specified(values url.Values) bool {
	if _, ok := p.Raw(values); !ok {
		return false
	}
	v, err := p.Value(values)
	return err == nil && !p.equal(v, p.def)
}

func (p *Typed[T]) Describe() models.ParameterDescription {
	return models.ParameterDescription{
		Name:        p.name,
		Type:        p.typeTag,
		Default:     p.format(p.def),
		Description: p.description,
		Values:      p.values,
	}
}

// Example pairs a parameter with a value for use in a service example.
func (p *Typed[T]) Example(v T) Setting {
	return Setting{Name: p.name, Value: p.format(v)}
}

// Setting is one name=value pair of an example invocation.
type Setting struct {
	Name  string
	Value string
}
