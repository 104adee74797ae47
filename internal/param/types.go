package param

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"xjsf/internal/models"

	"github.com/Masterminds/semver/v3"
)

var errInvalid = errors.New("invalid")

// Value declares one allowed value of an enumerated parameter.
type Value struct {
	Name        string
	Description string
}

func describeValues(vs []Value) []models.ValueDescription {
	out := make([]models.ValueDescription, len(vs))
	for i, v := range vs {
		out[i] = models.ValueDescription{Name: v.Name, Description: v.Description}
	}
	return out
}

// canonical finds the declared name matching raw, ignoring case.
func canonical(vs []Value, raw string) (string, bool) {
	for _, v := range vs {
		if strings.EqualFold(v.Name, raw) {
			return v.Name, true
		}
	}
	return "", false
}

func identity(s string) string { return s }

func eq[T comparable](a, b T) bool { return a == b }

// splitList splits on any of ",;:" and drops blank elements.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ':'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func joinList(vs []string) string { return strings.Join(vs, ",") }

func String(name, description, def string) *Typed[string] {
	return &Typed[string]{
		name:        name,
		description: description,
		typeTag:     "string",
		def:         def,
		parse:       func(raw string) (string, error) { return raw, nil },
		format:      identity,
		equal:       eq[string],
	}
}

// CaseInsensitiveString lower-cases its value.
func CaseInsensitiveString(name, description, def string) *Typed[string] {
	p := String(name, description, strings.ToLower(def))
	p.typeTag = "caseInsensitiveString"
	p.parse = func(raw string) (string, error) { return strings.ToLower(raw), nil }
	return p
}

// Bool accepts true/false, yes/no, on/off and 1/0 in any case.
func Bool(name, description string, def bool) *Typed[bool] {
	return &Typed[bool]{
		name:        name,
		description: description,
		typeTag:     "boolean",
		def:         def,
		parse: func(raw string) (bool, error) {
			switch strings.ToLower(raw) {
			case "true", "yes", "on", "1":
				return true, nil
			case "false", "no", "off", "0":
				return false, nil
			}
			return false, errInvalid
		},
		format: strconv.FormatBool,
		equal:  eq[bool],
	}
}

func Int(name, description string, def int) *Typed[int] {
	return &Typed[int]{
		name:        name,
		description: description,
		typeTag:     "integer",
		def:         def,
		parse: func(raw string) (int, error) {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return 0, errInvalid
			}
			return v, nil
		},
		format: strconv.Itoa,
		equal:  eq[int],
	}
}

// IntInRange is Int restricted to [min, max].
func IntInRange(name, description string, def, min, max int) *Typed[int] {
	p := Int(name, description, def)
	parse := p.parse
	p.parse = func(raw string) (int, error) {
		v, err := parse(raw)
		if err != nil {
			return 0, err
		}
		if v < min || v > max {
			return 0, errors.New("must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max))
		}
		return v, nil
	}
	return p
}

func Float(name, description string, def float64) *Typed[float64] {
	return &Typed[float64]{
		name:        name,
		description: description,
		typeTag:     "float",
		def:         def,
		parse: func(raw string) (float64, error) {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return 0, errInvalid
			}
			return v, nil
		},
		format: func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) },
		equal:  eq[float64],
	}
}

// Enum accepts one of the declared names, case-insensitively, and yields the
// declared spelling. Anything else is invalid.
func Enum(name, description, def string, values ...Value) *Typed[string] {
	return &Typed[string]{
		name:        name,
		description: description,
		typeTag:     "enum",
		def:         def,
		parse: func(raw string) (string, error) {
			if v, ok := canonical(values, raw); ok {
				return v, nil
			}
			return "", errors.New("not one of the declared values")
		},
		format: identity,
		equal:  eq[string],
		values: describeValues(values),
	}
}

// Choice is Enum that falls back to the default on an unknown value instead
// of failing.
func Choice(name, description, def string, values ...Value) *Typed[string] {
	p := Enum(name, description, def, values...)
	p.typeTag = "choice"
	p.parse = func(raw string) (string, error) {
		if v, ok := canonical(values, raw); ok {
			return v, nil
		}
		return def, nil
	}
	return p
}

// EnumSet accepts a ,;: separated list of declared names. Unknown members
// are dropped and duplicates collapse.
func EnumSet(name, description string, def []string, values ...Value) *Typed[[]string] {
	return &Typed[[]string]{
		name:        name,
		description: description,
		typeTag:     "enumSet",
		def:         def,
		parse: func(raw string) ([]string, error) {
			var out []string
			for _, member := range splitList(raw) {
				if v, ok := canonical(values, member); ok && !slices.Contains(out, v) {
					out = append(out, v)
				}
			}
			return out, nil
		},
		format: joinList,
		equal:  slices.Equal[[]string],
		values: describeValues(values),
	}
}

// StringList splits on ,;: and trims each element.
func StringList(name, description string, def []string) *Typed[[]string] {
	return &Typed[[]string]{
		name:        name,
		description: description,
		typeTag:     "stringList",
		def:         def,
		parse:       func(raw string) ([]string, error) { return splitList(raw), nil },
		format:      joinList,
		equal:       slices.Equal[[]string],
	}
}

// Version parses a semantic version. A nil default means "no version".
func Version(name, description string, def *semver.Version) *Typed[*semver.Version] {
	return &Typed[*semver.Version]{
		name:        name,
		description: description,
		typeTag:     "version",
		def:         def,
		parse: func(raw string) (*semver.Version, error) {
			v, err := semver.NewVersion(raw)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		format: func(v *semver.Version) string {
			if v == nil {
				return ""
			}
			return v.String()
		},
		equal: func(a, b *semver.Version) bool {
			if a == nil || b == nil {
				return a == b
			}
			return a.Equal(b)
		},
	}
}
