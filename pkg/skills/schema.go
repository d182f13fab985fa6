package skills

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
)

// ParamType enumerates the value types a skill parameter may declare.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// ParamSpec declares one recognized parameter: its type, whether it is
// required, an optional default, and an optional closed set of allowed values.
type ParamSpec struct {
	Type     ParamType `json:"type" yaml:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any       `json:"default,omitempty" yaml:"default,omitempty"`
	Enum     []any     `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Schema is the declarative parameter table a skill publishes so callers can
// build valid inputs without executing it. Unknown parameter keys are ignored.
type Schema map[string]ParamSpec

// Violations checks presence, type, and enum membership for every declared
// parameter and returns every violation found, sorted by parameter name.
// An empty slice means the parameters are valid.
func (s Schema) Violations(params map[string]any) []string {
	var out []string
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := s[name]
		value, present := params[name]
		if !present {
			if spec.Required {
				out = append(out, fmt.Sprintf("%s: required parameter missing", name))
			}
			continue
		}
		if !matchesType(spec.Type, value) {
			out = append(out, fmt.Sprintf("%s: expected %s, got %T", name, spec.Type, value))
			continue
		}
		if len(spec.Enum) > 0 && !enumContains(spec.Enum, value) {
			out = append(out, fmt.Sprintf("%s: value %v not in allowed set %v", name, value, spec.Enum))
		}
	}
	return out
}

// Validate returns a typed validation error listing every violation, or nil.
func (s Schema) Validate(params map[string]any) error {
	violations := s.Violations(params)
	if len(violations) == 0 {
		return nil
	}
	return errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid parameters (%d violations)", len(violations)), nil).
		WithContext("violations", violations).
		WithRecoverable(true)
}

// ApplyDefaults returns a copy of params with declared defaults filled in for
// absent keys. The input map is never mutated.
func (s Schema) ApplyDefaults(params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+len(s))
	for k, v := range params {
		out[k] = v
	}
	for name, spec := range s {
		if _, present := out[name]; !present && spec.Default != nil {
			out[name] = spec.Default
		}
	}
	return out
}

func matchesType(t ParamType, value any) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeInteger:
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == math.Trunc(v)
		case json.Number:
			_, err := v.Int64()
			return err == nil
		}
		return false
	case TypeNumber:
		switch v := value.(type) {
		case int, int32, int64, float32, float64:
			return true
		case json.Number:
			_, err := v.Float64()
			return err == nil
		}
		return false
	default:
		return true
	}
}

func enumContains(enum []any, value any) bool {
	for _, allowed := range enum {
		if fmt.Sprint(allowed) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}
