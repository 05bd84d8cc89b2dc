package registry

import (
	"fmt"
	"sort"
	"strings"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
)

// Schema is a hand-rolled subset of JSON-Schema: just enough to describe
// and validate MCP tool arguments (object/string/integer/boolean/array,
// required, min/max bounds, enum, default, and oneOf argument groups).
//
// A full JSON-Schema implementation (draft validation, $ref, allOf/anyOf,
// pattern, format) pulls in a reflection-heavy dependency for a surface
// this small; every constraint the tool set actually needs is enumerated
// above, so the subset is written out by hand instead.
type Schema struct {
	Type       string            `json:"type,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
	Items      *Schema           `json:"items,omitempty"`
	Minimum    *float64          `json:"minimum,omitempty"`
	Maximum    *float64          `json:"maximum,omitempty"`
	MinLength  *int              `json:"minLength,omitempty"`
	MaxLength  *int              `json:"maxLength,omitempty"`
	Enum       []any             `json:"enum,omitempty"`
	Default    any               `json:"default,omitempty"`
	OneOf      []Schema          `json:"oneOf,omitempty"`
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

// Validate checks args against the schema (applying defaults, rejecting
// unknown properties) and returns the resulting argument map. The input
// map is not mutated.
func (s Schema) Validate(args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}

	if len(s.OneOf) > 0 {
		if err := validateOneOf(s.OneOf, out); err != nil {
			return nil, err
		}
	}

	for name, prop := range s.Properties {
		if _, present := out[name]; !present && prop.Default != nil {
			out[name] = prop.Default
		}
	}

	for _, req := range s.Required {
		if _, present := out[req]; !present {
			return nil, coreerrors.New(coreerrors.CodeInvalidParams,
				fmt.Sprintf("missing required argument %q", req), nil)
		}
	}

	if s.Type == "object" && s.Properties != nil {
		for name := range out {
			if _, known := s.Properties[name]; !known {
				return nil, coreerrors.New(coreerrors.CodeInvalidParams,
					fmt.Sprintf("unknown argument %q", name), nil)
			}
		}
	}

	for name, prop := range s.Properties {
		v, present := out[name]
		if !present {
			continue
		}
		validated, err := prop.validateValue(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = validated
	}

	return out, nil
}

// validateOneOf enforces that exactly one of the given sub-schemas'
// required-field sets is satisfied by args (mutually exclusive argument
// groups, e.g. getDocument's file_path xor document_id).
func validateOneOf(groups []Schema, args map[string]any) error {
	matched := 0
	var names []string
	for _, g := range groups {
		names = append(names, strings.Join(g.Required, "+"))
		satisfied := true
		for _, req := range g.Required {
			if _, present := args[req]; !present {
				satisfied = false
				break
			}
		}
		if satisfied {
			matched++
		}
	}
	if matched != 1 {
		sort.Strings(names)
		return coreerrors.New(coreerrors.CodeInvalidParams,
			fmt.Sprintf("exactly one of (%s) must be provided", strings.Join(names, " | ")), nil)
	}
	return nil
}

func (s Schema) validateValue(name string, v any) (any, error) {
	switch s.Type {
	case "string":
		str, ok := v.(string)
		if !ok {
			return nil, invalidType(name, "string")
		}
		if s.MinLength != nil && len(str) < *s.MinLength {
			return nil, coreerrors.New(coreerrors.CodeInvalidParams,
				fmt.Sprintf("%q must be at least %d characters", name, *s.MinLength), nil)
		}
		if s.MaxLength != nil && len(str) > *s.MaxLength {
			return nil, coreerrors.New(coreerrors.CodeInvalidParams,
				fmt.Sprintf("%q must be at most %d characters", name, *s.MaxLength), nil)
		}
		if len(s.Enum) > 0 && !enumContains(s.Enum, str) {
			return nil, coreerrors.New(coreerrors.CodeInvalidParams,
				fmt.Sprintf("%q must be one of %v", name, s.Enum), nil)
		}
		return str, nil

	case "integer":
		n, ok := asFloat(v)
		if !ok {
			return nil, invalidType(name, "integer")
		}
		if n != float64(int64(n)) {
			return nil, invalidType(name, "integer")
		}
		if s.Minimum != nil && n < *s.Minimum {
			return nil, coreerrors.New(coreerrors.CodeInvalidParams,
				fmt.Sprintf("%q must be >= %v", name, *s.Minimum), nil)
		}
		if s.Maximum != nil && n > *s.Maximum {
			return nil, coreerrors.New(coreerrors.CodeInvalidParams,
				fmt.Sprintf("%q must be <= %v", name, *s.Maximum), nil)
		}
		return int64(n), nil

	case "boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, invalidType(name, "boolean")
		}
		return b, nil

	case "array":
		arr, ok := v.([]any)
		if !ok {
			return nil, invalidType(name, "array")
		}
		if s.Items != nil {
			result := make([]any, len(arr))
			for i, item := range arr {
				validated, err := s.Items.validateValue(fmt.Sprintf("%s[%d]", name, i), item)
				if err != nil {
					return nil, err
				}
				result[i] = validated
			}
			return result, nil
		}
		return arr, nil

	default:
		return v, nil
	}
}

func invalidType(name, want string) error {
	return coreerrors.New(coreerrors.CodeInvalidParams,
		fmt.Sprintf("%q must be of type %s", name, want), nil)
}

func enumContains(enum []any, v string) bool {
	for _, e := range enum {
		if s, ok := e.(string); ok && s == v {
			return true
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
