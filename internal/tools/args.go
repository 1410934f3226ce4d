package tools

import (
	"fmt"
	"strings"

	"resdb-mcp/internal/toolerr"
)

// Args holds the arguments of one invocation. JSON null is treated the same
// as an absent key.
type Args map[string]any

func (a Args) present(name string) bool {
	value, ok := a[name]
	return ok && value != nil
}

// String returns a required string argument.
func (a Args) String(name string) (string, error) {
	if !a.present(name) {
		return "", missing(name)
	}
	text, ok := a[name].(string)
	if !ok {
		return "", wrongType(name, "string", a[name])
	}
	return text, nil
}

// OptionalString returns a string argument or "" when absent.
func (a Args) OptionalString(name string) (string, error) {
	if !a.present(name) {
		return "", nil
	}
	return a.String(name)
}

// Strings returns an optional array-of-strings argument.
func (a Args) Strings(name string) ([]string, error) {
	if !a.present(name) {
		return nil, nil
	}
	items, ok := a[name].([]any)
	if !ok {
		return nil, wrongType(name, "array", a[name])
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		text, ok := item.(string)
		if !ok {
			return nil, toolerr.New(toolerr.Validation, "argument %s[%d] must be a string, got %s", name, i, jsonType(item))
		}
		out = append(out, text)
	}
	return out, nil
}

// Object returns a required object argument.
func (a Args) Object(name string) (map[string]any, error) {
	if !a.present(name) {
		return nil, missing(name)
	}
	obj, ok := a[name].(map[string]any)
	if !ok {
		return nil, wrongType(name, "object", a[name])
	}
	return obj, nil
}

// Value returns a required argument of any JSON type. JSON null is a value
// here, not an absence.
func (a Args) Value(name string) (any, error) {
	value, ok := a[name]
	if !ok {
		return nil, missing(name)
	}
	return value, nil
}

// withoutNulls copies a, dropping null members unless keep reports that the
// member accepts null.
func (a Args) withoutNulls(keep func(name string) bool) map[string]any {
	out := make(map[string]any, len(a))
	for key, value := range a {
		if value != nil || keep(key) {
			out[key] = value
		}
	}
	return out
}

func missing(name string) error {
	return toolerr.New(toolerr.Validation, "missing required argument: %s", name)
}

func wrongType(name, want string, value any) error {
	return toolerr.New(toolerr.Validation, "argument %s must be %s, got %s", name, want, jsonType(value))
}

func jsonType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", value), "*")
}
