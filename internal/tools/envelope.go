package tools

import (
	"encoding/json"
	"fmt"

	"resdb-mcp/internal/toolerr"

	"github.com/tidwall/pretty"
)

// Envelope is the single response shape of every invocation.
type Envelope struct {
	Success   bool
	Result    any
	Kind      toolerr.Kind
	Message   string
	Tool      string
	Arguments map[string]any
}

type successBody struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

type failureBody struct {
	Success   bool           `json:"success"`
	Error     toolerr.Kind   `json:"error"`
	Message   string         `json:"message"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Succeeded wraps a handler result.
func Succeeded(name string, args map[string]any, result any) Envelope {
	return Envelope{Success: true, Result: result, Tool: name, Arguments: args}
}

// Failed converts err into a failure envelope for the named tool.
func Failed(name string, args map[string]any, err error) Envelope {
	if args == nil {
		args = map[string]any{}
	}
	return Envelope{
		Kind:      toolerr.KindOf(err),
		Message:   fmt.Sprintf("Error executing tool '%s': %s", name, err.Error()),
		Tool:      name,
		Arguments: args,
	}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Success {
		return json.Marshal(successBody{Success: true, Result: e.Result})
	}
	return json.Marshal(failureBody{Error: e.Kind, Message: e.Message, Tool: e.Tool, Arguments: e.Arguments})
}

// Text renders the envelope as indented JSON. A result that cannot be encoded
// becomes a failure envelope instead.
func (e Envelope) Text() string {
	data, err := json.Marshal(e)
	if err != nil {
		data, _ = json.Marshal(Failed(e.Tool, e.Arguments, fmt.Errorf("encode result: %w", err)))
	}
	return string(pretty.Pretty(data))
}
