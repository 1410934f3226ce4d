package resdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"unicode/utf16"
	"unicode/utf8"

	"resdb-mcp/internal/toolerr"

	"github.com/tidwall/gjson"
)

const getKeyValueQuery = `query GetKeyValue($key: String!) {
  keyValue(key: $key) {
    key
    value
    timestamp
  }
}`

const setKeyValueMutation = `mutation SetKeyValue($key: String!, $value: String!) {
  setKeyValue(key: $key, value: $value) {
    key
    value
    timestamp
  }
}`

// KeyValue is the shape returned by Get and Set whichever endpoint served
// the request.
type KeyValue struct {
	Key       string `json:"key"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Get reads a key. The REST endpoint is used when configured, GraphQL
// otherwise.
func (c *Client) Get(ctx context.Context, key string) (KeyValue, error) {
	if c.UsesREST() {
		return c.restGet(ctx, key)
	}
	data, err := c.execute(ctx, getKeyValueQuery, map[string]any{"key": key})
	if err != nil {
		return KeyValue{}, err
	}
	return keyValueFrom(data.Get("keyValue"), key), nil
}

// Set stores a value under key. Non-string values, null included, are stored
// as their JSON text in the form other ResilientDB tooling writes it:
// `{"a": 1}`, not `{"a":1}`.
func (c *Client) Set(ctx context.Context, key string, value any) (KeyValue, error) {
	text, err := stringify(value)
	if err != nil {
		return KeyValue{}, err
	}
	if c.UsesREST() {
		return c.restSet(ctx, key, text)
	}
	data, err := c.execute(ctx, setKeyValueMutation, map[string]any{"key": key, "value": text})
	if err != nil {
		return KeyValue{}, err
	}
	return keyValueFrom(data.Get("setKeyValue"), key), nil
}

func (c *Client) restGet(ctx context.Context, key string) (KeyValue, error) {
	body, err := c.do(ctx, http.MethodGet, c.kvURL+"/v1/transactions/"+url.PathEscape(key), nil)
	if err != nil {
		return KeyValue{}, err
	}
	if !gjson.ValidBytes(body) {
		return KeyValue{}, toolerr.New(toolerr.Transport, "key/value endpoint returned invalid JSON for key %s", key)
	}
	result := gjson.ParseBytes(body)
	kv := KeyValue{Key: result.Get("id").String(), Value: result.Get("value").Value()}
	if kv.Key == "" {
		kv.Key = key
	}
	return kv, nil
}

func (c *Client) restSet(ctx context.Context, key, value string) (KeyValue, error) {
	payload := map[string]string{"id": key, "value": value}
	if _, err := c.do(ctx, http.MethodPost, c.kvURL+"/v1/transactions/commit", payload); err != nil {
		return KeyValue{}, err
	}
	return KeyValue{Key: key, Value: value}, nil
}

func keyValueFrom(result gjson.Result, key string) KeyValue {
	kv := KeyValue{Key: key}
	if !result.Exists() || result.Type == gjson.Null {
		return kv
	}
	if k := result.Get("key").String(); k != "" {
		kv.Key = k
	}
	kv.Value = result.Get("value").Value()
	kv.Timestamp = result.Get("timestamp").String()
	return kv
}

func stringify(value any) (string, error) {
	if text, ok := value.(string); ok {
		return text, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", toolerr.Wrap(toolerr.Validation, err, "value is not JSON-serializable")
	}
	return spaced(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// spaced rewrites compact JSON with ", " and ": " separators and ASCII-only
// string contents.
func spaced(compact []byte) string {
	var out bytes.Buffer
	inString, escaped := false, false
	for i := 0; i < len(compact); {
		r, size := utf8.DecodeRune(compact[i:])
		i += size
		switch {
		case r >= utf8.RuneSelf:
			if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
				fmt.Fprintf(&out, "\\u%04x\\u%04x", r1, r2)
			} else {
				fmt.Fprintf(&out, "\\u%04x", r)
			}
			continue
		case inString:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
		case r == '"':
			inString = true
		case r == ',' || r == ':':
			out.WriteRune(r)
			out.WriteByte(' ')
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
