// Package codec decodes response bodies into caller types.
//
// The default decoder accepts snake_case wire names for camelCase targets:
// a payload field "user_id" populates a Go field tagged `json:"userId"`, or an
// untagged field named UserID (matching is case-insensitive).
package codec

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Decoder turns a response body into a value of the caller's type.
// v must be a non-nil pointer.
type Decoder interface {
	Decode(data []byte, v any) error
}

// DecoderFunc adapts a function into a Decoder
type DecoderFunc func(data []byte, v any) error

// Decode implements Decoder
func (f DecoderFunc) Decode(data []byte, v any) error { return f(data, v) }

// rawAPI keeps numbers exact while keys are rewritten.
var rawAPI = sonic.Config{
	EscapeHTML:       true,
	CompactMarshaler: true,
	CopyString:       true,
	UseNumber:        true,
}.Froze()

// api decodes into caller types the way encoding/json does: case-insensitive
// field names, float64 for numbers held in interface values.
var api = sonic.Config{
	EscapeHTML:       true,
	CompactMarshaler: true,
	CopyString:       true,
}.Froze()

// JSON decodes without rewriting keys.
func JSON() Decoder {
	return DecoderFunc(func(data []byte, v any) error {
		return api.Unmarshal(data, v)
	})
}

// SnakeCase converts every object key from snake_case to camelCase before
// decoding into v.
func SnakeCase() Decoder {
	return DecoderFunc(decodeSnakeCase)
}

func decodeSnakeCase(data []byte, v any) error {
	var raw any
	if err := rawAPI.Unmarshal(data, &raw); err != nil {
		return err
	}

	converted, err := rawAPI.Marshal(camelizeKeys(raw))
	if err != nil {
		return err
	}

	return api.Unmarshal(converted, v)
}

func camelizeKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		// When several keys map to the same name, a key that needs no
		// rewriting wins, then the lexically smallest source key.
		out := make(map[string]any, len(v))
		source := make(map[string]string, len(v))
		for k, inner := range v {
			name := SnakeToCamel(k)
			if prev, taken := source[name]; taken && !preferKey(k, prev, name) {
				continue
			}
			source[name] = k
			out[name] = camelizeKeys(inner)
		}
		return out
	case []any:
		for i, inner := range v {
			v[i] = camelizeKeys(inner)
		}
		return v
	default:
		return value
	}
}

// preferKey reports whether candidate should replace current as the source of name
func preferKey(candidate, current, name string) bool {
	if (candidate == name) != (current == name) {
		return candidate == name
	}
	return candidate < current
}

// SnakeToCamel converts a snake_case key to camelCase.
// Leading and trailing underscores are kept, empty segments are dropped,
// the first segment is left as-is and later segments are capitalized with
// the remainder lowercased: "user_id" -> "userId", "_created_AT" -> "_createdAt".
func SnakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	start := 0
	for start < len(key) && key[start] == '_' {
		start++
	}
	end := len(key)
	for end > start && key[end-1] == '_' {
		end--
	}
	if start == end {
		return key
	}

	parts := strings.Split(key[start:end], "_")
	var b strings.Builder
	b.Grow(len(key))
	b.WriteString(key[:start])

	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if first {
			b.WriteString(part)
			first = false
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(part[size:]))
	}

	b.WriteString(key[end:])
	return b.String()
}
