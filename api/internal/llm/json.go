package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON strips fences around raw and unmarshals it into T.
func DecodeJSON[T any](raw string) (T, error) {
	var out T
	s := StripCodeFences(raw)
	if s == "" {
		return out, ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, fmt.Errorf("bad JSON: %w", err)
	}
	return out, nil
}
