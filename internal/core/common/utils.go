package common

import (
	"encoding/json"
	"fmt"
)

// ParseJSON cleans and unmarshals a JSON payload into a type T. Uploaded
// thread dumps often arrive with log lines or shell noise around the JSON,
// so it trims to the outermost object or array before decoding.
func ParseJSON[T any](payload string) (T, error) {
	var zero T

	start := -1
	var closing byte
	for i := 0; i < len(payload); i++ {
		if payload[i] == '{' || payload[i] == '[' {
			start = i
			closing = '}'
			if payload[i] == '[' {
				closing = ']'
			}
			break
		}
	}
	if start == -1 {
		return zero, fmt.Errorf("no JSON object or array found in payload")
	}

	end := -1
	for i := len(payload) - 1; i >= start; i-- {
		if payload[i] == closing {
			end = i + 1
			break
		}
	}
	if end == -1 {
		return zero, fmt.Errorf("unterminated JSON payload (missing '%c')", closing)
	}

	var result T
	if err := json.Unmarshal([]byte(payload[start:end]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
