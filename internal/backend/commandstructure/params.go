package commandstructure

import (
	"fmt"
	"strconv"
	"strings"
)

// Command parameters arrive from YAML or TOML decoding, so numbers may be any of
// int, int64 or float64 and booleans may be quoted.

// GetStringParam returns params[key] when it is a string, otherwise defaultValue
func GetStringParam(params map[string]any, key string, defaultValue string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetIntParam returns params[key] as an int; fractional values are truncated
func GetIntParam(params map[string]any, key string, defaultValue int) int {
	if v, ok := number(params[key]); ok {
		return int(v)
	}
	return defaultValue
}

// GetFloatParam returns params[key] as a float64
func GetFloatParam(params map[string]any, key string, defaultValue float64) float64 {
	if v, ok := number(params[key]); ok {
		return v
	}
	return defaultValue
}

// GetBoolParam returns params[key] as a bool. Strings accepted by
// strconv.ParseBool count as well.
func GetBoolParam(params map[string]any, key string, defaultValue bool) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// ValidateRequiredParams reports the first key in required missing from params
func ValidateRequiredParams(params map[string]any, required []string) error {
	for _, key := range required {
		if _, ok := params[key]; !ok {
			return fmt.Errorf("missing required parameter: %s", key)
		}
	}
	return nil
}
