package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SplitList splits a comma separated value, trimming whitespace and
// dropping empty entries. An input with no entries yields nil.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// StringArg returns the named string argument, or "" when it is absent
// or of another type.
func StringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

// RequiredStringArg is like StringArg but fails on a missing or empty value.
func RequiredStringArg(args map[string]interface{}, name string) (string, error) {
	s := strings.TrimSpace(StringArg(args, name))
	if s == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

// BoolArg returns the named boolean argument, defaulting to false.
func BoolArg(args map[string]interface{}, name string) bool {
	b, _ := args[name].(bool)
	return b
}

// IntArg returns the named numeric argument. JSON numbers arrive as
// float64; numeric strings are accepted too.
func IntArg(args map[string]interface{}, name string, def int64) (int64, error) {
	switch v := args[name].(type) {
	case nil:
		return def, nil
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	case string:
		if v == "" {
			return def, nil
		}
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// ListArg accepts either a comma separated string or an array of strings.
// An absent argument yields nil.
func ListArg(args map[string]interface{}, name string) ([]string, error) {
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case string:
		return SplitList(v), nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			if s = strings.TrimSpace(s); s != "" {
				result = append(result, s)
			}
		}
		return result, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}
}
