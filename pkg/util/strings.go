package util

import (
	"fmt"
	"strconv"
	"strings"
)

// GetAsString converts various types to string
// Accepts string, numeric types and []any containing a single such value
func GetAsString(s any) (string, error) {
	switch v := s.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case []any:
		if len(v) == 0 {
			return "", fmt.Errorf("cannot convert empty slice to string")
		}
		return GetAsString(v[0])
	case nil:
		return "", fmt.Errorf("cannot convert nil to string")
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// GetAsInteger converts various types to integer
// Tolerates numeric strings and float64 values from JSON decoding
func GetAsInteger(s any) (int, error) {
	switch v := s.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		t := strings.TrimSpace(v)
		if t == "" {
			return 0, fmt.Errorf("cannot convert empty string to integer")
		}
		i, err := strconv.Atoi(t)
		if err != nil {
			// JSON numbers sometimes arrive as "2.0"
			f, ferr := strconv.ParseFloat(t, 64)
			if ferr != nil {
				return 0, fmt.Errorf("cannot convert %q to integer: %w", v, err)
			}
			return int(f), nil
		}
		return i, nil
	case []any:
		if len(v) == 0 {
			return 0, fmt.Errorf("cannot convert empty slice to integer")
		}
		return GetAsInteger(v[0])
	case nil:
		return 0, fmt.Errorf("cannot convert nil to integer")
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", s)
	}
}

// GetAsFloat converts various types to float64
// Understat serves most numbers as strings so this is lenient
func GetAsFloat(s any) (float64, error) {
	switch v := s.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		t := strings.TrimSpace(v)
		if t == "" {
			return 0, fmt.Errorf("cannot convert empty string to float")
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float: %w", v, err)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("cannot convert nil to float")
	default:
		return 0, fmt.Errorf("cannot convert %T to float", s)
	}
}
