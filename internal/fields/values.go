package fields

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw answers arrive from two places: decoded JSON (string, float64, bool,
// []any) and url-encoded form posts (string, []string). These helpers
// accept both.

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []string:
		if len(x) == 1 {
			return x[0], true
		}
	case []any:
		if len(x) == 1 {
			return asString(x[0])
		}
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func asStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		if x == "" {
			return nil, true
		}
		return []string{x}, true
	}
	return nil, false
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		n, err := strconv.Atoi(x.String())
		return n, err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	case []string:
		if len(x) == 1 {
			return asInt(x[0])
		}
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "on", "true", "yes", "1":
			return true, true
		case "", "off", "false", "no", "0":
			return false, true
		}
	case []string:
		if len(x) == 1 {
			return asBool(x[0])
		}
	}
	return false, false
}

func itoa(n int) string { return strconv.Itoa(n) }
