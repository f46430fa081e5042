package recordstore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func String(r Record, key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func Int(r Record, key string) (int64, bool) {
	switch v := r[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func Decimal(r Record, key string) decimal.Decimal {
	switch v := r[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	case decimal.Decimal:
		return v
	default:
		return decimal.Zero
	}
}

// Bool normalises fields that arrive either as a native boolean or as the
// strings "true"/"false".
func Bool(r Record, key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// Lines decodes a newline-delimited multi-valued field.
func Lines(r Record, key string) []string {
	return split(String(r, key), "\n")
}

// CSV decodes a comma-delimited multi-valued field.
func CSV(r Record, key string) []string {
	return split(String(r, key), ",")
}

func split(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinLines(values []string) string { return strings.Join(values, "\n") }

func JoinCSV(values []string) string { return strings.Join(values, ",") }

// JSONStrings decodes a field holding a JSON encoded string array.
func JSONStrings(r Record, key string) ([]string, error) {
	raw := String(r, key)
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}
