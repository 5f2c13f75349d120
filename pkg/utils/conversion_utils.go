package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}

// WholeNumber coerces a loosely-typed JSON numeric value into an int64.
// Non-integer and non-finite values are rejected rather than truncated,
// so "2.5" or 1e99 never silently become a quantity or a price.
func WholeNumber(value json.Number, field string) (int64, error) {
	s := strings.TrimSpace(value.String())
	if s == "" {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Fall back through float so payloads like 10.0 are still accepted.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	return int64(f), nil
}
