package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Приведение типов в операторах повторяет правила JS: сложение со строкой
// склеивает, сравнение двух строк лексикографическое, остальное через числа.

func jsAdd(a, b any) any {
	if isText(a) || isText(b) {
		return jsString(a) + jsString(b)
	}
	return toNumber(a) + toNumber(b)
}

func isText(v any) bool {
	switch v.(type) {
	case string, time.Time:
		return true
	}
	return false
}

func jsString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatNumber(v)
	case time.Time:
		return formatTime(v)
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// jsCompare: ok=false, если значения несравнимы (NaN).
func jsCompare(a, b any) (int, bool) {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}

	x, y := toNumber(a), toNumber(b)
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return 0, false
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	default:
		return 0, true
	}
}

// jsEquals — нестрогое равенство: "5" == 5, но null равен только null.
func jsEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return a == b
		}
	case bool:
		if b, ok := b.(bool); ok {
			return a == b
		}
	case time.Time:
		if b, ok := b.(time.Time); ok {
			return a.Equal(b)
		}
	}

	return toNumber(a) == toNumber(b)
}
