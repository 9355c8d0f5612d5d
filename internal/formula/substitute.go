package formula

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Env — значения колонок, на которые ссылается формула, по именам переменных.
type Env map[string]any

// Substituter заменяет ссылки [Колонка] на переменные со значениями из строки.
type Substituter interface {
	Substitute(tokens []Token, row Row) ([]Token, Env)
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// ColumnSubstituter — стандартная подстановка значений колонок.
// Одинаковые ссылки получают одну и ту же переменную.
type ColumnSubstituter struct{}

func (ColumnSubstituter) Substitute(tokens []Token, row Row) ([]Token, Env) {
	out := make([]Token, len(tokens))
	env := Env{}
	bound := make(map[string]string)

	for i, t := range tokens {
		if t.Kind != TokenColumn {
			out[i] = t
			continue
		}

		name, ok := bound[t.Value]
		if !ok {
			name = "col" + strconv.Itoa(len(bound))
			bound[t.Value] = name
			env[name] = ColumnValue(row[t.Value])
		}
		out[i] = Token{Kind: TokenIdent, Value: name, Pos: t.Pos}
	}

	return out, env
}

// ColumnValue приводит значение колонки к виду, пригодному для вычисления:
// пусто -> 0, числа как есть, даты строкой, остальные строки — число, если парсится.
func ColumnValue(v any) any {
	switch v := v.(type) {
	case nil:
		return 0
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return numberValue(float64(v))
	case float32:
		return numberValue(float64(v))
	case float64:
		return numberValue(v)
	case decimal.Decimal:
		f, _ := v.Float64()
		return numberValue(f)
	case json.Number:
		return stringValue(v.String())
	case bool:
		return v
	case time.Time:
		return formatTime(v)
	case []byte:
		return stringValue(string(v))
	case string:
		return stringValue(v)
	default:
		return stringValue(fmt.Sprint(v))
	}
}

func stringValue(s string) any {
	if datePrefix.MatchString(s) {
		return s
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return s
	}
	f, _ := d.Float64()

	return numberValue(f)
}

// numberValue хранит целые как int.
func numberValue(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
