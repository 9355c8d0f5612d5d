// Package formula вычисляет пользовательские колонки конструктора отчетов.
//
// Формула ссылается на колонки строки как на [Имя колонки], поддерживает
// псевдо-функции IF, NOW, DAYS, ROUND, арифметику, сравнения и тернарный
// оператор. Текст формулы никогда не исполняется как код: он разбирается
// токенизатором и вычисляется ограниченным интерпретатором.
package formula

import (
	"errors"
)

// ErrorMarker пишется во все ячейки колонки, формула которой не прошла проверку.
const ErrorMarker = "Ошибка"

var (
	ErrSyntax    = errors.New("синтаксическая ошибка")
	ErrForbidden = errors.New("недопустимая конструкция")
)

// Definition — пользовательская колонка отчета.
type Definition struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

func (d Definition) applicable() bool {
	return d.Name != "" && d.Formula != ""
}

// Row — строка данных: имя колонки -> значение.
type Row map[string]any

type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Cell — результат вычисления формулы для одной строки.
type Cell struct {
	Value any
	Err   error
}

// Diagnostic описывает ячейку, которую не удалось вычислить.
// Row == -1 означает, что формула отклонена целиком.
type Diagnostic struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Formula string `json:"formula"`
	Error   string `json:"error"`
}
