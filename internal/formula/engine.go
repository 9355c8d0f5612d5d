package formula

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine применяет пользовательские формулы к строкам отчета.
// Не хранит состояния между вызовами.
type Engine struct {
	log         *slog.Logger
	substituter Substituter
	evaluator   *Evaluator
	workers     int
}

type Option func(*Engine)

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithSubstituter(s Substituter) Option {
	return func(e *Engine) { e.substituter = s }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.evaluator = NewEvaluator(now) }
}

// WithWorkers распараллеливает вычисление по строкам; порядок строк сохраняется.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:         slog.Default(),
		substituter: ColumnSubstituter{},
		evaluator:   NewEvaluator(time.Now),
		workers:     1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Validate(formula string) ValidationResult {
	return Validate(formula)
}

// Check дополнительно разбирает формулу без значений колонок, чтобы поймать
// опечатки в именах функций до генерации отчета. Тип колонок неизвестен,
// поэтому сравнение колонки со строкой допустимо.
func (e *Engine) Check(formula string) ValidationResult {
	if res := Validate(formula); !res.Valid {
		return res
	}

	tokens, err := Tokenize(formula)
	if err != nil {
		return ValidationResult{Error: err.Error()}
	}
	tokens, env := e.substituter.Substitute(tokens, Row{})
	source, err := Expand(tokens)
	if err != nil {
		return ValidationResult{Error: err.Error()}
	}
	if _, err := e.evaluator.CompileUntyped(source, env); err != nil {
		return ValidationResult{Error: err.Error()}
	}

	return ValidationResult{Valid: true}
}

// Calculate вычисляет формулу для одной строки. Ошибка не прерывает отчет:
// значение ячейки становится 0, а причина возвращается в Cell.Err.
func (e *Engine) Calculate(formula string, row Row) Cell {
	const op = "formula.Engine.Calculate"

	source, value, err := e.calculate(formula, row)
	if err != nil {
		e.log.Warn("ошибка вычисления формулы",
			slog.String("op", op),
			slog.String("formula", formula),
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return Cell{Value: 0.0, Err: err}
	}

	return Cell{Value: value}
}

func (e *Engine) calculate(formula string, row Row) (string, any, error) {
	tokens, err := Tokenize(formula)
	if err != nil {
		return "", nil, err
	}

	tokens, env := e.substituter.Substitute(tokens, row)

	source, err := Expand(tokens)
	if err != nil {
		return "", nil, err
	}

	raw, err := e.evaluator.Evaluate(source, env)
	if err != nil {
		return source, nil, err
	}

	value, err := Normalize(raw)
	if err != nil {
		return source, nil, err
	}

	return source, value, nil
}

// Apply возвращает новые строки с вычисленными колонками.
func (e *Engine) Apply(rows []Row, defs []Definition) []Row {
	out, _ := e.ApplyWithDiagnostics(rows, defs)
	return out
}

// ApplyWithDiagnostics как Apply, но дополнительно сообщает о ячейках с ошибками.
// Входные строки не изменяются; при совпадении имен побеждает последняя формула.
func (e *Engine) ApplyWithDiagnostics(rows []Row, defs []Definition) ([]Row, []Diagnostic) {
	valid := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.applicable() {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return rows, nil
	}

	// проверка не зависит от данных строки
	checks := make([]ValidationResult, len(valid))
	var diags []Diagnostic
	for i, d := range valid {
		checks[i] = Validate(d.Formula)
		if !checks[i].Valid {
			diags = append(diags, Diagnostic{Row: -1, Column: d.Name, Formula: d.Formula, Error: checks[i].Error})
		}
	}

	out := make([]Row, len(rows))
	rowDiags := make([][]Diagnostic, len(rows))

	apply := func(i int) {
		out[i], rowDiags[i] = e.applyRow(i, rows[i], valid, checks)
	}

	if e.workers > 1 && len(rows) > e.workers {
		var g errgroup.Group
		g.SetLimit(e.workers)
		chunk := (len(rows) + e.workers - 1) / e.workers
		for from := 0; from < len(rows); from += chunk {
			to := min(from+chunk, len(rows))
			g.Go(func() error {
				for i := from; i < to; i++ {
					apply(i)
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range rows {
			apply(i)
		}
	}

	for _, d := range rowDiags {
		diags = append(diags, d...)
	}

	return out, diags
}

func (e *Engine) applyRow(idx int, row Row, defs []Definition, checks []ValidationResult) (Row, []Diagnostic) {
	newRow := make(Row, len(row)+len(defs))
	for k, v := range row {
		newRow[k] = v
	}

	var diags []Diagnostic
	for i, d := range defs {
		if !checks[i].Valid {
			newRow[d.Name] = ErrorMarker
			continue
		}

		// значения берутся из исходной строки, как и в конструкторе отчетов
		cell := e.Calculate(d.Formula, row)
		newRow[d.Name] = cell.Value
		if cell.Err != nil {
			diags = append(diags, Diagnostic{Row: idx, Column: d.Name, Formula: d.Formula, Error: cell.Err.Error()})
		}
	}

	return newRow, diags
}

func (d Diagnostic) String() string {
	if d.Row < 0 {
		return fmt.Sprintf("%s: %s", d.Column, d.Error)
	}
	return fmt.Sprintf("%s (строка %d): %s", d.Column, d.Row+1, d.Error)
}
