package report

import (
	"errors"
	"fmt"

	"collect-reports/internal/formula"
)

var (
	ErrNoTables          = errors.New("выберите хотя бы одну таблицу")
	ErrInvalidFormula    = errors.New("ошибка в формуле")
	ErrTooManyFormulas   = errors.New("слишком много пользовательских колонок")
	ErrInvalidDate       = errors.New("некорректная дата")
	ErrTitleRequired     = errors.New("название отчета обязательно")
	ErrUnsupportedFormat = errors.New("неверный формат файла, допустим: excel")
)

// Config — сохраняемая конфигурация конструктора отчетов.
type Config struct {
	Tables        []string             `json:"tables"`
	Columns       map[string][]string  `json:"columns"`
	CustomColumns []formula.Definition `json:"customColumns"`
	StartDate     string               `json:"startDate"`
	EndDate       string               `json:"endDate"`
}

// formulas возвращает только заполненные пользовательские колонки.
func (c Config) formulas() []formula.Definition {
	defs := make([]formula.Definition, 0, len(c.CustomColumns))
	for _, d := range c.CustomColumns {
		if d.Name != "" && d.Formula != "" {
			defs = append(defs, d)
		}
	}
	return defs
}

type Result struct {
	Tables []TableResult `json:"tables"`
}

type TableResult struct {
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	Columns     []string             `json:"columns"`
	Rows        []formula.Row        `json:"rows"`
	Diagnostics []formula.Diagnostic `json:"diagnostics,omitempty"`
}

// FormulaError — формула отклонена до генерации отчета.
type FormulaError struct {
	Name   string
	Reason string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidFormula, e.Name, e.Reason)
}

func (e *FormulaError) Unwrap() error {
	return ErrInvalidFormula
}

// Document — готовый файл отчета.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

type SaveRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Format      string `json:"format"`
	Config      Config `json:"config"`
}
