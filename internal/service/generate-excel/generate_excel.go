package generate_excel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"collect-reports/internal/formula"
	"collect-reports/internal/service/report"
)

const (
	maxSheetName = 31
	maxColWidth  = 50
	minColWidth  = 10
)

type Exporter struct {
	creator string
}

func NewExporter(creator string) *Exporter {
	return &Exporter{creator: creator}
}

// Build собирает xlsx: по листу на таблицу, шапка с колонками, ячейки
// с ошибками вычисления выделяются красным.
func (e *Exporter) Build(title string, res *report.Result) ([]byte, error) {
	const op = "service.generate_excel.Build"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Creator: e.creator,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// --- СТИЛИ ---
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	errorStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "C00000"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	names := sheetNames(res.Tables)
	if len(names) == 0 {
		names = []string{"Отчет"}
	}

	if err := f.SetSheetName("Sheet1", names[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, table := range res.Tables {
		sheet := names[i]
		if i > 0 {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}

		if err := writeTable(f, sheet, table, headerStyle, errorStyle); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, sheet, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, table report.TableResult, headerStyle, errorStyle int) error {
	if len(table.Columns) == 0 {
		return nil
	}

	widths := make([]int, len(table.Columns))

	for i, name := range table.Columns {
		if err := f.SetCellValue(sheet, cellName(i+1, 1), name); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(name)
	}

	lastCol := cellName(len(table.Columns), 1)
	if err := f.SetCellStyle(sheet, "A1", lastCol, headerStyle); err != nil {
		return err
	}

	failed := failedCells(table.Diagnostics)

	for rowIdx, row := range table.Rows {
		rowNum := rowIdx + 2

		for colIdx, name := range table.Columns {
			v, ok := row[name]
			if !ok || v == nil {
				continue
			}

			cell := cellName(colIdx+1, rowNum)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}

			if marker, _ := v.(string); marker == formula.ErrorMarker || failed[cellKey{rowIdx, name}] {
				if err := f.SetCellStyle(sheet, cell, cell, errorStyle); err != nil {
					return err
				}
			}

			if w := utf8.RuneCountInString(fmt.Sprint(v)); w > widths[colIdx] {
				widths[colIdx] = w
			}
		}
	}

	// закрепляем шапку
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(w+2, minColWidth, maxColWidth))); err != nil {
			return err
		}
	}

	return nil
}

type cellKey struct {
	row    int
	column string
}

func failedCells(diags []formula.Diagnostic) map[cellKey]bool {
	failed := make(map[cellKey]bool, len(diags))
	for _, d := range diags {
		failed[cellKey{d.Row, d.Column}] = true
	}
	return failed
}

// sheetNames — названия листов: заголовок таблицы, обрезанный до 31 символа,
// без запрещенных символов и без повторов.
func sheetNames(tables []report.TableResult) []string {
	names := make([]string, 0, len(tables))
	used := make(map[string]bool, len(tables))

	for _, t := range tables {
		base := t.Title
		if base == "" {
			base = t.Name
		}
		base = truncate(strings.Map(func(r rune) rune {
			if strings.ContainsRune(`[]:*?/\`, r) {
				return '_'
			}
			return r
		}, base), maxSheetName)

		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncate(base, maxSheetName-len(suffix)) + suffix
		}

		used[strings.ToLower(name)] = true
		names = append(names, name)
	}

	return names
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
