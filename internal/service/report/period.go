package report

import (
	"fmt"
	"regexp"
	"time"

	"collect-reports/internal/formula"
	"collect-reports/internal/storage"
)

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// period — фильтр по датам включительно; пустой период пропускает все строки.
type period struct {
	from, to time.Time
	enabled  bool
}

func parsePeriod(start, end string) (period, error) {
	if start == "" || end == "" {
		return period{}, nil
	}

	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return period{}, fmt.Errorf("%w: %q", ErrInvalidDate, start)
	}
	to, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return period{}, fmt.Errorf("%w: %q", ErrInvalidDate, end)
	}

	return period{from: from, to: to, enabled: true}, nil
}

// filter оставляет строки, первая дата которых (в порядке колонок) попадает
// в период. Строки без даты остаются.
func (p period) filter(data storage.TableData) []formula.Row {
	if !p.enabled {
		return data.Rows
	}

	rows := make([]formula.Row, 0, len(data.Rows))
	for _, row := range data.Rows {
		day, found, ok := firstDate(row, data.Columns)
		if !found || (ok && !day.Before(p.from) && !day.After(p.to)) {
			rows = append(rows, row)
		}
	}
	return rows
}

// firstDate возвращает календарный день первой даты в строке.
// found — дата найдена, ok — она разобралась.
func firstDate(row formula.Row, columns []string) (time.Time, bool, bool) {
	for _, c := range columns {
		switch v := row[c].(type) {
		case time.Time:
			return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), true, true
		case string:
			if !datePrefix.MatchString(v) {
				continue
			}
			day, err := time.Parse(time.DateOnly, v[:10])
			return day, true, err == nil
		}
	}
	return time.Time{}, false, false
}
