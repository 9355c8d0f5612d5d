package mysql

import (
	"context"
	"fmt"
	"strings"

	"collect-reports/internal/constants"
	"collect-reports/internal/formula"
	"collect-reports/internal/storage"
)

// GetTableRows возвращает все записи таблицы из белого списка.
func (s *Storage) GetTableRows(ctx context.Context, table string) (storage.TableData, error) {
	const op = "storage.mysql.GetTableRows"

	t, ok := constants.LookupTable(table)
	if !ok {
		return storage.TableData{}, fmt.Errorf("%s: %s: %w", op, table, storage.ErrUnknownTable)
	}

	stmt := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC", quoteIdent(t.Name), quoteIdent(t.PrimaryKey))

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return storage.TableData{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return storage.TableData{}, fmt.Errorf("%s: ошибка получения колонок: %w", op, err)
	}

	data := storage.TableData{Columns: columns}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return storage.TableData{}, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}

		row := make(formula.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		data.Rows = append(data.Rows, row)
	}

	if err = rows.Err(); err != nil {
		return storage.TableData{}, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return data, nil
}

// normalizeValue: текстовые и DECIMAL колонки драйвер отдает как []byte.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
