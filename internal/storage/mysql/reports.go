package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"collect-reports/internal/storage"
)

const errDuplicateEntry = 1062

func (s *Storage) CreateReport(ctx context.Context, r storage.ReportSave) (*storage.Report, error) {
	const op = "storage.mysql.CreateReport"

	stmt := `INSERT INTO reports (id, title, description, report_type, report_config, start_date, end_date,
            format, file_data, file_name, created_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, stmt, id, r.Title, r.Description, r.ReportType, r.Config,
		r.StartDate, r.EndDate, r.Format, r.FileData, r.FileName, r.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка сохранения отчета: %w", op, mapError(err))
	}

	return &storage.Report{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		ReportType:  r.ReportType,
		Config:      r.Config,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Format:      r.Format,
		FileName:    r.FileName,
		CreatedAt:   time.Now(),
		CreatedBy:   r.CreatedBy,
	}, nil
}

func (s *Storage) UpdateReport(ctx context.Context, id string, r storage.ReportSave) error {
	const op = "storage.mysql.UpdateReport"

	stmt := `UPDATE reports SET title=?, description=?, report_type=?, report_config=?, start_date=?, end_date=?,
            format=?, file_data=?, file_name=? WHERE id=? AND created_by=?`

	res, err := s.db.ExecContext(ctx, stmt, r.Title, r.Description, r.ReportType, r.Config, r.StartDate,
		r.EndDate, r.Format, r.FileData, r.FileName, id, r.CreatedBy)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления отчета: %w", op, mapError(err))
	}

	return checkAffected(op, res)
}

func (s *Storage) GetReports(ctx context.Context, user string) ([]storage.Report, error) {
	const op = "storage.mysql.GetReports"

	stmt := `SELECT id, title, description, report_type, report_config, start_date, end_date, format,
            file_name, created_at, created_by
		FROM reports WHERE created_by = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, stmt, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reports := []storage.Report{}

	for rows.Next() {
		var (
			r      storage.Report
			config sql.NullString
		)

		err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.ReportType, &config, &r.StartDate, &r.EndDate,
			&r.Format, &r.FileName, &r.CreatedAt, &r.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		r.Config = config.String

		reports = append(reports, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return reports, nil
}

func (s *Storage) GetReportFile(ctx context.Context, id, user string) (*storage.ReportFile, error) {
	const op = "storage.mysql.GetReportFile"

	stmt := `SELECT title, file_name, format, file_data FROM reports WHERE id = ? AND created_by = ?`

	file := &storage.ReportFile{}

	err := s.db.QueryRowContext(ctx, stmt, id, user).Scan(&file.Title, &file.FileName, &file.Format, &file.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: id='%s': %w", op, id, storage.ErrReportNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	return file, nil
}

func (s *Storage) DeleteReport(ctx context.Context, id, user string) error {
	const op = "storage.mysql.DeleteReport"

	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ? AND created_by = ?`, id, user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return checkAffected(op, res)
}

func checkAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrReportNotFound)
	}
	return nil
}

func mapError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry {
		return storage.ErrReportExists
	}
	return err
}
