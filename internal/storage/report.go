package storage

import (
	"errors"
	"time"

	"collect-reports/internal/formula"
)

var (
	ErrReportNotFound = errors.New("отчет не найден")
	ErrReportExists   = errors.New("отчет с таким названием уже существует")
	ErrUnknownTable   = errors.New("доступ к этой таблице запрещен")
)

// TableData — строки таблицы и порядок колонок, в котором их вернула БД.
type TableData struct {
	Columns []string
	Rows    []formula.Row
}

type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	ReportType  string    `json:"report_type"`
	Config      string    `json:"report_config"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	Format      string    `json:"format"`
	FileName    string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// ReportSave — данные для сохранения сгенерированного отчета вместе с файлом.
type ReportSave struct {
	Title       string
	Description *string
	ReportType  string
	Config      string
	StartDate   *string
	EndDate     *string
	Format      string
	FileName    string
	FileData    []byte
	CreatedBy   string
}

type ReportFile struct {
	Title    string
	FileName string
	Format   string
	Data     []byte
}
