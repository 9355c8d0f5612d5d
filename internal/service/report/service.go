package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"collect-reports/internal/constants"
	"collect-reports/internal/formula"
	"collect-reports/internal/storage"
)

type RowSource interface {
	GetTableRows(ctx context.Context, table string) (storage.TableData, error)
}

type ReportStorage interface {
	CreateReport(ctx context.Context, r storage.ReportSave) (*storage.Report, error)
	UpdateReport(ctx context.Context, id string, r storage.ReportSave) error
	GetReports(ctx context.Context, user string) ([]storage.Report, error)
	GetReportFile(ctx context.Context, id, user string) (*storage.ReportFile, error)
	DeleteReport(ctx context.Context, id, user string) error
}

type FormulaEngine interface {
	Validate(formula string) formula.ValidationResult
	ApplyWithDiagnostics(rows []formula.Row, defs []formula.Definition) ([]formula.Row, []formula.Diagnostic)
}

type Exporter interface {
	Build(title string, res *Result) ([]byte, error)
}

type Service struct {
	log         *slog.Logger
	rows        RowSource
	reports     ReportStorage
	engine      FormulaEngine
	exporter    Exporter
	maxFormulas int
	now         func() time.Time
}

func NewService(log *slog.Logger, rows RowSource, reports ReportStorage, engine FormulaEngine, exporter Exporter, maxFormulas int) *Service {
	return &Service{
		log:         log,
		rows:        rows,
		reports:     reports,
		engine:      engine,
		exporter:    exporter,
		maxFormulas: maxFormulas,
		now:         time.Now,
	}
}

// Generate загружает выбранные таблицы, фильтрует по датам, вычисляет
// пользовательские колонки и оставляет только выбранные колонки.
func (s *Service) Generate(ctx context.Context, cfg Config) (*Result, error) {
	const op = "service.report.Generate"

	tables, err := lookupTables(cfg.Tables)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defs := cfg.formulas()
	if s.maxFormulas > 0 && len(defs) > s.maxFormulas {
		return nil, fmt.Errorf("%s: %d > %d: %w", op, len(defs), s.maxFormulas, ErrTooManyFormulas)
	}

	// формулы проверяются до загрузки данных
	for _, d := range defs {
		if res := s.engine.Validate(d.Formula); !res.Valid {
			return nil, &FormulaError{Name: d.Name, Reason: res.Error}
		}
	}

	period, err := parsePeriod(cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data := make([]storage.TableData, len(tables))

	g, gCtx := errgroup.WithContext(ctx)
	for i, t := range tables {
		g.Go(func() error {
			d, err := s.rows.GetTableRows(gCtx, t.Name)
			if err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			data[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &Result{Tables: make([]TableResult, 0, len(tables))}

	for i, t := range tables {
		rows := period.filter(data[i])
		rows, diags := s.engine.ApplyWithDiagnostics(rows, defs)

		columns := projectColumns(cfg.Columns[t.Name], data[i].Columns, defs)

		if len(diags) > 0 {
			s.log.Warn("ошибки вычисления формул",
				slog.String("op", op),
				slog.String("table", t.Name),
				slog.Int("cells", len(diags)),
			)
		}

		res.Tables = append(res.Tables, TableResult{
			Name:        t.Name,
			Title:       t.Title,
			Columns:     columns,
			Rows:        project(rows, columns),
			Diagnostics: diags,
		})
	}

	return res, nil
}

// Export генерирует отчет и собирает Excel файл.
func (s *Service) Export(ctx context.Context, cfg Config, title string) (*Document, error) {
	const op = "service.report.Export"

	res, err := s.Generate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.Build(title, res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Document{
		FileName:    s.fileName(title),
		ContentType: constants.ContentTypeExcel,
		Data:        data,
	}, nil
}

func (s *Service) Save(ctx context.Context, user string, req SaveRequest) (*storage.Report, error) {
	const op = "service.report.Save"

	save, err := s.prepare(ctx, user, req)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.CreateReport(ctx, save)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("отчет сохранен", slog.String("op", op), slog.String("id", report.ID), slog.String("user", user))

	return report, nil
}

func (s *Service) Update(ctx context.Context, user, id string, req SaveRequest) error {
	const op = "service.report.Update"

	save, err := s.prepare(ctx, user, req)
	if err != nil {
		return err
	}

	if err := s.reports.UpdateReport(ctx, id, save); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) List(ctx context.Context, user string) ([]storage.Report, error) {
	const op = "service.report.List"

	reports, err := s.reports.GetReports(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reports, nil
}

func (s *Service) Download(ctx context.Context, user, id string) (*Document, error) {
	const op = "service.report.Download"

	file, err := s.reports.GetReportFile(ctx, id, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contentType := "application/octet-stream"
	switch file.Format {
	case constants.FormatExcel:
		contentType = constants.ContentTypeExcel
	case constants.FormatPDF:
		contentType = "application/pdf"
	}

	return &Document{FileName: file.FileName, ContentType: contentType, Data: file.Data}, nil
}

func (s *Service) Delete(ctx context.Context, user, id string) error {
	const op = "service.report.Delete"

	if err := s.reports.DeleteReport(ctx, id, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, user string, req SaveRequest) (storage.ReportSave, error) {
	const op = "service.report.prepare"

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return storage.ReportSave{}, ErrTitleRequired
	}

	format := req.Format
	if format == "" {
		format = constants.FormatExcel
	}
	if format != constants.FormatExcel {
		return storage.ReportSave{}, fmt.Errorf("%s: %q: %w", op, format, ErrUnsupportedFormat)
	}

	doc, err := s.Export(ctx, req.Config, title)
	if err != nil {
		return storage.ReportSave{}, err
	}

	req.Config.CustomColumns = req.Config.formulas()
	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		return storage.ReportSave{}, fmt.Errorf("%s: ошибка сериализации конфигурации: %w", op, err)
	}

	return storage.ReportSave{
		Title:       title,
		Description: optional(req.Description),
		ReportType:  constants.ReportTypeCustom,
		Config:      string(configJSON),
		StartDate:   optional(req.Config.StartDate),
		EndDate:     optional(req.Config.EndDate),
		Format:      format,
		FileName:    doc.FileName,
		FileData:    doc.Data,
		CreatedBy:   user,
	}, nil
}

func (s *Service) fileName(title string) string {
	stamp := s.now().Format("2006-01-02_150405")

	title = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))

	if title == "" {
		return fmt.Sprintf("Отчет_%s.xlsx", stamp)
	}
	return fmt.Sprintf("Отчет_%s_%s.xlsx", title, stamp)
}

func lookupTables(names []string) ([]constants.Table, error) {
	if len(names) == 0 {
		return nil, ErrNoTables
	}

	tables := make([]constants.Table, 0, len(names))
	for _, name := range names {
		t, ok := constants.LookupTable(name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, storage.ErrUnknownTable)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// projectColumns: выбранные колонки (или все колонки таблицы, если ничего
// не выбрано), затем пользовательские, без повторов.
func projectColumns(selected, all []string, defs []formula.Definition) []string {
	base := selected
	if len(base) == 0 {
		base = all
	}

	seen := make(map[string]bool, len(base)+len(defs))
	columns := make([]string, 0, len(base)+len(defs))
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	for _, c := range base {
		add(c)
	}
	for _, d := range defs {
		add(d.Name)
	}
	return columns
}

func project(rows []formula.Row, columns []string) []formula.Row {
	out := make([]formula.Row, len(rows))
	for i, row := range rows {
		r := make(formula.Row, len(columns))
		for _, c := range columns {
			r[c] = row[c]
		}
		out[i] = r
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
