package mysql

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collect-reports/internal/storage"
)

func cleanupReports(t *testing.T) {
	_, err := testDB.Exec("DELETE FROM reports")
	require.NoError(t, err)
}

func newReportSave(title, user string) storage.ReportSave {
	desc := "описание"
	start, end := "2024-01-01", "2024-01-31"
	return storage.ReportSave{
		Title:       title,
		Description: &desc,
		ReportType:  "custom",
		Config:      `{"tables":["dos_rabota"]}`,
		StartDate:   &start,
		EndDate:     &end,
		Format:      "excel",
		FileName:    "Отчет.xlsx",
		FileData:    []byte("xlsx"),
		CreatedBy:   user,
	}
}

func TestStorage_ReportLifecycle(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()
	cleanupReports(t)

	created, err := s.CreateReport(ctx, newReportSave("Январь", "operator"))
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)

	list, err := s.GetReports(ctx, "operator")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Январь", list[0].Title)
	assert.Equal(t, "2024-01-01", *list[0].StartDate)

	other, err := s.GetReports(ctx, "someone")
	require.NoError(t, err)
	assert.Empty(t, other)

	upd := newReportSave("Январь", "operator")
	upd.FileData = []byte("xlsx-2")
	require.NoError(t, s.UpdateReport(ctx, created.ID, upd))

	file, err := s.GetReportFile(ctx, created.ID, "operator")
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx-2"), file.Data)

	_, err = s.GetReportFile(ctx, created.ID, "someone")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)

	require.NoError(t, s.DeleteReport(ctx, created.ID, "operator"))
	assert.ErrorIs(t, s.DeleteReport(ctx, created.ID, "operator"), storage.ErrReportNotFound)
}

func TestStorage_CreateReport_Duplicate(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()
	cleanupReports(t)

	_, err := s.CreateReport(ctx, newReportSave("Дубль", "operator"))
	require.NoError(t, err)

	_, err = s.CreateReport(ctx, newReportSave("Дубль", "operator"))
	assert.ErrorIs(t, err, storage.ErrReportExists)
}
