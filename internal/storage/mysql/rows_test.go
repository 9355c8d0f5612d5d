package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collect-reports/internal/storage"
)

func TestStorage_GetTableRows(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()

	_, err := testDB.Exec("DELETE FROM `dos_rabota`")
	require.NoError(t, err)

	_, err = testDB.Exec("INSERT INTO `dos_rabota` VALUES (?, ?, ?, ?), (?, ?, ?, ?)",
		"100", "Иванов И.И.", "1234.50", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"200", "ООО Ромашка", "500.00", nil,
	)
	require.NoError(t, err)

	data, err := s.GetTableRows(ctx, "dos_rabota")
	require.NoError(t, err)

	assert.Equal(t, []string{"№ л/с", "ФИО/Наименование", "Сумма задолженности", "Дата направления претензии"}, data.Columns)
	require.Len(t, data.Rows, 2)

	// сортировка по ключу по убыванию
	assert.Equal(t, "200", data.Rows[0]["№ л/с"])
	assert.Nil(t, data.Rows[0]["Дата направления претензии"])
	assert.Equal(t, "1234.50", data.Rows[1]["Сумма задолженности"])
	assert.IsType(t, time.Time{}, data.Rows[1]["Дата направления претензии"])
}

func TestStorage_GetTableRows_UnknownTable(t *testing.T) {
	s := NewWithDB(nil)

	_, err := s.GetTableRows(context.Background(), "users")

	assert.ErrorIs(t, err, storage.ErrUnknownTable)
}
