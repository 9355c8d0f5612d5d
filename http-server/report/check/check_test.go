package check

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collect-reports/internal/formula"
)

func TestCheckFormula(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := CheckFormula(log, formula.NewEngine(formula.WithLogger(log)))

	tests := []struct {
		name  string
		body  string
		valid bool
		error string
	}{
		{"valid", `{"formula":"IF([Сумма] > 0, [Сумма] * 2, 0)"}`, true, ""},
		{"forbidden", `{"formula":"fetch('x')"}`, false, `Использование "fetch" запрещено`},
		{"unbalanced", `{"formula":"([A] + 1"}`, false, "Не закрыта скобка"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/reports/formula/check", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)

			var res formula.ValidationResult
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.error, res.Error)
		})
	}
}

func TestCheckFormula_UnknownFunction(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := CheckFormula(log, formula.NewEngine(formula.WithLogger(log)))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"formula":"SUMM([A])"}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	var res formula.ValidationResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
}

func TestCheckFormula_BadJSON(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := CheckFormula(log, formula.NewEngine())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
