package settlement

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/pkg/attendance"
	"github.com/sitebook/sitebook/pkg/workunit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Record(t *testing.T) {
	t.Run("should create settlement", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		handler := NewHandler(service, NewCsvStatementRenderer(2))
		body := `{"laborerId": 3, "periodFrom": "2025-03-10", "periodTo": "2025-03-16", "amount": "1200"}`
		req := httptest.NewRequest(http.MethodPost, "/api/settlement", strings.NewReader(body))
		w := httptest.NewRecorder()

		// when
		handler.Record(w, req.WithContext(ctx))

		// then
		require.Equal(t, http.StatusCreated, w.Code)
		var got SettlementDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "2025-03-10", got.PeriodFrom)
		assert.True(t, decimal.NewFromInt(1200).Equal(got.Amount))
	})

	t.Run("should reject malformed period", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		handler := NewHandler(service, NewCsvStatementRenderer(2))
		body := `{"laborerId": 3, "periodFrom": "10/03/2025", "periodTo": "2025-03-16", "amount": 1200}`
		req := httptest.NewRequest(http.MethodPost, "/api/settlement", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Record(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject zero amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		handler := NewHandler(service, NewCsvStatementRenderer(2))
		body := `{"laborerId": 3, "periodFrom": "2025-03-10", "periodTo": "2025-03-16", "amount": 0}`
		req := httptest.NewRequest(http.MethodPost, "/api/settlement", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Record(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "amount must be positive")
	})
}

func TestHandler_Get(t *testing.T) {
	t.Run("should return stored settlement", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		stored, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday, Amount: decimal.NewFromInt(450)})
		require.NoError(t, err)
		handler := NewHandler(service, NewCsvStatementRenderer(2))
		req := httptest.NewRequest(http.MethodGet, "/api/settlement/1", nil)
		req = mux.SetURLVars(req.WithContext(ctx), map[string]string{"id": strconv.Itoa(stored.Id)})
		w := httptest.NewRecorder()

		// when
		handler.Get(w, req)

		// then
		require.Equal(t, http.StatusOK, w.Code)
		var got SettlementDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, stored.Uid, got.Uid)
		assert.True(t, decimal.NewFromInt(450).Equal(got.Amount))
	})

	t.Run("should answer not found for unknown id", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		handler := NewHandler(service, NewCsvStatementRenderer(2))
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/settlement/99", nil).WithContext(ctx), map[string]string{"id": "99"})
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_Statement(t *testing.T) {
	t.Run("should render csv when asked for", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := attendanceService.Mark(ctx, monday, attendance.MarkRequest{LaborerId: 3, WorkUnit: workunit.FullDay, DailyRate: decimal.NewFromInt(700)})
		require.NoError(t, err)
		handler := NewHandler(service, NewCsvStatementRenderer(2))
		req := httptest.NewRequest(http.MethodGet, "/api/settlement/statement?laborerId=3&from=2025-03-10&to=2025-03-16", nil)
		req.Header.Set("Accept", "text/csv")
		w := httptest.NewRecorder()

		// when
		handler.Statement(w, req.WithContext(ctx))

		// then
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "10/03/2025,1,8.00,700.00,700.00,0.00,0.00\n")
		assert.Contains(t, w.Body.String(), "Balance,700.00\n")
	})

	t.Run("should return json by default", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		handler := NewHandler(service, NewCsvStatementRenderer(2))
		req := httptest.NewRequest(http.MethodGet, "/api/settlement/statement?laborerId=3&from=2025-03-10&to=2025-03-16", bytes.NewReader(nil))
		w := httptest.NewRecorder()

		handler.Statement(w, req.WithContext(ctx))

		require.Equal(t, http.StatusOK, w.Code)
		var got StatementDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Empty(t, got.Days)
		assert.True(t, got.Balance.IsZero())
	})

	t.Run("should require laborer id", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		handler := NewHandler(service, NewCsvStatementRenderer(2))
		req := httptest.NewRequest(http.MethodGet, "/api/settlement/statement?from=2025-03-10&to=2025-03-16", nil)
		w := httptest.NewRecorder()

		handler.Statement(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
