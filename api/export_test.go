package api

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"budget/database"
	"budget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportHandler_CSV(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	salary := defaultCategory(t, db, "Salary")
	food := defaultCategory(t, db, "Food & Dining")

	addTransaction(t, db, user.ID, models.TypeIncome, "1000", utc(2026, 2, 1), salary)
	tx := addTransaction(t, db, user.ID, models.TypeExpense, "12.5", utc(2026, 2, 10), food)
	require.NoError(t, db.Model(&tx).Update("description", "=SUM(A1:A9)").Error)
	addTransaction(t, db, user.ID, models.TypeExpense, "99", utc(2026, 3, 10), food)
	r := newTestRouter(db, user.ID, time.Now())

	w := doJSON(r, "GET", "/export/csv?start_date=2026-02-01&end_date=2026-02-28", "")
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "attachment; filename=transactions_2026-02-01_2026-02-28.csv", w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	require.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])

	// 最新在前
	assert.Equal(t, "2026-02-10 12:00:00", rows[1][1])
	assert.Equal(t, "EXPENSE", rows[1][2])
	assert.Equal(t, "Food & Dining", rows[1][3])
	assert.Equal(t, "12.50", rows[1][4])
	assert.Equal(t, "'=SUM(A1:A9)", rows[1][5])
	assert.Equal(t, "Salary", rows[2][3])
}

func TestExportHandler_RequiresRange(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	r := newTestRouter(db, user.ID, time.Now())

	for _, path := range []string{"/export/csv", "/export/excel?start_date=2026-02-01"} {
		w := doJSON(r, "GET", path, "")
		assert.Equal(t, 400, w.Code, path)
		assert.Equal(t, "请提供开始日期和结束日期", decodeResponse(t, w, nil).Message)
	}
}

func TestExportHandler_Excel(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "me@example.com", "password123")
	salary := defaultCategory(t, db, "Salary")
	food := defaultCategory(t, db, "Food & Dining")

	addTransaction(t, db, user.ID, models.TypeIncome, "1000", utc(2026, 2, 1), salary)
	addTransaction(t, db, user.ID, models.TypeExpense, "400", utc(2026, 2, 10), food)
	r := newTestRouter(db, user.ID, time.Now())

	w := doJSON(r, "GET", "/export/excel?start_date=2026-02-01&end_date=2026-02-28", "")
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=UTF-8''")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Food & Dining", rows[1][3])
	assert.Equal(t, "Salary", rows[2][3])

	summary := rows[3]
	assert.Equal(t, "合计", summary[0])
	assert.Equal(t, "收入 1000.00", summary[3])
	assert.Equal(t, "支出 400.00", summary[4])
	assert.Equal(t, "共 2 条记录", summary[5])
}

func TestExportHandler_CSV_MockDB(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	date := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "type", "description", "date", "category_id", "created_at", "updated_at"}).
			AddRow(1, 1, "25.00", "EXPENSE", "@cmd", date, 3, date, date))
	mock.ExpectQuery("SELECT \\* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "icon", "color", "is_default"}).
			AddRow(3, "+Snacks", "EXPENSE", "Cookie", "#FFAA00", false))

	r := newTestRouter(database.DB, 1, time.Now())
	w := doJSON(r, "GET", "/export/csv?start_date=2026-02-01&end_date=2026-02-28", "")
	require.Equal(t, 200, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Contains(t, body, "'+Snacks")
	assert.Contains(t, body, "'@cmd")
	assert.Contains(t, body, "25.00")
	require.NoError(t, mock.ExpectationsWereMet())
}
