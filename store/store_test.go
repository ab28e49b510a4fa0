package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/database"
	"budget/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB 每个测试独立的内存 sqlite，已迁移并写入预置类别
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:memdb_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	_, err = database.SeedDefaultCategories(db)
	require.NoError(t, err)
	return db
}

func defaultCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	var c models.Category
	require.NoError(t, db.Where("name = ? AND is_default = ?", name, true).First(&c).Error)
	return c
}

func addTx(t *testing.T, db *gorm.DB, userID uint, typ models.TransactionType, amount string, date time.Time, categoryID uint) models.Transaction {
	t.Helper()
	tx := models.Transaction{
		UserID:     userID,
		Amount:     decimal.RequireFromString(amount),
		Type:       typ,
		Date:       date,
		CategoryID: categoryID,
	}
	require.NoError(t, db.Omit("Category").Create(&tx).Error)
	return tx
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestTransactionStore_FindInRange(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	ctx := context.Background()
	food := defaultCategory(t, db, "Food & Dining")
	salary := defaultCategory(t, db, "Salary")

	addTx(t, db, 1, models.TypeExpense, "400", day(2026, 2, 15), food.ID)
	addTx(t, db, 1, models.TypeIncome, "1000", day(2026, 2, 1), salary.ID)
	addTx(t, db, 1, models.TypeExpense, "100", day(2026, 1, 20), food.ID)
	addTx(t, db, 2, models.TypeExpense, "50", day(2026, 2, 10), food.ID)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	list, err := s.FindInRange(ctx, 1, from, to)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// 升序且带类别
	assert.Equal(t, models.TypeIncome, list[0].Type)
	assert.Equal(t, "Salary", list[0].Category.Name)
	assert.Equal(t, "Food & Dining", list[1].Category.Name)
	assert.True(t, list[1].Amount.Equal(decimal.NewFromInt(400)))
}

func TestTransactionStore_FindRecent(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	food := defaultCategory(t, db, "Food & Dining")

	for d := 1; d <= 7; d++ {
		addTx(t, db, 1, models.TypeExpense, "10", day(2026, 3, d), food.ID)
	}

	list, err := s.FindRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, 7, list[0].Date.Day())
	assert.Equal(t, 3, list[4].Date.Day())
	assert.Equal(t, food.ID, list[0].Category.ID)

	empty, err := s.FindRecent(context.Background(), 99, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactionStore_SumByType(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	ctx := context.Background()
	food := defaultCategory(t, db, "Food & Dining")
	salary := defaultCategory(t, db, "Salary")

	// 无数据时为 0
	sum, err := s.SumByType(ctx, 1, models.TypeIncome, day(2026, 12, 31))
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	addTx(t, db, 1, models.TypeIncome, "1000.50", day(2026, 1, 5), salary.ID)
	addTx(t, db, 1, models.TypeIncome, "200", day(2026, 3, 5), salary.ID)
	addTx(t, db, 1, models.TypeExpense, "75.25", day(2026, 1, 6), food.ID)

	sum, err = s.SumByType(ctx, 1, models.TypeIncome, day(2026, 2, 28))
	require.NoError(t, err)
	assert.Equal(t, "1000.5", sum.String())

	sum, err = s.SumByType(ctx, 1, models.TypeExpense, day(2026, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, "75.25", sum.String())

	sum, err = s.SumBetween(ctx, 1, models.TypeIncome, day(2026, 2, 1), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "200", sum.String())

	n, err := s.CountByCategory(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTransactionStore_SumByType_Error(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `transactions`").
		WillReturnError(errors.New("connection reset"))

	_, err = NewTransactionStore(db).SumByType(context.Background(), 1, models.TypeIncome, day(2026, 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryStore_Visible(t *testing.T) {
	db := openTestDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	mine := uint(1)
	other := uint(2)
	require.NoError(t, db.Create(&models.Category{UserID: &mine, Name: "Coffee", Type: models.TypeExpense, Icon: "Coffee", Color: "#6F4E37"}).Error)
	require.NoError(t, db.Create(&models.Category{UserID: &other, Name: "Pets", Type: models.TypeExpense, Icon: "Dog", Color: "#123456"}).Error)

	all, err := s.Visible(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 16)
	// 预置在前，自定义在后
	assert.True(t, all[0].IsDefault)
	assert.Equal(t, "Coffee", all[len(all)-1].Name)

	income, err := s.Visible(ctx, 1, models.TypeIncome)
	require.NoError(t, err)
	assert.Len(t, income, 5)
	for _, c := range income {
		assert.Equal(t, models.TypeIncome, c.Type)
	}

	// 缓存返回副本
	defaults, err := s.Defaults(ctx)
	require.NoError(t, err)
	defaults[0].Name = "changed"
	again, err := s.Defaults(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again[0].Name)
}

func TestCategoryStore_FindAndNameTaken(t *testing.T) {
	db := openTestDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	mine := uint(1)
	coffee := models.Category{UserID: &mine, Name: "Coffee", Type: models.TypeExpense, Icon: "Coffee", Color: "#6F4E37"}
	require.NoError(t, db.Create(&coffee).Error)
	food := defaultCategory(t, db, "Food & Dining")

	c, err := s.FindVisible(ctx, 1, food.ID)
	require.NoError(t, err)
	assert.True(t, c.IsDefault)

	_, err = s.FindVisible(ctx, 2, coffee.ID)
	assert.True(t, IsNotFound(err))

	_, err = s.FindOwned(ctx, 1, food.ID)
	assert.True(t, IsNotFound(err))

	c, err = s.FindOwned(ctx, 1, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", c.Name)

	taken, err := s.NameTaken(ctx, 1, "coffee", models.TypeExpense, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.NameTaken(ctx, 1, "Coffee", models.TypeExpense, coffee.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = s.NameTaken(ctx, 1, "Coffee", models.TypeIncome, 0)
	require.NoError(t, err)
	assert.False(t, taken)

	// 与预置类别重名
	taken, err = s.NameTaken(ctx, 2, "Salary", models.TypeIncome, 0)
	require.NoError(t, err)
	assert.True(t, taken)
}
