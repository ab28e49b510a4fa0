package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"budget/config"
	"budget/database"
	"budget/models"
	"budget/service"
	"budget/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "debug", Timezone: "UTC"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
}

// setupTestDB 内存 sqlite，替换全局 database.DB 与配置
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:memdb_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	_, err = database.SeedDefaultCategories(db)
	require.NoError(t, err)

	oldDB := database.DB
	oldCfg := config.GlobalConfig
	database.DB = db
	config.GlobalConfig = testConfig()
	t.Cleanup(func() {
		database.DB = oldDB
		config.GlobalConfig = oldCfg
		sqlDB.Close()
	})
	return db
}

// setupMockDB sqlmock + mysql 方言，用于模拟数据库错误
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	oldDB := database.DB
	oldCfg := config.GlobalConfig
	database.DB = gormDB
	config.GlobalConfig = testConfig()
	return mock, func() {
		database.DB = oldDB
		config.GlobalConfig = oldCfg
		sqlDB.Close()
	}
}

func setUserIDMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

// newTestRouter 以指定用户身份注册全部受保护接口
func newTestRouter(db *gorm.DB, userID uint, now time.Time) *gin.Engine {
	transactions := store.NewTransactionStore(db)
	categories := store.NewCategoryStore(db)

	r := gin.New()
	r.Use(setUserIDMiddleware(userID))

	profile := NewProfileHandler(categories)
	r.GET("/profile", profile.GetProfile)
	r.PATCH("/profile", profile.UpdateProfile)
	r.POST("/profile/password", profile.ChangePassword)
	r.GET("/preferences", profile.GetPreferences)
	r.PATCH("/preferences", profile.UpdatePreferences)

	tx := NewTransactionHandler(categories)
	r.GET("/transactions", tx.List)
	r.POST("/transactions", tx.Create)
	r.GET("/transactions/:id", tx.Get)
	r.PUT("/transactions/:id", tx.Update)
	r.DELETE("/transactions/:id", tx.Delete)

	cat := NewCategoryHandler(categories, transactions)
	r.GET("/categories", cat.List)
	r.POST("/categories", cat.Create)
	r.PUT("/categories/:id", cat.Update)
	r.DELETE("/categories/:id", cat.Delete)

	dash := NewDashboardHandler(service.NewDashboardService(transactions, time.UTC), service.NewEmailService(&config.EmailConfig{}))
	dash.now = func() time.Time { return now }
	r.GET("/dashboard", dash.Get)
	r.POST("/dashboard/email", dash.SendReport)

	r.GET("/statistics/summary", NewStatisticsHandler(transactions).GetIncomeExpenseSummary)

	export := NewExportHandler(transactions)
	r.GET("/export/csv", export.ExportCSV)
	r.GET("/export/excel", export.ExportExcel)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data), string(resp.Data))
	}
	return resp
}

func createUser(t *testing.T, db *gorm.DB, email, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{Name: "Tester", Email: email, Password: string(hashed), Currency: models.DefaultCurrency}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func defaultCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	var c models.Category
	require.NoError(t, db.Where("name = ? AND is_default = ?", name, true).First(&c).Error)
	return c
}

func customCategory(t *testing.T, db *gorm.DB, userID uint, name string, typ models.TransactionType) models.Category {
	t.Helper()
	c := models.Category{UserID: &userID, Name: name, Type: typ, Icon: "Tag", Color: "#123456"}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func addTransaction(t *testing.T, db *gorm.DB, userID uint, typ models.TransactionType, amount string, date time.Time, cat models.Category) models.Transaction {
	t.Helper()
	tx := models.Transaction{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Description: "seed",
		Date:        date,
		CategoryID:  cat.ID,
	}
	require.NoError(t, db.Omit("Category").Create(&tx).Error)
	return tx
}

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func uintStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
