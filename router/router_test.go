package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"budget/config"
	"budget/database"
	"budget/middleware"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *config.Config {
	t.Helper()
	dsn := "file:memdb_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	old := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = old
		sqlDB.Close()
	})

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test", Timezone: "UTC"},
		JWT:       config.JWTConfig{Secret: "router-secret", ExpireTime: time.Hour},
		RateLimit: config.RateLimitConfig{LoginAttempts: 5, LoginWindowSeconds: 60},
	}
	middleware.InitJWT(cfg)
	return cfg
}

func TestHealth(t *testing.T) {
	r := SetupRouter(setupRouter(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := SetupRouter(setupRouter(t))

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/transactions", "/api/v1/categories", "/api/v1/profile"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestProtectedRoute_WithToken(t *testing.T) {
	r := SetupRouter(setupRouter(t))

	token, err := middleware.GenerateToken(1, "me@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/dashboard?month=2026-02", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"month":"2026-02"`)
}

func TestCORSPreflight(t *testing.T) {
	r := SetupRouter(setupRouter(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/v1/transactions", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
