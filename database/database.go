package database

import (
	"fmt"
	"log/slog"
	"time"

	"budget/config"
	"budget/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	dialector, err := dialectorFor(&cfg.Database)
	if err != nil {
		return err
	}

	logLevel := logger.Info
	if cfg.Server.Mode == "release" {
		logLevel = logger.Warn
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	if cfg.Database.Driver == "sqlite" {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := Migrate(DB); err != nil {
		return err
	}

	n, err := SeedDefaultCategories(DB)
	if err != nil {
		return fmt.Errorf("初始化默认类别失败: %w", err)
	}
	if n > 0 {
		slog.Info("已初始化默认类别", "count", n)
	}

	slog.Info("数据库初始化成功", "driver", cfg.Database.Driver)
	return nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// Migrate 自动迁移数据库表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.PasswordReset{},
	)
}

// SeedDefaultCategories 初始化系统预置类别（仅当不存在预置类别时），返回新建数量
func SeedDefaultCategories(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.Category{}).Where("is_default = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	cats := models.DefaultCategories()
	for i := range cats {
		cats[i].IsDefault = true
		cats[i].UserID = nil
	}
	if err := db.Create(&cats).Error; err != nil {
		return 0, err
	}
	return len(cats), nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
