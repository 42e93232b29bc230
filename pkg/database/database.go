package database

import (
	"course_sync/internal/config"
	"course_sync/internal/model"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mysqlDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

// InitDB 打开本地进度库：设备上默认 sqlite，也可以指向 mysql
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Storage.Driver {
	case "mysql":
		dialector = mysql.Open(mysqlDSN(&cfg.Database))
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.SQLiteDSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		dialector = sqlite.Open(cfg.Storage.SQLiteDSN)
	default:
		return nil, fmt.Errorf("storage driver %q is not backed by gorm", cfg.Storage.Driver)
	}

	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		return nil, err
	}

	return db, nil
}
