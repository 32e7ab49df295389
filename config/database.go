package config

import (
	"fmt"
	"strings"
	"time"

	"barberpro-backend/models"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// ConnectDB opens the database selected by DB_DRIVER.
func ConnectDB(s *Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "postgres":
		dialector = postgres.Open(s.DBURL)
	case "mysql":
		dialector = mysql.Open(s.DBURL)
	case "sqlite":
		dialector = sqlite.Open(s.DBURL)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if sqlDB, derr := db.DB(); derr == nil {
		sqlDB.SetMaxIdleConns(intFromEnv("DB_MAX_IDLE_CONNS", 10))
		sqlDB.SetMaxOpenConns(intFromEnv("DB_MAX_OPEN_CONNS", 25))
		sqlDB.SetConnMaxLifetime(time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		GetLogger().WithError(err).Warn("db connected but failed to install otelgorm plugin")
	}
	return db, nil
}

// GormConfig is shared by the server and the test database.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// mysqlUUIDType replaces the uuid column type on mysql, which has none.
const mysqlUUIDType = "char(36)"

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		if err := retypeUUIDColumns(db, mysqlUUIDType); err != nil {
			return err
		}
	}
	return db.AutoMigrate(models.All()...)
}

// retypeUUIDColumns rewrites every uuid field of the cached model schemas to
// columnType. Ids and the foreign keys pointing at them change together, so
// constraints still line up.
func retypeUUIDColumns(db *gorm.DB, columnType string) error {
	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("parse %T: %w", m, err)
		}
		for _, f := range stmt.Schema.Fields {
			if strings.EqualFold(string(f.DataType), "uuid") {
				f.DataType = schema.DataType(columnType)
			}
		}
	}
	return nil
}
