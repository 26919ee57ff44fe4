package providers

import (
	"fmt"
	"standbot/internal/models"
	"standbot/internal/structures"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schemaRegistry = []interface{}{
	&models.TotalRecord{},
	&models.SessionLedger{},
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func openDialector(conf structures.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case "sqlite":
		return sqlite.Open(conf.DSN), nil
	case "postgres":
		return postgres.Open(conf.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}

// NewDatabaseProvider opens the totals database and migrates its schema.
// SQLite is limited to a single open connection so upserts serialize.
func NewDatabaseProvider(conf *structures.Config, logger Logger) (*gorm.DB, func(), error) {
	dialector, err := openDialector(conf.Database)
	if err != nil {
		return nil, nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(conf.Database.LogLevel)),
	})
	if err != nil {
		logger.Errorf(TypeStorage, "Unable to connect to %s database: %v", conf.Database.Driver, err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if conf.Database.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		if conf.Database.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(conf.Database.MaxOpenConns)
		}
		if conf.Database.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(conf.Database.MaxIdleConns)
		}
		if conf.Database.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(conf.Database.ConnMaxLifetime)
		}
	}

	for _, model := range schemaRegistry {
		if err := db.AutoMigrate(model); err != nil {
			logger.Errorf(TypeStorage, "Failed to auto migrate schema %T: %v", model, err)
			_ = sqlDB.Close()
			return nil, nil, err
		}
	}

	logger.Infof(TypeStorage, "Connected to %s database", conf.Database.Driver)

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Errorf(TypeStorage, "Failed to close database: %v", err)
		}
	}
	return db, cleanup, nil
}
