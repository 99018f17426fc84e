package registry

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Define static errors
var (
	ErrDSNRequired       = errors.New("database dsn is required")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Config holds relational store configuration.
type Config struct {
	Driver string `yaml:"driver" default:"postgres"`
	DSN    string `yaml:"dsn"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return ErrDSNRequired
	}

	switch c.Driver {
	case "", "postgres", "sqlite":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}
}

// Connect opens the database and migrates the registry schema.
func Connect(log logrus.FieldLogger, cfg *Config) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&UploadedFile{}, &CompatibilityEntry{}, &ProductRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WithField("driver", cfg.Driver).Info("Connected to database")

	return db, nil
}
