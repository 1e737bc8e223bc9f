package logging

import (
	"time"

	"gorm.io/gorm/logger"
)

var gormLogLevel = logger.Silent

// SetGormLogLevel sets the global GORM log level before connections open.
func SetGormLogLevel(level logger.LogLevel) {
	gormLogLevel = level
}

// NewGormLogger creates a GORM logger writing to the app's logging output.
// In stdio mode that is stderr, set via SetOutput before the DB opens.
func NewGormLogger() logger.Interface {
	return logger.New(
		std,
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// ParseGormLogLevel converts a string log level to GORM's LogLevel type.
func ParseGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}
