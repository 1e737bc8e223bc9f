package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/execute"
	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/sanitize"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/server"
	"github.com/askdb/askdb/internal/tools"
	"github.com/askdb/askdb/internal/translate"
)

func main() {
	transportMode := flag.String("transport", "stdio", "Transport mode: http or stdio")
	configPath := flag.String("config", "config.json", "Path to configuration file")
	httpAddress := flag.String("address", "0.0.0.0:8888", "HTTP server address (only used in http mode)")
	gormLogLevel := flag.String("sql-log-level", "silent", "GORM log level: silent, error, warn, info")
	flag.Parse()

	if *transportMode == "stdio" {
		logging.SetOutput(os.Stderr)
	}
	logging.SetGormLogLevel(logging.ParseGormLogLevel(*gormLogLevel))

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		logging.Fatal("Failed to load config: %v", err)
	}

	mode, err := sanitize.ParseMode(cfg.Security.Mode)
	if err != nil {
		logging.Fatal("Invalid config: %v", err)
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logging.Fatal("Failed to connect to database: %v", err)
	}

	cache := schema.NewCache(&schema.DBReflector{
		DB:          db,
		SampleLimit: cfg.Limits.SampleRows,
	}, cfg.SchemaTTL())

	// Initial reflection is fatal: a server that cannot see the schema
	// cannot translate anything. Later failures are recoverable through
	// the refresh_schema tool.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	desc, err := cache.Refresh(ctx)
	cancel()
	if err != nil {
		logging.Fatal("Initial schema reflection failed: %v", err)
	}
	logging.Info("Connected to %s: %d tables", desc.Dialect, len(desc.Tables))

	completer, err := translate.NewOpenAICompleter(translate.OpenAIConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLMTimeout(),
	})
	if err != nil {
		logging.Fatal("Failed to configure completion provider: %v", err)
	}

	tools.Register(&tools.Pipeline{
		Cache: cache,
		Translator: &translate.Translator{
			Completer:     completer,
			MaxRows:       cfg.Limits.MaxRows,
			PromptBudget:  cfg.Limits.PromptBudgetChars,
			DomainContext: cfg.DomainContext,
		},
		Executor: &execute.Executor{
			DB:      db,
			MaxRows: cfg.Limits.MaxRows,
			Timeout: cfg.QueryTimeout(),
		},
		Sanitizer: &sanitize.Sanitizer{Mode: mode},
	})
	logging.Info("Security mode: %s", mode)

	switch *transportMode {
	case "http":
		server.StartHTTP(*httpAddress)
	case "stdio":
		server.StartSTDIO()
	default:
		logging.Fatal("Unknown transport mode: %s (valid options: stdio, http)", *transportMode)
	}
}

func openDatabase(cfg config.Database) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logging.NewGormLogger()}
	switch cfg.Driver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DSN), gormCfg)
	case "sqlserver":
		return gorm.Open(sqlserver.Open(cfg.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
