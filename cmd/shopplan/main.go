// Основной пакет ShopPlan. Подключается к базе, мигрирует схему, заполняет справочники и запускает API планировщика спринтов.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan"
	"github.com/aisa-it/shopplan/internal/shopplan/config"
	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/gormlogger"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

// Пример запуска: go run main.go --noMigration --trace
func main() {
	noTranslateFlag := flag.Bool("noTranslate", false, "Turn off BD errors translate")
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		level := slog.LevelInfo
		if *trace {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	}

	slog.Info("ShopPlan start.")

	dialector := postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: false, // disables implicit prepared statement usage
	})
	if cfg.IsSQLite() {
		dialector = sqlite.Open(cfg.SQLitePath())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: !*noTranslateFlag,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	if cfg.IsSQLite() {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := dao.Migrate(db); err != nil {
			slog.Error("Migration failed", "err", err)
			os.Exit(1)
		}
		if err := dao.SeedCatalog(db); err != nil {
			slog.Error("Fail seed catalog", "err", err)
			os.Exit(1)
		}
		slog.Info("Migration completed successfully")
	}

	if err := shopplan.Server(db, cfg, version); err != nil {
		slog.Error("Server stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// PrintBanner выводит заголовок приложения с версией.
func PrintBanner() {
	banner := `
 ____  _                 ____  _
/ ___|| |__   ___  _ __ |  _ \| | __ _ _ __
\___ \| '_ \ / _ \| '_ \| |_) | |/ _  | '_ \
 ___) | | | | (_) | |_) |  __/| | (_| | | | |
|____/|_| |_|\___/| .__/|_|   |_|\__,_|_| |_| %s
                  |_|
Sprint planning for the production floor
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}
