package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate|sync")
	dir := flag.String("dir", "", "migrations directory (empty uses the embedded set)")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		exitOn(err, "create migration")
		fmt.Println("created migration:", path)
		return
	case "validate":
		err := migrate.ValidateFS(migrate.Embedded())
		if *dir != "" {
			err = migrate.ValidateDir(*dir)
		}
		exitOn(err, "migration validation")
		fmt.Println("migration validation passed")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	exitOn(err, "load config")

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd, "driver": cfg.DB.Driver})

	client, err := db.New(ctx, cfg.DB, logg)
	exitOn(err, "connect database")
	defer client.Close()

	// sqlite has no goose history; its schema always comes from the models.
	if *cmd == "sync" || cfg.DB.Driver == config.DriverSQLite {
		exitOn(client.AutoMigrate(ctx), "auto migrate")
		logg.Info(ctx, "schema synced from models")
		return
	}

	sqlDB, err := client.DB().DB()
	exitOn(err, "sql handle")
	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		exitOn(migrate.Run(ctx, sqlDB, *dir, *cmd), "goose "+*cmd)
	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		exitOn(migrate.MigrateToVersion(ctx, sqlDB, *dir, *version), "goose version")
	default:
		fail("unknown -cmd value: " + *cmd)
	}
}

func exitOn(err error, step string) {
	if err != nil {
		fail(fmt.Sprintf("%s failed: %v", step, err))
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
