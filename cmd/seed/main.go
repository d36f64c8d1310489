package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/repository"
	"github.com/C4NU/hanavi-schedule/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int

	flag.IntVar(&op, "op", 0, "operation to run (1: seed characters, 2: seed baselines, 3: seed member accounts, 4: all of the above)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database connection pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to the database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("no operation specified")
	case 1:
		if err := seed.SeedCharacters(repo); err != nil {
			slog.Error("failed to seed characters", slog.String("error", err.Error()))
		}
	case 2:
		if err := seed.SeedBaselines(repo); err != nil {
			slog.Error("failed to seed baselines", slog.String("error", err.Error()))
		}
	case 3:
		if err := seed.SeedMemberAccounts(repo, cfg.Seed.MemberPassword); err != nil {
			slog.Error("failed to seed member accounts", slog.String("error", err.Error()))
		}
	case 4:
		if err := seed.SeedCharacters(repo); err != nil {
			slog.Error("failed to seed characters", slog.String("error", err.Error()))
			return
		}
		if err := seed.SeedBaselines(repo); err != nil {
			slog.Error("failed to seed baselines", slog.String("error", err.Error()))
			return
		}
		if err := seed.SeedMemberAccounts(repo, cfg.Seed.MemberPassword); err != nil {
			slog.Error("failed to seed member accounts", slog.String("error", err.Error()))
		}
	default:
		slog.Error("unknown operation")
	}
}
