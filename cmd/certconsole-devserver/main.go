// certconsole-devserver runs a local backend for the console: the admin
// REST API, operator login, public submission endpoints and the push
// websocket, all backed by a SQLite file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/nhle/certconsole/internal/devserver"
	"github.com/nhle/certconsole/internal/logging"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var seed bool

	flagSet := pflag.NewFlagSet("certconsole-devserver", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	flagSet.String("addr", "", "listen address (overrides devserver.addr)")
	flagSet.String("db", "", "SQLite database path (overrides devserver.db_path)")
	flagSet.String("jwt-secret", "", "token signing secret (overrides devserver.jwt_secret)")
	flagSet.String("log-level", "", "log level (overrides log.level)")
	flagSet.BoolVar(&seed, "seed", false, "fill an empty database with sample records and an operator")
	model.AnnotateFlag(flagSet, "addr", "devserver.addr")
	model.AnnotateFlag(flagSet, "db", "devserver.db_path")
	model.AnnotateFlag(flagSet, "jwt-secret", "devserver.jwt_secret")
	model.AnnotateFlag(flagSet, "log-level", "log.level")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := model.LoadConfig(configPath, flagSet)
	if err != nil {
		return err
	}
	log := logging.Console(cfg.Log.Level)
	gin.SetMode(gin.ReleaseMode)

	if err := os.MkdirAll(filepath.Dir(cfg.DevServer.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.DevServer.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if seed {
		n, err := st.CountRecords(ctx, model.KindEnquiry, store.RecordFilter{})
		if err != nil {
			return err
		}
		if n == 0 {
			if err := store.Seed(ctx, st, time.Now()); err != nil {
				return err
			}
			log.Info().
				Str("email", store.SeedOperatorEmail).
				Str("password", store.SeedOperatorPassword).
				Msg("seeded sample data")
		} else {
			log.Info().Msg("database not empty, skipping seed")
		}
	}

	srv, err := devserver.New(devserver.Config{
		Store:  st,
		Secret: cfg.DevServer.JWTSecret,
		Logger: log,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.DevServer.Addr)
}
