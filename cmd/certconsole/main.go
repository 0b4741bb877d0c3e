// certconsole is the terminal admin console for the certification
// authority's support inbox. It lists enquiries, contact messages, reported
// products and user FAQs, and keeps them current from the backend's push
// channel.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/app"
	"github.com/nhle/certconsole/internal/credential"
	"github.com/nhle/certconsole/internal/logging"
	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/push"
	"github.com/nhle/certconsole/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	flagSet := pflag.NewFlagSet("certconsole", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	flagSet.String("api", "", "REST API base URL (overrides api.base_url)")
	flagSet.String("push", "", "push websocket URL (overrides push.url)")
	flagSet.String("log-file", "", "log file path (overrides log.file)")
	flagSet.String("log-level", "", "log level (overrides log.level)")
	model.AnnotateFlag(flagSet, "api", "api.base_url")
	model.AnnotateFlag(flagSet, "push", "push.url")
	model.AnnotateFlag(flagSet, "log-file", "log.file")
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

	log, closer, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Info().Str("api", cfg.API.BaseURL).Str("push", cfg.Push.URL).Msg("starting console")

	tokens, err := credential.Open(model.ConfigDir())
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout())
	sess := session.New(session.Config{
		Client: client,
		Tokens: tokens,
		Push: push.Config{
			URL: cfg.Push.URL,
			Backoff: push.Backoff{
				Initial: time.Duration(cfg.Push.InitialBackoffMS) * time.Millisecond,
				Max:     time.Duration(cfg.Push.MaxBackoffSec) * time.Second,
			},
			Logger: log,
		},
		MaxRetained: cfg.Notifications.MaxRetained,
		Logger:      log,
	})

	if restored, err := sess.Restore(); err != nil {
		log.Warn().Err(err).Msg("restoring saved session")
	} else if restored {
		log.Info().Msg("restored saved session")
	}

	m := app.New(app.Options{
		Session: sess,
		Config:  cfg,
		Logger:  log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	if err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}
