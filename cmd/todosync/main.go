package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/api"
	"github.com/nhle/todosync/internal/app"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	appsync "github.com/nhle/todosync/internal/sync"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	writeConfig := flag.Bool("write-config", false, "write the effective config to --config and exit")
	flag.Parse()

	if err := run(*configPath, *writeConfig); err != nil {
		fmt.Fprintln(os.Stderr, "todosync:", err)
		os.Exit(1)
	}
}

func run(configPath string, writeConfig bool) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if writeConfig {
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
		fmt.Println("wrote", configPath)
		return nil
	}

	logger, closer, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	client := api.NewClient(
		cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithMaxRetries(cfg.API.MaxRetries),
		api.WithLogger(logger.With("component", "api")),
	)
	ctrl := appsync.New(
		client,
		appsync.WithLogger(logger.With("component", "sync")),
		appsync.WithToggleMode(cfg.Sync.ToggleMode),
	)

	logger.Info("starting", "endpoint", client.BaseURL(), "toggle_mode", cfg.Sync.ToggleMode)
	checkHealth(context.Background(), client, logger)

	p := tea.NewProgram(app.New(ctrl, cfg, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// healthTimeout bounds the startup reachability check.
const healthTimeout = 3 * time.Second

type healthChecker interface {
	Health(ctx context.Context) error
}

// checkHealth logs whether the API answers. An unreachable API is not fatal:
// the first load reports it in the status bar.
func checkHealth(ctx context.Context, hc healthChecker, logger *log.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := hc.Health(ctx); err != nil {
		logger.Warn("api health check failed", "kind", api.Classify(err), "err", err)
		return false
	}
	logger.Info("api healthy")
	return true
}
