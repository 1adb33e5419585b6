package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/DevN0mad/TodoProgress/internal/config"
	"github.com/DevN0mad/TodoProgress/internal/core"
)

func main() {
	app := kingpin.New("todo-progress", "Daily todo progress reports delivered to telegram.")
	app.DefaultEnvars()
	configPath := app.Flag("config", "Путь к файлу с конфигурацией").Default("/etc/todo_progress/config.yaml").String()
	debug := app.Flag("debug", "Включить debug логи").Bool()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgMgr, err := config.NewManager(*configPath, logger)
	if err != nil {
		logger.Error("Failed to init config manager", "error", err)
		os.Exit(1)
	}

	a := core.NewApp(ctx, logger)

	if err := a.ApplyConfig(cfgMgr.Current()); err != nil {
		logger.Error("Failed to apply initial config", "error", err)
		os.Exit(1)
	}

	cfgMgr.OnChange(func(newCfg config.Config) {
		if err := a.ApplyConfig(newCfg); err != nil {
			logger.Error("Failed to apply new config", "error", err)
		}
	})

	<-ctx.Done()
	logger.Info("Shutdown requested", "reason", ctx.Err())

	a.Shutdown()
	logger.Info("Shutdown complete")
}
