package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DevN0mad/TodoProgress/internal/config"
	"github.com/DevN0mad/TodoProgress/internal/server"
	"github.com/DevN0mad/TodoProgress/internal/services"
	"github.com/DevN0mad/TodoProgress/internal/storage"
)

// TelegramBot бот, который доставляет отчеты и принимает команды.
type TelegramBot interface {
	services.FileSender
	Listen(ctx context.Context)
}

// BotFactory создает бота по настройкам telegram_bot.
type BotFactory func(opts services.TelegramOpts, chats services.ChatStore, fetcher services.ReportFetcher, logger *slog.Logger) (TelegramBot, error)

func newTelegramBot(opts services.TelegramOpts, chats services.ChatStore, fetcher services.ReportFetcher, logger *slog.Logger) (TelegramBot, error) {
	return services.NewTelegramBot(opts, chats, fetcher, logger)
}

// App представляет основное приложение, управляющее сервисами.
type App struct {
	logger  *slog.Logger
	rootCtx context.Context
	newBot  BotFactory

	mu             sync.Mutex
	chats          *storage.ChatStorage
	servicesCancel context.CancelFunc
	wg             sync.WaitGroup
}

// NewApp создает новый экземпляр приложения с заданным логгером и корневым контекстом.
func NewApp(ctx context.Context, logger *slog.Logger) *App {
	return NewAppWithBot(ctx, logger, newTelegramBot)
}

// NewAppWithBot как NewApp, но с собственной фабрикой бота.
func NewAppWithBot(ctx context.Context, logger *slog.Logger, newBot BotFactory) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if newBot == nil {
		newBot = newTelegramBot
	}
	return &App{
		logger:  logger,
		rootCtx: ctx,
		newBot:  newBot,
	}
}

// serviceSet набор сервисов, собранный из одной конфигурации.
type serviceSet struct {
	chats    *storage.ChatStorage
	tg       TelegramBot
	dailyJob *services.DailyJobService
	adminSrv *server.AdminServer
}

// ApplyConfig применяет конфигурацию к приложению, инициализируя/переинициализируя сервисы.
// Пока новый набор не собран, работают прежние сервисы.
func (a *App) ApplyConfig(cfg config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.build(cfg)
	if err != nil {
		a.logger.Error("Keeping previous services", "error", err)
		return err
	}

	a.stopLocked()
	a.startLocked(set)

	a.logger.Info("Services reinitialized successfully with configuration",
		"base_url", cfg.OpenAPI.BaseURL,
		"employees", len(cfg.DailyJob.EmployeeIDs))
	return nil
}

// build собирает сервисы, ничего не запуская.
func (a *App) build(cfg config.Config) (*serviceSet, error) {
	chats, err := storage.NewChatStorage(cfg.TelegramBot.StoragePath, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init chat storage: %w", err)
	}

	todoSrv := services.Init(cfg.OpenAPI, a.logger)

	tg, err := a.newBot(cfg.TelegramBot, chats, todoSrv, a.logger)
	if err != nil {
		chats.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	dailyJob, err := services.NewDailyJobService(tg, todoSrv, cfg.DailyJob, a.logger)
	if err != nil {
		chats.Close()
		return nil, fmt.Errorf("init daily job: %w", err)
	}

	adminOpts := cfg.HttpServer
	return &serviceSet{
		chats:    chats,
		tg:       tg,
		dailyJob: dailyJob,
		adminSrv: server.NewAdminServer(a.logger, todoSrv, dailyJob, &adminOpts),
	}, nil
}

// startLocked запускает сервисы набора. Вызывается под a.mu.
func (a *App) startLocked(set *serviceSet) {
	ctx, cancel := context.WithCancel(a.rootCtx)

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		set.tg.Listen(ctx)
	}()
	go func() {
		defer a.wg.Done()
		set.dailyJob.Start(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := set.adminSrv.Start(ctx); err != nil {
			a.logger.Error("Admin server exited with error", "error", err)
		}
	}()

	a.chats = set.chats
	a.servicesCancel = cancel
}

// Shutdown останавливает все запущенные сервисы приложения.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
}

// stopLocked останавливает сервисы и ждет их завершения. Вызывается под a.mu.
func (a *App) stopLocked() {
	if a.servicesCancel == nil {
		return
	}

	a.logger.Info("Stopping services")
	a.servicesCancel()
	a.servicesCancel = nil
	a.wg.Wait()

	if a.chats != nil {
		if err := a.chats.Close(); err != nil {
			a.logger.Error("Failed to close chat storage", "error", err)
		}
		a.chats = nil
	}
}
