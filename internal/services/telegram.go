package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DevN0mad/TodoProgress/internal/models"
	"github.com/DevN0mad/TodoProgress/internal/report"
)

// TelegramOpts параметры необходимые для инициализации сервиса TelegramBotService.
type TelegramOpts struct {
	Token       string `mapstructure:"token" yaml:"token" validate:"required"`
	ChatID      int64  `mapstructure:"chat_id" yaml:"chat_id" validate:"required"`
	Message     string `mapstructure:"message" yaml:"message" validate:"required"`
	StoragePath string `mapstructure:"storage_path" yaml:"storage_path" validate:"required"`
}

// ChatStore хранилище подписанных чатов.
type ChatStore interface {
	SaveChat(ctx context.Context, chatID int64, title string) error
	RemoveChat(ctx context.Context, chatID int64) error
	ListChatIDs(ctx context.Context) ([]int64, error)
	MigrateChat(ctx context.Context, oldChatID, newChatID int64) error
}

// botAPI часть tgbotapi.BotAPI, которой пользуется сервис.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramBotService сервис предназначенный для взаимодействия с telegram.
type TelegramBotService struct {
	opts    TelegramOpts
	logger  *slog.Logger
	bot     botAPI
	chats   ChatStore
	fetcher ReportFetcher
}

// NewTelegramBot создает экземпляр сервиса для работы с telegram ботом.
func NewTelegramBot(opts TelegramOpts, chats ChatStore, fetcher ReportFetcher, logger *slog.Logger) (*TelegramBotService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		logger.Error("Failed to create Telegram bot", "error", err)
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	logger.Info("Telegram bot created successfully",
		"bot_user", bot.Self.UserName,
		"chat_id", opts.ChatID,
	)
	return newTelegramBot(opts, bot, chats, fetcher, logger)
}

func newTelegramBot(opts TelegramOpts, bot botAPI, chats ChatStore, fetcher ReportFetcher, logger *slog.Logger) (*TelegramBotService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	if chats == nil {
		return nil, fmt.Errorf("chat store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("report fetcher is required")
	}

	return &TelegramBotService{
		opts:    opts,
		logger:  logger,
		bot:     bot,
		chats:   chats,
		fetcher: fetcher,
	}, nil
}

// SendFile отправляет файл в основной чат и во все подписанные чаты.
func (s *TelegramBotService) SendFile(ctx context.Context, path string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			s.logger.Error("File not found", "path", path, "error", err)
			return fmt.Errorf("file not found at %q: %w", path, err)
		}
		s.logger.Error("Failed to access file", "path", path, "error", err)
		return fmt.Errorf("access file at %q: %w", path, err)
	}

	recipients, err := s.recipients(ctx)
	if err != nil {
		return err
	}

	for _, chatID := range recipients {
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		msg.Caption = s.opts.Message

		if _, err := s.bot.Send(msg); err != nil {
			s.logger.Error("Failed to send file",
				"path", path,
				"chat_id", chatID,
				"error", err)
			return fmt.Errorf("send file to chat %d: %w", chatID, err)
		}

		s.logger.Info("File sent successfully",
			"path", path,
			"chat_id", chatID)
	}
	return nil
}

// recipients основной чат и подписчики без повторов.
func (s *TelegramBotService) recipients(ctx context.Context) ([]int64, error) {
	stored, err := s.chats.ListChatIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	seen := map[int64]bool{s.opts.ChatID: true}
	out := []int64{s.opts.ChatID}
	for _, id := range stored {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// Listen обрабатывает входящие команды до отмены контекста.
func (s *TelegramBotService) Listen(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.bot.GetUpdatesChan(u)
	s.logger.Info("Listening for telegram updates")

	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			s.logger.Info("Telegram listener stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			s.handleUpdate(ctx, upd)
		}
	}
}

func (s *TelegramBotService) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.MigrateToChatID != 0 {
		if err := s.chats.MigrateChat(ctx, msg.Chat.ID, msg.MigrateToChatID); err != nil {
			s.logger.Error("Chat migration failed", "chat_id", msg.Chat.ID, "error", err)
		}
		return
	}

	if !msg.IsCommand() {
		return
	}

	var reply string
	switch msg.Command() {
	case "start":
		if err := s.chats.SaveChat(ctx, msg.Chat.ID, chatTitle(msg.Chat)); err != nil {
			reply = "Subscription failed, try again later."
			break
		}
		reply = "Subscribed to todo progress reports."
	case "stop":
		if err := s.chats.RemoveChat(ctx, msg.Chat.ID); err != nil {
			reply = "Unsubscribe failed, try again later."
			break
		}
		reply = "Unsubscribed from todo progress reports."
	case "report":
		reply = s.progressText(ctx, msg.CommandArguments())
	default:
		reply = "Commands: /start, /stop, /report <employee-id>"
	}

	if _, err := s.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		s.logger.Error("Failed to send reply", "chat_id", msg.Chat.ID, "command", msg.Command(), "error", err)
	}
}

// progressText сводка по сотруднику для ответа в чат.
func (s *TelegramBotService) progressText(ctx context.Context, arg string) string {
	id, err := models.ParseEmployeeID(arg)
	if err != nil {
		return "Usage: /report <employee-id>"
	}

	rep, err := s.fetcher.FetchReport(ctx, id)
	if err != nil {
		s.logger.Warn("Report for chat failed", "employee_id", id, "error", err)
		return "Error: " + err.Error()
	}
	return strings.Join(report.Render(rep), "\n")
}

func chatTitle(c *tgbotapi.Chat) string {
	if c.Title != "" {
		return c.Title
	}
	if c.UserName != "" {
		return "@" + c.UserName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
