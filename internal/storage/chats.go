package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

// ChatStorage хранит telegram чаты, подписанные на отчеты.
type ChatStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewChatStorage открывает sqlite базу по пути dbPath и создает таблицы.
func NewChatStorage(dbPath string, logger *slog.Logger) (*ChatStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to create db dir", "dir", dir, "error", err)
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("Failed to open sqlite db", "path", dbPath, "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&models.Chat{}); err != nil {
		logger.Error("Failed to auto-migrate chat model", "error", err)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("Chat storage initialized", "path", dbPath)

	return &ChatStorage{db: db, logger: logger}, nil
}

// SaveChat добавляет чат или обновляет название уже сохраненного.
func (s *ChatStorage) SaveChat(ctx context.Context, chatID int64, title string) error {
	db := s.db.WithContext(ctx)

	var chat models.Chat
	err := db.Where("chat_id = ?", chatID).First(&chat).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		chat = models.Chat{ChatID: chatID, Title: title, AddedAt: time.Now()}
		if err := db.Create(&chat).Error; err != nil {
			s.logger.Error("Failed to create chat", "chat_id", chatID, "title", title, "error", err)
			return fmt.Errorf("create chat: %w", err)
		}
		s.logger.Info("Chat subscribed", "chat_id", chatID, "title", title)
		return nil
	case err != nil:
		s.logger.Error("Failed to load chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("load chat: %w", err)
	}

	chat.Title = title
	if err := db.Save(&chat).Error; err != nil {
		s.logger.Error("Failed to update chat", "chat_id", chatID, "title", title, "error", err)
		return fmt.Errorf("update chat: %w", err)
	}

	s.logger.Info("Chat updated", "chat_id", chatID, "title", title)
	return nil
}

// RemoveChat удаляет чат из рассылки.
func (s *ChatStorage) RemoveChat(ctx context.Context, chatID int64) error {
	res := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&models.Chat{})
	if res.Error != nil {
		s.logger.Error("Failed to remove chat", "chat_id", chatID, "error", res.Error)
		return fmt.Errorf("remove chat: %w", res.Error)
	}

	s.logger.Info("Chat unsubscribed", "chat_id", chatID, "rows_affected", res.RowsAffected)
	return nil
}

// ListChatIDs идентификаторы всех подписанных чатов.
func (s *ChatStorage) ListChatIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&models.Chat{}).Order("id").Pluck("chat_id", &ids).Error; err != nil {
		s.logger.Error("Failed to list chats", "error", err)
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return ids, nil
}

// MigrateChat переносит подписку при переходе группы в супергруппу.
// Если супергруппа уже подписана, старая запись удаляется.
func (s *ChatStorage) MigrateChat(ctx context.Context, oldChatID, newChatID int64) error {
	var rows int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Chat{}).Where("chat_id = ?", newChatID).Count(&exists).Error; err != nil {
			return fmt.Errorf("count chat: %w", err)
		}

		var res *gorm.DB
		if exists > 0 {
			res = tx.Where("chat_id = ?", oldChatID).Delete(&models.Chat{})
		} else {
			res = tx.Model(&models.Chat{}).
				Where("chat_id = ?", oldChatID).
				Update("chat_id", newChatID)
		}
		if res.Error != nil {
			return res.Error
		}
		rows = res.RowsAffected
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to migrate chat",
			"old_chat_id", oldChatID,
			"new_chat_id", newChatID,
			"error", err)
		return fmt.Errorf("migrate chat: %w", err)
	}

	s.logger.Debug("Chat migrated",
		"old_chat_id", oldChatID,
		"new_chat_id", newChatID,
		"rows_affected", rows)
	return nil
}

// Close закрывает соединение с базой.
func (s *ChatStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
