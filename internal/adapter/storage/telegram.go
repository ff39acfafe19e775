package storage

import (
	"context"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/semmidev/telos/internal/config"
)

// telegramFileLimit is the Bot API upload ceiling in MB; larger artifacts
// fall back to a notification message.
const telegramFileLimit = 50

// TelegramStorage ships small backup artifacts straight into a chat, or
// announces them when the file is too large or send_file is off.
type TelegramStorage struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	sendFile bool
}

func NewTelegram(cfg *config.UploadTarget) (*TelegramStorage, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	var chatID int64
	fmt.Sscanf(cfg.ChatID, "%d", &chatID)

	return &TelegramStorage{
		bot:      bot,
		chatID:   chatID,
		sendFile: cfg.SendFile,
	}, nil
}

func (t *TelegramStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	fileInfo, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	fileSizeMB := float64(fileInfo.Size()) / (1024 * 1024)

	if t.sendFile && fileSizeMB <= telegramFileLimit {
		doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(localPath))
		doc.Caption = fmt.Sprintf("Deployment artifact: %s (%.2f MB)", remoteName, fileSizeMB)

		if _, err := t.bot.Send(doc); err != nil {
			return fmt.Errorf("failed to send telegram file: %w", err)
		}
		return nil
	}

	message := fmt.Sprintf(
		"Deployment artifact created\n\nFile: %s\nSize: %.2f MB\nTime: %s",
		remoteName,
		fileSizeMB,
		fileInfo.ModTime().Format("2006-01-02 15:04:05"),
	)

	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, message)); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

// List and Delete are no-ops: the Bot API cannot enumerate or remove
// previously sent documents.
func (t *TelegramStorage) List(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

func (t *TelegramStorage) Delete(ctx context.Context, remoteName string) error {
	return nil
}
