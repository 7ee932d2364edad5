package telegram

import (
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// slogBotLogger adapts slog.Logger to tgbotapi.BotLogger so library logs go through slog.
type slogBotLogger struct {
	log *slog.Logger
}

func (s *slogBotLogger) Println(v ...any) {
	s.log.Warn(fmt.Sprint(v...))
}

func (s *slogBotLogger) Printf(format string, v ...any) {
	s.log.Warn(fmt.Sprintf(format, v...))
}

var installLogger sync.Once

// routeLibraryLogs installs the slog bridge; the library logger is process-global.
func routeLibraryLogs(log *slog.Logger) {
	installLogger.Do(func() {
		_ = tgbotapi.SetLogger(&slogBotLogger{log: log.With(slog.String("component", "tgbotapi"))})
	})
}
