package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/streamrelay/internal/channel"
	"github.com/memohai/streamrelay/internal/version"
)

// session replies to and downloads from the chat of a single inbound message.
type session struct {
	bot             *tgbotapi.BotAPI
	chatID          int64
	client          *http.Client
	fileEndpoint    string
	downloadTimeout time.Duration
	replyTo         int
}

func (s *session) Reply(_ context.Context, text string, format channel.MessageFormat) (channel.MessageRef, error) {
	message := tgbotapi.NewMessage(s.chatID, text)
	message.ParseMode = resolveTelegramParseMode(format)
	message.DisableWebPagePreview = true
	if s.replyTo > 0 {
		message.ReplyToMessageID = s.replyTo
	}
	sent, err := s.bot.Send(message)
	if err != nil {
		return channel.MessageRef{}, fmt.Errorf("send message: %w", scrubURLError(err))
	}
	return channel.MessageRef{
		ChatID:    strconv.FormatInt(s.chatID, 10),
		MessageID: strconv.Itoa(sent.MessageID),
	}, nil
}

func (s *session) Edit(_ context.Context, ref channel.MessageRef, text string, format channel.MessageFormat) error {
	chatID, err := parseChatID(ref.ChatID)
	if err != nil {
		return err
	}
	messageID, err := parseMessageID(ref.MessageID)
	if err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = resolveTelegramParseMode(format)
	edit.DisableWebPagePreview = true
	if _, err := s.bot.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", scrubURLError(err))
	}
	return nil
}

// Fetch resolves the file path through getFile and downloads it, never
// buffering more than maxBytes+1 bytes.
func (s *session) Fetch(ctx context.Context, att channel.Attachment, maxBytes int64) ([]byte, error) {
	if strings.TrimSpace(att.FileID) == "" {
		return nil, errors.New("attachment file_id is required")
	}
	if maxBytes <= 0 {
		return nil, errors.New("max bytes must be greater than 0")
	}
	if att.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, max %d", channel.ErrFileTooLarge, att.Size, maxBytes)
	}
	file, err := s.bot.GetFile(tgbotapi.FileConfig{FileID: att.FileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", scrubURLError(err))
	}
	if strings.TrimSpace(file.FilePath) == "" {
		return nil, errors.New("get file: empty file path")
	}
	if s.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.downloadTimeout)
		defer cancel()
	}
	return download(ctx, s.client, fmt.Sprintf(s.fileEndpoint, s.bot.Token, file.FilePath), maxBytes)
}

// download fetches url with a hard byte cap.
func download(ctx context.Context, client *http.Client, rawURL string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.New("download: invalid file url")
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", scrubURLError(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, max %d", channel.ErrFileTooLarge, resp.ContentLength, maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download: read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", channel.ErrFileTooLarge, maxBytes)
	}
	return data, nil
}

// scrubURLError drops the request URL from transport errors. Bot API and file
// URLs embed the bot token, so it must never reach logs or callers.
func scrubURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s telegram api: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}
