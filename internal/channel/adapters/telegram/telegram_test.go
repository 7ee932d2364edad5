package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/streamrelay/internal/channel"
)

const (
	testToken  = "123:abc"
	testSecret = "relay-secret_1"
)

type apiCall struct {
	method string
	form   url.Values
}

// fakeBotAPI answers the Bot API methods the adapter uses and serves one file.
type fakeBotAPI struct {
	*httptest.Server
	mu    sync.Mutex
	calls []apiCall
	file  []byte
}

func newFakeBotAPI(t *testing.T, file []byte) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{file: file}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
		_, _ = w.Write(f.file)
		return
	}
	method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
	_ = r.ParseForm()
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: r.PostForm})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"relay","username":"relay_bot"}}`))
	case "setWebhook", "deleteWebhook":
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	case "sendMessage", "editMessageText":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42,"date":0,"chat":{"id":100,"type":"private"}}}`))
	case "getFile":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"F1","file_unique_id":"U1","file_path":"documents/file_1.txt"}}`))
	default:
		http.Error(w, `{"ok":false,"error_code":404,"description":"Not Found"}`, http.StatusNotFound)
	}
}

func (f *fakeBotAPI) call(method string) (apiCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.method == method {
			return c, true
		}
	}
	return apiCall{}, false
}

func (f *fakeBotAPI) config(mode string) Config {
	return Config{
		BotToken:     testToken,
		Mode:         mode,
		WebhookURL:    "https://relay.example.com/webhook",
		WebhookSecret: testSecret,
		APIEndpoint:   f.URL + "/bot%s/%s",
		FileEndpoint:  f.URL + "/file/bot%s/%s",
	}
}

func webhookRequest(secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(documentUpdate))
	if secret != "" {
		req.Header.Set(SecretTokenHeader, secret)
	}
	return req
}

const documentUpdate = `{"update_id":1,"message":{"message_id":7,"date":1700000000,
"chat":{"id":100,"type":"private"},
"from":{"id":55,"is_bot":false,"first_name":"Ann","username":"ann"},
"document":{"file_id":"F1","file_unique_id":"U1","file_name":"notes.txt","mime_type":"text/plain","file_size":11}}}`

func TestWebhookRoundTrip(t *testing.T) {
	t.Parallel()

	api := newFakeBotAPI(t, []byte("hello world"))
	adapter := NewTelegramAdapter(nil, api.config(ModeWebhook))

	type result struct {
		msg  channel.InboundMessage
		data []byte
		err  error
	}
	done := make(chan result, 1)
	handler := func(ctx context.Context, sess channel.Session, msg channel.InboundMessage) error {
		ref, err := sess.Reply(ctx, "<b>working</b>", channel.MessageFormatHTML)
		if err != nil {
			done <- result{err: err}
			return err
		}
		data, err := sess.Fetch(ctx, msg.Attachments[0], 1024)
		if err == nil {
			err = sess.Edit(ctx, ref, "done", channel.MessageFormatPlain)
		}
		done <- result{msg: msg, data: data, err: err}
		return err
	}

	conn, err := adapter.Connect(context.Background(), handler)
	require.NoError(t, err)

	setWebhook, ok := api.call("setWebhook")
	require.True(t, ok)
	assert.Equal(t, "https://relay.example.com/webhook", setWebhook.form.Get("url"))
	assert.Equal(t, testSecret, setWebhook.form.Get("secret_token"))

	assert.ErrorIs(t, adapter.HandleWebhook(webhookRequest("")), ErrWebhookUnauthorized)
	assert.ErrorIs(t, adapter.HandleWebhook(webhookRequest("wrong")), ErrWebhookUnauthorized)
	require.NoError(t, adapter.HandleWebhook(webhookRequest(testSecret)))

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "hello world", string(res.data))
		assert.Equal(t, "100", res.msg.ChatID)
		assert.Equal(t, "7", res.msg.MessageID)
		assert.Equal(t, "55", res.msg.Sender.ExternalID)
		require.Len(t, res.msg.Attachments, 1)
		assert.Equal(t, channel.Attachment{
			Type:   channel.AttachmentFile,
			FileID: "F1",
			Name:   "notes.txt",
			Mime:   "text/plain",
			Size:   11,
		}, res.msg.Attachments[0])
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	send, ok := api.call("sendMessage")
	require.True(t, ok)
	assert.Equal(t, "100", send.form.Get("chat_id"))
	assert.Equal(t, "HTML", send.form.Get("parse_mode"))
	assert.Equal(t, "7", send.form.Get("reply_to_message_id"))

	edit, ok := api.call("editMessageText")
	require.True(t, ok)
	assert.Equal(t, "42", edit.form.Get("message_id"))
	assert.Equal(t, "done", edit.form.Get("text"))

	require.NoError(t, conn.Stop(context.Background()))
	err = adapter.HandleWebhook(webhookRequest(testSecret))
	assert.ErrorIs(t, err, ErrWebhookDisabled)
}

func TestWebhookGeneratesSecret(t *testing.T) {
	t.Parallel()

	api := newFakeBotAPI(t, nil)
	cfg := api.config(ModeWebhook)
	cfg.WebhookSecret = ""
	adapter := NewTelegramAdapter(nil, cfg)

	called := make(chan struct{}, 1)
	handler := func(context.Context, channel.Session, channel.InboundMessage) error {
		called <- struct{}{}
		return nil
	}
	conn, err := adapter.Connect(context.Background(), handler)
	require.NoError(t, err)
	defer func() { _ = conn.Stop(context.Background()) }()

	setWebhook, ok := api.call("setWebhook")
	require.True(t, ok)
	secret := setWebhook.form.Get("secret_token")
	require.NotEmpty(t, secret)
	assert.True(t, validSecretToken(secret))

	assert.ErrorIs(t, adapter.HandleWebhook(webhookRequest("")), ErrWebhookUnauthorized)
	require.NoError(t, adapter.HandleWebhook(webhookRequest(secret)))
	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestHandleWebhookWithoutConnection(t *testing.T) {
	t.Parallel()

	adapter := NewTelegramAdapter(nil, Config{BotToken: testToken})
	err := adapter.HandleWebhook(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}")))
	assert.ErrorIs(t, err, ErrWebhookDisabled)
}

func TestConnectValidatesConfig(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, channel.Session, channel.InboundMessage) error { return nil }
	_, err := NewTelegramAdapter(nil, Config{}).Connect(context.Background(), noop)
	assert.Error(t, err)

	_, err = NewTelegramAdapter(nil, Config{BotToken: testToken, Mode: ModeWebhook}).Connect(context.Background(), noop)
	assert.Error(t, err)

	_, err = NewTelegramAdapter(nil, Config{BotToken: testToken}).Connect(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildInboundMessageCommand(t *testing.T) {
	t.Parallel()

	msg, ok := buildInboundMessage(&tgbotapi.Message{
		MessageID: 3,
		Chat:      &tgbotapi.Chat{ID: -100},
		From:      &tgbotapi.User{ID: 9, FirstName: "Bo", LastName: "Lee"},
		Text:      "/Start@relay_bot",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 16}},
	})
	require.True(t, ok)
	assert.Equal(t, "start", msg.Command)
	assert.Equal(t, "-100", msg.ChatID)
	assert.Equal(t, "Bo Lee", msg.Sender.DisplayName)
	assert.Empty(t, msg.Attachments)

	_, ok = buildInboundMessage(&tgbotapi.Message{MessageID: 1})
	assert.False(t, ok)
}

func TestCollectTelegramAttachments(t *testing.T) {
	t.Parallel()

	atts := collectTelegramAttachments(&tgbotapi.Message{
		Video: &tgbotapi.Video{FileID: "V1", MimeType: "video/mp4", FileSize: 2048, Duration: 3},
		Voice: &tgbotapi.Voice{FileID: "O1", MimeType: "audio/ogg", FileSize: 64, Duration: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "P1"}},
	})
	require.Len(t, atts, 2)
	assert.Equal(t, channel.AttachmentVideo, atts[0].Type)
	assert.Equal(t, int64(3000), atts[0].DurationMs)
	assert.Equal(t, channel.AttachmentVoice, atts[1].Type)
	assert.Equal(t, "O1", atts[1].FileID)
}

func TestResolveTelegramSender(t *testing.T) {
	t.Parallel()

	externalID, displayName, attrs := resolveTelegramSender(nil)
	if externalID != "" || displayName != "" || len(attrs) != 0 {
		t.Fatalf("expected empty sender")
	}
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 123, UserName: "alice"},
	}
	externalID, displayName, attrs = resolveTelegramSender(msg)
	if externalID != "123" || displayName != "alice" {
		t.Fatalf("unexpected sender: %s %s", externalID, displayName)
	}
	if attrs["user_id"] != "123" || attrs["username"] != "alice" {
		t.Fatalf("unexpected attrs: %#v", attrs)
	}
}

func TestDownloadEnforcesLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		// Chunked: no Content-Length, so the cap is enforced while reading.
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	data, err := download(context.Background(), srv.Client(), srv.URL+"/ok", 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	_, err = download(context.Background(), srv.Client(), srv.URL+"/ok", 9)
	assert.True(t, errors.Is(err, channel.ErrFileTooLarge), "got %v", err)

	_, err = download(context.Background(), srv.Client(), srv.URL+"/missing", 10)
	assert.Error(t, err)
}

func TestSessionFetchRejectsDeclaredOversize(t *testing.T) {
	t.Parallel()

	sess := &session{}
	_, err := sess.Fetch(context.Background(), channel.Attachment{FileID: "F1", Size: 100}, 10)
	assert.ErrorIs(t, err, channel.ErrFileTooLarge)
}

func TestSessionErrorsHideToken(t *testing.T) {
	t.Parallel()

	api := newFakeBotAPI(t, nil)
	bot, err := tgbotapi.NewBotAPIWithClient(testToken, api.URL+"/bot%s/%s", &http.Client{})
	require.NoError(t, err)
	api.Close()

	sess := &session{
		bot:          bot,
		chatID:       100,
		client:       &http.Client{},
		fileEndpoint: api.URL + "/file/bot%s/%s",
	}
	_, err = sess.Fetch(context.Background(), channel.Attachment{FileID: "F1"}, 1024)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)

	_, err = sess.Reply(context.Background(), "hi", channel.MessageFormatPlain)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)

	err = sess.Edit(context.Background(), channel.MessageRef{ChatID: "100", MessageID: "1"}, "hi", channel.MessageFormatPlain)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)

	_, err = download(context.Background(), &http.Client{}, api.URL+"/file/bot"+testToken+"/documents/a.txt", 1024)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)
}

func TestConnectErrorHidesToken(t *testing.T) {
	t.Parallel()

	api := newFakeBotAPI(t, nil)
	cfg := api.config(ModePolling)
	api.Close()

	_, err := NewTelegramAdapter(nil, cfg).Connect(context.Background(), func(context.Context, channel.Session, channel.InboundMessage) error { return nil })
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken)
}
