package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/memohai/streamrelay/internal/channel"
	"github.com/memohai/streamrelay/internal/logger"
	"github.com/memohai/streamrelay/internal/media"
)

// Processor handles inbound chat messages: /start gets a welcome text, files
// are downloaded, stored and answered with a stream link.
// Log lines are written to the logger carried by the handler context.
type Processor struct {
	store   FileStore
	baseURL string
}

// NewProcessor creates a processor that builds links under baseURL.
func NewProcessor(store FileStore, baseURL string) *Processor {
	return &Processor{
		store:   store,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Handle implements channel.InboundHandler.
func (p *Processor) Handle(ctx context.Context, sess channel.Session, msg channel.InboundMessage) error {
	log := logger.FromContext(ctx).With(slog.String("service", "ingest"))
	switch msg.Command {
	case "start", "help":
		_, err := sess.Reply(ctx, welcomeText(), channel.MessageFormatHTML)
		return err
	case "":
	default:
		return nil
	}

	att, ok := pickAttachment(msg.Attachments)
	if !ok {
		_, err := sess.Reply(ctx, invalidFileText, channel.MessageFormatPlain)
		return err
	}
	filename, mime := describeAttachment(att)
	maxBytes := p.store.MaxBytes()
	if att.Size > maxBytes {
		_, err := sess.Reply(ctx, tooLargeText(att.Size, maxBytes), channel.MessageFormatPlain)
		return err
	}

	status, err := sess.Reply(ctx, processingText, channel.MessageFormatPlain)
	if err != nil {
		return fmt.Errorf("send status: %w", err)
	}

	content, err := sess.Fetch(ctx, att, maxBytes)
	if err != nil {
		log.Warn("download failed", slog.String("id", att.FileID), slog.Any("error", err))
		return p.fail(ctx, sess, status, err, att.Size, maxBytes)
	}
	if media.IsGenericMime(mime) {
		mime = sniffMime(filename, content)
	}

	result, err := p.Store(File{ID: att.FileID, Filename: filename, Mime: mime, Content: content})
	if err != nil {
		log.Warn("store failed", slog.String("id", att.FileID), slog.Any("error", err))
		return p.fail(ctx, sess, status, err, int64(len(content)), maxBytes)
	}
	log.Info("file ready",
		slog.String("id", result.ID),
		slog.String("chat_id", msg.ChatID),
		slog.String("mime", result.Mime),
		slog.Int64("size_bytes", result.SizeBytes),
	)
	return sess.Edit(ctx, status, readyText(result), channel.MessageFormatHTML)
}

// Store wraps media.Store.Put and derives the stream link. It is the single
// entry point for files received from any channel.
func (p *Processor) Store(f File) (Result, error) {
	if err := p.store.Put(f.ID, f.Content, f.Filename, f.Mime); err != nil {
		return Result{}, err
	}
	mime := f.Mime
	if strings.TrimSpace(mime) == "" {
		mime = media.DefaultMime
	}
	return Result{
		ID:        f.ID,
		Filename:  f.Filename,
		Mime:      mime,
		SizeBytes: int64(len(f.Content)),
		StreamURL: media.StreamURL(p.baseURL, f.ID),
	}, nil
}

func (p *Processor) fail(ctx context.Context, sess channel.Session, status channel.MessageRef, cause error, size, maxBytes int64) error {
	text := failureText(cause, size, maxBytes)
	if err := sess.Edit(ctx, status, text, channel.MessageFormatPlain); err != nil {
		return errors.Join(cause, fmt.Errorf("edit status: %w", err))
	}
	return nil
}

func pickAttachment(atts []channel.Attachment) (channel.Attachment, bool) {
	for _, att := range atts {
		switch att.Type {
		case channel.AttachmentFile, channel.AttachmentVideo, channel.AttachmentAudio, channel.AttachmentVoice:
			if strings.TrimSpace(att.FileID) != "" {
				return att, true
			}
		}
	}
	return channel.Attachment{}, false
}

// describeAttachment applies the per-kind filename and MIME defaults.
func describeAttachment(att channel.Attachment) (string, string) {
	name := strings.TrimSpace(att.Name)
	mime := media.NormalizeMime(att.Mime)
	switch att.Type {
	case channel.AttachmentVideo:
		name = "video_" + att.FileID + ".mp4"
		mime = coalesce(mime, "video/mp4")
	case channel.AttachmentAudio:
		name = coalesce(name, "audio_"+att.FileID+".mp3")
		mime = coalesce(mime, "audio/mpeg")
	case channel.AttachmentVoice:
		name = "voice_" + att.FileID + ".ogg"
		mime = "audio/ogg"
	default:
		name = coalesce(name, "file_"+att.FileID)
		mime = coalesce(mime, media.DefaultMime)
	}
	return name, mime
}

// sniffMime prefers the filename extension and falls back to content detection.
func sniffMime(filename string, content []byte) string {
	if byName := media.MimeFromFilename(filename); !media.IsGenericMime(byName) {
		return byName
	}
	detected := mimetype.Detect(content)
	if detected == nil {
		return media.DefaultMime
	}
	return media.NormalizeMime(detected.String())
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
