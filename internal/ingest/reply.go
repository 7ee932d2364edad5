package ingest

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/memohai/streamrelay/internal/channel"
	"github.com/memohai/streamrelay/internal/media"
)

const (
	invalidFileText = "❌ Please send a valid file!"
	processingText  = "⏳ Processing your file..."
	failedText      = "❌ Something went wrong while processing your file. Please try again."
	rejectedText    = "❌ This file cannot be relayed."
)

func welcomeText() string {
	var b strings.Builder
	b.WriteString("🎬 <b>File to Stream Link Bot</b>\n\n")
	b.WriteString("📤 Send me any file:\n")
	b.WriteString("• Videos 🎥\n")
	b.WriteString("• Audio 🎵\n")
	b.WriteString("• Voice notes 🎙\n")
	b.WriteString("• Documents 📄\n\n")
	b.WriteString("I will reply with a streamable link that works on any website! 🚀")
	return b.String()
}

func tooLargeText(size, maxBytes int64) string {
	if size > 0 {
		return fmt.Sprintf("❌ File too large (%s). Maximum %s allowed.", formatSize(size), formatSize(maxBytes))
	}
	return fmt.Sprintf("❌ File too large. Maximum %s allowed.", formatSize(maxBytes))
}

// failureText maps a download or store error to a fixed user-facing message.
// Error details stay in the logs.
func failureText(err error, size, maxBytes int64) string {
	switch {
	case errors.Is(err, media.ErrOversizedInput), errors.Is(err, channel.ErrFileTooLarge):
		return tooLargeText(size, maxBytes)
	case errors.Is(err, media.ErrMalformedIdentifier):
		return rejectedText
	default:
		return failedText
	}
}

func readyText(r Result) string {
	link := html.EscapeString(r.StreamURL)
	var b strings.Builder
	b.WriteString("✅ <b>File Ready!</b>\n\n")
	fmt.Fprintf(&b, "📄 <b>File:</b> <code>%s</code>\n", html.EscapeString(r.Filename))
	fmt.Fprintf(&b, "📦 <b>Size:</b> %s\n", formatSize(r.SizeBytes))
	fmt.Fprintf(&b, "🔗 <b>Stream Link:</b>\n<code>%s</code>\n", link)
	if code := embedCode(r.StreamURL, r.Mime); code != "" {
		label := "📺"
		if strings.HasPrefix(r.Mime, "audio/") {
			label = "🎵"
		}
		fmt.Fprintf(&b, "\n%s <b>Embed Code (HTML):</b>\n<pre><code class=\"language-html\">%s</code></pre>\n", label, html.EscapeString(code))
	}
	b.WriteString("\n💡 <b>This link can be used on any website!</b>\n")
	b.WriteString("⚠️ <b>Note:</b> files are kept in memory and are lost when the server restarts.")
	return b.String()
}

// embedCode returns an HTML player snippet for video and audio types.
func embedCode(streamURL, mime string) string {
	src := html.EscapeString(streamURL)
	typ := html.EscapeString(mime)
	switch {
	case strings.HasPrefix(mime, "video/"):
		return fmt.Sprintf("<video controls width=\"100%%\">\n  <source src=\"%s\" type=\"%s\">\n</video>", src, typ)
	case strings.HasPrefix(mime, "audio/"):
		return fmt.Sprintf("<audio controls>\n  <source src=\"%s\" type=\"%s\">\n</audio>", src, typ)
	default:
		return ""
	}
}

func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
