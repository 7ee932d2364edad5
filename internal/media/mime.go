package media

import (
	"path"
	"strings"
)

// MimeFromFilename maps a known media extension to its MIME type, falling
// back to DefaultMime.
func MimeFromFilename(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".pdf":
		return "application/pdf"
	default:
		return DefaultMime
	}
}

// IsGenericMime reports whether mime carries no useful type information.
func IsGenericMime(mime string) bool {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "", DefaultMime, "binary/octet-stream":
		return true
	default:
		return false
	}
}

// NormalizeMime lowercases mime and drops parameters such as charset.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}
