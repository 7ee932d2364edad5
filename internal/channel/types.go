// Package channel defines the adapter-neutral contract between chat platforms
// and the ingest pipeline.
package channel

import (
	"strings"
	"time"
)

// ChannelType identifies a chat platform adapter.
type ChannelType string

func (c ChannelType) String() string {
	return string(c)
}

// Identity describes the sender of an inbound message.
type Identity struct {
	ExternalID  string            `json:"external_id"`
	DisplayName string            `json:"display_name"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Attribute returns a trimmed attribute value.
func (i Identity) Attribute(key string) string {
	if i.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(i.Attributes[key])
}

// MessageFormat selects how outbound text is rendered by the platform.
type MessageFormat string

const (
	MessageFormatPlain MessageFormat = "plain"
	MessageFormatHTML  MessageFormat = "html"
)

// AttachmentType classifies an inbound file.
type AttachmentType string

const (
	AttachmentFile  AttachmentType = "file"
	AttachmentVideo AttachmentType = "video"
	AttachmentAudio AttachmentType = "audio"
	AttachmentVoice AttachmentType = "voice"
)

// Attachment is a file announced by the platform. Its bytes are fetched on demand
// through Session.Fetch.
type Attachment struct {
	Type       AttachmentType `json:"type"`
	FileID     string         `json:"file_id"`
	Name       string         `json:"name,omitempty"`
	Mime       string         `json:"mime,omitempty"`
	Size       int64          `json:"size,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
}

// InboundMessage is one normalized chat event.
type InboundMessage struct {
	Channel     ChannelType  `json:"channel"`
	MessageID   string       `json:"message_id"`
	ChatID      string       `json:"chat_id"`
	Sender      Identity     `json:"sender"`
	Text        string       `json:"text,omitempty"`
	Command     string       `json:"command,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReceivedAt  time.Time    `json:"received_at"`
}

// MessageRef points at a message sent by the bot so it can be edited later.
type MessageRef struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}
