// Package telegram implements the Telegram channel adapter.
package telegram

import "github.com/memohai/streamrelay/internal/channel"

// Type is the registered ChannelType identifier for Telegram.
const Type channel.ChannelType = "telegram"
