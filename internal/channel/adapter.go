package channel

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	ErrStopNotSupported = errors.New("channel connection stop not supported")
	// ErrFileTooLarge is returned by Session.Fetch when the payload exceeds the cap.
	ErrFileTooLarge = errors.New("channel file exceeds size limit")
)

// Session is the reply and download surface for one inbound message.
type Session interface {
	Reply(ctx context.Context, text string, format MessageFormat) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string, format MessageFormat) error
	// Fetch downloads the attachment, failing with ErrFileTooLarge past maxBytes.
	Fetch(ctx context.Context, att Attachment, maxBytes int64) ([]byte, error)
}

// InboundHandler processes a normalized inbound message.
type InboundHandler func(ctx context.Context, sess Session, msg InboundMessage) error

// Adapter is a chat platform integration.
type Adapter interface {
	Type() ChannelType
	Connect(ctx context.Context, handler InboundHandler) (Connection, error)
}

// Connection is a running adapter.
type Connection interface {
	ChannelType() ChannelType
	Stop(ctx context.Context) error
	Running() bool
}

// BaseConnection implements Connection around a stop callback.
type BaseConnection struct {
	channelType ChannelType
	stop        func(ctx context.Context) error
	running     atomic.Bool
}

// NewConnection returns a running connection that calls stop once stopped.
func NewConnection(channelType ChannelType, stop func(ctx context.Context) error) *BaseConnection {
	conn := &BaseConnection{
		channelType: channelType,
		stop:        stop,
	}
	conn.running.Store(true)
	return conn
}

func (c *BaseConnection) ChannelType() ChannelType {
	return c.channelType
}

func (c *BaseConnection) Stop(ctx context.Context) error {
	if c.stop == nil {
		return ErrStopNotSupported
	}
	if !c.running.Load() {
		return nil
	}
	err := c.stop(ctx)
	if err == nil {
		c.running.Store(false)
	}
	return err
}

func (c *BaseConnection) Running() bool {
	return c.running.Load()
}
