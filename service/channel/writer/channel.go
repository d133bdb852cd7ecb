// Package writer prints replies to an io.Writer.
package writer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/viant/turnflow/service/channel"
)

// Channel writes each reply on its own line
type Channel struct {
	mu     sync.Mutex
	writer io.Writer
	prefix string
}

var _ channel.Channel = (*Channel)(nil)

// Option customises the channel
type Option func(c *Channel)

// WithPrefix prepends prefix to every line
func WithPrefix(prefix string) Option {
	return func(c *Channel) {
		c.prefix = prefix
	}
}

// New creates a channel writing to w
func New(w io.Writer, options ...Option) *Channel {
	ret := &Channel{writer: w}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Send writes text
func (c *Channel) Send(ctx context.Context, conversationID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.writer, "%s%s\n", c.prefix, text); err != nil {
		return fmt.Errorf("failed to write reply for %s: %w", conversationID, err)
	}
	return nil
}
