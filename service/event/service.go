package event

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/turnflow/service/messaging"
	"github.com/viant/turnflow/service/messaging/fs"
	"github.com/viant/turnflow/service/messaging/memory"
)

// Vendor names a queue implementation
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorFS     Vendor = "fs"
)

// Config selects the queue carrying events
type Config struct {
	Vendor Vendor        `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Memory memory.Config `json:"memory,omitempty" yaml:"memory,omitempty"`
	FS     fs.Config     `json:"fs,omitempty" yaml:"fs,omitempty"`
}

// QueueOf creates a queue named name for config.Vendor; fs queues live under FS.BaseURL/name
func QueueOf[T any](ctx context.Context, config Config, name string) (messaging.Queue[T], error) {
	switch config.Vendor {
	case VendorFS:
		fsConfig := config.FS
		if fsConfig.BaseURL == "" {
			fsConfig.BaseURL = fs.DefaultConfig().BaseURL
		}
		fsConfig.BaseURL = url.Join(fsConfig.BaseURL, name)
		return fs.NewQueue[T](ctx, afs.New(), fsConfig)
	case VendorMemory, "":
		memConfig := config.Memory
		if memConfig == (memory.Config{}) {
			memConfig = memory.DefaultConfig()
		}
		return memory.NewQueue[T](memConfig), nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", config.Vendor)
}

// PublisherOf creates a publisher for T on a queue named name
func PublisherOf[T any](ctx context.Context, config Config, name string) (*Publisher[T], error) {
	queue, err := QueueOf[Event[T]](ctx, config, name)
	if err != nil {
		return nil, err
	}
	return NewPublisher[T](queue), nil
}
