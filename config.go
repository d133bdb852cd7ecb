package turnflow

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/turnflow/dialog/maindialog"
	"github.com/viant/turnflow/log"
	"github.com/viant/turnflow/service/classifier/keyword"
	"github.com/viant/turnflow/service/classifier/luis"
	"github.com/viant/turnflow/service/dao/conversation/redis"
	"github.com/viant/turnflow/service/dao/conversation/sql"
	"github.com/viant/turnflow/service/event"
	"gopkg.in/yaml.v3"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreRedis  = "redis"
	StoreBlob   = "blob"
	StoreSQL    = "sql"
)

// Classifier kinds
const (
	ClassifierLUIS    = "luis"
	ClassifierWit     = "wit"
	ClassifierKeyword = "keyword"
	ClassifierNop     = "nop"
)

// Channel kinds
const (
	ChannelMemory = "memory"
	ChannelWriter = "writer"
	ChannelQueue  = "queue"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from YAML or JSON; string values may reference
// environment variables with ${env.KEY}.
type Config struct {
	Flow       FlowConfig       `json:"flow" yaml:"flow"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Channel    ChannelConfig    `json:"channel" yaml:"channel"`
	Processor  ProcessorConfig  `json:"processor" yaml:"processor"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Interrupts InterruptsConfig `json:"interrupts" yaml:"interrupts"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Admin      AdminConfig      `json:"admin" yaml:"admin"`
}

// FlowConfig selects the flow started for new conversations
type FlowConfig struct {
	Default string `json:"default" yaml:"default"`
	// MaxStepsPerTurn bounds how many steps a single turn may run before replying
	MaxStepsPerTurn int `json:"maxStepsPerTurn" yaml:"maxStepsPerTurn"`
}

// StoreConfig selects the conversation state backend
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// URL is the afs base URL for fs, or the bucket URL for blob
	URL    string        `json:"url,omitempty" yaml:"url,omitempty"`
	Prefix string        `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	TTL    time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Redis  redis.Config  `json:"redis,omitempty" yaml:"redis,omitempty"`
	SQL    sql.Config    `json:"sql,omitempty" yaml:"sql,omitempty"`
}

// ClassifierConfig selects the NLU classifier
type ClassifierConfig struct {
	Kind    string        `json:"kind" yaml:"kind"`
	LUIS    luis.Config   `json:"luis,omitempty" yaml:"luis,omitempty"`
	Wit     WitConfig     `json:"wit,omitempty" yaml:"wit,omitempty"`
	Keyword keyword.Rules `json:"keyword,omitempty" yaml:"keyword,omitempty"`
}

// WitConfig holds Wit.ai settings
type WitConfig struct {
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// ChannelConfig selects where replies go
type ChannelConfig struct {
	Kind   string `json:"kind" yaml:"kind"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// Queue configures the outbound queue used by the queue kind
	Queue event.Config `json:"queue,omitempty" yaml:"queue,omitempty"`
}

// ProcessorConfig configures queued turn handling
type ProcessorConfig struct {
	WorkerCount  int           `json:"workers" yaml:"workers"`
	PollInterval time.Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	Queue        event.Config  `json:"queue,omitempty" yaml:"queue,omitempty"`
}

// EventsConfig enables turn completed events
type EventsConfig struct {
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Queue   event.Config `json:"queue,omitempty" yaml:"queue,omitempty"`
}

// InterruptsConfig configures global commands
type InterruptsConfig struct {
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Help     string `json:"help,omitempty" yaml:"help,omitempty"`
}

// TracingConfig enables the stdout span exporter
type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	OutputFile  string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// LogConfig configures the default logger
type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	Env   string `json:"env,omitempty" yaml:"env,omitempty"`
}

// AdminConfig configures the admin HTTP API
type AdminConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// DefaultConfig returns an in-process setup: memory store, keyword
// classifier and memory channel.
func DefaultConfig() *Config {
	return &Config{
		Flow:       FlowConfig{Default: maindialog.FlowID, MaxStepsPerTurn: 8},
		Store:      StoreConfig{Kind: StoreMemory, TTL: time.Hour},
		Classifier: ClassifierConfig{Kind: ClassifierKeyword},
		Channel:    ChannelConfig{Kind: ChannelMemory},
		Processor:  ProcessorConfig{WorkerCount: 1, PollInterval: 50 * time.Millisecond},
		Log:        LogConfig{Level: "info", Env: "local"},
		Admin:      AdminConfig{Addr: ":8080"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Flow.Default == "" {
		return fmt.Errorf("flow.default was empty")
	}
	if c.Flow.MaxStepsPerTurn <= 0 {
		return fmt.Errorf("flow.maxStepsPerTurn must be > 0")
	}
	if c.Processor.WorkerCount <= 0 {
		return fmt.Errorf("processor.workers must be > 0")
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFS, StoreBlob:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for %s store", c.Store.Kind)
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for redis store")
		}
	case StoreSQL:
		if c.Store.SQL.DSN == "" {
			return fmt.Errorf("store.sql.dsn is required for sql store")
		}
	default:
		return fmt.Errorf("unsupported store kind: %q", c.Store.Kind)
	}
	switch c.Classifier.Kind {
	case ClassifierLUIS, ClassifierWit, ClassifierKeyword, ClassifierNop:
	default:
		return fmt.Errorf("unsupported classifier kind: %q", c.Classifier.Kind)
	}
	switch c.Channel.Kind {
	case ChannelMemory, ChannelWriter, ChannelQueue:
	default:
		return fmt.Errorf("unsupported channel kind: %q", c.Channel.Kind)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML or JSON config from URL, expanding ${env.KEY} from the process environment;
// unset sections keep DefaultConfig values.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	return LoadConfigWithEnv(ctx, URL, os.LookupEnv, options...)
}

// LoadConfigWithEnv loads a config from URL, resolving ${env.KEY} expressions with lookup
func LoadConfigWithEnv(ctx context.Context, URL string, lookup EnvLookup, options ...storage.Option) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal([]byte(expandEnv(string(data), lookup)), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
