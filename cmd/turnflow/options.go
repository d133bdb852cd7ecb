package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/viant/turnflow"
)

// Options contains the command-line configuration of the console driver.
type Options struct {
	ConfigURL      string // Optional YAML/JSON config, local path or afs URL.
	EnvFile        string // Optional .env file whose values take precedence in config ${env.KEY} expressions.
	ConversationID string // Conversation fed by stdin.
	Classifier     string // Overrides classifier.kind.
	Store          string // Overrides store.kind.
	StoreURL       string // Overrides store.url.
	LogLevel       string // Overrides log.level.
	AdminAddr      string // Serves the admin API when set.
	Tracing        bool   // Enables stdout tracing.
	MaxSteps       int    // Overrides flow.maxStepsPerTurn when > 0.

	env map[string]string // Values read from EnvFile.
}

// consoleLogLevel keeps the terminal quiet when neither a config file nor --log-level sets a level.
const consoleLogLevel = "error"

// NewOptions returns a new Options struct initialized with default values.
func NewOptions() *Options {
	return &Options{
		EnvFile:        ".env",
		ConversationID: "console",
	}
}

// AddFlags binds the Options fields to command-line flags on the given FlagSet.
func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&opts.ConfigURL, "config", "c", opts.ConfigURL, "Config file location (YAML or JSON).")
	fs.StringVar(&opts.EnvFile, "env-file", opts.EnvFile, "Optional .env file with LUIS/Wit credentials.")
	fs.StringVar(&opts.ConversationID, "conversation", opts.ConversationID, "Conversation id used for stdin turns.")
	fs.StringVar(&opts.Classifier, "classifier", opts.Classifier, "Classifier kind: luis, wit, keyword or nop.")
	fs.StringVar(&opts.Store, "store", opts.Store, "State store kind: memory, fs, redis, blob or sql.")
	fs.StringVar(&opts.StoreURL, "store-url", opts.StoreURL, "State store URL for fs and blob stores.")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&opts.AdminAddr, "admin-addr", opts.AdminAddr, "Admin API address, e.g. :8080; empty disables it.")
	fs.BoolVar(&opts.Tracing, "tracing", opts.Tracing, "Write OpenTelemetry spans to stdout.")
	fs.IntVar(&opts.MaxSteps, "max-steps", opts.MaxSteps, "Steps a single turn may run before replying.")
}

// LoadEnv reads EnvFile; a missing file is not an error.
func (opts *Options) LoadEnv() error {
	if opts.EnvFile == "" {
		return nil
	}
	values, err := godotenv.Read(opts.EnvFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
	}
	opts.env = values
	return nil
}

// Validate checks flag values.
func (opts *Options) Validate() error {
	if opts.ConversationID == "" {
		return fmt.Errorf("--conversation must not be empty")
	}
	if opts.MaxSteps < 0 {
		return fmt.Errorf("--max-steps must be >= 0")
	}
	return nil
}

// Config builds the service config from the config file and flag overrides.
func (opts *Options) Config(ctx context.Context) (*turnflow.Config, error) {
	cfg := turnflow.DefaultConfig()
	cfg.Log.Level = consoleLogLevel
	if opts.ConfigURL != "" {
		loaded, err := turnflow.LoadConfigWithEnv(ctx, opts.ConfigURL, turnflow.EnvOf(opts.env))
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Channel.Kind = turnflow.ChannelWriter
	if cfg.Channel.Prefix == "" {
		cfg.Channel.Prefix = "bot> "
	}
	if opts.Classifier != "" {
		cfg.Classifier.Kind = opts.Classifier
	}
	if opts.Store != "" {
		cfg.Store.Kind = opts.Store
	}
	if opts.StoreURL != "" {
		cfg.Store.URL = opts.StoreURL
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.AdminAddr != "" {
		cfg.Admin.Addr = opts.AdminAddr
	}
	if opts.Tracing {
		cfg.Tracing.Enabled = true
	}
	if opts.MaxSteps > 0 {
		cfg.Flow.MaxStepsPerTurn = opts.MaxSteps
	}
	return cfg, cfg.Validate()
}
