// Command turnflow runs the booking dialog in a terminal: every stdin line is
// handled as one turn of a single conversation and replies are printed to
// stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/viant/turnflow"
	"github.com/viant/turnflow/internal/server"
)

func main() {
	opts := NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := opts.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *Options, in io.Reader, out io.Writer) error {
	cfg, err := opts.Config(ctx)
	if err != nil {
		return err
	}
	srv, err := turnflow.NewFromConfig(ctx, cfg, turnflow.WithOutput(out))
	if err != nil {
		return err
	}
	defer srv.Shutdown()
	if opts.AdminAddr != "" {
		admin := server.NewServer(srv.Controller(), srv.Progress(), srv.Registry(), srv.Logger())
		go func() {
			if err := admin.ListenAndServe(ctx, cfg.Admin.Addr); err != nil {
				srv.Logger().Error("admin API stopped", "error", err)
			}
		}()
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if _, err := srv.HandleTurn(ctx, opts.ConversationID, text); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
