package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teleterm/teleterm/internal/rawterm"
	"github.com/teleterm/teleterm/internal/streamer"
	"github.com/teleterm/teleterm/internal/wire"
)

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream [-- cmd args...]",
		Short: "Run a command under a pty and broadcast it to watchers",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd.Context(), args)
		},
	}
	return cmd
}

func runStream(ctx context.Context, args []string) error {
	name, argv, err := resolveCommand(args)
	if err != nil {
		return err
	}

	method, ok := wire.ParseAuthMethod(resolveMethod())
	if !ok {
		return fmt.Errorf("unknown login method %q", resolveMethod())
	}

	var tlsCfg *tls.Config
	if flagTLS {
		tlsCfg = &tls.Config{}
	}

	var raw *rawterm.State
	if fi, statErr := os.Stdin.Stat(); statErr == nil && (fi.Mode()&os.ModeCharDevice) != 0 {
		raw, err = rawterm.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer raw.Restore()
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := streamer.New(streamer.Config{
		Addr:      resolveAddr(),
		TLSConfig: tlsCfg,
		Method:    method,
		Name:      resolveName(),
		Command:   name,
		Args:      argv,
		OpenURL:   openURL,
		OnStateChange: func(state streamer.State, err error) {
			if err != nil {
				log.Warn().Stringer("state", state).Err(err).Msg("stream state change")
			} else {
				log.Info().Stringer("state", state).Msg("stream state change")
			}
		},
		Logger: log,
	})

	return s.Run(ctx)
}
