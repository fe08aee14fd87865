package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teleterm/teleterm/internal/config"
	"github.com/teleterm/teleterm/internal/watcherui"
	"github.com/teleterm/teleterm/internal/wire"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Browse and attach to sessions broadcast by other streamers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context())
		},
	}
}

func runWatch(ctx context.Context) error {
	method, ok := wire.ParseAuthMethod(resolveMethod())
	if !ok {
		return fmt.Errorf("unknown login method %q", resolveMethod())
	}

	var tlsCfg *tls.Config
	if flagTLS {
		tlsCfg = &tls.Config{}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watcher, err := config.WatchReload(cfgPath, func(reloaded config.Config) {
		log.Info().Msg("config file changed, reloading client settings")
		cfg = reloaded
	}); err == nil && watcher != nil {
		defer watcher.Close()
	}

	c := watcherui.New(watcherui.Config{
		Addr:      resolveAddr(),
		TLSConfig: tlsCfg,
		Method:    method,
		Name:      resolveName(),
		OpenURL:   openURL,
		Logger:    log,
	})

	return c.Run(ctx)
}
