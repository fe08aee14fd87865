// Command teleterm is the CLI of §6: stream, watch, record, play, and
// server, all built on the same wire protocol and config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/teleterm/teleterm/internal/config"
)

var (
	cfg        config.Config
	cfgPath    string
	log        zerolog.Logger
	flagTLS    bool
	flagAddr   string
	flagMethod string
	flagName   string
)

func main() {
	root := &cobra.Command{
		Use:          "teleterm",
		Short:        "Broadcast a terminal session to any number of watchers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfigAndLogger()
		},
	}

	root.PersistentFlags().StringVar(&flagAddr, "addr", "", "server address (overrides config)")
	root.PersistentFlags().BoolVar(&flagTLS, "tls", false, "use TLS when connecting")
	root.PersistentFlags().StringVar(&flagMethod, "method", "", "login method: plain or recurse_center (overrides config)")
	root.PersistentFlags().StringVar(&flagName, "name", "", "login name for the plain method (defaults to $USER)")

	root.AddCommand(newStreamCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newRecordCmd())
	root.AddCommand(newPlayCmd())
	root.AddCommand(newServerCmd())

	if err := root.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		if strings.Contains(err.Error(), "unknown command") || strings.Contains(err.Error(), "unknown flag") {
			os.Exit(2)
		}
		if stackErr, ok := err.(*goerrors.Error); ok {
			fmt.Fprintln(os.Stderr, "teleterm: fatal startup error:", stackErr.Error())
			fmt.Fprintln(os.Stderr, stackErr.ErrorStack())
		} else {
			fmt.Fprintln(os.Stderr, "teleterm:", err)
		}
		os.Exit(1)
	}
}

// initConfigAndLogger loads the config file (if any) and builds the
// process-wide logger from TELETERM_LOG, run once before every subcommand.
func initConfigAndLogger() error {
	level, err := zerolog.ParseLevel(envOr("TELETERM_LOG", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
		Level(level).
		With().Timestamp().Logger()

	loaded, path, err := config.Load()
	if err != nil {
		return goerrors.WrapPrefix(err, "loading config", 0)
	}
	cfg = loaded
	cfgPath = path
	if path != "" {
		log.Debug().Str("path", path).Msg("loaded config file")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// resolveAddr applies the --addr flag over the [client] config section.
func resolveAddr() string {
	if flagAddr != "" {
		return flagAddr
	}
	return cfg.Client.ServerAddress
}

// resolveMethod applies the --method flag over the [client] config section.
func resolveMethod() string {
	if flagMethod != "" {
		return flagMethod
	}
	return cfg.Client.LoginMethod
}

// resolveName applies the --name flag, then $USER, as the plain login name.
func resolveName() string {
	if flagName != "" {
		return flagName
	}
	return envOr("USER", "")
}
