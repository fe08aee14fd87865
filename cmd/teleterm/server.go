package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/teleterm/teleterm/internal/auth"
	"github.com/teleterm/teleterm/internal/server"
	"github.com/teleterm/teleterm/internal/wire"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the relay server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	sc := cfg.Server

	srvCfg := server.Config{
		ListenAddr:           sc.ListenAddress,
		ReadTimeout:          time.Duration(sc.ReadTimeoutSeconds) * time.Second,
		MaxWatcherQueueBytes: sc.MaxWatcherQueueBytes,
		AllowedMethods:       map[wire.AuthMethod]bool{},
		OAuthProviders:       map[wire.AuthMethod]auth.OAuthExchanger{},
		Logger:               log,
	}

	for _, name := range sc.AllowedLoginMethods {
		method, ok := wire.ParseAuthMethod(name)
		if !ok {
			return fmt.Errorf("config: unknown allowed_login_methods entry %q", name)
		}
		srvCfg.AllowedMethods[method] = true
	}

	if provider, ok := cfg.OAuth["recurse_center"]; ok {
		srvCfg.OAuthProviders[wire.AuthRecurseCenter] = auth.NewRecurseCenter(
			provider.ClientID, provider.ClientSecret,
			provider.AuthURL, provider.TokenURL, provider.UserinfoURL,
			"http://"+auth.LoopbackAddr+"/oauth",
		)
	}

	if sc.TLSIdentityFile != "" {
		tlsCfg, err := server.LoadTLSIdentity(sc.TLSIdentityFile, sc.TLSIdentityPassword)
		if err != nil {
			return goerrors.WrapPrefix(err, "loading TLS identity", 0)
		}
		srvCfg.TLSConfig = tlsCfg
	}

	srv := server.New(srvCfg)

	// Bind while still privileged (listen_address may name a port below
	// 1024), then drop to the configured uid/gid before serving any
	// connection.
	ln, err := srv.Listen()
	if err != nil {
		return goerrors.WrapPrefix(err, "binding listener", 0)
	}
	defer ln.Close()

	if sc.UID != 0 || sc.GID != 0 {
		if err := server.DropPrivileges(sc.UID, sc.GID); err != nil {
			return goerrors.WrapPrefix(err, "dropping privileges", 0)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Serve(ctx, ln)
	if err != nil && ctx.Err() == nil {
		return goerrors.WrapPrefix(err, "server", 0)
	}
	return nil
}
