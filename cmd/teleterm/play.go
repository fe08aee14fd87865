package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teleterm/teleterm/internal/ttyrec"
)

func newPlayCmd() *cobra.Command {
	var speed float64
	var maxIdle time.Duration
	cmd := &cobra.Command{
		Use:   "play <file.ttyrec>",
		Short: "Play back a ttyrec recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), args[0], speed, maxIdle)
		},
	}
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "playback speed multiplier")
	cmd.Flags().DurationVar(&maxIdle, "max-idle", 2*time.Second, "cap any single idle gap to this duration (0 disables capping)")
	return cmd
}

func runPlay(ctx context.Context, path string, speed float64, maxIdle time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ttyrec.Play(ctx, f, os.Stdout, ttyrec.PlayerConfig{Speed: speed, MaxIdle: maxIdle})
}
