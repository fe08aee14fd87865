package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teleterm/teleterm/internal/ptyproc"
	"github.com/teleterm/teleterm/internal/rawterm"
	"github.com/teleterm/teleterm/internal/ttyrec"
)

func newRecordCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "record [-- cmd args...]",
		Short: "Run a command under a pty and record it to a ttyrec file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), args, outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "ttyrec output path (default: teleterm-<timestamp>.ttyrec in output_dir)")
	return cmd
}

func runRecord(ctx context.Context, args []string, outPath string) error {
	name, argv, err := resolveCommand(args)
	if err != nil {
		return err
	}

	if outPath == "" {
		dir := cfg.TTYRec.OutputDir
		if dir == "" {
			dir = "."
		}
		outPath = filepath.Join(dir, fmt.Sprintf("teleterm-%d.ttyrec", time.Now().UnixNano()))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer f.Close()
	rec := ttyrec.NewWriter(f)

	cols, rows, err := rawterm.Size(os.Stdout)
	if err != nil {
		cols, rows = 80, 24
	}

	sup, err := ptyproc.Start(name, argv, nil, ptyproc.Size{Cols: cols, Rows: rows})
	if err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	defer sup.Close()

	var raw *rawterm.State
	if fi, statErr := os.Stdin.Stat(); statErr == nil && (fi.Mode()&os.ModeCharDevice) != 0 {
		raw, err = rawterm.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer raw.Restore()
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	childDone := make(chan error, 1)
	go func() { childDone <- sup.Wait() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	go func() {
		for range sigCh {
			if newCols, newRows, err := rawterm.Size(os.Stdout); err == nil {
				sup.Resize(ptyproc.Size{Cols: newCols, Rows: newRows})
			}
		}
	}()

	go copyInput(sup)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-childDone:
			return err
		case chunk, ok := <-sup.Output():
			if !ok {
				return <-childDone
			}
			os.Stdout.Write(chunk)
			if err := rec.WriteFrame(time.Now(), chunk); err != nil {
				log.Warn().Err(err).Msg("writing ttyrec frame")
			}
		}
	}
}

func copyInput(sup *ptyproc.Supervisor) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			sup.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
