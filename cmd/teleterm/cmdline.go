package main

import (
	"fmt"

	shellquote "github.com/kballard/go-shellquote"
)

// resolveCommand picks the child to supervise for `stream`/`record`: the
// explicit `[--] cmd args...` if given, otherwise the configured
// default_shell (falling back to $SHELL, then /bin/sh) with default_args
// split into argv by shell quoting rules (no args if default_args is empty).
func resolveCommand(args []string) (string, []string, error) {
	if len(args) > 0 {
		return args[0], args[1:], nil
	}

	shell := cfg.Command.DefaultShell
	if shell == "" {
		shell = envOr("SHELL", "/bin/sh")
	}

	if cfg.Command.DefaultArgs == "" {
		return shell, nil, nil
	}

	argv, err := shellquote.Split(cfg.Command.DefaultArgs)
	if err != nil {
		return "", nil, fmt.Errorf("parsing default_args: %w", err)
	}
	return shell, argv, nil
}
