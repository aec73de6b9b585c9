// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The rlimit tool raises the RLIMIT_MEMLOCK limit to its maximum, drops
// privileges back to the invoking real user and group, and execs the
// program named by its arguments. It exists so that rlimit, rather than
// binder, can be installed setuid root: binder is started with the ability
// to lock arbitrarily large amounts of memory, without running the scan
// itself as root.
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// Exit codes mirror the original C launcher byte-for-byte, so operators
// scripting around rlimit's exit status see no behavior change.
const (
	exitUsage      = 1
	exitRlimitFail = 2
	exitSetgidFail = 3
	exitSetuidFail = 4
	exitExecFail   = 5
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rlimit <program to run> [args...]",
		Short: "Raise the memlock limit, drop privileges, and exec a program",
		Long: "rlimit reconfigures the memlock limit to the maximum possible value,\n" +
			"drops privileges, then runs the program specified.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args)
		},
		// Every argument, flag-like or not, belongs to the program to run.
		DisableFlagParsing: true,
	}
}

func run(args []string) error {
	limit := unix.Rlimit{Cur: unix.RLIM_INFINITY, Max: unix.RLIM_INFINITY}
	if err := unix.Setrlimit(unix.RLIMIT_MEMLOCK, &limit); err != nil {
		return exitErr{exitRlimitFail, fmt.Errorf("unable to reconfigure rlimit: %w", err)}
	}

	if err := unix.Setgid(unix.Getgid()); err != nil {
		return exitErr{exitSetgidFail, fmt.Errorf("unable to drop group: %w", err)}
	}
	if err := unix.Setuid(unix.Getuid()); err != nil {
		return exitErr{exitSetuidFail, fmt.Errorf("unable to drop user: %w", err)}
	}

	path, err := exec.LookPath(args[0])
	if err != nil {
		return exitErr{exitExecFail, fmt.Errorf("unable to exec: %w", err)}
	}
	if err := unix.Exec(path, args, os.Environ()); err != nil {
		return exitErr{exitExecFail, fmt.Errorf("unable to exec: %w", err)}
	}
	// unix.Exec only returns on failure.
	return exitErr{exitExecFail, fmt.Errorf("unable to exec: unreachable")}
}

// exitErr carries the process exit code alongside the error, since cobra
// has no native way to propagate one from RunE.
type exitErr struct {
	code int
	err  error
}

func (e exitErr) Error() string { return e.err.Error() }

func main() {
	cmd := newRootCmd()
	if len(os.Args[1:]) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s <program to run> [args...]\n\n%s\n", cmd.Use, cmd.Long)
		os.Exit(exitUsage)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rlimit: %v\n", err)
		code := 1
		if ee, ok := err.(exitErr); ok {
			code = ee.code
		}
		os.Exit(code)
	}
}
