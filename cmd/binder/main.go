// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The binder tool scans one or more paths, locking every file it finds
// resident in physical memory. Files that parse as ELF binaries have their
// interpreter and declared shared-library dependencies enqueued as
// additional paths to scan. Dependencies are enqueued as bare library names
// (e.g. "libc.so.6") and are looked up relative to the working directory
// only; a library elsewhere is locked only if a seed path covers it. Run
// "binder <path> [paths...]"
// to start a scan; binder runs until killed, holding its locks the whole
// time.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckennelly/binder/internal/scan"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "binder <path> [paths...]",
		Short: "Lock files and their ELF dependencies resident in memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := scan.New(args)
			return d.Run()
		},
		SilenceUsage: true,
	}
}

func main() {
	cmd := newRootCmd()
	if len(os.Args[1:]) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", cmd.Use)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "binder: %v\n", err)
		os.Exit(1)
	}
}
