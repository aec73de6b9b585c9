// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan drives the end-to-end walk: given a set of seed paths, visit
// every regular file beneath them, lock it resident, and if it is an ELF
// binary, enqueue its interpreter and declared dependencies as bare names
// for the next pass. Dependency names are never resolved through
// DT_RPATH/DT_RUNPATH or an ld.so.cache search; callers that want a
// dependency locked must seed the directory it actually lives in. This
// mirrors the original Scanner::Run, which also enqueues bare SONAMEs
// without consulting the runtime loader's search path.
package scan

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/ckennelly/binder/internal/elfdep"
	"github.com/ckennelly/binder/internal/fswalk"
	"github.com/ckennelly/binder/internal/memlock"
)

// Driver holds the set of paths discovered so far and the locks taken out
// on them. It is not safe for concurrent use by multiple goroutines; Run is
// meant to be the only thing driving it.
type Driver struct {
	pending []string
	locks   map[string]*memlock.Token
}

// New returns a Driver seeded with the given paths. Paths may be files or
// directories; directories are walked recursively.
func New(paths []string) *Driver {
	d := &Driver{locks: make(map[string]*memlock.Token)}
	d.pending = append(d.pending, paths...)
	return d
}

// Run drains the pending path queue, walking each one and locking every
// regular file it finds. Visiting a file can enqueue more paths (an ELF
// binary's interpreter and DT_NEEDED dependencies); Run keeps draining
// until a pass enqueues no further paths. Enqueued paths are not checked
// against those already seen, so a path enqueued again is walked again
// (its lock is not retaken; see lock). Iterating the queue swaps it into a
// local slice before each pass, so a visit callback enqueueing new work
// mid-walk never invalidates the slice being ranged over — the same
// swap-then-clear discipline the original scanner used to avoid iterator
// invalidation on its own pending list.
//
// Once the queue is fully drained, Run blocks forever: there is no
// inotify-driven follow-up in this implementation, so after the
// initial scan there is nothing further for the driver to do but hold the
// locks it took out. Run never busy-polls; it parks on a channel receive
// that nothing will ever satisfy.
func (d *Driver) Run() error {
	for len(d.pending) > 0 {
		paths := d.pending
		d.pending = nil

		for _, p := range paths {
			if err := d.walk(p); err != nil {
				return err
			}
		}
	}

	<-make(chan struct{})
	panic("unreachable")
}

func (d *Driver) walk(root string) error {
	var walkErr error
	fswalk.Walk(root, func(path string, info fs.FileInfo) {
		if walkErr != nil {
			return
		}
		if !fswalk.IsRegular(info) {
			return
		}
		if err := d.visit(path); err != nil {
			walkErr = err
		}
	})
	return walkErr
}

// visit locks path and, if it parses as ELF, enqueues its interpreter and
// dependencies. Files that fail to parse as ELF (or aren't ELF at all) are
// still locked; only the dependency discovery step is skipped for them.
func (d *Driver) visit(path string) error {
	if err := d.discoverDependencies(path); err != nil {
		// Any ELF-specific failure (not an ELF file, malformed, short
		// read) is not fatal to the scan: the file still gets locked.
		fmt.Fprintf(os.Stderr, "binder: %s: %v\n", path, err)
	}

	return d.lock(path)
}

func (d *Driver) discoverDependencies(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := elfdep.New(f)
	if err != nil {
		return err
	}

	if interp, ok, err := r.Interpreter(); err != nil {
		return err
	} else if ok {
		d.pending = append(d.pending, interp)
	}

	deps, err := r.Dependencies()
	if err != nil {
		return err
	}
	d.pending = append(d.pending, deps...)

	return nil
}

// lock takes out a resident-memory lock on path, unless one is already
// held: a path seen twice (e.g. two binaries depending on the same shared
// library) is locked once, not replaced. This is cheaper than re-locking
// and equally correct, since either behavior satisfies the invariant that
// a tracked path stays locked for the driver's lifetime.
func (d *Driver) lock(path string) error {
	if _, ok := d.locks[path]; ok {
		return nil
	}

	tok, err := memlock.Lock(path)
	if err != nil {
		return fmt.Errorf("scan: lock %s: %w", path, err)
	}
	d.locks[path] = tok
	return nil
}

// Locked reports the number of distinct paths currently locked. Exposed
// for tests and diagnostics; callers driving Run in production have no
// need to call it, since Run never returns on success.
func (d *Driver) Locked() int {
	return len(d.locks)
}
