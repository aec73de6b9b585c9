// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memlock pins files resident in physical memory for the lifetime
// of a process. It is the Lock Holder: open, mmap with
// population and the MAP_LOCKED hint, then reinforce that hint with an
// explicit mlock, since MAP_LOCKED alone is not as strong a guarantee.
package memlock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Kind classifies why a Lock call failed.
type Kind int

const (
	// OpenErr means the file could not be opened.
	OpenErr Kind = iota
	// StatErr means fstat on the opened file failed.
	StatErr
	// MapErr means mmap or the reinforcing mlock failed.
	MapErr
)

// Error reports a Lock failure together with the stage that produced it.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("memlock: %s: %s", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Token is an owning handle on a locked mapping: while it exists, the
// mapped region is resident and the lock held. It is move-only in spirit —
// Go has no copy constructors to forbid, but callers must not call Release
// from more than one owner. The zero Token (as returned for a zero-length
// file) releases nothing.
type Token struct {
	data []byte
}

// Lock opens path read-only, maps its full contents read-only and shared
// with population and locking hints, and reinforces the mapping with an
// explicit mlock. The file descriptor is closed once the mapping exists;
// the mapping itself keeps the underlying inode pinned.
//
// A zero-length file is handled as a no-op: Lock succeeds and returns a
// Token whose Release does nothing, since there is nothing to map or lock.
func Lock(path string) (*Token, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, &Error{Kind: OpenErr, Path: path, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, &Error{Kind: StatErr, Path: path, Err: err}
	}

	size := fi.Size()
	if size == 0 {
		return &Token{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED|unix.MAP_POPULATE|unix.MAP_LOCKED)
	if err != nil {
		return nil, &Error{Kind: MapErr, Path: path, Err: err}
	}

	// MAP_LOCKED is a hint honored best-effort by some kernels; reinforce
	// it with an explicit mlock so residency doesn't depend on that hint
	// alone.
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, &Error{Kind: MapErr, Path: path, Err: err}
	}

	return &Token{data: data}, nil
}

// Release unmaps the locked region, dropping the lock on it. It is safe to
// call on a nil Token or one with nothing mapped. Release clears the Token's
// mapping, so a second call on the same Token does nothing and returns nil.
// A Token has a single owner, and that owner releases the mapping.
func (t *Token) Release() error {
	if t == nil || t.data == nil {
		return nil
	}
	err := unix.Munmap(t.data)
	t.data = nil
	return err
}

// Len reports the size in bytes of the locked region, 0 for a no-op Token.
func (t *Token) Len() int {
	if t == nil {
		return 0
	}
	return len(t.data)
}
