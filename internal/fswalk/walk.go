// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fswalk walks a filesystem tree, invoking a callback for every
// entry it visits: regular files, directories, symbolic links and other
// special files alike. It never follows symbolic links.
//
// Unlike a walker built on nftw(3), which keeps its callback in a package
// level variable guarded by a mutex because nftw has no way to thread
// caller state through to the visitor function, filepath.WalkDir takes the
// callback directly and is reentrant: concurrent calls to Walk do not
// interfere with each other and need no shared lock.
package fswalk

import (
	"io/fs"
	"path/filepath"
)

// Visitor is called once per path encountered during a Walk, including the
// root itself. info reflects a Lstat of path: Walk does not follow symlinks,
// so a symlink is visited as a symlink, never as whatever it points to.
type Visitor func(path string, info fs.FileInfo)

// Walk visits path and, if it is a directory, everything beneath it,
// calling visit for each entry. Symbolic links are reported but not
// traversed into. A path that cannot be stat'd, or a subtree that cannot be
// read, is skipped silently: Walk makes a best effort and does not abort on
// a single unreadable entry.
func Walk(path string, visit Visitor) {
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip this entry but keep walking the rest of the tree.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		visit(p, info)
		return nil
	})
}

// IsRegular reports whether info describes an ordinary file, as opposed to
// a directory, symlink, device, or other special file.
func IsRegular(info fs.FileInfo) bool {
	return info.Mode().IsRegular()
}
