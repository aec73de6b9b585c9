// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfdep

import (
	"errors"
	"io"
)

// reader is the ELF Reader: byte-level random access over a file
// handle. It is built on io.ReaderAt rather than raw lseek+read pairs
// because os.File's ReadAt already performs the pread-style positioned read
// and the EINTR retry loop the design calls for; reader only has to
// translate the two failure shapes (short read, any other error) into the
// package's closed error taxonomy.
type reader struct {
	r io.ReaderAt
}

func newReader(r io.ReaderAt) *reader {
	return &reader{r: r}
}

// readExactAt reads exactly len(buf) bytes at off, or returns an *Error of
// Kind IO. A short read before len(buf) bytes, including io.EOF, is
// reported as premature EOF.
func (rd *reader) readExactAt(off int64, buf []byte) error {
	n, err := rd.r.ReadAt(buf, off)
	if n == len(buf) {
		// io.ReaderAt permits returning a non-nil err alongside a full
		// read (e.g. io.EOF exactly at the end of the underlying file);
		// that's not a short read, so ignore it.
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newErr(IO, "premature EOF")
	}
	return newErr(IO, "unable to read: "+err.Error())
}

// readBestEffortAt reads up to len(buf) bytes at off and returns the actual
// count, which may be zero at EOF. It never returns an error for EOF; any
// other read failure is reported as an *Error of Kind IO.
func (rd *reader) readBestEffortAt(off int64, buf []byte) (int, error) {
	n, err := rd.r.ReadAt(buf, off)
	if err == nil || errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, newErr(IO, "unable to read: "+err.Error())
}
