// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfdep

// Kind classifies the way an ELF parse failed. Callers that care about the
// distinction (the scan driver does not; it swallows every Kind) can recover
// it with errors.As against *Error.
type Kind int

const (
	// NotElf means the first four bytes of the file did not match the ELF
	// magic number.
	NotElf Kind = iota
	// UnknownClass means e_ident[EI_CLASS] was neither ELFCLASS32 nor
	// ELFCLASS64.
	UnknownClass
	// UnknownByteOrder means e_ident[EI_DATA] was neither ELFDATA2LSB nor
	// ELFDATA2MSB.
	UnknownByteOrder
	// Malformed means the file parsed as ELF but violated a structural
	// invariant the resolver depends on (unterminated interpreter string,
	// DT_NEEDED without DT_STRTAB, a virtual address with no covering
	// PT_LOAD, ...).
	Malformed
	// IO means a seek or read against the underlying file failed, or the
	// file was shorter than a structure the resolver needed to read in
	// full.
	IO
)

func (k Kind) String() string {
	switch k {
	case NotElf:
		return "not an ELF file"
	case UnknownClass:
		return "unknown ELF class"
	case UnknownByteOrder:
		return "unknown ELF byte order"
	case Malformed:
		return "malformed ELF"
	case IO:
		return "I/O error"
	default:
		return "elfdep error"
	}
}

// Error is the single error type produced by this package. Every failure
// mode (NotElf, UnknownClass, UnknownByteOrder,
// Malformed, IO) is represented as an Error with the matching Kind;
// there is no other error type exported by elfdep.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

func newErr(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}
