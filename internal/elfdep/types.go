// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfdep

// Class is the ELF32/ELF64 distinction recorded in e_ident[EI_CLASS].
type Class byte

// Class values, matching e_ident[EI_CLASS] exactly so raw bytes can be
// compared without translation.
const (
	classNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
	classNum  Class = 3
)

// Data is the endianness recorded in e_ident[EI_DATA].
type Data byte

// Data values, matching e_ident[EI_DATA].
const (
	dataNone   Data = 0
	DataLittle Data = 1
	DataBig    Data = 2
	dataNum    Data = 3
)

// Program header types this package interprets. Every other p_type is
// ignored by the resolver.
const (
	ptLoad    = 1
	ptDynamic = 2
	ptInterp  = 3
)

// Dynamic table tags this package interprets. Every other d_tag is ignored.
const (
	dtNeeded = 1
	dtStrtab = 5
)

const (
	eiClass = 4 // e_ident byte offset of EI_CLASS
	eiData  = 5 // e_ident byte offset of EI_DATA

	elfHeader32Size = 52
	elfHeader64Size = 64
	phdr32Size      = 32
	phdr64Size      = 56
	dyn32Size       = 8
	dyn64Size       = 16
)

var elfMagic = [4]byte{0x7F, 'E', 'L', 'F'}

// header is the normalized form of an ELF file header: every multi-byte
// field has been corrected for endianness and, for ELF32 files,
// zero-extended into a 64-bit field. Section-header fields are retained for
// parity with the on-disk record but are never consumed by the resolver.
type header struct {
	class Class
	data  Data

	phoff     uint64
	phentsize uint64
	phnum     uint64

	shoff     uint64
	shentsize uint64
	shnum     uint64
	shstrndx  uint64
}

// progHeader is the normalized form of a program header entry, widened to
// 64-bit fields regardless of source class.
type progHeader struct {
	typ    uint32
	flags  uint32
	offset uint64
	vaddr  uint64
	paddr  uint64
	filesz uint64
	memsz  uint64
	align  uint64
}

// dynEntry is the normalized form of a dynamic-table entry. val holds
// whichever of d_val/d_ptr is meaningful for tag; the union occupies the
// same bits on disk in both the 32- and 64-bit formats.
type dynEntry struct {
	tag int64
	val uint64
}
