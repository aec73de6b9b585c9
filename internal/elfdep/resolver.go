// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elfdep is a byte-exact parser for the subset of the ELF format
// binder needs: the program header table, the PT_INTERP and PT_DYNAMIC
// segments, and the DT_NEEDED/DT_STRTAB dynamic entries they contain. It
// supports 32- and 64-bit objects in either byte order on any host,
// regardless of the host's own word size or endianness.
//
// It deliberately does not use debug/elf: debug/elf's section-table and
// symbol-table machinery is more than binder needs, and this package's
// whole reason to exist is the careful offset arithmetic in
// Resolver.Dependencies (strtab VMA to file-offset translation through a
// PT_LOAD segment) that a general-purpose ELF reader doesn't expose.
package elfdep

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
)

// Resolver parses the ELF program-header-level structure of a single file.
// It is constructed once per file; construction itself validates the ELF
// header.
type Resolver struct {
	rd    *reader
	order binary.ByteOrder
	hdr   header
}

// New validates the ELF header at the start of r and returns a Resolver for
// it. r must remain valid for the lifetime of the returned Resolver.
//
// New fails with an *Error of Kind NotElf if the magic number doesn't
// match, UnknownClass or UnknownByteOrder if e_ident names an unsupported
// class or byte order, or IO if the header can't be read in full. No
// partially constructed Resolver escapes a failed call.
func New(r io.ReaderAt) (*Resolver, error) {
	rd := newReader(r)

	ident := make([]byte, eiClass+1)
	if err := rd.readExactAt(0, ident); err != nil {
		return nil, err
	}
	if [4]byte(ident[:4]) != elfMagic {
		return nil, newErr(NotElf, "ELF magic mismatch")
	}

	class := Class(ident[eiClass])
	if class == classNone || class >= classNum {
		return nil, newErr(UnknownClass, "")
	}

	size := elfHeader32Size
	if class == Class64 {
		size = elfHeader64Size
	}
	raw := make([]byte, size)
	copy(raw, ident)
	if err := rd.readExactAt(int64(len(ident)), raw[len(ident):]); err != nil {
		return nil, err
	}

	data := Data(raw[eiData])
	if data == dataNone || data >= dataNum {
		return nil, newErr(UnknownByteOrder, "")
	}
	order := byteOrder(data)

	var hdr header
	if class == Class64 {
		hdr = decodeHeader64(raw, order)
	} else {
		hdr = decodeHeader32(raw, order)
	}
	hdr.class = class
	hdr.data = data

	return &Resolver{rd: rd, order: order, hdr: hdr}, nil
}

func byteOrder(d Data) binary.ByteOrder {
	if d == DataBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func decodeHeader32(b []byte, o binary.ByteOrder) header {
	return header{
		phoff:     uint64(o.Uint32(b[28:32])),
		phentsize: uint64(o.Uint16(b[42:44])),
		phnum:     uint64(o.Uint16(b[44:46])),
		shoff:     uint64(o.Uint32(b[32:36])),
		shentsize: uint64(o.Uint16(b[46:48])),
		shnum:     uint64(o.Uint16(b[48:50])),
		shstrndx:  uint64(o.Uint16(b[50:52])),
	}
}

func decodeHeader64(b []byte, o binary.ByteOrder) header {
	return header{
		phoff:     o.Uint64(b[32:40]),
		phentsize: uint64(o.Uint16(b[54:56])),
		phnum:     uint64(o.Uint16(b[56:58])),
		shoff:     o.Uint64(b[40:48]),
		shentsize: uint64(o.Uint16(b[58:60])),
		shnum:     uint64(o.Uint16(b[60:62])),
		shstrndx:  uint64(o.Uint16(b[62:64])),
	}
}

func decodePHdr32(b []byte, o binary.ByteOrder) progHeader {
	return progHeader{
		typ:    o.Uint32(b[0:4]),
		offset: uint64(o.Uint32(b[4:8])),
		vaddr:  uint64(o.Uint32(b[8:12])),
		paddr:  uint64(o.Uint32(b[12:16])),
		filesz: uint64(o.Uint32(b[16:20])),
		memsz:  uint64(o.Uint32(b[20:24])),
		flags:  o.Uint32(b[24:28]),
		align:  uint64(o.Uint32(b[28:32])),
	}
}

func decodePHdr64(b []byte, o binary.ByteOrder) progHeader {
	return progHeader{
		typ:    o.Uint32(b[0:4]),
		flags:  o.Uint32(b[4:8]),
		offset: o.Uint64(b[8:16]),
		vaddr:  o.Uint64(b[16:24]),
		paddr:  o.Uint64(b[24:32]),
		filesz: o.Uint64(b[32:40]),
		memsz:  o.Uint64(b[40:48]),
		align:  o.Uint64(b[48:56]),
	}
}

func decodeDyn32(b []byte, o binary.ByteOrder) dynEntry {
	return dynEntry{
		tag: int64(int32(o.Uint32(b[0:4]))),
		val: uint64(o.Uint32(b[4:8])),
	}
}

func decodeDyn64(b []byte, o binary.ByteOrder) dynEntry {
	return dynEntry{
		tag: int64(o.Uint64(b[0:8])),
		val: o.Uint64(b[8:16]),
	}
}

// readProgHeader reads and normalizes the i'th program header table entry.
func (p *Resolver) readProgHeader(i uint64) (progHeader, error) {
	size := phdr32Size
	if p.hdr.class == Class64 {
		size = phdr64Size
	}
	off := int64(p.hdr.phoff + i*p.hdr.phentsize)
	buf := make([]byte, size)
	if err := p.rd.readExactAt(off, buf); err != nil {
		return progHeader{}, err
	}
	if p.hdr.class == Class64 {
		return decodePHdr64(buf, p.order), nil
	}
	return decodePHdr32(buf, p.order), nil
}

// readDynEntry reads and normalizes the dynamic-table entry at file offset
// off.
func (p *Resolver) readDynEntry(off uint64) (dynEntry, error) {
	size := dyn32Size
	if p.hdr.class == Class64 {
		size = dyn64Size
	}
	buf := make([]byte, size)
	if err := p.rd.readExactAt(int64(off), buf); err != nil {
		return dynEntry{}, err
	}
	if p.hdr.class == Class64 {
		return decodeDyn64(buf, p.order), nil
	}
	return decodeDyn32(buf, p.order), nil
}

func (p *Resolver) dynEntrySize() uint64 {
	if p.hdr.class == Class64 {
		return dyn64Size
	}
	return dyn32Size
}

// Interpreter returns the path named by this file's PT_INTERP program
// header, and true if one was present. A statically linked executable has
// none; that is reported as ("", false, nil), not an error.
func (p *Resolver) Interpreter() (string, bool, error) {
	for i := uint64(0); i < p.hdr.phnum; i++ {
		ph, err := p.readProgHeader(i)
		if err != nil {
			return "", false, err
		}
		if ph.typ != ptInterp {
			continue
		}
		if ph.filesz == 0 {
			return "", false, newErr(Malformed, "interpreter size 0")
		}
		buf := make([]byte, ph.filesz)
		if err := p.rd.readExactAt(int64(ph.offset), buf); err != nil {
			return "", false, err
		}
		if buf[len(buf)-1] != 0 {
			return "", false, newErr(Malformed, "interpreter not null terminated")
		}
		return string(buf[:len(buf)-1]), true, nil
	}
	return "", false, nil
}

// Dependencies returns the set of DT_NEEDED library names from this file's
// dynamic table, deduplicated and sorted. A statically linked executable
// (no PT_DYNAMIC, or a PT_DYNAMIC with no DT_NEEDED entries) returns an
// empty, non-nil slice.
//
// Per the open question in the design ("bare library names"), the names
// returned are exactly the bytes stored in the dynamic string table
// (e.g. "libc.so.6") — not resolved paths. Resolving them the way the
// runtime loader would (DT_RPATH/DT_RUNPATH/LD_LIBRARY_PATH/ld.so.cache)
// is out of scope; callers that need locatable paths must arrange for
// library directories to be among the seed paths.
func (p *Resolver) Dependencies() ([]string, error) {
	var loads []progHeader
	var neededOffsets []uint64
	var strtabVaddr uint64
	haveStrtab := false

	for i := uint64(0); i < p.hdr.phnum; i++ {
		ph, err := p.readProgHeader(i)
		if err != nil {
			return nil, err
		}
		switch ph.typ {
		case ptLoad:
			loads = append(loads, ph)
		case ptDynamic:
			stride := p.dynEntrySize()
			for d := uint64(0); d+stride <= ph.filesz; d += stride {
				dyn, err := p.readDynEntry(ph.offset + d)
				if err != nil {
					return nil, err
				}
				switch dyn.tag {
				case dtNeeded:
					neededOffsets = append(neededOffsets, dyn.val)
				case dtStrtab:
					strtabVaddr = dyn.val
					haveStrtab = true
				}
			}
		}
	}

	if len(neededOffsets) == 0 {
		return []string{}, nil
	}
	if !haveStrtab {
		return nil, newErr(Malformed, "DT_NEEDED present without DT_STRTAB")
	}

	var load *progHeader
	for i := range loads {
		l := &loads[i]
		if l.vaddr <= strtabVaddr && strtabVaddr <= l.vaddr+l.memsz {
			load = l
			break
		}
	}
	if load == nil {
		return nil, newErr(Malformed, "strtab not in any LOAD")
	}

	strtabOff := strtabVaddr - load.vaddr + load.offset
	strtabLimit := load.memsz - (strtabVaddr - load.vaddr)

	libs := make(map[string]struct{}, len(neededOffsets))
	for _, n := range neededOffsets {
		if n > strtabLimit {
			return nil, newErr(Malformed, "dependency name offset beyond strtab bound")
		}
		s, err := p.readCString(strtabOff+n, strtabLimit-n)
		if err != nil {
			return nil, err
		}
		if s != "" {
			libs[s] = struct{}{}
		}
	}

	names := make([]string, 0, len(libs))
	for s := range libs {
		names = append(names, s)
	}
	sort.Strings(names)
	return names, nil
}

// readCString scans a null-terminated string starting at off, consuming at
// most limit bytes, in 64-byte chunks. EOF (a zero-byte best-effort read)
// terminates the scan the same as finding a NUL.
func (p *Resolver) readCString(off, limit uint64) (string, error) {
	const chunk = 64

	var sym []byte
	for uint64(len(sym)) < limit {
		toRead := uint64(chunk)
		if rem := limit - uint64(len(sym)); rem < toRead {
			toRead = rem
		}
		buf := make([]byte, toRead)
		n, err := p.rd.readBestEffortAt(int64(off)+int64(len(sym)), buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			break
		}
		if i := bytes.IndexByte(buf[:n], 0); i >= 0 {
			sym = append(sym, buf[:i]...)
			return string(sym), nil
		}
		sym = append(sym, buf[:n]...)
	}
	return string(sym), nil
}
