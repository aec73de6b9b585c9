// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfdep

import "encoding/binary"

// elfFixture builds minimal, byte-exact ELF32/ELF64 images for the resolver
// tests. It only ever emits PT_INTERP, PT_LOAD, and PT_DYNAMIC segments
// (the only three this package looks at), laid out with p_vaddr == p_offset
// so the strtab VMA-to-file-offset arithmetic in Dependencies reduces to an
// identity and the fixture stays easy to reason about.
type elfFixture struct {
	class64 bool
	order   binary.ByteOrder

	interp string   // "" means no PT_INTERP
	needed []string // DT_NEEDED library names; nil means no PT_DYNAMIC at all
	dupe   bool      // if true, repeat needed[0] a second time in the dynamic table

	// interpFileszOverride, when non-nil, replaces the PT_INTERP p_filesz
	// that would otherwise be computed from len(interp)+1.
	interpFileszOverride *uint64
	// omitStrtab drops the DT_STRTAB entry even though DT_NEEDED entries
	// are still emitted, to exercise the "needed without strtab" failure.
	omitStrtab bool
}

func (f elfFixture) ehdrSize() int {
	if f.class64 {
		return elfHeader64Size
	}
	return elfHeader32Size
}

func (f elfFixture) phdrSize() int {
	if f.class64 {
		return phdr64Size
	}
	return phdr32Size
}

func (f elfFixture) dynSize() int {
	if f.class64 {
		return dyn64Size
	}
	return dyn32Size
}

func put16(b []byte, o binary.ByteOrder, v uint16) { o.PutUint16(b, v) }
func put32(b []byte, o binary.ByteOrder, v uint32) { o.PutUint32(b, v) }
func put64(b []byte, o binary.ByteOrder, v uint64) { o.PutUint64(b, v) }

func (f elfFixture) putWord(b []byte, v uint64) {
	if f.class64 {
		put64(b, f.order, v)
	} else {
		put32(b, f.order, uint32(v))
	}
}

func (f elfFixture) wordSize() int {
	if f.class64 {
		return 8
	}
	return 4
}

// build returns the complete file image.
func (f elfFixture) build() []byte {
	type segment struct {
		typ            uint32
		offset, vaddr  uint64
		filesz, memsz  uint64
	}

	var segs []segment
	var payload []byte

	base := func() uint64 { return uint64(f.ehdrSize()) } // filled after phnum known

	// We need phnum before we know the payload layout, so compute phnum
	// first from what the fixture asks for.
	phnum := 0
	if f.interp != "" {
		phnum++
	}
	hasDynamic := f.needed != nil
	if hasDynamic {
		phnum += 2 // one PT_LOAD covering the strtab, one PT_DYNAMIC
	}
	phoff := uint64(f.ehdrSize())
	payloadStart := phoff + uint64(phnum*f.phdrSize())
	_ = base

	cur := payloadStart

	if f.interp != "" {
		interpBytes := append([]byte(f.interp), 0)
		filesz := uint64(len(interpBytes))
		if f.interpFileszOverride != nil {
			filesz = *f.interpFileszOverride
		}
		segs = append(segs, segment{typ: ptInterp, offset: cur, vaddr: cur, filesz: filesz, memsz: filesz})
		payload = append(payload, interpBytes...)
		cur += uint64(len(interpBytes))
	}

	var strtabVaddr, strtabOff uint64
	var neededOffsets []uint64
	if hasDynamic {
		strtabOff = cur
		strtabVaddr = strtabOff // identity mapping
		strtab := []byte{0}     // conventional leading NUL, offset 0 is never used
		for _, name := range f.needed {
			neededOffsets = append(neededOffsets, uint64(len(strtab)))
			strtab = append(strtab, append([]byte(name), 0)...)
		}
		if f.dupe && len(f.needed) > 0 {
			neededOffsets = append(neededOffsets, neededOffsets[0])
		}
		strtabLen := uint64(len(strtab))
		segs = append(segs, segment{typ: ptLoad, offset: strtabOff, vaddr: strtabVaddr, filesz: strtabLen, memsz: strtabLen})
		payload = append(payload, strtab...)
		cur += strtabLen

		dynOff := cur
		var dynEntries [][2]uint64 // tag, val
		for _, off := range neededOffsets {
			dynEntries = append(dynEntries, [2]uint64{dtNeeded, off})
		}
		if !f.omitStrtab {
			dynEntries = append(dynEntries, [2]uint64{dtStrtab, strtabVaddr})
		}
		dynBuf := make([]byte, len(dynEntries)*f.dynSize())
		for i, e := range dynEntries {
			entry := dynBuf[i*f.dynSize() : (i+1)*f.dynSize()]
			f.putWord(entry[0:f.wordSize()], e[0])
			f.putWord(entry[f.wordSize():2*f.wordSize()], e[1])
		}
		segs = append(segs, segment{typ: ptDynamic, offset: dynOff, vaddr: dynOff, filesz: uint64(len(dynBuf)), memsz: uint64(len(dynBuf))})
		payload = append(payload, dynBuf...)
		cur += uint64(len(dynBuf))
	}

	total := int(cur)
	buf := make([]byte, total)

	f.writeEhdr(buf, phoff, uint16(len(segs)))
	for i, s := range segs {
		f.writePhdr(buf[int(phoff)+i*f.phdrSize():], s.typ, s.offset, s.vaddr, s.filesz, s.memsz)
	}
	copy(buf[payloadStart:], payload)

	return buf
}

func (f elfFixture) writeEhdr(buf []byte, phoff uint64, phnum uint16) {
	copy(buf[0:4], elfMagic[:])
	if f.class64 {
		buf[eiClass] = byte(Class64)
	} else {
		buf[eiClass] = byte(Class32)
	}
	if f.order == binary.BigEndian {
		buf[eiData] = byte(DataBig)
	} else {
		buf[eiData] = byte(DataLittle)
	}

	if f.class64 {
		put64(buf[32:40], f.order, phoff)
		put16(buf[54:56], f.order, uint16(f.phdrSize()))
		put16(buf[56:58], f.order, phnum)
	} else {
		put32(buf[28:32], f.order, uint32(phoff))
		put16(buf[42:44], f.order, uint16(f.phdrSize()))
		put16(buf[44:46], f.order, phnum)
	}
}

func (f elfFixture) writePhdr(b []byte, typ uint32, offset, vaddr, filesz, memsz uint64) {
	if f.class64 {
		put32(b[0:4], f.order, typ)
		put32(b[4:8], f.order, 0) // flags
		put64(b[8:16], f.order, offset)
		put64(b[16:24], f.order, vaddr)
		put64(b[24:32], f.order, vaddr) // paddr
		put64(b[32:40], f.order, filesz)
		put64(b[40:48], f.order, memsz)
		put64(b[48:56], f.order, 0) // align
	} else {
		put32(b[0:4], f.order, typ)
		put32(b[4:8], f.order, uint32(offset))
		put32(b[8:12], f.order, uint32(vaddr))
		put32(b[12:16], f.order, uint32(vaddr)) // paddr
		put32(b[16:20], f.order, uint32(filesz))
		put32(b[20:24], f.order, uint32(memsz))
		put32(b[24:28], f.order, 0) // flags
		put32(b[28:32], f.order, 0) // align
	}
}
