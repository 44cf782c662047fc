// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/slices"
)

// Computation is metered by rewriting modules before they are compiled.
// A metered module exports a mutable i64 global holding the gas left to
// the running call. Every function entry and every loop header subtracts
// the number of instructions up to the next metering point from it and
// traps once the counter drops below zero.

const (
	gasGlobalName = "strata_gas"

	instructionGas strata.Gas = 1

	// maxMeteredGas bounds the counter so it cannot overflow while a
	// metered block is subtracted.
	maxMeteredGas = math.MaxInt64 / 2
)

const (
	customSectionID byte = 0
	importSectionID byte = 2
	globalSectionID byte = 6
	exportSectionID byte = 7
	startSectionID  byte = 8
	codeSectionID   byte = 10
)

const (
	opUnreachable byte = 0x00
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opEnd         byte = 0x0b
	opGlobalGet   byte = 0x23
	opGlobalSet   byte = 0x24
	opI64Const    byte = 0x42
	opI64LtS      byte = 0x53
	opI64Sub      byte = 0x7d

	blockTypeEmpty   byte = 0x40
	valueTypeI64     byte = 0x7e
	exportKindGlobal byte = 0x03
)

var wasmPreamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// sectionOrder ranks the known sections in the order they must appear.
var sectionOrder = map[byte]int{1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 7, 8: 8, 9: 9, 12: 10, 10: 11, 11: 12}

type rawSection struct {
	id      byte
	content []byte
}

// instrument returns a metered version of a module.
func instrument(bytecode []byte) ([]byte, error) {
	if !bytes.HasPrefix(bytecode, wasmPreamble) {
		return nil, errors.New("missing module header")
	}
	sections, err := splitSections(bytecode[len(wasmPreamble):])
	if err != nil {
		return nil, err
	}

	var importedGlobals, definedGlobals uint32
	for _, s := range sections {
		switch s.id {
		case startSectionID:
			return nil, errors.New("start functions are not supported")
		case importSectionID:
			if importedGlobals, err = countImportedGlobals(s.content); err != nil {
				return nil, fmt.Errorf("invalid import section: %w", err)
			}
		case globalSectionID:
			r := reader{data: s.content}
			if definedGlobals = r.u32(); r.err != nil {
				return nil, fmt.Errorf("invalid global section: %w", r.err)
			}
		}
	}

	counter := importedGlobals + definedGlobals
	for i, s := range sections {
		if s.id != codeSectionID {
			continue
		}
		if sections[i].content, err = meterCode(s.content, counter); err != nil {
			return nil, fmt.Errorf("invalid code section: %w", err)
		}
	}

	if sections, err = appendEntry(sections, globalSectionID,
		[]byte{valueTypeI64, 0x01, opI64Const, 0x00, opEnd}); err != nil {
		return nil, err
	}
	export := append([]byte{byte(len(gasGlobalName))}, gasGlobalName...)
	export = append(export, exportKindGlobal)
	if sections, err = appendEntry(sections, exportSectionID, binary.AppendUvarint(export, uint64(counter))); err != nil {
		return nil, err
	}

	res := slices.Clone(wasmPreamble)
	for _, s := range sections {
		res = append(res, s.id)
		res = binary.AppendUvarint(res, uint64(len(s.content)))
		res = append(res, s.content...)
	}
	return res, nil
}

func splitSections(data []byte) ([]rawSection, error) {
	var res []rawSection
	r := reader{data: data}
	for !r.done() && r.err == nil {
		id := r.readByte()
		content := r.bytes(int(r.u32()))
		res = append(res, rawSection{id: id, content: content})
	}
	return res, r.err
}

// appendEntry appends an entry to the vector held by the section with the
// given id, creating the section if the module has none.
func appendEntry(sections []rawSection, id byte, entry []byte) ([]rawSection, error) {
	for i, s := range sections {
		if s.id != id {
			continue
		}
		r := reader{data: s.content}
		count := r.u32()
		if r.err != nil {
			return nil, fmt.Errorf("invalid section %d: %w", id, r.err)
		}
		content := binary.AppendUvarint(nil, uint64(count)+1)
		content = append(content, s.content[r.pos:]...)
		sections[i].content = append(content, entry...)
		return sections, nil
	}

	created := rawSection{id: id, content: append([]byte{0x01}, entry...)}
	for i, s := range sections {
		if s.id != customSectionID && sectionOrder[s.id] > sectionOrder[id] {
			return slices.Insert(sections, i, created), nil
		}
	}
	return append(sections, created), nil
}

func countImportedGlobals(content []byte) (uint32, error) {
	r := reader{data: content}
	count := r.u32()
	globals := uint32(0)
	for i := uint32(0); i < count && r.err == nil; i++ {
		r.skip(int(r.u32())) // module
		r.skip(int(r.u32())) // name
		switch kind := r.readByte(); kind {
		case 0x00:
			r.u32()
		case 0x01:
			r.readByte()
			r.limits()
		case 0x02:
			r.limits()
		case 0x03:
			r.skip(2)
			globals++
		default:
			r.fail(fmt.Errorf("unknown import kind %d", kind))
		}
	}
	return globals, r.err
}

func meterCode(content []byte, counter uint32) ([]byte, error) {
	r := reader{data: content}
	count := r.u32()
	res := binary.AppendUvarint(nil, uint64(count))
	for i := uint32(0); i < count && r.err == nil; i++ {
		body := r.bytes(int(r.u32()))
		if r.err != nil {
			break
		}
		metered, err := meterFunction(body, counter)
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		res = binary.AppendUvarint(res, uint64(len(metered)))
		res = append(res, metered...)
	}
	if r.err == nil && !r.done() {
		r.fail(errors.New("trailing bytes"))
	}
	return res, r.err
}

type instruction struct {
	start, end int
	loop       bool
}

// meterFunction inserts metering code at the entry of a function body and
// after each loop header. The cost charged at a metering point is the
// number of instructions up to and including the next loop header.
func meterFunction(body []byte, counter uint32) ([]byte, error) {
	r := reader{data: body}
	groups := r.u32()
	for i := uint32(0); i < groups && r.err == nil; i++ {
		r.u32()
		r.readByte()
	}
	locals := r.pos

	var code []instruction
	for !r.done() && r.err == nil {
		start := r.pos
		op := r.readByte()
		r.immediates(op, counter)
		code = append(code, instruction{start: start, end: r.pos, loop: op == opLoop})
	}
	if r.err != nil {
		return nil, r.err
	}

	costs := []int{0}
	for _, instr := range code {
		costs[len(costs)-1]++
		if instr.loop {
			costs = append(costs, 0)
		}
	}

	res := slices.Clone(body[:locals])
	res = appendMeter(res, counter, costs[0])
	point := 1
	for _, instr := range code {
		res = append(res, body[instr.start:instr.end]...)
		if instr.loop {
			res = appendMeter(res, counter, costs[point])
			point++
		}
	}
	return res, nil
}

// appendMeter appends code subtracting the gas of count instructions from
// the counter and trapping if it becomes negative.
func appendMeter(code []byte, counter uint32, count int) []byte {
	if count < 1 {
		count = 1
	}
	code = append(code, opGlobalGet)
	code = binary.AppendUvarint(code, uint64(counter))
	code = append(code, opI64Const)
	code = appendSignedLEB(code, int64(count)*int64(instructionGas))
	code = append(code, opI64Sub, opGlobalSet)
	code = binary.AppendUvarint(code, uint64(counter))
	code = append(code, opGlobalGet)
	code = binary.AppendUvarint(code, uint64(counter))
	return append(code, opI64Const, 0x00, opI64LtS, opIf, blockTypeEmpty, opUnreachable, opEnd)
}

func appendSignedLEB(out []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// reader decodes the binary format. The first error is sticky; reads
// after an error return zero values.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) done() bool {
	return r.pos >= len(r.data)
}

func (r *reader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if r.done() {
		r.fail(errors.New("unexpected end of data"))
		return 0
	}
	r.pos++
	return r.data[r.pos-1]
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	value, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 || value > math.MaxUint32 {
		r.fail(errors.New("invalid unsigned integer"))
		return 0
	}
	r.pos += n
	return uint32(value)
}

// skipLEB skips a signed or unsigned LEB128 integer.
func (r *reader) skipLEB() {
	for r.err == nil && r.readByte()&0x80 != 0 {
	}
}

func (r *reader) skip(n int) {
	r.bytes(n)
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data)-r.pos {
		r.fail(errors.New("unexpected end of data"))
		return nil
	}
	r.pos += n
	return r.data[r.pos-n : r.pos]
}

func (r *reader) limits() {
	if flags := r.readByte(); flags&0x01 != 0 {
		r.u32()
	}
	r.u32()
}

// immediates skips the immediate operands of an instruction. Accesses to
// globals at or above counter are rejected, as that index is reserved for
// the gas counter.
func (r *reader) immediates(op byte, counter uint32) {
	switch {
	case op <= 0x01, op == 0x05, op == opEnd, op == 0x0f, op == 0x1a, op == 0x1b,
		op >= 0x45 && op <= 0xc4, op == 0xd1:
	case op >= 0x02 && op <= 0x04:
		r.skipLEB() // block type
	case op == 0x0c, op == 0x0d, op == 0x10, op == 0xd2:
		r.u32()
	case op == 0x0e:
		targets := r.u32()
		for i := uint32(0); i <= targets && r.err == nil; i++ {
			r.u32()
		}
	case op == 0x11:
		r.u32()
		r.u32()
	case op == 0x1c:
		r.skip(int(r.u32()))
	case op >= 0x20 && op <= 0x22, op == 0x25, op == 0x26:
		r.u32()
	case op == opGlobalGet, op == opGlobalSet:
		if index := r.u32(); r.err == nil && index >= counter {
			r.fail(fmt.Errorf("global %d out of range", index))
		}
	case op >= 0x28 && op <= 0x3e:
		r.u32() // alignment
		r.u32() // offset
	case op == 0x3f, op == 0x40:
		r.u32()
	case op == 0x41, op == opI64Const:
		r.skipLEB()
	case op == 0x43:
		r.skip(4)
	case op == 0x44:
		r.skip(8)
	case op == 0xd0:
		r.readByte()
	case op == 0xfc:
		r.miscImmediates(r.u32())
	default:
		r.fail(fmt.Errorf("unsupported instruction 0x%02x", op))
	}
}

func (r *reader) miscImmediates(op uint32) {
	switch {
	case op <= 7:
	case op == 9, op == 11, op == 13, op >= 15 && op <= 17:
		r.u32()
	case op == 8, op == 10, op == 12, op == 14:
		r.u32()
		r.u32()
	default:
		r.fail(fmt.Errorf("unsupported instruction 0xfc %d", op))
	}
}
