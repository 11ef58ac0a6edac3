// Package stringpool implements the Nx string pool: a lexicographically
// sorted, NUL-terminated list of relative file paths (duplicates are kept),
// stored as a single ZStd frame prefixed by its u32 decompressed size and
// u32 compressed size.
package stringpool

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/woozymasta/nx-archive/internal/nxerr"
)

// DefaultCompressionLevel is the ZStd level used for the pool. Levels past
// this rarely buy further savings on short, similar path strings.
const DefaultCompressionLevel = 16

// MaxPoolSize bounds the decompressed pool so unpacking never trusts an
// attacker-controlled size field into an unbounded allocation. The on-disk
// size field is a plain u32, so this is already the practical ceiling;
// picked generously below 2^32 for headroom. See DESIGN.md.
const MaxPoolSize = 1<<28 - 1 // 268435455

const sizeFieldLen = 4

// headerLen is the two u32 fields (decompressed_size, compressed_size)
// that precede every pool's zstd frame. The frame itself carries no
// content-size flag, so without a stored compressed length a reader
// sharing a buffer with whatever data follows the pool (dictionary
// segment, block payloads) would have no way to find the frame's end
// without a streaming decode; every other size in this archive format is
// stored explicitly rather than inferred, so the pool follows suit.
const headerLen = sizeFieldLen * 2

// Pool is the in-memory, decoded form of a string pool: a flat buffer of
// NUL-joined strings plus the byte offset of each entry.
type Pool struct {
	raw     []byte
	offsets []uint32
}

// Pack sorts paths lexicographically and serializes them into the on-disk
// string pool format: [u32 LE decompressed_size][u32 LE compressed_size]
// [zstd frame of the NUL-joined, sorted paths].
func Pack(paths []string) ([]byte, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	total := 0
	for _, p := range sorted {
		total += len(p) + 1
	}

	raw := make([]byte, 0, total)
	for _, p := range sorted {
		raw = append(raw, p...)
		raw = append(raw, 0)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(DefaultCompressionLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, nxerr.ErrPoolFailedToCompress
	}
	defer enc.Close()

	frame := enc.EncodeAll(raw, nil)

	out := make([]byte, headerLen+len(frame))
	binary.LittleEndian.PutUint32(out[:sizeFieldLen], uint32(len(raw)))
	binary.LittleEndian.PutUint32(out[sizeFieldLen:headerLen], uint32(len(frame)))
	copy(out[headerLen:], frame)

	if len(out) > MaxPoolSize {
		return nil, nxerr.ErrPoolTooLarge
	}
	return out, nil
}

// Unpack decodes a string pool produced by Pack. fileCount is the number of
// entries expected (the archive's file count), matching the original
// format's reliance on an externally known count rather than a stored one.
// consumed reports the total number of bytes of source the pool occupied
// (header plus frame), so callers sharing a buffer with trailing data
// (dictionary segment, block payloads) know where the pool ends.
//
// The decompressed, NUL-joined frame is re-flattened into a compact
// raw_data buffer with the terminators stripped, and offsets record each
// entry's start within that buffer — so Get never re-scans for NULs.
func Unpack(source []byte, fileCount int) (pool *Pool, consumed int, err error) {
	if len(source) == 0 {
		return &Pool{}, 0, nil
	}
	if len(source) < headerLen {
		return nil, 0, nxerr.ErrPoolNotEnoughData
	}

	decompressedSize := binary.LittleEndian.Uint32(source[:sizeFieldLen])
	compressedSize := binary.LittleEndian.Uint32(source[sizeFieldLen:headerLen])
	if decompressedSize == 0 {
		return &Pool{}, headerLen, nil
	}
	if decompressedSize > MaxPoolSize {
		return nil, 0, nxerr.ErrPoolExceededMaxSize
	}
	if uint64(headerLen)+uint64(compressedSize) > uint64(len(source)) {
		return nil, 0, nxerr.ErrPoolNotEnoughData
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, 0, nxerr.ErrPoolFailedToDecompress
	}
	defer dec.Close()

	frame := source[headerLen : headerLen+int(compressedSize)]
	decompressed, err := dec.DecodeAll(frame, make([]byte, 0, decompressedSize))
	if err != nil {
		return nil, 0, nxerr.ErrPoolFailedToDecompress
	}
	if uint32(len(decompressed)) != decompressedSize {
		return nil, 0, nxerr.ErrPoolFailedToDecompress
	}
	if len(decompressed) > 0 && decompressed[len(decompressed)-1] != 0 {
		return nil, 0, nxerr.ErrPoolShouldEndOnNull
	}

	if fileCount > len(decompressed) {
		return nil, 0, nxerr.ErrPoolBufferOverflow
	}

	offsets := make([]uint32, 0, fileCount)
	raw := make([]byte, 0, len(decompressed)-fileCount)
	srcOff := 0
	for i := 0; i < fileCount; i++ {
		offsets = append(offsets, uint32(len(raw)))

		nul := bytes.IndexByte(decompressed[srcOff:], 0)
		var entryLen int
		if nul < 0 {
			entryLen = len(decompressed) - srcOff - 1
			if entryLen < 0 {
				entryLen = 0
			}
		} else {
			entryLen = nul
		}

		if len(raw)+entryLen > cap(raw) {
			return nil, 0, nxerr.ErrPoolBufferOverflow
		}
		raw = append(raw, decompressed[srcOff:srcOff+entryLen]...)

		if nul < 0 {
			break
		}
		srcOff += nul + 1
	}

	return &Pool{raw: raw, offsets: offsets}, headerLen + int(compressedSize), nil
}

// Len returns the number of entries in the pool.
func (p *Pool) Len() int { return len(p.offsets) }

// Get returns the string at index, or "", false if out of range.
func (p *Pool) Get(index int) (string, bool) {
	if index < 0 || index >= len(p.offsets) {
		return "", false
	}
	start := int(p.offsets[index])
	end := len(p.raw)
	if index+1 < len(p.offsets) {
		end = int(p.offsets[index+1])
	}
	return string(p.raw[start:end]), true
}

// Contains reports whether path is present in the pool, by exact match.
func (p *Pool) Contains(path string) bool {
	for i := range p.offsets {
		if s, ok := p.Get(i); ok && s == path {
			return true
		}
	}
	return false
}

// Iter calls fn for each string in the pool, in stored (sorted) order.
// Iteration stops early if fn returns false.
func (p *Pool) Iter(fn func(string) bool) {
	for i := range p.offsets {
		s, ok := p.Get(i)
		if !ok {
			return
		}
		if !fn(s) {
			return
		}
	}
}
