package archive

import (
	"encoding/binary"

	"github.com/woozymasta/nx-archive/internal/nxerr"
)

// Magic is the 4-byte archive signature, 'NXUS' read little-endian.
const Magic uint32 = 0x5355584E // "NXUS"

// FormatVersion is the ToC/archive version number 0. Build does not write
// this constant: ArchiveHeader.Version carries the selected toc.Format.
const FormatVersion = 0

// Feature flag bits recorded in ArchiveHeader.FeatureFlags.
const (
	FeatureHasDictionary uint8 = 1 << iota
	FeatureHasHashes
)

// ArchiveHeader is the fixed 8-byte header at the start of every archive.
type ArchiveHeader struct {
	FeatureFlags    uint8
	HeaderPageCount uint16 // in 4 KiB pages
	ChunkSize       uint32 // actual bytes, power of two
	Version         uint8
}

const headerSizeBytes = 8
const pageSize = 4096

// Encode serializes h into its 8-byte wire form.
func (h ArchiveHeader) Encode() [8]byte {
	var v uint64
	v |= uint64(Magic)
	v |= uint64(h.FeatureFlags&0xF) << 32
	v |= uint64(h.HeaderPageCount) << 36
	v |= uint64(encodeChunkSize(h.ChunkSize)&0x1F) << 52
	v |= uint64(h.Version&0x7F) << 57

	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], v)
	return out
}

// DecodeHeader parses an ArchiveHeader from the first 8 bytes of buf.
func DecodeHeader(buf []byte) (ArchiveHeader, error) {
	if len(buf) < headerSizeBytes {
		return ArchiveHeader{}, nxerr.ErrInsufficientData
	}
	v := binary.LittleEndian.Uint64(buf[:headerSizeBytes])

	magic := uint32(v & 0xFFFFFFFF)
	if magic != Magic {
		return ArchiveHeader{}, nxerr.ErrBadMagic
	}

	return ArchiveHeader{
		FeatureFlags:    uint8((v >> 32) & 0xF),
		HeaderPageCount: uint16((v >> 36) & 0xFFFF),
		ChunkSize:       decodeChunkSize(uint8((v >> 52) & 0x1F)),
		Version:         uint8((v >> 57) & 0x7F),
	}, nil
}

// pageAlign rounds n up to the next 4 KiB page boundary.
func pageAlign(n int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}
