package toc

// FEF64 ("flexible entry format, 64-bit") packs each file entry's four
// index/offset fields at exactly the bit width this archive needs, derived
// once per archive from the header rather than fixed at compile time. The
// header itself records those widths so a reader can set up the same
// bitReader layout the writer used.

// FEF64Header is the decoded form of the 8-byte (or, when counts overflow
// the packed-count field, 16-byte) FEF64 ToC header.
type FEF64Header struct {
	HasHash     bool
	StringPool  uint64
	FileCount   uint64
	BlockCount  uint64
	OffsetField uint64 // max decompressed_block_offset observed
}

// widths returns the four 5-bit descriptor values this header encodes.
func (h FEF64Header) widths() (pool, file, block, offset uint) {
	return bitsNeeded(h.StringPool), bitsNeeded(h.FileCount), bitsNeeded(h.BlockCount), bitsNeeded(h.OffsetField)
}

// entryDataBits returns the bit width available to decompressed_size in
// this header's FEF64 entries: whatever remains of the 64-bit entry word
// after file_count/block_count/decompressed_block_offset are packed.
func (h FEF64Header) entryDataBits() uint {
	_, fileBits, blockBits, offsetBits := h.widths()
	return fef64EntryBits - (fileBits + blockBits + offsetBits)
}

const fef64PackedCountBits = 41 // bits 0-40; bit 41 is the extension flag

// EncodeHeader serializes a FEF64Header. The 41-bit packed-count field holds
// string_pool_size in bits 0-13, file_count in bits 14-27 and block_count in
// bits 28-40; when any of the three doesn't fit its slot, the extension flag
// bit is set and an 8-byte extension word carrying the three raw counts
// follows the header word.
func EncodeHeader(h FEF64Header) []byte {
	poolBits, fileBits, blockBits, offsetBits := h.widths()

	needsExtension := h.StringPool >= 1<<14 || h.FileCount >= 1<<14 || h.BlockCount >= 1<<13

	var packed uint64
	if !needsExtension {
		packed = h.StringPool | h.FileCount<<14 | h.BlockCount<<28
	}

	w := newBitWriter(8)
	w.writeBits(packed, fef64PackedCountBits)
	extBit := uint64(0)
	if needsExtension {
		extBit = 1
	}
	w.writeBits(extBit, 1)
	w.writeBits(uint64(offsetBits), 5)
	w.writeBits(uint64(blockBits), 5)
	w.writeBits(uint64(fileBits), 5)
	w.writeBits(uint64(poolBits), 5)
	hashBit := uint64(0)
	if h.HasHash {
		hashBit = 1
	}
	w.writeBits(hashBit, 1)
	w.writeBits(1, 1) // is_flexible

	out := w.bytes()
	if needsExtension {
		ext := newBitWriter(8)
		ext.writeBits(h.StringPool, 21)
		ext.writeBits(h.FileCount, 21)
		ext.writeBits(h.BlockCount, 22)
		out = append(out, ext.bytes()...)
	}
	return out
}

// DecodeHeader parses a FEF64 header from buf, returning the number of
// bytes it consumed (8 or 16).
func DecodeHeader(buf []byte) (FEF64Header, int) {
	r := newBitReader(buf[:8])
	packed := r.readBits(fef64PackedCountBits)
	hasExtension := r.readBits(1) == 1
	offsetBits := uint(r.readBits(5))
	_ = r.readBits(5) // block_count bits
	_ = r.readBits(5) // file_count bits
	_ = r.readBits(5) // string_pool_size bits
	hasHash := r.readBits(1) == 1
	_ = r.readBits(1) // is_flexible

	h := FEF64Header{HasHash: hasHash}
	if hasExtension {
		ext := newBitReader(buf[8:16])
		h.StringPool = ext.readBits(21)
		h.FileCount = ext.readBits(21)
		h.BlockCount = ext.readBits(22)
		h.OffsetField = (uint64(1) << offsetBits) - 1
		return h, 16
	}

	h.StringPool = packed & (1<<14 - 1)
	h.FileCount = (packed >> 14) & (1<<14 - 1)
	h.BlockCount = (packed >> 28) & (1<<14 - 1)
	h.OffsetField = (uint64(1) << offsetBits) - 1
	return h, 8
}

// EncodeEntryNoHash packs one FEF64 file entry with no hash field (8
// bytes): file_path_index and first_block_index each take the width this
// header's file/block counts need, decompressed_block_offset takes
// offsetBits, and decompressed_size gets whatever is left.
func EncodeEntryNoHash(h FEF64Header, e FileEntry) []byte {
	_, fileBits, blockBits, offsetBits := h.widths()
	sizeBits := h.entryDataBits()

	w := newBitWriter(8)
	w.writeBits(e.DecompressedSize, sizeBits)
	w.writeBits(e.DecompressedBlockOffset, offsetBits)
	w.writeBits(e.FirstBlockIndex, blockBits)
	w.writeBits(e.FilePathIndex, fileBits)
	return w.bytes()
}

// DecodeEntryNoHash reverses EncodeEntryNoHash.
func DecodeEntryNoHash(h FEF64Header, buf []byte) FileEntry {
	_, fileBits, blockBits, offsetBits := h.widths()
	sizeBits := h.entryDataBits()

	r := newBitReader(buf[:8])
	size := r.readBits(sizeBits)
	offset := r.readBits(offsetBits)
	firstBlock := r.readBits(blockBits)
	pathIdx := r.readBits(fileBits)
	return FileEntry{
		DecompressedSize:        size,
		DecompressedBlockOffset: offset,
		FirstBlockIndex:         firstBlock,
		FilePathIndex:           pathIdx,
	}
}

// EncodeEntryHash packs one FEF64 file entry with a hash (16 bytes): an
// 8-byte hash word followed by the same data word EncodeEntryNoHash
// produces.
func EncodeEntryHash(h FEF64Header, e FileEntry) []byte {
	return append(hashBytes(e.Hash), EncodeEntryNoHash(h, e)...)
}

// DecodeEntryHash reverses EncodeEntryHash.
func DecodeEntryHash(h FEF64Header, buf []byte) FileEntry {
	e := DecodeEntryNoHash(h, buf[8:16])
	e.Hash = readHashBytes(buf)
	return e
}
