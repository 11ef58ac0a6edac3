package toc

// Fixed-width ToC presets. Each preset's field widths are chosen to sum
// exactly to its stated per-entry byte budget; Preset3 variants omit
// decompressed_block_offset entirely (no SOLID support), the others carry
// every field FileEntry defines.

// Field widths, named per preset so the byte budget each is built around
// stays visible at the call site.
const (
	p3Size, p3FilePath, p3FirstBlock = 26, 20, 18 // Preset3{,NoHash} data word: 64 bits

	p01Size, p01Offset, p01FilePath, p01FirstBlock = 32, 32, 20, 12 // Preset0/1NoHash data word: 96 bits

	p2Size, p2Offset, p2FilePath, p2FirstBlock = 32, 32, 32, 32 // Preset2 data word: 128 bits
)

func encodeP3DataWord(e FileEntry) []byte {
	w := newBitWriter(8)
	w.writeBits(e.DecompressedSize, p3Size)
	w.writeBits(e.FirstBlockIndex, p3FirstBlock)
	w.writeBits(e.FilePathIndex, p3FilePath)
	return w.bytes()
}

func decodeP3DataWord(buf []byte) FileEntry {
	r := newBitReader(buf[:8])
	size := r.readBits(p3Size)
	firstBlock := r.readBits(p3FirstBlock)
	filePath := r.readBits(p3FilePath)
	return FileEntry{DecompressedSize: size, FirstBlockIndex: firstBlock, FilePathIndex: filePath}
}

// EncodePreset3NoHash packs one Preset3NoHash entry (8 bytes): no SOLID
// offset, no hash. This is the legacy V1 ToC's file-entry layout, reused
// verbatim as the smallest V2 preset (Open Question Q2).
func EncodePreset3NoHash(e FileEntry) []byte { return encodeP3DataWord(e) }

// DecodePreset3NoHash reverses EncodePreset3NoHash.
func DecodePreset3NoHash(buf []byte) FileEntry { return decodeP3DataWord(buf) }

// EncodePreset3 packs one Preset3 entry (16 bytes): an 8-byte hash
// followed by the same data word as Preset3NoHash.
func EncodePreset3(e FileEntry) []byte {
	out := hashBytes(e.Hash)
	return append(out, encodeP3DataWord(e)...)
}

// DecodePreset3 reverses EncodePreset3.
func DecodePreset3(buf []byte) FileEntry {
	e := decodeP3DataWord(buf[8:16])
	e.Hash = readHashBytes(buf)
	return e
}

func encodeP01DataWord(e FileEntry) []byte {
	w := newBitWriter(12)
	w.writeBits(e.DecompressedSize, p01Size)
	w.writeBits(e.DecompressedBlockOffset, p01Offset)
	w.writeBits(e.FirstBlockIndex, p01FirstBlock)
	w.writeBits(e.FilePathIndex, p01FilePath)
	return w.bytes()
}

func decodeP01DataWord(buf []byte) FileEntry {
	r := newBitReader(buf[:12])
	size := r.readBits(p01Size)
	offset := r.readBits(p01Offset)
	firstBlock := r.readBits(p01FirstBlock)
	filePath := r.readBits(p01FilePath)
	return FileEntry{DecompressedSize: size, DecompressedBlockOffset: offset, FirstBlockIndex: firstBlock, FilePathIndex: filePath}
}

// EncodePreset1NoHash packs one Preset1NoHash entry (12 bytes): full SOLID
// offset support, no hash.
func EncodePreset1NoHash(e FileEntry) []byte { return encodeP01DataWord(e) }

// DecodePreset1NoHash reverses EncodePreset1NoHash.
func DecodePreset1NoHash(buf []byte) FileEntry { return decodeP01DataWord(buf) }

// EncodePreset0 packs one Preset0 entry (20 bytes): an 8-byte hash
// followed by the same data word as Preset1NoHash. This is the "full
// fields, with hash" format — the richest preset before the Preset2
// fallback.
func EncodePreset0(e FileEntry) []byte {
	out := hashBytes(e.Hash)
	return append(out, encodeP01DataWord(e)...)
}

// DecodePreset0 reverses EncodePreset0.
func DecodePreset0(buf []byte) FileEntry {
	e := decodeP01DataWord(buf[8:20])
	e.Hash = readHashBytes(buf)
	return e
}

func encodeP2DataWord(e FileEntry) []byte {
	w := newBitWriter(16)
	w.writeBits(e.DecompressedSize, p2Size)
	w.writeBits(e.DecompressedBlockOffset, p2Offset)
	w.writeBits(e.FirstBlockIndex, p2FirstBlock)
	w.writeBits(e.FilePathIndex, p2FilePath)
	return w.bytes()
}

func decodeP2DataWord(buf []byte) FileEntry {
	r := newBitReader(buf[:16])
	size := r.readBits(p2Size)
	offset := r.readBits(p2Offset)
	firstBlock := r.readBits(p2FirstBlock)
	filePath := r.readBits(p2FilePath)
	return FileEntry{DecompressedSize: size, DecompressedBlockOffset: offset, FirstBlockIndex: firstBlock, FilePathIndex: filePath}
}

// EncodePreset2 packs one Preset2 entry (24 bytes): the universal
// fallback, every field at its own full 32-bit width plus a hash.
func EncodePreset2(e FileEntry) []byte {
	out := hashBytes(e.Hash)
	return append(out, encodeP2DataWord(e)...)
}

// DecodePreset2 reverses EncodePreset2.
func DecodePreset2(buf []byte) FileEntry {
	e := decodeP2DataWord(buf[8:24])
	e.Hash = readHashBytes(buf)
	return e
}

func hashBytes(h uint64) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(h >> (8 * i))
	}
	return out
}

func readHashBytes(buf []byte) uint64 {
	var h uint64
	for i := 0; i < 8; i++ {
		h |= uint64(buf[i]) << (8 * i)
	}
	return h
}

// EntrySize returns the on-disk byte size of one entry in the given
// format.
func (f Format) EntrySize() int {
	switch f {
	case Preset3NoHash, FEF64NoHash:
		return 8
	case Preset1NoHash:
		return 12
	case Preset3, FEF64Hash:
		return 16
	case Preset0:
		return 20
	case Preset2:
		return 24
	default:
		return 0
	}
}
