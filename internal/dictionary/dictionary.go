// Package dictionary implements the Nx DictionarySegment: per-extension
// ZStd dictionaries trained from sample files, a run-length-encoded
// block-to-dictionary mapping, and the bit-packed on-disk layout that
// stores both.
package dictionary

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/woozymasta/nx-archive/internal/nxerr"
)

const (
	// MaxDictionaries is the largest number of distinct dictionaries a
	// single segment can describe; 255 is reserved as NoDictionaryIndex.
	MaxDictionaries = 254
	// NoDictionaryIndex marks a block that uses no dictionary.
	NoDictionaryIndex = 255
	// MaxMappings bounds the run-length-encoded mapping list (u22 max).
	MaxMappings = 1<<22 - 1

	// MinTrainingSamples is the fewest sample files an extension group
	// needs before a dictionary is trained for it.
	MinTrainingSamples = 7
	// MaxSampleBytes bounds how much of each sample file is read for
	// training.
	MaxSampleBytes = 131072

	defaultCompressionLevel = 16

	dictHeaderSizeBytes    = 8
	payloadHeaderSizeBytes = 8
)

// DictionariesHeader is the 8-byte bit-packed segment header.
type DictionariesHeader struct {
	DecompressedSize uint32 // u28
	CompressedSize    uint32 // u27; 0 means payload is stored uncompressed
	Version           uint8  // u4
	Reserved          uint8  // u5
}

func (h DictionariesHeader) encode() uint64 {
	var v uint64
	v |= uint64(h.DecompressedSize) & (1<<28 - 1)
	v |= (uint64(h.CompressedSize) & (1<<27 - 1)) << 28
	v |= (uint64(h.Version) & 0xF) << 55
	v |= (uint64(h.Reserved) & 0x1F) << 59
	return v
}

// Bytes serializes the header into its 8-byte little-endian wire form, to
// be prepended to the compressed payload Serialize returns before handing
// the combined bytes to Deserialize.
func (h DictionariesHeader) Bytes() [8]byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], h.encode())
	return out
}

func decodeDictionariesHeader(v uint64) DictionariesHeader {
	return DictionariesHeader{
		DecompressedSize: uint32(v & (1<<28 - 1)),
		CompressedSize:   uint32((v >> 28) & (1<<27 - 1)),
		Version:          uint8((v >> 55) & 0xF),
		Reserved:         uint8((v >> 59) & 0x1F),
	}
}

// payloadHeader is the decompressed payload's own 8-byte bit-packed header.
type payloadHeader struct {
	LastDictBlockIndex uint32 // u22
	NumMappings        uint32 // u22
	NumDictionaries    uint8  // u8
	HasHashes          bool
}

func (h payloadHeader) encode() uint64 {
	var v uint64
	v |= uint64(h.LastDictBlockIndex) & (1<<22 - 1)
	v |= (uint64(h.NumMappings) & (1<<22 - 1)) << 22
	v |= uint64(h.NumDictionaries) << 44
	if h.HasHashes {
		v |= 1 << 52
	}
	return v
}

func decodePayloadHeader(v uint64) payloadHeader {
	return payloadHeader{
		LastDictBlockIndex: uint32(v & (1<<22 - 1)),
		NumMappings:        uint32((v >> 22) & (1<<22 - 1)),
		NumDictionaries:     uint8((v >> 44) & 0xFF),
		HasHashes:           (v>>52)&1 != 0,
	}
}

// Mapping is a run of consecutive blocks that all reference the same
// dictionary index (or NoDictionaryIndex).
type Mapping struct {
	DictionaryIndex uint8
	NumBlocks       uint8
}

// BuildMappings run-length-encodes a per-block dictionary index list,
// splitting runs longer than 255 blocks, and reports the one-past-the-last
// block index that references a real dictionary.
func BuildMappings(blockDictIndices []uint8) (mappings []Mapping, lastDictBlockIndex uint32, err error) {
	currentIndex := uint8(NoDictionaryIndex)
	var currentCount uint8
	var totalBlocks uint32
	haveCurrent := false

	flush := func() {
		if currentCount == 0 {
			return
		}
		totalBlocks += uint32(currentCount)
		mappings = append(mappings, Mapping{DictionaryIndex: currentIndex, NumBlocks: currentCount})
		if currentIndex != NoDictionaryIndex {
			lastDictBlockIndex = totalBlocks
		}
	}

	for _, idx := range blockDictIndices {
		if haveCurrent && idx == currentIndex && currentCount < 255 {
			currentCount++
			continue
		}
		flush()
		currentIndex = idx
		currentCount = 1
		haveCurrent = true
	}
	flush()

	if len(mappings) > MaxMappings {
		return nil, 0, nxerr.ErrDictTooManyMappings
	}
	return mappings, lastDictBlockIndex, nil
}

func payloadHeaderSize(numMappings, numDictionaries uint32, hasHashes bool) uint32 {
	size := uint32(payloadHeaderSizeBytes)
	size += numMappings * 2
	size = (size + 3) &^ 3
	size += numDictionaries * 4
	if hasHashes {
		size = (size + 7) &^ 7
		size += numDictionaries * 8
	}
	return size
}

// Serialize packs dictionaries and a per-block dictionary index list into
// the on-disk DictionariesHeader + payload format.
func Serialize(dictionaries [][]byte, blockDictIndices []uint8, writeHashes bool) (DictionariesHeader, []byte, error) {
	if len(dictionaries) > MaxDictionaries {
		return DictionariesHeader{}, nil, nxerr.ErrTooManyDictionaries
	}
	if len(blockDictIndices) == 0 {
		return DictionariesHeader{}, nil, nxerr.ErrDictNoBlocks
	}

	mappings, lastDictBlockIndex, err := BuildMappings(blockDictIndices)
	if err != nil {
		return DictionariesHeader{}, nil, err
	}

	hdrSize := payloadHeaderSize(uint32(len(mappings)), uint32(len(dictionaries)), writeHashes)
	var dictTotal uint32
	for _, d := range dictionaries {
		dictTotal += uint32(len(d))
	}
	decompressedSize := hdrSize + dictTotal
	if decompressedSize > 1<<28-1 {
		return DictionariesHeader{}, nil, nxerr.ErrDecompressedSizeTooLarge
	}

	buf := make([]byte, 0, decompressedSize)

	ph := payloadHeader{
		LastDictBlockIndex: lastDictBlockIndex,
		NumMappings:        uint32(len(mappings)),
		NumDictionaries:    uint8(len(dictionaries)),
		HasHashes:          writeHashes,
	}
	var phBytes [8]byte
	binary.LittleEndian.PutUint64(phBytes[:], ph.encode())
	buf = append(buf, phBytes[:]...)

	for _, m := range mappings {
		buf = append(buf, m.DictionaryIndex)
	}
	for _, m := range mappings {
		buf = append(buf, m.NumBlocks)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}

	for _, d := range dictionaries {
		var sz [4]byte
		binary.LittleEndian.PutUint32(sz[:], uint32(len(d)))
		buf = append(buf, sz[:]...)
	}

	if writeHashes {
		for len(buf)%8 != 0 {
			buf = append(buf, 0)
		}
		for _, d := range dictionaries {
			var h [8]byte
			binary.LittleEndian.PutUint64(h[:], xxhash.Sum64(d))
			buf = append(buf, h[:]...)
		}
	}

	for _, d := range dictionaries {
		buf = append(buf, d...)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(defaultCompressionLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return DictionariesHeader{}, nil, err
	}
	defer enc.Close()

	compressed := enc.EncodeAll(buf, nil)

	if uint32(len(compressed)) > 1<<27-1 {
		return DictionariesHeader{}, nil, nxerr.ErrCompressedSizeTooLarge
	}

	header := DictionariesHeader{
		DecompressedSize: decompressedSize,
		CompressedSize:   uint32(len(compressed)),
	}
	return header, compressed, nil
}

// Dictionaries is the decoded view of a DictionarySegment.
type Dictionaries struct {
	lastDictBlockIndex uint32
	mappings           []Mapping
	dictOffsets        []uint32
	dictSizes          []uint32
	data               []byte
}

// Deserialize parses a DictionariesHeader + payload previously produced by
// Serialize, applying the hardened-mode checks from the segment's spec.
func Deserialize(src []byte) (*Dictionaries, error) {
	if len(src) < dictHeaderSizeBytes {
		return nil, nxerr.ErrDictHeaderTooLarge
	}
	header := decodeDictionariesHeader(binary.LittleEndian.Uint64(src[:dictHeaderSizeBytes]))
	rest := src[dictHeaderSizeBytes:]

	var decompressed []byte
	if header.CompressedSize == 0 {
		if uint32(len(rest)) < header.DecompressedSize {
			return nil, nxerr.ErrDictTruncated
		}
		decompressed = rest[:header.DecompressedSize]
	} else {
		if uint32(len(rest)) < header.CompressedSize {
			return nil, nxerr.ErrDictTruncated
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(rest[:header.CompressedSize], make([]byte, 0, header.DecompressedSize))
		if err != nil {
			return nil, nxerr.ErrDictTruncated
		}
		if uint32(len(out)) != header.DecompressedSize {
			return nil, nxerr.ErrDictSizeMismatch
		}
		decompressed = out
	}

	if len(decompressed) < payloadHeaderSizeBytes {
		return nil, nxerr.ErrDictTruncated
	}
	ph := decodePayloadHeader(binary.LittleEndian.Uint64(decompressed[:payloadHeaderSizeBytes]))
	off := payloadHeaderSizeBytes

	numMappings := int(ph.NumMappings)
	if off+numMappings*2 > len(decompressed) {
		return nil, nxerr.ErrDictTruncated
	}
	indices := decompressed[off : off+numMappings]
	off += numMappings
	runLengths := decompressed[off : off+numMappings]
	off += numMappings

	off = (off + 3) &^ 3

	numDicts := int(ph.NumDictionaries)
	if off+numDicts*4 > len(decompressed) {
		return nil, nxerr.ErrDictTruncated
	}
	sizes := make([]uint32, numDicts)
	for i := 0; i < numDicts; i++ {
		sizes[i] = binary.LittleEndian.Uint32(decompressed[off+i*4:])
	}
	off += numDicts * 4

	if ph.HasHashes {
		off = (off + 7) &^ 7
		if off+numDicts*8 > len(decompressed) {
			return nil, nxerr.ErrDictTruncated
		}
		off += numDicts * 8
	}

	var sizeSum uint64
	for _, s := range sizes {
		sizeSum += uint64(s)
	}
	if off+int(sizeSum) > len(decompressed) {
		return nil, nxerr.ErrDictSizesOverflow
	}

	offsets := make([]uint32, numDicts)
	cur := uint32(off)
	for i, s := range sizes {
		offsets[i] = cur
		cur += s
	}

	mappings := make([]Mapping, numMappings)
	var runSum uint64
	for i := 0; i < numMappings; i++ {
		idx := indices[i]
		if idx != NoDictionaryIndex && int(idx) >= numDicts {
			return nil, nxerr.ErrDictIndexOutOfRange
		}
		mappings[i] = Mapping{DictionaryIndex: idx, NumBlocks: runLengths[i]}
		runSum += uint64(runLengths[i])
	}
	if runSum > 1<<32-1 || uint32(runSum) < ph.LastDictBlockIndex {
		return nil, nxerr.ErrDictRunOverflow
	}

	return &Dictionaries{
		lastDictBlockIndex: ph.LastDictBlockIndex,
		mappings:           mappings,
		dictOffsets:        offsets,
		dictSizes:          sizes,
		data:               decompressed,
	}, nil
}

// DictionaryForBlock returns the dictionary bytes a given block index
// should use, or nil when the block has none.
func (d *Dictionaries) DictionaryForBlock(block uint32) []byte {
	if block >= d.lastDictBlockIndex {
		return nil
	}

	var cur uint32
	for _, m := range d.mappings {
		next := cur + uint32(m.NumBlocks)
		if block < next {
			if m.DictionaryIndex == NoDictionaryIndex {
				return nil
			}
			if int(m.DictionaryIndex) >= len(d.dictOffsets) {
				return nil
			}
			start := d.dictOffsets[m.DictionaryIndex]
			size := d.dictSizes[m.DictionaryIndex]
			return d.data[start : start+size]
		}
		cur = next
	}
	return nil
}
