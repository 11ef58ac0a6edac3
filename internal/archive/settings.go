package archive

import (
	"math/bits"

	"github.com/woozymasta/nx-archive/internal/codec"
)

// Block/chunk size bounds PackingSettings.Sanitize clamps into, taken from
// the archive format's own packer defaults (4095..64 MiB-1 for blocks,
// 32 KiB..1 GiB for chunks — larger chunks misbehave under LZ4).
const (
	MinBlockSize = 4095
	MaxBlockSize = 67_108_863
	MinChunkSize = 32_768
	MaxChunkSize = 1_073_741_824
)

// Preset selects a recommended bundle of PackingSettings values for one of
// the three access patterns this format optimizes for (§1).
type Preset int

const (
	LocalArchival Preset = iota
	LocalArchival32
	GameBulkLoad
	GameBulkLoad32
	LowLatencyVFS
)

// PackingSettings configures a single ArchiveWriter.Build call.
type PackingSettings struct {
	BlockSize uint32 // stored as (power_of_two - 1)
	ChunkSize uint32 // power of two

	SolidCodec   codec.Algo
	ChunkedCodec codec.Algo
	SolidLevel   int
	ChunkedLevel int

	EnableSolidDedup   bool
	EnableChunkedDedup bool
	EnablePerExtDict   bool
	StoreHashes        bool
}

// DefaultSettings returns the packer's own out-of-the-box defaults (ZStd
// level 16 SOLID, level 9 chunked, 1 MiB block/chunk, solid dedup on),
// matching the original packing_settings.rs constructor.
func DefaultSettings() PackingSettings {
	return PackingSettings{
		BlockSize:          1_048_575,
		ChunkSize:          1_048_576,
		SolidCodec:         codec.ZStd,
		ChunkedCodec:       codec.ZStd,
		SolidLevel:         16,
		ChunkedLevel:       9,
		EnableSolidDedup:   true,
		EnableChunkedDedup: false,
	}
}

// PresetSettings returns the recommended PackingSettings for p (§5).
func PresetSettings(p Preset) PackingSettings {
	switch p {
	case LocalArchival:
		return PackingSettings{
			BlockSize: 32*1024*1024 - 1, ChunkSize: 4 * 1024 * 1024,
			SolidCodec: codec.ZStd, ChunkedCodec: codec.ZStd, SolidLevel: 16, ChunkedLevel: 16,
			EnableSolidDedup: true, EnableChunkedDedup: true, EnablePerExtDict: true, StoreHashes: true,
		}
	case LocalArchival32:
		return PackingSettings{
			BlockSize: 16*1024*1024 - 1, ChunkSize: 2 * 1024 * 1024,
			SolidCodec: codec.ZStd, ChunkedCodec: codec.ZStd, SolidLevel: 16, ChunkedLevel: 16,
			EnableSolidDedup: true, EnableChunkedDedup: true, EnablePerExtDict: true,
		}
	case GameBulkLoad:
		return PackingSettings{
			BlockSize: 4*1024*1024 - 1, ChunkSize: 1024 * 1024,
			SolidCodec: codec.LZ4, ChunkedCodec: codec.LZ4, SolidLevel: 9, ChunkedLevel: 9,
			EnableSolidDedup: true, EnablePerExtDict: true,
		}
	case GameBulkLoad32:
		return PackingSettings{
			BlockSize: 2*1024*1024 - 1, ChunkSize: 512 * 1024,
			SolidCodec: codec.LZ4, ChunkedCodec: codec.LZ4, SolidLevel: 9, ChunkedLevel: 9,
			EnableSolidDedup: true, EnablePerExtDict: true,
		}
	case LowLatencyVFS:
		return PackingSettings{
			BlockSize: 256*1024 - 1, ChunkSize: 64 * 1024,
			SolidCodec: codec.LZ4, ChunkedCodec: codec.LZ4, SolidLevel: 1, ChunkedLevel: 1,
			StoreHashes: true,
		}
	default:
		return DefaultSettings()
	}
}

// Sanitize clamps block_size/chunk_size into range, sets block_size to
// nextPowerOfTwo(block_size) - 1 and rounds chunk_size up to a power of two, ensures
// chunk_size > block_size, and clamps both codec levels — exactly the
// packer's own sanitize() step (spec.md §4.6, I6).
func (s *PackingSettings) Sanitize() {
	s.BlockSize = clampU32(s.BlockSize, MinBlockSize, MaxBlockSize)
	s.ChunkSize = clampU32(s.ChunkSize, MinChunkSize, MaxChunkSize)

	s.BlockSize = nextPowerOfTwo(s.BlockSize) - 1
	s.ChunkSize = nextPowerOfTwo(s.ChunkSize)

	if s.ChunkSize <= s.BlockSize {
		s.ChunkSize = s.BlockSize + 1
	}

	s.SolidLevel = codec.ClampLevel(s.SolidCodec, s.SolidLevel)
	s.ChunkedLevel = codec.ClampLevel(s.ChunkedCodec, s.ChunkedLevel)
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextPowerOfTwo returns the smallest power of two >= v (v >= 1).
func nextPowerOfTwo(v uint32) uint32 {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len32(v-1)
}

// baseChunkSize is the unit chunk_size is encoded as a power-of-two
// multiple of in ArchiveHeader (log2(chunk_size/512)).
const baseChunkSize = 512

// encodeChunkSize returns the header's 5-bit chunk_size field.
func encodeChunkSize(chunkSize uint32) uint8 {
	if chunkSize < baseChunkSize {
		chunkSize = baseChunkSize
	}
	return uint8(bits.TrailingZeros32(chunkSize / baseChunkSize))
}

// decodeChunkSize reverses encodeChunkSize.
func decodeChunkSize(field uint8) uint32 {
	return baseChunkSize << field
}
