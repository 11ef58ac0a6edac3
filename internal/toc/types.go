// Package toc implements the Nx Table of Contents: the per-file and
// per-block metadata header stored near the start of an archive, in one of
// several bit-packed variants chosen by ToCSelector to minimize per-entry
// size for the archive's actual shape.
package toc

import "github.com/woozymasta/nx-archive/internal/codec"

// Format identifies a ToC entry layout, in the spec's stated preference
// order (smallest entry size first, then least decode cost).
type Format int

const (
	Preset3NoHash Format = iota // 8 B/entry, no SOLID support
	FEF64NoHash                 // 8 B/entry, per-archive bit widths
	Preset1NoHash               // 12 B/entry
	Preset3                     // 16 B/entry, with hash, no SOLID
	FEF64Hash                   // 16 B/entry
	Preset0                     // 20 B/entry, full fields + hash
	Preset2                     // 24 B/entry, final fallback
)

func (f Format) String() string {
	switch f {
	case Preset3NoHash:
		return "Preset3NoHash"
	case FEF64NoHash:
		return "FEF64NoHash"
	case Preset1NoHash:
		return "Preset1NoHash"
	case Preset3:
		return "Preset3"
	case FEF64Hash:
		return "FEF64Hash"
	case Preset0:
		return "Preset0"
	case Preset2:
		return "Preset2"
	default:
		return "Unknown"
	}
}

// supportsSolid reports whether a format can express a file's
// decompressed_block_offset (and thus membership in a SOLID block sharing
// a block with other files). Preset3 variants omit it entirely.
func (f Format) supportsSolid() bool {
	return f != Preset3 && f != Preset3NoHash
}

func (f Format) hasHash() bool {
	return f == FEF64Hash || f == Preset0 || f == Preset2 || f == Preset3
}

// FileEntry is the logical, decoded form of one ToC file record, common to
// every wire format.
type FileEntry struct {
	Hash                    uint64
	DecompressedSize        uint64
	DecompressedBlockOffset uint64
	FilePathIndex           uint64
	FirstBlockIndex         uint64
}

// BlockDescriptor is the fixed 32-bit V2 block record: a 29-bit
// compressed_size paired with a 3-bit codec tag.
type BlockDescriptor struct {
	CompressedSize uint32
	Codec          codec.Algo
}

const maxBlockDescriptorSize = 1<<29 - 1

// Encode packs a BlockDescriptor into its 4-byte little-endian wire form.
func (b BlockDescriptor) Encode() [4]byte {
	v := (b.CompressedSize & maxBlockDescriptorSize) | (uint32(b.Codec) << 29)
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// DecodeBlockDescriptor reverses Encode.
func DecodeBlockDescriptor(raw [4]byte) BlockDescriptor {
	v := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	return BlockDescriptor{
		CompressedSize: v & maxBlockDescriptorSize,
		Codec:          codec.Algo(v >> 29),
	}
}

// Feasibility is the ToCSelector's input: the archive shape that
// determines which formats can represent it.
type Feasibility struct {
	StringPoolSize             uint64
	MaxDecompressedBlockOffset uint64
	BlockCount                 uint64
	FileCount                  uint64
	HashesRequired             bool
	MaxFileSize                uint64
}
