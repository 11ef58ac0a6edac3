package toc

import "github.com/woozymasta/nx-archive/internal/nxerr"

// fef64FieldLimitBits is the widest a FEF64 descriptor field can be: each
// of string_pool_size/file_count/block_count/decompressed_block_offset is
// recorded in the header as a 5-bit width, 0-31.
const fef64FieldLimitBits = 31

// fef64EntryBits is the total width of one FEF64 file entry (one u64 word
// when no hash is present).
const fef64EntryBits = 64

// fef64Widths returns the bit width each FEF64 field needs to hold the
// given feasibility's maximums.
func fef64Widths(f Feasibility) (poolBits, fileBits, blockBits, offsetBits uint) {
	poolBits = bitsNeeded(f.StringPoolSize)
	fileBits = bitsNeeded(f.FileCount)
	blockBits = bitsNeeded(f.BlockCount)
	offsetBits = bitsNeeded(f.MaxDecompressedBlockOffset)
	return
}

// fef64Feasible reports whether FEF64 can represent this archive: every
// per-archive width descriptor must fit in 5 bits, and what remains of the
// 64-bit entry word after file_path_index/first_block_index/
// decompressed_block_offset must be enough to hold decompressed_size.
func fef64Feasible(f Feasibility) bool {
	poolBits, fileBits, blockBits, offsetBits := fef64Widths(f)
	if poolBits > fef64FieldLimitBits || fileBits > fef64FieldLimitBits ||
		blockBits > fef64FieldLimitBits || offsetBits > fef64FieldLimitBits {
		return false
	}
	used := fileBits + blockBits + offsetBits
	if used >= fef64EntryBits {
		return false
	}
	sizeBits := fef64EntryBits - used
	return bitsNeeded(f.MaxFileSize) <= sizeBits
}

// Legacy V1 ToC limits, retained only as the field widths Preset3NoHash
// and Preset3 are built around (Open Question Q2: writers only ever
// emit these as part of a V2 ToC; V1 itself is read-only legacy support).
const (
	maxLegacyBlockCount = 1<<18 - 1
	maxLegacyFileCount  = 1<<20 - 1
)

// fitsFormat reports whether format can represent an archive of this shape:
// the legacy block/file count ceiling, the 26-bit size field, and — since supportsSolid() is false
// for Preset3/Preset3NoHash, which carry no decompressed_block_offset field
// at all — that the archive never needs a nonzero SOLID offset unless the
// format actually has somewhere to put one.
func fitsFormat(format Format, f Feasibility) bool {
	if f.MaxDecompressedBlockOffset != 0 && !format.supportsSolid() {
		return false
	}
	return f.BlockCount <= maxLegacyBlockCount && f.FileCount <= maxLegacyFileCount &&
		f.MaxFileSize <= 1<<p3Size-1
}

// SelectFormat implements the ToC format selector: the narrowest entry
// layout that can losslessly represent this archive's shape, in the
// spec's fixed preference order. Preset2 is the last fallback; when even its
// 32-bit fields cannot hold the counts, the largest file size or the largest
// block offset, SelectFormat returns ErrNoSuitableTocFormat.
func SelectFormat(f Feasibility) (Format, error) {
	p01Fits := f.BlockCount <= 1<<p01FirstBlock-1 && f.FileCount <= 1<<p01FilePath-1 &&
		f.MaxFileSize <= 1<<p01Size-1 && f.MaxDecompressedBlockOffset <= 1<<p01Offset-1
	p2Fits := f.BlockCount <= 1<<p2FirstBlock-1 && f.FileCount <= 1<<p2FilePath-1 &&
		f.MaxFileSize <= 1<<p2Size-1 && f.MaxDecompressedBlockOffset <= 1<<p2Offset-1

	if !f.HashesRequired {
		if fitsFormat(Preset3NoHash, f) {
			return Preset3NoHash, nil
		}
		if fef64Feasible(f) {
			return FEF64NoHash, nil
		}
		if p01Fits {
			return Preset1NoHash, nil
		}
		// No-SOLID-capable formats are exhausted; fall through to the
		// hashed/SOLID-capable tiers below, which can still represent a
		// no-hash archive (hash field just goes unused).
	}

	if fitsFormat(Preset3, f) {
		return Preset3, nil
	}
	if fef64Feasible(f) {
		return FEF64Hash, nil
	}
	if p01Fits {
		return Preset0, nil
	}
	if p2Fits {
		return Preset2, nil
	}
	return 0, nxerr.ErrNoSuitableTocFormat
}
