// Package nxerr defines the error taxonomy shared across the Nx archive
// packages. Errors are sentinel values; callers use errors.Is against them
// and wrap them with context via fmt.Errorf("...: %w", err).
package nxerr

import "errors"

// Compression / codec layer.
var (
	// ErrDestinationTooSmall is returned before a codec runs if the caller's
	// destination buffer is below the algorithm's published worst case.
	ErrDestinationTooSmall = errors.New("nx: destination buffer too small")
	// ErrMaxBlockSizeNotProvided is returned by DecompressPartial for
	// block-based algorithms when max_block_size is zero.
	ErrMaxBlockSizeNotProvided = errors.New("nx: max block size must be provided for partial decompression")
	// ErrMaxBlockSizeTooSmall is returned when max_block_size is smaller than
	// the destination buffer.
	ErrMaxBlockSizeTooSmall = errors.New("nx: max block size smaller than destination buffer")
	// ErrDataSizeTooSmall reports compressed data too small for the claimed
	// output. No path in this build returns it: BZip3 partial decompression
	// returns ErrCodecNotEnabled.
	ErrDataSizeTooSmall = errors.New("nx: compressed data too small for claimed output")
	// ErrCodecNotEnabled is returned for algorithms recognized by the wire
	// format but not available in this build (BZip3; see DESIGN.md).
	ErrCodecNotEnabled = errors.New("nx: codec not enabled in this build")
	// ErrUnknownCodec is returned for an out-of-range codec tag.
	ErrUnknownCodec = errors.New("nx: unknown codec")
)

// String pool.
var (
	ErrPoolTooLarge             = errors.New("nx: string pool exceeds maximum size")
	ErrPoolExceededMaxSize      = errors.New("nx: string pool decompressed size exceeds maximum")
	ErrPoolNotEnoughData        = errors.New("nx: string pool source too short")
	ErrPoolShouldEndOnNull      = errors.New("nx: string pool data does not end on a null terminator")
	ErrPoolBufferOverflow       = errors.New("nx: string pool copy would overflow raw data buffer")
	ErrPoolFailedToCompress     = errors.New("nx: failed to compress string pool")
	ErrPoolFailedToDecompress   = errors.New("nx: failed to decompress string pool")
)

// Dictionary segment.
var (
	ErrTooManyDictionaries      = errors.New("nx: too many dictionaries (max 254)")
	ErrCompressedSizeTooLarge   = errors.New("nx: dictionary compressed size exceeds 2^27-1")
	ErrDecompressedSizeTooLarge = errors.New("nx: dictionary decompressed size exceeds 2^28-1")
	ErrDictHeaderTooLarge       = errors.New("nx: dictionary header larger than input")
	ErrDictTruncated            = errors.New("nx: dictionary payload truncated")
	ErrDictSizeMismatch         = errors.New("nx: dictionary decompressed size does not match frame output")
	ErrDictRunOverflow          = errors.New("nx: dictionary run lengths overflow last_dict_block_index")
	ErrDictIndexOutOfRange      = errors.New("nx: dictionary index out of range")
	ErrDictSizesOverflow        = errors.New("nx: dictionary sizes exceed remaining payload")
	ErrDictTooManyMappings      = errors.New("nx: too many dictionary mappings (max 2^22-1)")
	ErrDictNoBlocks             = errors.New("nx: no blocks provided to dictionary serializer")
	ErrDictTooManyBlocks        = errors.New("nx: too many blocks for a single dictionary segment")
)

// Table of contents.
var (
	ErrNoSuitableTocFormat  = errors.New("nx: no ToC format admits these inputs")
	ErrTooManyBlocksV1      = errors.New("nx: too many blocks for legacy V1 ToC (max 2^18-1)")
	ErrTooManyFilesV1       = errors.New("nx: too many files for legacy V1 ToC (max 2^20-1)")
	ErrUnsupportedTocVer    = errors.New("nx: unsupported ToC version or preset")
)

// Archive reader/writer.
var (
	ErrInsufficientData = errors.New("nx: truncated archive input")
	ErrBadMagic         = errors.New("nx: unrecognized archive magic")
)
