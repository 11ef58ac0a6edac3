package codec

import "github.com/woozymasta/nx-archive/internal/nxerr"

// MaxAllocForCompressSize returns the largest dst size Compress or
// CompressStreamed could need for srcLen bytes of input under algo.
func MaxAllocForCompressSize(srcLen int, algo Algo) (int, error) {
	switch algo {
	case Copy:
		return copyMaxAlloc(srcLen), nil
	case ZStd:
		return zstdMaxAlloc(srcLen), nil
	case LZ4:
		return lz4MaxAlloc(srcLen), nil
	case BZip3:
		return bzip3MaxAlloc(srcLen), nil
	default:
		return 0, nxerr.ErrUnknownCodec
	}
}

// Compress encodes src into dst using algo at level, falling back to Copy
// when the result would not be smaller than src (§4.1/P2). usedAlgo reports
// which tag was actually written; callers persist usedAlgo, not algo.
func Compress(algo Algo, level int, src, dst []byte) (n int, usedAlgo Algo, err error) {
	n, err = compressOne(algo, level, src, dst, nil)
	if err != nil {
		return 0, algo, err
	}
	if algo != Copy && n >= len(src) {
		n, err = copyCompress(src, dst)
		if err != nil {
			return 0, algo, err
		}
		return n, Copy, nil
	}
	return n, algo, nil
}

// CompressStreamed behaves like Compress but polls terminate at
// algorithm-defined chunk boundaries, aborting with TerminatedStreamError
// when it requests a stop (§4.1/P3). The Copy fallback still applies.
func CompressStreamed(algo Algo, level int, src, dst []byte, terminate EarlyTerminate) (n int, usedAlgo Algo, err error) {
	n, err = compressOne(algo, level, src, dst, terminate)
	if err != nil {
		return 0, algo, err
	}
	if algo != Copy && n >= len(src) {
		n, err = copyCompress(src, dst)
		if err != nil {
			return 0, algo, err
		}
		return n, Copy, nil
	}
	return n, algo, nil
}

func compressOne(algo Algo, level int, src, dst []byte, terminate EarlyTerminate) (int, error) {
	level = ClampLevel(algo, level)
	switch algo {
	case Copy:
		return copyCompress(src, dst)
	case ZStd:
		if terminate == nil {
			return zstdCompress(level, src, dst)
		}
		return zstdCompressStreamed(level, src, dst, terminate)
	case LZ4:
		return lz4Compress(level, src, dst, terminate)
	case BZip3:
		if terminate == nil {
			return bzip3Compress(level, src, dst)
		}
		return bzip3CompressStreamed(level, src, dst, terminate)
	default:
		return 0, nxerr.ErrUnknownCodec
	}
}

// Decompress fully decodes src, written under algo, into dst.
func Decompress(algo Algo, src, dst []byte) (int, error) {
	switch algo {
	case Copy:
		return copyDecompress(src, dst)
	case ZStd:
		return zstdDecompress(src, dst)
	case LZ4:
		return lz4Decompress(src, dst)
	case BZip3:
		return bzip3Decompress(src, dst)
	default:
		return 0, nxerr.ErrUnknownCodec
	}
}

// DecompressPartial decodes only as much of src as is needed to fill dst.
// Block-based algorithms (BZip3) must know the on-disk block size up front
// to seek correctly; maxBlockSize==0 or a size smaller than len(dst) is
// rejected per §4.1/Q3.
func DecompressPartial(algo Algo, src, dst []byte, maxBlockSize int) (int, error) {
	if blockBased(algo) {
		if maxBlockSize == 0 {
			return 0, nxerr.ErrMaxBlockSizeNotProvided
		}
		if maxBlockSize < len(dst) {
			return 0, nxerr.ErrMaxBlockSizeTooSmall
		}
	}

	switch algo {
	case Copy:
		return copyDecompressPartial(src, dst)
	case ZStd:
		return zstdDecompressPartial(src, dst)
	case LZ4:
		return lz4DecompressUpTo(src, dst, len(dst))
	case BZip3:
		return bzip3DecompressPartial(src, dst, maxBlockSize)
	default:
		return 0, nxerr.ErrUnknownCodec
	}
}
