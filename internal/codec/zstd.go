package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/woozymasta/nx-archive/internal/nxerr"
)

var (
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
)

func sharedZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		d, err := zstd.NewReader(nil)
		if err != nil {
			panic(err) // only fails on invalid static options
		}
		zstdDecoder = d
	})
	return zstdDecoder
}

// zstdMaxAlloc mirrors the classic ZSTD_compressBound formula: the native
// library has no bound helper in the klauspost API, so we reimplement it.
func zstdMaxAlloc(srcLen int) int {
	const lowLimit = 128 * 1024
	extra := 0
	if srcLen < lowLimit {
		extra = (lowLimit - srcLen) >> 11
	}
	return srcLen + (srcLen >> 8) + extra + 64
}

func zstdEncoder(level int) (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
}

// zstdCompress compresses src into dst as a single zstd frame.
func zstdCompress(level int, src, dst []byte) (int, error) {
	bound := zstdMaxAlloc(len(src))
	if len(dst) < bound {
		return 0, nxerr.ErrDestinationTooSmall
	}

	enc, err := zstdEncoder(level)
	if err != nil {
		return 0, err
	}
	defer enc.Close()

	out := enc.EncodeAll(src, dst[:0])
	return len(out), nil
}

// zstdCompressStreamed compresses src as a sequence of independent,
// concatenated zstd frames (valid per the zstd frame-concatenation rule),
// polling terminate before encoding each ZStdStreamChunkSize chunk of src.
func zstdCompressStreamed(level int, src, dst []byte, terminate EarlyTerminate) (int, error) {
	bound := zstdMaxAlloc(len(src))
	if len(dst) < bound {
		return 0, nxerr.ErrDestinationTooSmall
	}

	enc, err := zstdEncoder(level)
	if err != nil {
		return 0, err
	}
	defer enc.Close()

	w := &destWriter{buf: dst}
	for off := 0; off < len(src) || off == 0; off += ZStdStreamChunkSize {
		if terminate != nil {
			if code, stop := terminate(); stop {
				return 0, &TerminatedStreamError{Code: code}
			}
		}
		end := off + ZStdStreamChunkSize
		if end > len(src) {
			end = len(src)
		}
		frame := enc.EncodeAll(src[off:end], nil)
		if _, werr := w.Write(frame); werr != nil {
			return 0, werr
		}
		if end == len(src) {
			break
		}
	}
	return w.n, nil
}

func zstdDecompress(src, dst []byte) (int, error) {
	out, err := sharedZstdDecoder().DecodeAll(src, dst[:0])
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, nxerr.ErrDestinationTooSmall
	}
	return len(out), nil
}

// zstdDecompressPartial decodes only as much as dst can hold. ZStd is not
// block-based, so max_block_size is ignored (§4.1).
func zstdDecompressPartial(src, dst []byte) (int, error) {
	full, err := sharedZstdDecoder().DecodeAll(src, nil)
	if err != nil {
		return 0, err
	}
	n := len(dst)
	if n > len(full) {
		n = len(full)
	}
	copy(dst, full[:n])
	return n, nil
}
