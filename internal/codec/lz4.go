package codec

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
	"github.com/woozymasta/nx-archive/internal/nxerr"
)

// lz4MaxAlloc bounds the LZ4 "chunk stream" wire format used by this codec:
// one 4-byte chunk-size prefix per LZ4StreamChunkSize-sized chunk of src,
// each chunk bounded by pierrec's own CompressBlockBound.
func lz4MaxAlloc(srcLen int) int {
	if srcLen == 0 {
		return 4 + lz4.CompressBlockBound(0)
	}
	chunks := (srcLen + LZ4StreamChunkSize - 1) / LZ4StreamChunkSize
	return chunks * (4 + lz4.CompressBlockBound(LZ4StreamChunkSize))
}

// lz4Compress serves both Compress and CompressStreamed (terminate is nil
// for the former) and emits one wire format: a
// sequence of [u32 compressed_chunk_size][compressed bytes] chunks, each
// covering up to LZ4StreamChunkSize bytes of src. This is the same
// chunk-stream shape the teacher's EDDS writer uses for LZ4 mip data
// (internal/edds/edds.go), generalized to arbitrary payloads. Sharing one
// format between the streamed and non-streamed entry points means
// Decompress never needs to know which path produced its input.
func lz4Compress(level int, src, dst []byte, terminate EarlyTerminate) (int, error) {
	w := &destWriter{buf: dst}
	hc := level > 1

	scratch := make([]byte, lz4.CompressBlockBound(LZ4StreamChunkSize))

	for off := 0; off < len(src) || off == 0; off += LZ4StreamChunkSize {
		if terminate != nil {
			if code, stop := terminate(); stop {
				return 0, &TerminatedStreamError{Code: code}
			}
		}

		end := off + LZ4StreamChunkSize
		if end > len(src) {
			end = len(src)
		}
		chunk := src[off:end]

		var n int
		var err error
		if hc {
			n, err = lz4.CompressBlockHC(chunk, scratch, lz4.CompressionLevel(level), nil, nil)
		} else {
			n, err = lz4.CompressBlock(chunk, scratch, nil)
		}
		if err != nil {
			return 0, err
		}

		// CompressBlock(HC) returns n==0 when the chunk did not compress;
		// store it verbatim with a sentinel size of len(chunk)|1<<31.
		var hdr [4]byte
		if n == 0 || n >= len(chunk) {
			binary.LittleEndian.PutUint32(hdr[:], uint32(len(chunk))|storedChunkFlag)
			if _, werr := w.Write(hdr[:]); werr != nil {
				return 0, werr
			}
			if _, werr := w.Write(chunk); werr != nil {
				return 0, werr
			}
		} else {
			binary.LittleEndian.PutUint32(hdr[:], uint32(n))
			if _, werr := w.Write(hdr[:]); werr != nil {
				return 0, werr
			}
			if _, werr := w.Write(scratch[:n]); werr != nil {
				return 0, werr
			}
		}

		if end == len(src) {
			break
		}
	}

	return w.n, nil
}

// storedChunkFlag marks a chunk-stream entry as stored verbatim (the chunk
// itself did not compress). It is disjoint from any real compressed size
// because a single chunk never exceeds LZ4StreamChunkSize.
const storedChunkFlag = uint32(1) << 31

func lz4Decompress(src, dst []byte) (int, error) {
	return lz4DecompressUpTo(src, dst, len(dst))
}

// lz4DecompressUpTo decodes the chunk-stream format, stopping once limit
// bytes have been written to dst.
func lz4DecompressUpTo(src, dst []byte, limit int) (int, error) {
	written := 0
	off := 0
	for written < limit {
		if off+4 > len(src) {
			return written, nxerr.ErrInsufficientData
		}
		hdr := binary.LittleEndian.Uint32(src[off : off+4])
		off += 4

		stored := hdr&storedChunkFlag != 0
		size := int(hdr &^ storedChunkFlag)
		if off+size > len(src) {
			return written, nxerr.ErrInsufficientData
		}
		body := src[off : off+size]
		off += size

		remaining := limit - written
		if stored {
			n := size
			if n > remaining {
				n = remaining
			}
			copy(dst[written:written+n], body[:n])
			written += n
		} else {
			// Decode the full chunk, then copy up to `remaining` bytes.
			// Chunk decompressed size is at most LZ4StreamChunkSize.
			scratch := make([]byte, LZ4StreamChunkSize)
			n, err := lz4.UncompressBlock(body, scratch)
			if err != nil {
				return written, err
			}
			take := n
			if take > remaining {
				take = remaining
			}
			copy(dst[written:written+take], scratch[:take])
			written += take
		}

		if off >= len(src) {
			break
		}
	}
	return written, nil
}
