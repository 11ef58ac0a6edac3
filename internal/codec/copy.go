package codec

import "github.com/woozymasta/nx-archive/internal/nxerr"

// copyMaxAlloc is the worst-case destination size for Copy: the source
// verbatim, no growth.
func copyMaxAlloc(srcLen int) int { return srcLen }

// copyCompress writes src verbatim to dst. Succeeds iff len(dst) >= len(src).
func copyCompress(src, dst []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, nxerr.ErrDestinationTooSmall
	}
	return copy(dst, src), nil
}

// copyDecompress reverses copyCompress.
func copyDecompress(src, dst []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, nxerr.ErrDestinationTooSmall
	}
	return copy(dst, src), nil
}

// copyDecompressPartial copies up to len(dst) bytes from src.
func copyDecompressPartial(src, dst []byte) (int, error) {
	n := len(dst)
	if n > len(src) {
		n = len(src)
	}
	copy(dst, src[:n])
	return n, nil
}
