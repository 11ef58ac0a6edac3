package codec

import "github.com/woozymasta/nx-archive/internal/nxerr"

// BZip3 has no maintained Go binding in the ecosystem this module draws
// from. The original Rust implementation gates BZip3 behind a Cargo feature
// and returns Bzip3NotEnabled when it is off; we mirror that rather than
// silently dropping the algorithm tag or faking a codec. See DESIGN.md.

func bzip3MaxAlloc(srcLen int) int { return srcLen }

func bzip3Compress(int, []byte, []byte) (int, error) {
	return 0, nxerr.ErrCodecNotEnabled
}

func bzip3CompressStreamed(level int, src, dst []byte, terminate EarlyTerminate) (int, error) {
	if terminate != nil {
		if code, stop := terminate(); stop {
			return 0, &TerminatedStreamError{Code: code}
		}
	}
	return 0, nxerr.ErrCodecNotEnabled
}

func bzip3Decompress([]byte, []byte) (int, error) {
	return 0, nxerr.ErrCodecNotEnabled
}

func bzip3DecompressPartial([]byte, []byte, int) (int, error) {
	return 0, nxerr.ErrCodecNotEnabled
}
