package codec

import "github.com/woozymasta/nx-archive/internal/nxerr"

// EarlyTerminate is polled at algorithm-defined boundaries during a streamed
// compress call. Returning stop=true aborts the operation with
// TerminatedStream(code) without modifying dst's valid prefix.
type EarlyTerminate func() (code int, stop bool)

// TerminatedStreamError reports that an EarlyTerminate callback asked a
// streamed compress call to stop.
type TerminatedStreamError struct {
	Code int
}

func (e *TerminatedStreamError) Error() string {
	return "nx: compression stream terminated early"
}

// destWriter writes into a fixed, caller-owned buffer, reporting
// ErrDestinationTooSmall instead of growing past its capacity. It backs the
// streamed codec paths that otherwise write to an io.Writer.
type destWriter struct {
	buf []byte
	n   int
}

func (w *destWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > len(w.buf) {
		return 0, nxerr.ErrDestinationTooSmall
	}
	copy(w.buf[w.n:], p)
	w.n += len(p)
	return len(p), nil
}

// LZ4StreamChunkSize is the per-chunk boundary at which compress_streamed
// polls EarlyTerminate for LZ4, per spec §4.1.
const LZ4StreamChunkSize = 128 * 1024

// ZStdStreamChunkSize is the per-chunk boundary at which compress_streamed
// polls EarlyTerminate for ZStd. Not specified numerically by spec.md
// (only "per input chunk"); chosen to match LZ4's granularity. See
// DESIGN.md.
const ZStdStreamChunkSize = 128 * 1024
