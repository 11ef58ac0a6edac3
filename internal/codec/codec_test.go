package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/woozymasta/nx-archive/internal/nxerr"
)

func roundTrip(t *testing.T, algo Algo, level int, src []byte) {
	t.Helper()

	bound, err := MaxAllocForCompressSize(len(src), algo)
	if err != nil {
		t.Fatalf("MaxAllocForCompressSize: %v", err)
	}
	dst := make([]byte, bound)

	n, used, err := Compress(algo, level, src, dst)
	if err != nil {
		t.Fatalf("Compress(%s): %v", algo, err)
	}

	out := make([]byte, len(src))
	m, err := Decompress(used, dst[:n], out)
	if err != nil {
		t.Fatalf("Decompress(%s): %v", used, err)
	}
	if m != len(src) {
		t.Fatalf("Decompress(%s) n=%d, want %d", used, m, len(src))
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("Decompress(%s) output mismatch", used)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		algo Algo
	}{
		{"copy", Copy},
		{"zstd", ZStd},
		{"lz4", LZ4},
	}

	payloads := map[string][]byte{
		"empty":      {},
		"small":      []byte("hello nx archive"),
		"repetitive": bytes.Repeat([]byte("ab"), 100000),
	}

	for _, tc := range tests {
		for name, payload := range payloads {
			tc, payload := tc, payload
			t.Run(tc.name+"/"+name, func(t *testing.T) {
				t.Parallel()
				roundTrip(t, tc.algo, 0, payload)
			})
		}
	}
}

func TestCompressFallsBackToCopyOnIncompressibleData(t *testing.T) {
	t.Parallel()

	// Random-looking, small, already-dense data: any real codec's framing
	// overhead makes it larger than the source, so Compress must fall back.
	src := []byte{0x13, 0x37, 0x9a, 0x02, 0xff, 0x00, 0x5c, 0x81}

	for _, algo := range []Algo{ZStd, LZ4} {
		bound, err := MaxAllocForCompressSize(len(src), algo)
		if err != nil {
			t.Fatalf("MaxAllocForCompressSize(%s): %v", algo, err)
		}
		dst := make([]byte, bound)

		n, used, err := Compress(algo, 0, src, dst)
		if err != nil {
			t.Fatalf("Compress(%s): %v", algo, err)
		}
		if used != Copy {
			t.Fatalf("Compress(%s) on incompressible data used %s, want Copy", algo, used)
		}
		if n != len(src) {
			t.Fatalf("Compress(%s) fallback n=%d, want %d", algo, n, len(src))
		}
	}
}

func TestCompressStreamedTerminatesEarly(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte("chunked streaming payload "), 10000)
	bound, err := MaxAllocForCompressSize(len(src), LZ4)
	if err != nil {
		t.Fatalf("MaxAllocForCompressSize: %v", err)
	}
	dst := make([]byte, bound)

	calls := 0
	terminate := func() (int, bool) {
		calls++
		return 7, calls > 1
	}

	_, _, err = CompressStreamed(LZ4, 0, src, dst, terminate)
	var term *TerminatedStreamError
	if !errors.As(err, &term) {
		t.Fatalf("CompressStreamed error = %v, want *TerminatedStreamError", err)
	}
	if term.Code != 7 {
		t.Fatalf("TerminatedStreamError.Code = %d, want 7", term.Code)
	}
}

func TestDecompressPartialZStdTruncates(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte("partial read of a larger zstd frame "), 5000)
	bound, _ := MaxAllocForCompressSize(len(src), ZStd)
	dst := make([]byte, bound)

	n, used, err := Compress(ZStd, 0, src, dst)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if used != ZStd {
		t.Skip("payload compressed into a Copy fallback; nothing to truncate")
	}

	out := make([]byte, 32)
	m, err := DecompressPartial(used, dst[:n], out, 0)
	if err != nil {
		t.Fatalf("DecompressPartial: %v", err)
	}
	if m != len(out) {
		t.Fatalf("DecompressPartial n=%d, want %d", m, len(out))
	}
	if !bytes.Equal(out, src[:len(out)]) {
		t.Fatalf("DecompressPartial output mismatch")
	}
}

func TestDecompressPartialBlockBasedRequiresMaxBlockSize(t *testing.T) {
	t.Parallel()

	_, err := DecompressPartial(BZip3, nil, make([]byte, 16), 0)
	if !errors.Is(err, nxerr.ErrMaxBlockSizeNotProvided) {
		t.Fatalf("DecompressPartial error = %v, want ErrMaxBlockSizeNotProvided", err)
	}

	_, err = DecompressPartial(BZip3, nil, make([]byte, 16), 4)
	if !errors.Is(err, nxerr.ErrMaxBlockSizeTooSmall) {
		t.Fatalf("DecompressPartial error = %v, want ErrMaxBlockSizeTooSmall", err)
	}
}

func TestBZip3NotEnabled(t *testing.T) {
	t.Parallel()

	if _, _, err := Compress(BZip3, 0, []byte("x"), make([]byte, 16)); err == nil {
		t.Fatal("expected BZip3 compress to fail: codec not enabled")
	}
	if _, err := Decompress(BZip3, []byte("x"), make([]byte, 16)); err == nil {
		t.Fatal("expected BZip3 decompress to fail: codec not enabled")
	}
}

func TestUnknownCodec(t *testing.T) {
	t.Parallel()

	unknown := Algo(99)
	if _, err := MaxAllocForCompressSize(10, unknown); err == nil {
		t.Fatal("expected error for unknown codec")
	}
	if _, _, err := Compress(unknown, 0, []byte("x"), make([]byte, 16)); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}
