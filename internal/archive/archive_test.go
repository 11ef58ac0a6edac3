package archive

import (
	"bytes"
	"testing"

	"github.com/woozymasta/nx-archive/internal/codec"
)

func buildAndOpen(t *testing.T, files []InputFile, settings PackingSettings) *Reader {
	t.Helper()

	res, err := Build(files, settings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r, err := Open(res.Data, res.FileCount, res.BlockCount)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func TestBuildOpenRoundTripSmallFiles(t *testing.T) {
	t.Parallel()

	files := []InputFile{
		{RelPath: "a.txt", Data: []byte("hello world")},
		{RelPath: "b.txt", Data: []byte("goodbye world")},
		{RelPath: "c.bin", Data: bytes.Repeat([]byte{0xAB}, 64)},
	}
	settings := DefaultSettings()
	settings.EnableSolidDedup = false

	r := buildAndOpen(t, files, settings)

	entries := r.List()
	if len(entries) != len(files) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(files))
	}

	want := map[string][]byte{
		"a.txt": files[0].Data,
		"b.txt": files[1].Data,
		"c.bin": files[2].Data,
	}

	for i, e := range entries {
		wantData, ok := want[e.Path]
		if !ok {
			t.Fatalf("unexpected path %q in entry %d", e.Path, i)
		}
		got, err := r.Extract(i)
		if err != nil {
			t.Fatalf("Extract(%d) for %q: %v", i, e.Path, err)
		}
		if !bytes.Equal(got, wantData) {
			t.Fatalf("Extract(%d) for %q = %q, want %q", i, e.Path, got, wantData)
		}
	}
}

func TestBuildOpenRoundTripChunkedFile(t *testing.T) {
	t.Parallel()

	big := bytes.Repeat([]byte("0123456789abcdef"), 7000) // 112000 bytes
	files := []InputFile{
		{RelPath: "big.dat", Data: big},
	}

	settings := DefaultSettings()
	settings.BlockSize = 4095 // at the MinBlockSize floor (4095): forces chunking
	settings.ChunkSize = 4096 // clamps up to MinChunkSize (32768): exercises the multi-block path
	settings.Sanitize()

	r := buildAndOpen(t, files, settings)

	entries := r.List()
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}
	if entries[0].DecompressedSize != uint64(len(big)) {
		t.Fatalf("DecompressedSize = %d, want %d", entries[0].DecompressedSize, len(big))
	}

	got, err := r.Extract(0)
	if err != nil {
		t.Fatalf("Extract(0): %v", err)
	}
	if !bytes.Equal(got, big) {
		t.Fatalf("chunked round trip mismatch: got %d bytes, want %d", len(got), len(big))
	}
}

func TestBuildOpenRoundTripSolidGroup(t *testing.T) {
	t.Parallel()

	files := []InputFile{
		{RelPath: "a.txt", Data: []byte("one")},
		{RelPath: "b.txt", Data: []byte("two-two")},
		{RelPath: "c.txt", Data: []byte("three-three-three")},
	}
	settings := DefaultSettings()
	settings.EnableSolidDedup = false

	res, err := Build(files, settings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.BlockCount != 1 {
		t.Fatalf("BlockCount = %d, want 1 (all three files share one SOLID group)", res.BlockCount)
	}

	r, err := Open(res.Data, res.FileCount, res.BlockCount)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := r.List()
	for _, e := range entries {
		if e.FirstBlockIndex != 0 {
			t.Fatalf("entry %q FirstBlockIndex = %d, want 0", e.Path, e.FirstBlockIndex)
		}
	}

	for i, e := range entries {
		got, err := r.Extract(i)
		if err != nil {
			t.Fatalf("Extract(%d): %v", i, err)
		}
		var want []byte
		switch e.Path {
		case "a.txt":
			want = files[0].Data
		case "b.txt":
			want = files[1].Data
		case "c.txt":
			want = files[2].Data
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Extract(%d) for %q = %q, want %q", i, e.Path, got, want)
		}
	}
}

func TestBuildOpenRoundTripSolidDedupSharesOneCopy(t *testing.T) {
	t.Parallel()

	files := []InputFile{
		{RelPath: "a.txt", Data: []byte("duplicated content")},
		{RelPath: "b.txt", Data: []byte("duplicated content")},
		{RelPath: "c.txt", Data: []byte("unique content, unique")},
	}
	settings := DefaultSettings() // EnableSolidDedup true by default

	res, err := Build(files, settings)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.BlockCount != 1 {
		t.Fatalf("BlockCount = %d, want 1 (everything still fits in one SOLID block)", res.BlockCount)
	}

	r, err := Open(res.Data, res.FileCount, res.BlockCount)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := r.List()
	byPath := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}
	a, b := byPath["a.txt"], byPath["b.txt"]
	if a.FirstBlockIndex != b.FirstBlockIndex || a.BlockOffset != b.BlockOffset {
		t.Fatalf("deduplicated entries should share placement: a=%+v b=%+v", a, b)
	}

	for i, e := range entries {
		got, err := r.Extract(i)
		if err != nil {
			t.Fatalf("Extract(%d) for %q: %v", i, e.Path, err)
		}
		var want []byte
		for _, f := range files {
			if f.RelPath == e.Path {
				want = f.Data
			}
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Extract(%d) for %q = %q, want %q", i, e.Path, got, want)
		}
	}
}

func TestPackingSettingsSanitizeEnforcesChunkGreaterThanBlock(t *testing.T) {
	t.Parallel()

	s := PackingSettings{BlockSize: 100, ChunkSize: 50}
	s.Sanitize()

	if s.ChunkSize <= s.BlockSize {
		t.Fatalf("ChunkSize %d must be > BlockSize %d after Sanitize", s.ChunkSize, s.BlockSize)
	}
}

func TestPackingSettingsSanitizeClampsCodecLevel(t *testing.T) {
	t.Parallel()

	s := PackingSettings{BlockSize: 4095, ChunkSize: 32768, SolidCodec: codec.ZStd, SolidLevel: 99}
	s.Sanitize()

	if s.SolidLevel != 22 {
		t.Fatalf("SolidLevel = %d, want clamped to 22", s.SolidLevel)
	}
}

func TestArchiveHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := ArchiveHeader{
		FeatureFlags:    FeatureHasDictionary | FeatureHasHashes,
		HeaderPageCount: 3,
		ChunkSize:       1 << 20,
		Version:         5,
	}
	enc := h.Encode()

	got, err := DecodeHeader(enc[:])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Fatalf("DecodeHeader round trip = %+v, want %+v", got, h)
	}
}
