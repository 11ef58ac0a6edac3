package toc

import (
	"testing"

	"github.com/woozymasta/nx-archive/internal/codec"
	"github.com/woozymasta/nx-archive/internal/nxerr"
)

func TestSelectFormatPrefersSmallestFittingPreset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		f    Feasibility
		want Format
	}{
		{
			name: "tiny no-hash archive picks Preset3NoHash",
			f:    Feasibility{BlockCount: 10, FileCount: 10},
			want: Preset3NoHash,
		},
		{
			name: "tiny hashed archive picks Preset3",
			f:    Feasibility{BlockCount: 10, FileCount: 10, HashesRequired: true},
			want: Preset3,
		},
		{
			name: "huge no-hash archive exceeding legacy limits falls to FEF64NoHash or Preset1NoHash",
			f: Feasibility{
				BlockCount:                 maxLegacyBlockCount + 1,
				FileCount:                  10,
				MaxDecompressedBlockOffset: 0,
				StringPoolSize:             10,
				MaxFileSize:                1 << 20,
			},
			want: FEF64NoHash,
		},
		{
			name: "huge hashed archive with enormous counts falls all the way to Preset2",
			f: Feasibility{
				BlockCount:     1 << 30,
				FileCount:      1 << 30,
				HashesRequired: true,
				MaxFileSize:    1 << 31,
			},
			want: Preset2,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := SelectFormat(tc.f)
			if err != nil {
				t.Fatalf("SelectFormat: %v", err)
			}
			if got != tc.want {
				t.Fatalf("SelectFormat(%+v) = %s, want %s", tc.f, got, tc.want)
			}
		})
	}
}

func TestSelectFormatImpossibleShapeErrors(t *testing.T) {
	t.Parallel()
	f := Feasibility{
		BlockCount:     1 << 40,
		FileCount:      1 << 40,
		HashesRequired: true,
	}
	if _, err := SelectFormat(f); err == nil {
		t.Fatal("expected SelectFormat to fail for a shape no format can hold")
	} else if err != nxerr.ErrNoSuitableTocFormat {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFEF64HeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := FEF64Header{
		HasHash:     true,
		StringPool:  4096,
		FileCount:   500,
		BlockCount:  80,
		OffsetField: 1 << 24,
	}
	buf := EncodeHeader(h)
	got, n := DecodeHeader(buf)
	if n != len(buf) {
		t.Fatalf("DecodeHeader consumed %d bytes, EncodeHeader produced %d", n, len(buf))
	}
	if got.HasHash != h.HasHash || got.StringPool != h.StringPool || got.FileCount != h.FileCount || got.BlockCount != h.BlockCount {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestFEF64HeaderRoundTripNeedsExtension(t *testing.T) {
	t.Parallel()

	h := FEF64Header{
		StringPool:  1 << 20,
		FileCount:   1 << 19,
		BlockCount:  1 << 18,
		OffsetField: 1 << 30,
	}
	buf := EncodeHeader(h)
	if len(buf) != 16 {
		t.Fatalf("expected 16-byte header with extension word, got %d bytes", len(buf))
	}
	got, n := DecodeHeader(buf)
	if n != 16 {
		t.Fatalf("DecodeHeader consumed %d bytes, want 16", n)
	}
	if got.StringPool != h.StringPool || got.FileCount != h.FileCount || got.BlockCount != h.BlockCount {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestFEF64EntryRoundTrip(t *testing.T) {
	t.Parallel()

	h := FEF64Header{FileCount: 1000, BlockCount: 200, OffsetField: 1 << 20}
	e := FileEntry{
		DecompressedSize:        1 << 18,
		DecompressedBlockOffset: 1 << 10,
		FilePathIndex:           77,
		FirstBlockIndex:         12,
	}
	buf := EncodeEntryNoHash(h, e)
	if len(buf) != 8 {
		t.Fatalf("entry buf len = %d, want 8", len(buf))
	}
	got := DecodeEntryNoHash(h, buf)
	if got != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestFEF64EntryHashRoundTrip(t *testing.T) {
	t.Parallel()

	h := FEF64Header{HasHash: true, FileCount: 1000, BlockCount: 200, OffsetField: 1 << 20}
	e := FileEntry{
		Hash:                    0xDEADBEEFCAFEF00D,
		DecompressedSize:        42,
		DecompressedBlockOffset: 5,
		FilePathIndex:           3,
		FirstBlockIndex:         1,
	}
	buf := EncodeEntryHash(h, e)
	if len(buf) != 16 {
		t.Fatalf("entry buf len = %d, want 16", len(buf))
	}
	got := DecodeEntryHash(h, buf)
	if got != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestPresetEntryRoundTrips(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		encode func(FileEntry) []byte
		decode func([]byte) FileEntry
		size   int
		hasOff bool
	}{
		{"Preset3NoHash", EncodePreset3NoHash, DecodePreset3NoHash, 8, false},
		{"Preset3", EncodePreset3, DecodePreset3, 16, false},
		{"Preset1NoHash", EncodePreset1NoHash, DecodePreset1NoHash, 12, true},
		{"Preset0", EncodePreset0, DecodePreset0, 20, true},
		{"Preset2", EncodePreset2, DecodePreset2, 24, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := FileEntry{
				Hash:             0x1122334455667788,
				DecompressedSize: 12345,
				FilePathIndex:    9,
				FirstBlockIndex:  3,
			}
			if tc.hasOff {
				e.DecompressedBlockOffset = 99
			}
			buf := tc.encode(e)
			if len(buf) != tc.size {
				t.Fatalf("%s entry len = %d, want %d", tc.name, len(buf), tc.size)
			}
			got := tc.decode(buf)
			want := e
			if tc.name == "Preset3NoHash" || tc.name == "Preset1NoHash" {
				want.Hash = 0
			}
			if got != want {
				t.Fatalf("%s round trip mismatch: got %+v, want %+v", tc.name, got, want)
			}
		})
	}
}

func TestBlockDescriptorRoundTrip(t *testing.T) {
	t.Parallel()

	bd := BlockDescriptor{CompressedSize: 123456, Codec: codec.ZStd}
	raw := bd.Encode()
	got := DecodeBlockDescriptor(raw)
	if got != bd {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, bd)
	}
}

func TestFormatEntrySize(t *testing.T) {
	t.Parallel()

	cases := map[Format]int{
		Preset3NoHash: 8,
		FEF64NoHash:   8,
		Preset1NoHash: 12,
		Preset3:       16,
		FEF64Hash:     16,
		Preset0:       20,
		Preset2:       24,
	}
	for f, want := range cases {
		if got := f.EntrySize(); got != want {
			t.Fatalf("%s.EntrySize() = %d, want %d", f, got, want)
		}
	}
}
