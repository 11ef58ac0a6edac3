package stringpool

import (
	"fmt"
	"strings"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	t.Parallel()

	paths := []string{
		"data/textures/cat.png",
		"data/textures/dog.png",
		"data/models/house.obj",
	}

	packed, err := Pack(paths)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	pool, _, err := Unpack(packed, len(paths))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	for _, p := range paths {
		if !pool.Contains(p) {
			t.Fatalf("pool does not contain %q", p)
		}
	}

	want := []string{
		"data/models/house.obj",
		"data/textures/cat.png",
		"data/textures/dog.png",
	}
	var got []string
	pool.Iter(func(s string) bool {
		got = append(got, s)
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("iter length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted order = %v, want %v", got, want)
		}
	}
}

func TestPackEmptyList(t *testing.T) {
	t.Parallel()

	packed, err := Pack(nil)
	if err != nil {
		t.Fatalf("Pack(nil): %v", err)
	}
	if len(packed) == 0 {
		t.Fatal("expected non-empty output even for an empty pool (size field + empty frame)")
	}

	pool, _, err := Unpack(packed, 0)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if pool.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", pool.Len())
	}
}

func TestPackLargeList(t *testing.T) {
	t.Parallel()

	var paths []string
	for i := 0; i < 10000; i++ {
		paths = append(paths, fmt.Sprintf("file_%05d.txt", i))
	}

	packed, err := Pack(paths)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	pool, _, err := Unpack(packed, len(paths))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if pool.Len() != len(paths) {
		t.Fatalf("Len() = %d, want %d", pool.Len(), len(paths))
	}
}

func TestUnpackInvalidData(t *testing.T) {
	t.Parallel()

	_, _, err := Unpack([]byte{0, 1, 2, 3, 4}, 1)
	if err == nil {
		t.Fatal("expected error unpacking invalid data")
	}
}

func TestPathsOver256Chars(t *testing.T) {
	t.Parallel()

	long := "/" + strings.Repeat("a", 255) + "/file.txt"
	paths := []string{long, "data/textures/cat.png"}

	packed, err := Pack(paths)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	pool, _, err := Unpack(packed, len(paths))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	for _, p := range paths {
		if !pool.Contains(p) {
			t.Fatalf("pool does not contain long path")
		}
	}
}

func TestNonASCIIPaths(t *testing.T) {
	t.Parallel()

	paths := []string{
		"data/textures/猫.png",
		"data/models/家.obj",
		"data/音楽/曲.mp3",
	}

	packed, err := Pack(paths)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	pool, _, err := Unpack(packed, len(paths))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	for _, p := range paths {
		if !pool.Contains(p) {
			t.Fatalf("pool does not contain %q", p)
		}
	}
}
