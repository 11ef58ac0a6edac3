package archive

import (
	"github.com/woozymasta/nx-archive/internal/codec"
	"github.com/woozymasta/nx-archive/internal/dictionary"
	"github.com/woozymasta/nx-archive/internal/nxerr"
	"github.com/woozymasta/nx-archive/internal/stringpool"
	"github.com/woozymasta/nx-archive/internal/toc"
)

// Entry is one file as exposed by Reader.List: its path, decompressed
// size, and which block(s) hold its data.
type Entry struct {
	Path             string
	DecompressedSize uint64
	FirstBlockIndex  int
	BlockOffset      uint64
}

// Reader is an opened, parsed archive ready for listing and extraction.
type Reader struct {
	header     ArchiveHeader
	entries    []toc.FileEntry
	blockDescs []toc.BlockDescriptor
	blockOffs  []int // byte offset of each block's compressed payload
	pool       *stringpool.Pool
	dicts      *dictionary.Dictionaries
	data       []byte
}

// Open parses an archive previously produced by Build. fileCount and
// blockCount must be supplied by the caller — BuildResult carries them
// back from Build, since the wire format itself has no redundant stored
// file/block count outside the ToC header's own width descriptors,
// mirroring the legacy presets' reliance on externally-tracked counts.
func Open(data []byte, fileCount, blockCount int) (*Reader, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	format := toc.Format(hdr.Version)
	region := data[headerSizeBytes:]

	entries, descs, tocSize, err := decodeToc(format, region, fileCount, blockCount)
	if err != nil {
		return nil, err
	}

	poolStart := tocSize
	pool, poolEnd, err := readPool(region[poolStart:], fileCount)
	if err != nil {
		return nil, err
	}
	poolEnd += poolStart

	blockOffs := make([]int, len(descs))
	off := int(hdr.HeaderPageCount) * pageSize
	for i, d := range descs {
		blockOffs[i] = off
		off += int(d.CompressedSize)
	}

	r := &Reader{
		header:     hdr,
		entries:    entries,
		blockDescs: descs,
		blockOffs:  blockOffs,
		pool:       pool,
		data:       data,
	}

	if hdr.FeatureFlags&FeatureHasDictionary != 0 {
		dicts, err := dictionary.Deserialize(region[poolEnd:])
		if err != nil {
			return nil, err
		}
		r.dicts = dicts
	}

	return r, nil
}

func readPool(buf []byte, fileCount int) (*stringpool.Pool, int, error) {
	return stringpool.Unpack(buf, fileCount)
}

// List returns every file in the archive, in ToC entry order.
func (r *Reader) List() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		path, _ := r.pool.Get(int(e.FilePathIndex))
		out[i] = Entry{
			Path:             path,
			DecompressedSize: e.DecompressedSize,
			FirstBlockIndex:  int(e.FirstBlockIndex),
			BlockOffset:      e.DecompressedBlockOffset,
		}
	}
	return out
}

// Extract decompresses and returns the full contents of the file at
// entries[index].
//
// A file that fits in a single chunk decodes from exactly one block: a
// SOLID member shares that block with neighbors and is recovered by
// slicing at decompressed_block_offset; a single-chunk CHUNKED file is
// the block's entire decompressed content. A file whose decompressed
// size exceeds one chunk was necessarily CHUNKED (SOLID members can never
// exceed block_size, and chunk_size > block_size always — I6), so it
// spans ceil(decompressed_size / chunk_size) consecutive blocks starting
// at first_block_index, each decoding to exactly chunk_size bytes except
// the last.
func (r *Reader) Extract(index int) ([]byte, error) {
	if index < 0 || index >= len(r.entries) {
		return nil, nxerr.ErrInsufficientData
	}
	e := r.entries[index]
	firstBlock := int(e.FirstBlockIndex)

	chunkSize := uint64(r.header.ChunkSize)
	if e.DecompressedSize <= chunkSize {
		if firstBlock >= len(r.blockDescs) {
			return nil, nxerr.ErrInsufficientData
		}
		desc := r.blockDescs[firstBlock]
		blockDecompressedSize := e.DecompressedBlockOffset + e.DecompressedSize
		full := make([]byte, blockDecompressedSize)
		n, err := codec.DecompressPartial(desc.Codec, r.blockBytes(firstBlock), full, int(chunkSize))
		if err != nil {
			return nil, err
		}
		end := e.DecompressedBlockOffset + e.DecompressedSize
		if end > uint64(n) {
			end = uint64(n)
		}
		return full[e.DecompressedBlockOffset:end], nil
	}

	totalChunks := int((e.DecompressedSize + chunkSize - 1) / chunkSize)
	out := make([]byte, 0, e.DecompressedSize)
	remaining := e.DecompressedSize
	for i := 0; i < totalChunks; i++ {
		block := firstBlock + i
		if block >= len(r.blockDescs) {
			return nil, nxerr.ErrInsufficientData
		}
		want := chunkSize
		if want > remaining {
			want = remaining
		}
		desc := r.blockDescs[block]
		dst := make([]byte, want)
		n, err := codec.DecompressPartial(desc.Codec, r.blockBytes(block), dst, int(chunkSize))
		if err != nil {
			return nil, err
		}
		out = append(out, dst[:n]...)
		remaining -= uint64(n)
	}
	return out, nil
}

func (r *Reader) blockBytes(index int) []byte {
	off := r.blockOffs[index]
	size := int(r.blockDescs[index].CompressedSize)
	return r.data[off : off+size]
}
