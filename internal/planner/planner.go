// Package planner implements the Nx BlockPlanner: it groups files by
// extension and decides how each file is packed — concatenated into a
// SOLID block with its neighbors, or split into independently-decodable
// CHUNKED pieces when it exceeds the block size.
package planner

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/nx-archive/internal/codec"
	"github.com/woozymasta/nx-archive/internal/dictionary"
)

// SolidPreference overrides default SOLID-block packing for a file.
type SolidPreference int

const (
	// SolidDefault lets the planner place the file into a shared SOLID
	// block with its neighbors when it fits.
	SolidDefault SolidPreference = iota
	// NoSolid forces the file into its own single-file SOLID block.
	NoSolid
)

// File is the planner's view of a single input file: enough metadata to
// decide its placement, plus an opaque index back to the caller's own file
// record (path, data source, etc).
type File struct {
	Index       int
	Extension   string
	Size        uint64
	SolidPref   SolidPreference
	CodecPref   codec.Algo
	CodecLevel  int
}

// ChunkedPiece is one independently-decodable slice of an oversized file.
type ChunkedPiece struct {
	FileIndex    int
	StartOffset  uint64
	Size         uint64
	ChunkIndex   int
	TotalChunks  int
	Codec        codec.Algo
	CodecLevel   int
	DictIndex    uint8
}

// SolidGroup is a SOLID block: one or more files compressed together as a
// single unit.
type SolidGroup struct {
	FileIndices []int
	Size        uint64
	Codec       codec.Algo
	CodecLevel  int
	DictIndex   uint8
}

// BlockKind distinguishes a planned Block's payload.
type BlockKind int

const (
	KindChunked BlockKind = iota
	KindSolid
)

// Block is one planned compression unit, in final write order: all
// chunked pieces (in their original relative order) followed by all solid
// groups (sorted by descending size).
type Block struct {
	Kind    BlockKind
	Chunk   ChunkedPiece
	Solid   SolidGroup
}

// Options configures a single BlockPlanner.Plan call.
type Options struct {
	BlockSize uint64
	ChunkSize uint64

	// EnableSolidDedup collapses files with identical content hashes
	// within the same extension group: only the first file Plan sees is
	// ever placed in a SolidGroup, and every later duplicate is reported
	// via the returned dedupOf map instead of storing a second copy
	// (§6 supplemented feature).
	EnableSolidDedup bool
	// EnableChunkedDedup does the same for whole chunked files: a later
	// file whose full content hash matches an earlier chunked file is
	// never re-chunked, and is reported via dedupOf so the caller can
	// point it at the earlier file's existing chunk sequence instead.
	EnableChunkedDedup bool

	// ContentHash, when EnableSolidDedup/EnableChunkedDedup is set,
	// returns a content hash for deduplication purposes (typically
	// xxhash.Sum64 over the file or chunk bytes). Required when dedup
	// is enabled.
	ContentHash func(fileIndex int) uint64
}

// Plan runs the BlockPlanner algorithm over files grouped by extension,
// already grouped and size-ascending-ordered within each group as the
// caller's FileGroup requires (spec.md §3's FileGroup.files invariant).
//
// It returns the planned blocks plus dedupOf: a map from a duplicate file's
// Index to the Index of the first file seen with identical content, for
// every file Plan left out of the block list entirely because a dedup pass
// matched it to an earlier one. Callers must resolve a duplicate's on-disk
// placement (first block, offset, hash) from its canonical entry rather
// than expecting it to own a block of its own.
func Plan(groups map[string][]File, opts Options) ([]Block, map[int]int) {
	var chunked []Block
	var solids []Block
	dedupOf := make(map[int]int) // duplicate file index -> canonical file index

	for _, files := range groups {
		seenSolid := make(map[uint64]int)   // content hash -> canonical file index
		seenChunked := make(map[uint64]int) // content hash -> canonical file index

		var current []int
		var currentSum uint64

		flush := func(codecPref codec.Algo, level int) {
			if len(current) == 0 {
				return
			}
			solids = append(solids, Block{
				Kind: KindSolid,
				Solid: SolidGroup{
					FileIndices: append([]int(nil), current...),
					Size:        currentSum,
					Codec:       codecPref,
					CodecLevel:  level,
					DictIndex:   dictionary.NoDictionaryIndex,
				},
			})
			current = nil
			currentSum = 0
		}

		var groupCodec codec.Algo
		var groupLevel int
		if len(files) > 0 {
			groupCodec = files[0].CodecPref
			groupLevel = files[0].CodecLevel
		}

		for _, f := range files {
			if opts.BlockSize > 0 && f.Size > opts.BlockSize {
				if opts.EnableChunkedDedup && opts.ContentHash != nil {
					h := opts.ContentHash(f.Index)
					if canon, ok := seenChunked[h]; ok {
						dedupOf[f.Index] = canon
						continue
					}
					seenChunked[h] = f.Index
				}
				chunked = append(chunked, chunkFile(f, opts.ChunkSize)...)
				continue
			}

			if opts.BlockSize == 0 {
				chunked = append(chunked, singleFileChunk(f))
				continue
			}

			if f.SolidPref == NoSolid {
				solids = append(solids, Block{
					Kind: KindSolid,
					Solid: SolidGroup{
						FileIndices: []int{f.Index},
						Size:        f.Size,
						Codec:       f.CodecPref,
						CodecLevel:  f.CodecLevel,
						DictIndex:   dictionary.NoDictionaryIndex,
					},
				})
				continue
			}

			if opts.EnableSolidDedup && opts.ContentHash != nil {
				h := opts.ContentHash(f.Index)
				if canon, ok := seenSolid[h]; ok {
					dedupOf[f.Index] = canon
					continue
				}
				seenSolid[h] = f.Index
			}

			if currentSum+f.Size <= opts.BlockSize {
				current = append(current, f.Index)
				currentSum += f.Size
			} else {
				flush(groupCodec, groupLevel)
				current = []int{f.Index}
				currentSum = f.Size
			}
		}
		flush(groupCodec, groupLevel)
	}

	sort.SliceStable(solids, func(i, j int) bool {
		return solids[i].Solid.Size > solids[j].Solid.Size
	})

	return append(chunked, solids...), dedupOf
}

func chunkFile(f File, chunkSize uint64) []Block {
	if chunkSize == 0 {
		chunkSize = f.Size
	}
	total := int((f.Size + chunkSize - 1) / chunkSize)
	if total == 0 {
		total = 1
	}

	out := make([]Block, 0, total)
	var offset uint64
	for i := 0; i < total; i++ {
		size := chunkSize
		if offset+size > f.Size {
			size = f.Size - offset
		}
		out = append(out, Block{
			Kind: KindChunked,
			Chunk: ChunkedPiece{
				FileIndex:   f.Index,
				StartOffset: offset,
				Size:        size,
				ChunkIndex:  i,
				TotalChunks: total,
				Codec:       f.CodecPref,
				CodecLevel:  f.CodecLevel,
				DictIndex:   dictionary.NoDictionaryIndex,
			},
		})
		offset += size
	}
	return out
}

func singleFileChunk(f File) Block {
	return Block{
		Kind: KindChunked,
		Chunk: ChunkedPiece{
			FileIndex:   f.Index,
			StartOffset: 0,
			Size:        f.Size,
			ChunkIndex:  0,
			TotalChunks: 1,
			Codec:       f.CodecPref,
			CodecLevel:  f.CodecLevel,
			DictIndex:   dictionary.NoDictionaryIndex,
		},
	}
}

// HashContent is a convenience ContentHash implementation for callers that
// already have file bytes in memory.
func HashContent(data []byte) uint64 { return xxhash.Sum64(data) }
