// Package archive implements the Nx ArchiveWriter/Reader glue: it wires
// the codec, dictionary, string pool, planner and ToC packages together
// into the on-disk archive format described by §4.6 and §6.
package archive

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/woozymasta/nx-archive/internal/codec"
	"github.com/woozymasta/nx-archive/internal/dictionary"
	"github.com/woozymasta/nx-archive/internal/planner"
	"github.com/woozymasta/nx-archive/internal/stringpool"
	"github.com/woozymasta/nx-archive/internal/toc"
)

// InputFile is one file offered to the archive writer: its archive-relative
// path, packing preferences, and its full contents.
type InputFile struct {
	RelPath   string
	SolidPref planner.SolidPreference
	CodecPref codec.Algo // zero value (Copy) means "use the group's codec default"
	Data      []byte
}

// BuildResult is the archive bytes plus the counts a caller must pass back
// into Open (the wire format carries no redundant top-level file/block
// count of its own — see Open's doc comment).
type BuildResult struct {
	Data       []byte
	FileCount  int
	BlockCount int
}

// Build assembles a complete archive from files under settings, returning
// the archive bytes in one buffer. Sanitize is applied to settings before
// use, matching the writer's own sanitation contract (§4.6).
func Build(files []InputFile, settings PackingSettings) (BuildResult, error) {
	settings.Sanitize()

	groups := make(map[string][]planner.File)
	byIndex := make([][]byte, len(files))
	paths := make([]string, len(files))

	for i, f := range files {
		byIndex[i] = f.Data
		paths[i] = filepath.ToSlash(f.RelPath)

		ext := strings.TrimPrefix(filepath.Ext(f.RelPath), ".")
		codecPref, level := settings.SolidCodec, settings.SolidLevel
		if f.CodecPref != codec.Copy {
			codecPref = f.CodecPref
		}
		groups[ext] = append(groups[ext], planner.File{
			Index:      i,
			Extension:  ext,
			Size:       uint64(len(f.Data)),
			SolidPref:  f.SolidPref,
			CodecPref:  codecPref,
			CodecLevel: level,
		})
	}
	for ext := range groups {
		sort.SliceStable(groups[ext], func(i, j int) bool {
			return groups[ext][i].Size < groups[ext][j].Size
		})
	}

	// Chunked-file codec preference overrides the SOLID default for any
	// file the planner ends up chunking; give chunked files their own
	// preference up front so Plan's per-group codec (drawn from the
	// group's first file) doesn't leak the SOLID codec into chunks.
	for ext, gfiles := range groups {
		for i := range gfiles {
			if uint64(len(byIndex[gfiles[i].Index])) > uint64(settings.BlockSize) {
				gfiles[i].CodecPref = settings.ChunkedCodec
				gfiles[i].CodecLevel = settings.ChunkedLevel
			}
		}
		groups[ext] = gfiles
	}

	opts := planner.Options{
		BlockSize:          uint64(settings.BlockSize),
		ChunkSize:          uint64(settings.ChunkSize),
		EnableSolidDedup:   settings.EnableSolidDedup,
		EnableChunkedDedup: settings.EnableChunkedDedup,
		ContentHash: func(fileIndex int) uint64 {
			return xxhash.Sum64(byIndex[fileIndex])
		},
	}
	blocks, dedupOf := planner.Plan(groups, opts)

	// Train one dictionary per extension group with enough sample files
	// (§4.2); extByFile recovers each block's owning extension so the
	// right dictionary index can be stamped onto it below, since a
	// planner Block only carries file indices, not the extension they
	// came from.
	var dictionaries [][]byte
	extDictIndex := make(map[string]uint8)
	extByFile := make(map[int]string, len(files))
	for ext, gfiles := range groups {
		for _, gf := range gfiles {
			extByFile[gf.Index] = ext
		}
		if !settings.EnablePerExtDict || len(gfiles) < dictionary.MinTrainingSamples {
			continue
		}
		if len(dictionaries) >= dictionary.MaxDictionaries {
			continue
		}
		samples := make([][]byte, len(gfiles))
		for i, gf := range gfiles {
			samples[i] = byIndex[gf.Index]
		}
		if d := dictionary.Train(samples); d != nil {
			extDictIndex[ext] = uint8(len(dictionaries))
			dictionaries = append(dictionaries, d)
		}
	}
	dictIndexForFile := func(fileIndex int) uint8 {
		idx, ok := extDictIndex[extByFile[fileIndex]]
		if !ok {
			return dictionary.NoDictionaryIndex
		}
		return idx
	}

	// String pool: Pack sorts its own copy, so compute the same sorted
	// order here to recover each path's pool index.
	sortedPaths := append([]string(nil), paths...)
	sort.Strings(sortedPaths)
	pathIndex := make(map[string]int, len(sortedPaths))
	for i, p := range sortedPaths {
		pathIndex[p] = i
	}

	entries := make([]toc.FileEntry, len(files))
	for i, p := range paths {
		entries[i].FilePathIndex = uint64(pathIndex[p])
		entries[i].DecompressedSize = uint64(len(byIndex[i]))
	}

	blockDescs := make([]toc.BlockDescriptor, len(blocks))
	blockPayloads := make([][]byte, len(blocks))
	dictIndices := make([]uint8, len(blocks))

	for bi, b := range blocks {
		switch b.Kind {
		case planner.KindChunked:
			c := b.Chunk
			data := byIndex[c.FileIndex][c.StartOffset : c.StartOffset+c.Size]
			compressed, usedAlgo, err := compressBlock(c.Codec, c.CodecLevel, data)
			if err != nil {
				return BuildResult{}, err
			}
			blockDescs[bi] = toc.BlockDescriptor{CompressedSize: uint32(len(compressed)), Codec: usedAlgo}
			blockPayloads[bi] = compressed
			dictIndices[bi] = dictIndexForFile(c.FileIndex)
			if c.ChunkIndex == 0 {
				entries[c.FileIndex].FirstBlockIndex = uint64(bi)
				entries[c.FileIndex].Hash = xxhash.Sum64(byIndex[c.FileIndex])
			}

		case planner.KindSolid:
			g := b.Solid
			var payload []byte
			var offset uint64
			for _, fi := range g.FileIndices {
				entries[fi].FirstBlockIndex = uint64(bi)
				entries[fi].DecompressedBlockOffset = offset
				entries[fi].Hash = xxhash.Sum64(byIndex[fi])
				payload = append(payload, byIndex[fi]...)
				offset += uint64(len(byIndex[fi]))
			}
			compressed, usedAlgo, err := compressBlock(g.Codec, g.CodecLevel, payload)
			if err != nil {
				return BuildResult{}, err
			}
			blockDescs[bi] = toc.BlockDescriptor{CompressedSize: uint32(len(compressed)), Codec: usedAlgo}
			blockPayloads[bi] = compressed
			if len(g.FileIndices) > 0 {
				dictIndices[bi] = dictIndexForFile(g.FileIndices[0])
			} else {
				dictIndices[bi] = dictionary.NoDictionaryIndex
			}
		}
	}

	// Duplicate files never went into a block of their own (planner.Plan
	// left them out of blocks entirely); point each one at its canonical
	// twin's existing placement instead of storing a second copy.
	for dupIdx, canonIdx := range dedupOf {
		entries[dupIdx].FirstBlockIndex = entries[canonIdx].FirstBlockIndex
		entries[dupIdx].DecompressedBlockOffset = entries[canonIdx].DecompressedBlockOffset
		entries[dupIdx].Hash = xxhash.Sum64(byIndex[dupIdx])
	}

	poolBytes, err := stringpool.Pack(paths)
	if err != nil {
		return BuildResult{}, err
	}

	var dictHeader dictionary.DictionariesHeader
	var dictPayload []byte
	hasDict := len(dictionaries) > 0
	if hasDict {
		dictHeader, dictPayload, err = dictionary.Serialize(dictionaries, dictIndices, settings.StoreHashes)
		if err != nil {
			// Serialize failed (for example a size limit of the segment
			// was exceeded); proceed without a dictionary segment rather
			// than failing the whole build.
			hasDict = false
		}
	}

	var maxOffset, maxFileSize uint64
	for _, e := range entries {
		if e.DecompressedBlockOffset > maxOffset {
			maxOffset = e.DecompressedBlockOffset
		}
		if e.DecompressedSize > maxFileSize {
			maxFileSize = e.DecompressedSize
		}
	}

	format, err := toc.SelectFormat(toc.Feasibility{
		StringPoolSize:             uint64(len(poolBytes)),
		MaxDecompressedBlockOffset: maxOffset,
		BlockCount:                 uint64(len(blocks)),
		FileCount:                  uint64(len(files)),
		HashesRequired:             settings.StoreHashes,
		MaxFileSize:                maxFileSize,
	})
	if err != nil {
		return BuildResult{}, err
	}

	tocBytes, _ := encodeToc(format, entries, blockDescs, toc.Feasibility{
		StringPoolSize:             uint64(len(poolBytes)),
		MaxDecompressedBlockOffset: maxOffset,
		BlockCount:                 uint64(len(blocks)),
		FileCount:                  uint64(len(files)),
	})

	headerRegion := len(tocBytes) + len(poolBytes)
	if hasDict {
		headerRegion += 8 + len(dictPayload)
	}
	pageCount := pageAlign(headerSizeBytes+headerRegion) / pageSize

	var flags uint8
	if hasDict {
		flags |= FeatureHasDictionary
	}
	if settings.StoreHashes {
		flags |= FeatureHasHashes
	}

	hdr := ArchiveHeader{
		FeatureFlags:    flags,
		HeaderPageCount: uint16(pageCount),
		ChunkSize:       settings.ChunkSize,
		Version:         uint8(format),
	}
	hdrBytes := hdr.Encode()

	out := make([]byte, 0, pageCount*pageSize+totalLen(blockPayloads))
	out = append(out, hdrBytes[:]...)
	out = append(out, tocBytes...)
	out = append(out, poolBytes...)
	if hasDict {
		dhBytes := dictHeader.Bytes()
		out = append(out, dhBytes[:]...)
		out = append(out, dictPayload...)
	}
	for len(out) < pageCount*pageSize {
		out = append(out, 0)
	}
	for _, p := range blockPayloads {
		out = append(out, p...)
	}

	return BuildResult{Data: out, FileCount: len(files), BlockCount: len(blocks)}, nil
}

func compressBlock(algo codec.Algo, level int, data []byte) ([]byte, codec.Algo, error) {
	bound, err := codec.MaxAllocForCompressSize(len(data), algo)
	if err != nil {
		return nil, algo, err
	}
	dst := make([]byte, bound)
	n, used, err := codec.Compress(algo, level, data, dst)
	if err != nil {
		return nil, algo, err
	}
	return dst[:n], used, nil
}

func totalLen(bufs [][]byte) int {
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	return n
}
