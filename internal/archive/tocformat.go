package archive

import (
	"github.com/woozymasta/nx-archive/internal/nxerr"
	"github.com/woozymasta/nx-archive/internal/toc"
)

// encodeToc serializes entries and blockDescs into the wire bytes for
// format: an optional FEF64 header (FEF64 variants only — fixed presets
// carry their identity in ArchiveHeader.Version instead), the per-file
// entries, then the block descriptors.
func encodeToc(format toc.Format, entries []toc.FileEntry, blockDescs []toc.BlockDescriptor, feas toc.Feasibility) ([]byte, *toc.FEF64Header) {
	var out []byte
	var fh *toc.FEF64Header

	switch format {
	case toc.FEF64NoHash, toc.FEF64Hash:
		h := toc.FEF64Header{
			HasHash:     format == toc.FEF64Hash,
			StringPool:  feas.StringPoolSize,
			FileCount:   feas.FileCount,
			BlockCount:  feas.BlockCount,
			OffsetField: feas.MaxDecompressedBlockOffset,
		}
		fh = &h
		out = append(out, toc.EncodeHeader(h)...)
		for _, e := range entries {
			if h.HasHash {
				out = append(out, toc.EncodeEntryHash(h, e)...)
			} else {
				out = append(out, toc.EncodeEntryNoHash(h, e)...)
			}
		}
	case toc.Preset3NoHash:
		for _, e := range entries {
			out = append(out, toc.EncodePreset3NoHash(e)...)
		}
	case toc.Preset3:
		for _, e := range entries {
			out = append(out, toc.EncodePreset3(e)...)
		}
	case toc.Preset1NoHash:
		for _, e := range entries {
			out = append(out, toc.EncodePreset1NoHash(e)...)
		}
	case toc.Preset0:
		for _, e := range entries {
			out = append(out, toc.EncodePreset0(e)...)
		}
	case toc.Preset2:
		for _, e := range entries {
			out = append(out, toc.EncodePreset2(e)...)
		}
	}

	for _, bd := range blockDescs {
		raw := bd.Encode()
		out = append(out, raw[:]...)
	}

	return out, fh
}

// decodeToc reverses encodeToc given the format (recovered from
// ArchiveHeader.Version), fileCount and blockCount. It returns the number
// of bytes of buf the ToC region actually occupied, which callers need to
// locate the string pool that immediately follows (FEF64's header grows
// from 8 to 16 bytes when its packed-count field overflows, so this can't
// be predicted from fileCount/blockCount alone).
func decodeToc(format toc.Format, buf []byte, fileCount, blockCount int) ([]toc.FileEntry, []toc.BlockDescriptor, int, error) {
	entries := make([]toc.FileEntry, fileCount)
	off := 0

	var h toc.FEF64Header
	switch format {
	case toc.FEF64NoHash, toc.FEF64Hash:
		var n int
		h, n = toc.DecodeHeader(buf)
		off += n
	}

	entrySize := format.EntrySize()
	if len(buf) < off+entrySize*fileCount {
		return nil, nil, 0, nxerr.ErrInsufficientData
	}

	for i := 0; i < fileCount; i++ {
		e := buf[off : off+entrySize]
		off += entrySize
		switch format {
		case toc.FEF64NoHash:
			entries[i] = toc.DecodeEntryNoHash(h, e)
		case toc.FEF64Hash:
			entries[i] = toc.DecodeEntryHash(h, e)
		case toc.Preset3NoHash:
			entries[i] = toc.DecodePreset3NoHash(e)
		case toc.Preset3:
			entries[i] = toc.DecodePreset3(e)
		case toc.Preset1NoHash:
			entries[i] = toc.DecodePreset1NoHash(e)
		case toc.Preset0:
			entries[i] = toc.DecodePreset0(e)
		case toc.Preset2:
			entries[i] = toc.DecodePreset2(e)
		}
	}

	if len(buf) < off+4*blockCount {
		return nil, nil, 0, nxerr.ErrInsufficientData
	}
	descs := make([]toc.BlockDescriptor, blockCount)
	for i := 0; i < blockCount; i++ {
		var raw [4]byte
		copy(raw[:], buf[off:off+4])
		off += 4
		descs[i] = toc.DecodeBlockDescriptor(raw)
	}

	return entries, descs, off, nil
}
