package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/nx-archive/internal/archive"
	"github.com/woozymasta/nx-archive/internal/codec"
	"github.com/woozymasta/nx-archive/internal/planner"
)

// PackPackingFlags defines the archive packing parameters.
type PackPackingFlags struct {
	Preset        string `short:"P" long:"preset" description:"Named preset (explicit packing flags override its values)" choice:"local-archival" choice:"local-archival-32" choice:"game-bulk-load" choice:"game-bulk-load-32" choice:"low-latency-vfs" yaml:"preset"`
	BlockSize     uint32 `short:"b" long:"block-size" description:"SOLID block size in bytes (rounded to power-of-two - 1)" yaml:"block_size"`
	ChunkSize     uint32 `short:"k" long:"chunk-size" description:"CHUNKED chunk size in bytes (rounded up to a power of two)" yaml:"chunk_size"`
	SolidCodec    string `long:"solid-codec" description:"Codec for SOLID blocks" choice:"copy" choice:"zstd" choice:"lz4" yaml:"solid_codec"`
	ChunkedCodec  string `long:"chunked-codec" description:"Codec for CHUNKED blocks" choice:"copy" choice:"zstd" choice:"lz4" yaml:"chunked_codec"`
	SolidLevel    int    `long:"solid-level" description:"Compression level for SOLID blocks" yaml:"solid_level"`
	ChunkedLevel  int    `long:"chunked-level" description:"Compression level for CHUNKED blocks" yaml:"chunked_level"`
	NoSolidDedup  bool   `long:"no-solid-dedup" description:"Disable identical-content dedup within SOLID blocks" yaml:"no_solid_dedup"`
	ChunkedDedup  bool   `long:"chunked-dedup" description:"Enable dedup of identical whole CHUNKED files within an extension group" yaml:"chunked_dedup"`
	PerExtDict    bool   `long:"per-ext-dict" description:"Train and store a per-extension dictionary" yaml:"per_ext_dict"`
	StoreHashes   bool   `long:"store-hashes" description:"Store an xxhash per file for integrity checks" yaml:"store_hashes"`
}

// CmdPack packs a directory into an .nx archive.
type CmdPack struct {
	Name  string `long:"name" description:"Project name used by build --project (default: input directory's base name)" yaml:"name"`
	Force bool   `short:"f" long:"force" description:"Overwrite an existing output file" yaml:"force"`

	Packing PackPackingFlags `group:"Packing" yaml:"packing"`

	Args struct {
		Input  string `positional-arg-name:"input" description:"Input directory to pack" required:"yes" yaml:"input_dir"`
		Output string `positional-arg-name:"output" description:"Output .nx archive path" required:"yes" yaml:"output"`
	} `positional-args:"yes" required:"yes" yaml:"args"`
}

// Execute runs the pack command.
func (c *CmdPack) Execute(args []string) error {
	return runPack(c)
}

func runPack(opts *CmdPack) error {
	if !opts.Force {
		if _, err := os.Stat(opts.Args.Output); err == nil {
			return fmt.Errorf("output file %q exists (use --force)", opts.Args.Output)
		}
	}

	settings, err := resolvePackingSettings(&opts.Packing)
	if err != nil {
		return err
	}

	files, err := readInputFiles(opts.Args.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found under %q", opts.Args.Input)
	}

	result, err := archive.Build(files, settings)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Args.Output), 0o755); err != nil {
		return fmt.Errorf("mkdir output dir: %w", err)
	}
	if err := os.WriteFile(opts.Args.Output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	if err := writeManifest(opts.Args.Output, manifest{
		FileCount:  result.FileCount,
		BlockCount: result.BlockCount,
	}); err != nil {
		return err
	}

	return nil
}

// resolvePackingSettings turns a PackPackingFlags into archive.PackingSettings,
// starting from a named preset (archive.PresetSettings) when one is given and
// letting explicit flags override individual fields on top of it.
func resolvePackingSettings(f *PackPackingFlags) (archive.PackingSettings, error) {
	settings := archive.DefaultSettings()
	if f.Preset != "" {
		preset, err := parsePreset(f.Preset)
		if err != nil {
			return settings, err
		}
		settings = archive.PresetSettings(preset)
	}

	if f.BlockSize != 0 {
		settings.BlockSize = f.BlockSize
	}
	if f.ChunkSize != 0 {
		settings.ChunkSize = f.ChunkSize
	}
	if f.SolidCodec != "" {
		algo, err := parseCodec(f.SolidCodec)
		if err != nil {
			return settings, fmt.Errorf("--solid-codec: %w", err)
		}
		settings.SolidCodec = algo
	}
	if f.ChunkedCodec != "" {
		algo, err := parseCodec(f.ChunkedCodec)
		if err != nil {
			return settings, fmt.Errorf("--chunked-codec: %w", err)
		}
		settings.ChunkedCodec = algo
	}
	if f.SolidLevel != 0 {
		settings.SolidLevel = f.SolidLevel
	}
	if f.ChunkedLevel != 0 {
		settings.ChunkedLevel = f.ChunkedLevel
	}
	if f.NoSolidDedup {
		settings.EnableSolidDedup = false
	}
	if f.ChunkedDedup {
		settings.EnableChunkedDedup = true
	}
	if f.PerExtDict {
		settings.EnablePerExtDict = true
	}
	if f.StoreHashes {
		settings.StoreHashes = true
	}

	return settings, nil
}

func parsePreset(name string) (archive.Preset, error) {
	switch strings.ToLower(name) {
	case "local-archival":
		return archive.LocalArchival, nil
	case "local-archival-32":
		return archive.LocalArchival32, nil
	case "game-bulk-load":
		return archive.GameBulkLoad, nil
	case "game-bulk-load-32":
		return archive.GameBulkLoad32, nil
	case "low-latency-vfs":
		return archive.LowLatencyVFS, nil
	default:
		return 0, fmt.Errorf("unknown preset %q", name)
	}
}

func parseCodec(name string) (codec.Algo, error) {
	switch strings.ToLower(name) {
	case "copy":
		return codec.Copy, nil
	case "zstd":
		return codec.ZStd, nil
	case "lz4":
		return codec.LZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", name)
	}
}

// readInputFiles walks dir and loads every regular file into an
// archive.InputFile, keyed by its slash-separated path relative to dir.
func readInputFiles(dir string) ([]archive.InputFile, error) {
	var files []archive.InputFile

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("rel path %q: %w", path, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}

		files = append(files, archive.InputFile{
			RelPath:   filepath.ToSlash(rel),
			SolidPref: planner.SolidDefault,
			Data:      data,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
