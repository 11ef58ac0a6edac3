package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/woozymasta/nx-archive/internal/archive"
)

// CmdUnpack extracts every file from an .nx archive into a directory.
type CmdUnpack struct {
	Force bool `short:"f" long:"force" description:"Overwrite existing output files"`

	Args struct {
		Archive string `positional-arg-name:"archive" description:"Path to .nx archive" required:"yes"`
		OutDir  string `positional-arg-name:"out-dir" description:"Directory to extract into" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the unpack command.
func (c *CmdUnpack) Execute(args []string) error {
	return runUnpack(c)
}

func runUnpack(opts *CmdUnpack) error {
	r, err := openArchive(opts.Args.Archive)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.Args.OutDir, 0o755); err != nil {
		return fmt.Errorf("mkdir output dir: %w", err)
	}

	entries := r.List()
	for i, e := range entries {
		outPath := filepath.Join(opts.Args.OutDir, filepath.FromSlash(e.Path))

		if !opts.Force {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("output file %q exists (use --force)", outPath)
			}
		}

		data, err := r.Extract(i)
		if err != nil {
			return fmt.Errorf("extract %q: %w", e.Path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", filepath.Dir(outPath), err)
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("write %q: %w", outPath, err)
		}
	}

	return nil
}

// openArchive reads an archive file from disk together with the sidecar
// manifest writeManifest left next to it, and opens it for reading.
func openArchive(path string) (*archive.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	m, err := readManifest(path)
	if err != nil {
		return nil, fmt.Errorf("archive %q has no manifest: %w", path, err)
	}

	r, err := archive.Open(data, m.FileCount, m.BlockCount)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	return r, nil
}
