// Package cli implements the command-line interface for nx-archive.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/nx-archive/internal/vars"
)

// Root defines global CLI flags.
type Root struct{}

// CmdVersion prints build metadata.
type CmdVersion struct{}

// Execute runs the version command.
func (c *CmdVersion) Execute(args []string) error {
	vars.Print()
	return nil
}

// Run parses arguments and executes the selected command.
func Run(args []string) error {
	var root Root

	parser := flags.NewParser(&root, flags.Default)
	parser.Name = filepath.Base(os.Args[0])

	prog := parser.Name
	if _, err := parser.AddCommand(
		"pack",
		"Pack a directory into an .nx archive",
		fmt.Sprintf(
			`Walk a directory and build an .nx archive with a chosen preset.

Examples:
  %s pack ./assets out.nx
  %s pack ./assets out.nx --preset game-bulk-load
  %s pack ./assets out.nx --solid-codec zstd --solid-level 19`,
			prog, prog, prog,
		),
		&CmdPack{},
	); err != nil {
		return err
	}

	if _, err := parser.AddCommand(
		"unpack",
		"Extract every file from an .nx archive",
		fmt.Sprintf(
			`Extract all files from an .nx archive into a directory.

Examples:
  %s unpack out.nx ./extracted
  %s unpack out.nx ./extracted --force`,
			prog, prog,
		),
		&CmdUnpack{},
	); err != nil {
		return err
	}

	if _, err := parser.AddCommand(
		"list",
		"Print the table of contents of an .nx archive",
		fmt.Sprintf(
			`List every entry stored in an .nx archive: size and path; --long adds block index and offset.

Examples:
  %s list out.nx
  %s list out.nx --long`,
			prog, prog,
		),
		&CmdList{},
	); err != nil {
		return err
	}

	if _, err := parser.AddCommand(
		"build",
		"Build projects from an .nx-archive.yaml config",
		fmt.Sprintf(
			`Run multiple pack jobs from a config file.

Examples:
  %s build ./my-nx-archive.yaml
  %s build --project assets --project dlc`,
			prog, prog,
		),
		&CmdBuild{},
	); err != nil {
		return err
	}

	if _, err := parser.AddCommand(
		"version",
		"Print build metadata",
		fmt.Sprintf(
			`Show build information.

Examples:
  %s version`,
			prog,
		),
		&CmdVersion{},
	); err != nil {
		return err
	}

	_, err := parser.ParseArgs(args)

	if err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	return nil
}
