package cli

import "fmt"

// CmdList prints the table of contents of an .nx archive.
type CmdList struct {
	Long bool `short:"l" long:"long" description:"Also print block index and offset"`

	Args struct {
		Archive string `positional-arg-name:"archive" description:"Path to .nx archive" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the list command.
func (c *CmdList) Execute(args []string) error {
	return runList(c)
}

func runList(opts *CmdList) error {
	r, err := openArchive(opts.Args.Archive)
	if err != nil {
		return err
	}

	for _, e := range r.List() {
		if opts.Long {
			fmt.Printf("%10d  block=%-6d offset=%-10d %s\n", e.DecompressedSize, e.FirstBlockIndex, e.BlockOffset, e.Path)
			continue
		}
		fmt.Printf("%10d  %s\n", e.DecompressedSize, e.Path)
	}

	return nil
}
