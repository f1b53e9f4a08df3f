package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/luasm/pkg/listing"
	"github.com/chazu/luasm/pkg/luac"
)

var dumpCBOR bool

var dumpCmd = &cobra.Command{
	Use:   "dump chunkFile",
	Short: "Print a binary chunk as assembler source",
	Long: `Dump decodes a Lua 5.1 binary chunk and prints it in the directive
language accepted by "luasm asm". Chunks written by luasm reassemble to the
same bytes. Chunks from the stock luac compiler reassemble to an equivalent
chunk, but nested functions gain a one-byte empty source name where luac
writes a zero-length string.
With --cbor the chunk is written as a canonical CBOR document instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpFile(args[0], dumpCBOR, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpCBOR, "cbor", false, "write a CBOR listing instead of source text")
	rootCmd.AddCommand(dumpCmd)
}

func dumpFile(in string, asCBOR bool, stdin io.Reader, stdout io.Writer) error {
	var data []byte
	var err error
	if in == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(in)
	}
	if err != nil {
		return err
	}

	c, err := luac.Decode(data)
	if err != nil {
		return &fileError{path: in, err: err}
	}

	if asCBOR {
		out, err := listing.Marshal(c)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}
	_, err = io.WriteString(stdout, c.Disassemble())
	return err
}
