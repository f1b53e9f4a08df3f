package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/luasm/assembler"
)

var asmOutput string

var asmCmd = &cobra.Command{
	Use:   "asm sourceFile",
	Short: "Assemble one source file into a binary chunk",
	Long: `Asm assembles a single source file. The output defaults to the source
name with a .luac extension; "-" reads from stdin or writes to stdout.

Example source:

  .version 5.1
  .format 0
  .endianness LITTLE
  .int_size 4
  .size_t_size 4
  .instruction_size 4
  .number_format float 8

  .function main
  .source "@hello.lua"
  .linedefined 0
  .lastlinedefined 0
  .numparams 0
  .is_vararg 2
  .maxstacksize 2
  .constant k0 "print"
  .constant k1 "hello"
  getglobal r0 k0
  loadk r1 k1
  call r0 2 1
  return r0 1
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out := asmOutput
		if out == "" {
			out = defaultOutput(in)
		}
		return assembleFile(in, out, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	asmCmd.Flags().StringVarP(&asmOutput, "output", "o", "", "output file (default <source>.luac, - for stdout)")
	rootCmd.AddCommand(asmCmd)
}

func defaultOutput(in string) string {
	if in == "-" {
		return "-"
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".luac"
}

// assembleFile assembles in to out. Nothing is written when assembly fails.
func assembleFile(in, out string, stdin io.Reader, stdout io.Writer) error {
	r := stdin
	if in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var buf bytes.Buffer
	if err := assembler.Assemble(r, &buf); err != nil {
		if in != "-" {
			return &fileError{path: in, err: err}
		}
		return err
	}

	if out == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0644)
}

// fileError prefixes an error with the file it came from, in the
// file:line:col form editors understand.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string {
	var aerr *assembler.Error
	if errors.As(e.err, &aerr) && aerr.Pos.IsValid() {
		return e.path + ":" + aerr.Error()
	}
	return e.path + ": " + e.err.Error()
}

func (e *fileError) Unwrap() error { return e.err }
