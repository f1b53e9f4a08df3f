// luasm assembles Lua 5.1 assembler listings into binary chunks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var (
	verbosity int
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "luasm",
	Short: "Lua 5.1 bytecode assembler",
	Long: `luasm reads the directive language printed by "luasm dump" and writes
Lua 5.1 binary chunks that the stock interpreter can load.

A source file starts with ".version 5.1", sets every header field, then
declares functions with .function and fills them with directives and
instructions. See "luasm help asm" for an example.
`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRun:  func(cmd *cobra.Command, args []string) { configureLogging(verbosity, logFile) },
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
}

func configureLogging(verbosity int, path string) {
	if path == "" {
		commonlog.Configure(verbosity, nil)
		return
	}
	commonlog.Configure(verbosity, &path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "luasm: %v\n", err)
		os.Exit(1)
	}
}
