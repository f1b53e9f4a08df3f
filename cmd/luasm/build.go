package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/luasm/manifest"
	"github.com/chazu/luasm/project"
)

var buildForce bool

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Assemble every unit of a luasm.toml project",
	Long: `Build looks for luasm.toml in dir (default: the current directory) or
one of its parents and assembles each [[unit]] into the build directory.
Units whose source and output match luasm.lock are skipped unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		m, err := manifest.FindAndLoad(dir)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
		}
		if !cmd.Flags().Changed("verbose") && !cmd.Flags().Changed("log-file") {
			configureLogging(m.Log.Verbosity, m.LogFile())
		}

		results, err := project.Build(m, project.Options{Force: buildForce})
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Skipped {
				fmt.Fprintf(out, "  up to date  %s\n", r.Unit.Output)
			} else {
				fmt.Fprintf(out, "  assembled   %s (%d bytes)\n", r.Unit.Output, r.Size)
			}
		}
		return err
	},
}

func init() {
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "rebuild units even when they are up to date")
	rootCmd.AddCommand(buildCmd)
}
