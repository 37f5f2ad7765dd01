package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
)

var (
	outDir    string
	verbose   bool
	keepGoing bool
)

var rootCmd = &cobra.Command{
	Use:   "jackcompiler <file.jack|dir>...",
	Short: "Compile Jack classes to VM code",
	Long: `jackcompiler translates each .jack file into a .vm file holding the
stack machine code for its class. Directories are searched (not recursively)
for .jack files.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCompile,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace compilation to stderr")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for .vm files (default: next to each source file)")
	rootCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue with the remaining files after a failure")

	rootCmd.AddCommand(tokensCmd)
}

func newLogger(w io.Writer) *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(w, "", 0)
}

func runCompile(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())

	failed := 0
	for _, arg := range args {
		files, err := collectFiles(arg)
		if err != nil {
			return err
		}
		for _, file := range files {
			fmt.Fprintf(out, "Compiling file %q\n", file)
			outputPath, err := processFile(file, outDir, logger)
			if err != nil {
				if !keepGoing {
					return fmt.Errorf("failed to compile %q: %w", file, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to compile %q: %s\n", file, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Saved as %q\n", outputPath)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to compile", failed)
	}
	return nil
}
