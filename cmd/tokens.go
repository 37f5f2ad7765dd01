package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/libklein/nand2tetris/jackcompiler/internal/compiler"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file.jack>",
	Short: "Print the token stream of a Jack file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer handle.Close()
		return dumpTokens(handle, cmd.OutOrStdout())
	},
}

// dumpTokens writes one `line type lexeme` row per token.
func dumpTokens(r io.Reader, w io.Writer) error {
	tokenizer := compiler.NewTokenizer(r)
	for tokenizer.HasNext() {
		token, err := tokenizer.Advance()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", token.Line, token.Type, token.Lexeme())
	}
	return tokenizer.Err()
}
