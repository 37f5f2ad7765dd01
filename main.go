package main

import (
	"os"

	"github.com/libklein/nand2tetris/jackcompiler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
