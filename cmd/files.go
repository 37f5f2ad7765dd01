package cmd

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/libklein/nand2tetris/jackcompiler/internal/compiler"
)

const sourceExtension = ".jack"

func removeExtension(filePath string) string {
	extension := filepath.Ext(filePath)
	return filePath[:len(filePath)-len(extension)]
}

// getOutputPath places the .vm file next to the source, or in dir if set.
func getOutputPath(filePath, dir string) string {
	outputPath := removeExtension(filePath) + ".vm"
	if dir == "" {
		return outputPath
	}
	return filepath.Join(dir, filepath.Base(outputPath))
}

// processFile compiles one source file. Nothing is written unless the whole
// class compiles.
func processFile(path, dir string, logger *log.Logger) (outputPath string, err error) {
	handle, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open file %q for reading: %w", path, err)
	}
	defer handle.Close()

	var output bytes.Buffer
	if err := compiler.Compile(handle, &output, compiler.WithLogger(logger)); err != nil {
		return "", err
	}

	outputPath = getOutputPath(path, dir)
	if err := os.WriteFile(outputPath, output.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("could not write output file %q: %w", outputPath, err)
	}
	return outputPath, nil
}

// collectFiles returns fileOrDir itself, or the .jack files directly inside it.
func collectFiles(fileOrDir string) (files []string, err error) {
	fileOrDirStat, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file/dir %q: %w", fileOrDir, err)
	}

	if !fileOrDirStat.IsDir() {
		return []string{fileOrDir}, nil
	}

	dirEntries, err := os.ReadDir(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("could not open directory %q: %w", fileOrDir, err)
	}
	for _, entry := range dirEntries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != sourceExtension {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
