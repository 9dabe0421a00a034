// Package cli provides common utilities for building command-line interfaces.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/output"
	"github.com/robinvdvleuten/ledger/parse"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"
)

func printSuccess(w io.Writer, message string) {
	styles := output.NewStyles(w)
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Success(successSymbol), message)
}

func printError(w io.Writer, message string) {
	styles := output.NewStyles(w)
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error(errorSymbol), styles.Error(message))
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	styles := output.NewStyles(w)
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Keyword(infoSymbol), fmt.Sprintf(format, args...))
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// FileOrStdin accepts either a file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents nil (read when loaded).
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		contents, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		f.Filename = "<stdin>"
		f.Contents = contents
		return nil
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil

	return nil
}

// GetSourceContent returns source content for error formatting.
func (f *FileOrStdin) GetSourceContent() ([]byte, error) {
	if f.Filename == "<stdin>" {
		return f.Contents, nil
	}
	return os.ReadFile(f.Filename)
}

// GetAbsoluteFilename returns the absolute path, or "<stdin>" for stdin.
func (f *FileOrStdin) GetAbsoluteFilename() string {
	if f.Filename == "<stdin>" {
		return f.Filename
	}
	absPath, err := filepath.Abs(f.Filename)
	if err != nil {
		return f.Filename
	}
	return absPath
}

// LoadJournal parses the file (or buffered stdin) into a fresh journal.
func (f *FileOrStdin) LoadJournal(inputDateLayout string) (*journal.Journal, error) {
	j := journal.New()
	p := parse.NewParser(j)
	p.DateLayout = inputDateLayout

	if f.Filename == "<stdin>" {
		if err := p.Parse(f.Filename, f.Contents); err != nil {
			return nil, err
		}
		return j, nil
	}
	if err := p.ParseFile(f.GetAbsoluteFilename()); err != nil {
		return nil, err
	}
	return j, nil
}
