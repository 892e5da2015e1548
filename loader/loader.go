// Package loader turns champion source or byte-code files on disk into the
// vm.LoadEntry list a VirtualMachine can load and run.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corewar-arena/corewar/assembler"
	"github.com/corewar-arena/corewar/encoder"
	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/parser"
	"github.com/corewar-arena/corewar/vm"
)

// AssembleSource runs the full lex/parse/assemble/encode pipeline over a
// champion's .s source text (which must carry its own .name and .comment
// directives) and returns its complete byte-code image, header included.
func AssembleSource(source string) ([]byte, error) {
	lines := strings.Split(source, "\n")

	builder := assembler.NewBuilder()
	for i, line := range lines {
		parsed, err := parser.ParseLine(line, i+1)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if parsed == nil {
			continue
		}
		if _, err := builder.AssembleLine(parsed); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	champ, err := builder.Finish()
	if err != nil {
		return nil, err
	}

	return encoder.NewEncoder().Encode(champ)
}

// LoadChampionFile reads a path and returns its byte-code image: a .cor
// file is read verbatim, anything else is assembled from source first.
func LoadChampionFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied champion path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".cor") {
		return raw, nil
	}

	return AssembleSource(string(raw))
}

// BuildMatch loads every champion path, in order, assigning each the
// sequential player id 1, 2, 3, ... matching the classic tournament
// convention, and returns the entries ready for VirtualMachine.LoadPlayers.
func BuildMatch(paths []string) ([]vm.LoadEntry, error) {
	entries := make([]vm.LoadEntry, 0, len(paths))
	for i, path := range paths {
		program, err := LoadChampionFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, vm.LoadEntry{
			ID:      memory.PlayerID(i + 1),
			Program: program,
		})
	}
	return entries, nil
}
