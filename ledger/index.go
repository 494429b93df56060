package ledger

import (
	"fmt"
	"unicode/utf8"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/parser"
)

// buildIndex maps every handle found in data to the range of its block.
// Blocks without a handle are skipped. Handles that were removed before are
// not indexed again, so they stay invalid.
func buildIndex(data []byte, tombstones Tombstones) (map[string]Range, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("ledger is not valid UTF-8")
	}

	index := make(map[string]Range)
	lines := make(map[string]int)

	for _, block := range parser.ScanBlocks(data) {
		handle, ok := findHandle(data[block.Start:block.End])
		if !ok {
			continue
		}
		if line, dup := lines[handle]; dup {
			return nil, fmt.Errorf("handle %q appears on line %d and line %d", handle, line, block.Line)
		}
		removed, err := tombstones.Contains(handle)
		if err != nil {
			return nil, err
		}
		if removed {
			continue
		}
		lines[handle] = block.Line
		index[handle] = Range{Start: int64(block.Start), End: int64(block.End)}
	}

	return index, nil
}

func findHandle(block []byte) (string, bool) {
	handle, ok := parser.FindMetadata(block, ast.HandleKey)
	return handle, ok && handle != ""
}
