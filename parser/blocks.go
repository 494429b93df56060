package parser

import (
	"bytes"
	"strings"
)

// Block is one directive of a ledger file located by byte offsets.
//
// A block starts at a line beginning in column 1 and extends over every
// following indented line. End also covers a single blank line after the
// block when there is one, which is exactly the separator the ledger store
// writes after each appended entry.
type Block struct {
	Start int // Offset of the first byte of the directive line
	End   int // Offset after the block, including one trailing blank line
	Line  int // 1-indexed line number of the directive line
}

// ScanBlocks splits a ledger source into directive blocks.
// Comment lines and blank lines at column 1 are not part of any block.
func ScanBlocks(source []byte) []Block {
	var blocks []Block
	var current *Block

	line := 0
	for pos := 0; pos < len(source); {
		line++
		end := lineEnd(source, pos)
		content := source[pos:end]
		trimmed := bytes.TrimSpace(content)

		switch {
		case len(trimmed) == 0:
			if current != nil {
				current.End = end
				blocks = append(blocks, *current)
				current = nil
			}

		case content[0] == ' ' || content[0] == '\t':
			if current != nil {
				current.End = end
			}

		default:
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
			if trimmed[0] != ';' {
				current = &Block{Start: pos, End: end, Line: line}
			}
		}

		pos = end
	}

	if current != nil {
		blocks = append(blocks, *current)
	}

	return blocks
}

// lineEnd returns the offset after the line starting at pos, newline included.
func lineEnd(source []byte, pos int) int {
	if i := bytes.IndexByte(source[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(source)
}

// FindMetadata returns the value of the first indented "key: value" line in a
// block. Quoted values are unquoted and trailing comments are dropped.
func FindMetadata(block []byte, key string) (string, bool) {
	prefix := key + ":"
	for pos := 0; pos < len(block); {
		end := lineEnd(block, pos)
		content := block[pos:end]
		pos = end

		if len(content) == 0 || (content[0] != ' ' && content[0] != '\t') {
			continue
		}

		trimmed := strings.TrimSpace(string(content))
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}

		value := strings.TrimSpace(trimmed[len(prefix):])
		if strings.HasPrefix(value, `"`) {
			if closing := closingQuote(value); closing > 0 {
				return unquote(value[:closing+1]), true
			}
			return "", false
		}
		if i := strings.IndexByte(value, ';'); i >= 0 {
			value = strings.TrimSpace(value[:i])
		}
		return value, value != ""
	}
	return "", false
}

// closingQuote returns the index of the quote that ends the string starting at s[0].
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
