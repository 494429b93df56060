package parser

import (
	"fmt"
	"strconv"
)

// ParseError represents a syntax error during parsing.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func quoteToken(s string) string {
	return strconv.Quote(s)
}
