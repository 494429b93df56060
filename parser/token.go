package parser

import "fmt"

// TokenType represents the type of token scanned from the input.
type TokenType uint8

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL
	NEWLINE

	// Keywords
	TXN // txn

	// Literals
	DATE     // YYYY-MM-DD
	ACCOUNT  // Assets:Bank:Checking
	STRING   // "quoted string"
	NUMBER   // 123.45 or -123.45
	CURRENCY // USD, HOOL, TRUE
	IDENT    // lowercase identifier that is not a keyword
	KEY      // metadata key including the trailing colon, e.g. invoice:

	// Special literals
	TAG  // #tag
	LINK // ^link

	// Symbols
	ASTERISK // *
	EXCLAIM  // !
	COMMA    // ,
	AT       // @
	ATAT     // @@
	LBRACE   // {
	RBRACE   // }
)

var tokenNames = map[TokenType]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	NEWLINE:  "NEWLINE",
	TXN:      "txn",
	DATE:     "DATE",
	ACCOUNT:  "ACCOUNT",
	STRING:   "STRING",
	NUMBER:   "NUMBER",
	CURRENCY: "CURRENCY",
	IDENT:    "IDENT",
	KEY:      "KEY",
	TAG:      "TAG",
	LINK:     "LINK",
	ASTERISK: "*",
	EXCLAIM:  "!",
	COMMA:    ",",
	AT:       "@",
	ATAT:     "@@",
	LBRACE:   "{",
	RBRACE:   "}",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token is a lexical token. It stores byte offsets into the source rather than
// a copy of the text.
type Token struct {
	Type   TokenType
	Start  int // Byte offset in source
	End    int // Byte offset after the token
	Line   int // 1-indexed
	Column int // 1-indexed
}

// String returns the token's text in source.
func (t Token) String(source []byte) string {
	return string(source[t.Start:t.End])
}
