package parser

// Lexer tokenizes a single Beancount transaction block.
//
// Tokens store byte offsets, not string values. Comments are dropped, newlines
// are kept because they separate the header, metadata and posting lines.

import "unicode/utf8"

// Lexer tokenizes Beancount source code.
type Lexer struct {
	source []byte
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source []byte) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, len(source)/4+8),
	}
}

// ScanAll lexes the whole source and returns all tokens, ending with EOF.
// It fails on invalid UTF-8 and on the first ILLEGAL token.
func (l *Lexer) ScanAll() ([]Token, error) {
	if !utf8.Valid(l.source) {
		return nil, &ParseError{Line: 1, Column: 1, Message: "input is not valid UTF-8"}
	}

	for l.pos < len(l.source) {
		l.skipWhitespace()

		if l.pos >= len(l.source) {
			break
		}

		if l.peek() == ';' {
			l.skipComment()
			continue
		}

		tok := l.scanToken()
		if tok.Type == ILLEGAL {
			return nil, &ParseError{
				Line:    tok.Line,
				Column:  tok.Column,
				Message: "unexpected character " + quoteToken(tok.String(l.source)),
			}
		}
		l.tokens = append(l.tokens, tok)
	}

	l.tokens = append(l.tokens, Token{
		Type:   EOF,
		Start:  l.pos,
		End:    l.pos,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

// scanToken scans the next token from the current position.
func (l *Lexer) scanToken() Token {
	start := l.pos
	startLine := l.line
	startCol := l.column

	ch := l.advance()

	switch {
	case ch == '\n':
		return Token{NEWLINE, start, l.pos, startLine, startCol}

	// Dates must be checked before numbers since both start with a digit.
	case ch >= '0' && ch <= '9':
		if l.isDatePattern(start) {
			for i := 0; i < 9; i++ {
				l.advance()
			}
			return Token{DATE, start, l.pos, startLine, startCol}
		}
		return l.scanNumber(start, startLine, startCol)
	case (ch == '-' || ch == '+') && l.peekIsDigit():
		return l.scanNumber(start, startLine, startCol)

	case ch == '"':
		return l.scanString(start, startLine, startCol)

	case ch == '#':
		return l.scanWord(TAG, start, startLine, startCol)
	case ch == '^':
		return l.scanWord(LINK, start, startLine, startCol)

	// Accounts and currencies start with a capital. Non-ASCII leading bytes are
	// accepted so that accounts like Assets:现金 lex as one token.
	case ch >= 'A' && ch <= 'Z' || ch >= 0x80:
		return l.scanAccountOrCurrency(start, startLine, startCol)

	case ch >= 'a' && ch <= 'z':
		return l.scanKeyOrIdent(start, startLine, startCol)

	case ch == '*':
		return Token{ASTERISK, start, l.pos, startLine, startCol}
	case ch == '!':
		return Token{EXCLAIM, start, l.pos, startLine, startCol}
	case ch == ',':
		return Token{COMMA, start, l.pos, startLine, startCol}
	case ch == '{':
		return Token{LBRACE, start, l.pos, startLine, startCol}
	case ch == '}':
		return Token{RBRACE, start, l.pos, startLine, startCol}
	case ch == '@':
		if l.peek() == '@' {
			l.advance()
			return Token{ATAT, start, l.pos, startLine, startCol}
		}
		return Token{AT, start, l.pos, startLine, startCol}

	default:
		return Token{ILLEGAL, start, l.pos, startLine, startCol}
	}
}

// isDatePattern checks if the position starts a date pattern YYYY-MM-DD
func (l *Lexer) isDatePattern(start int) bool {
	if start+10 > len(l.source) {
		return false
	}

	src := l.source[start:]
	for i, c := range src[:10] {
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// scanNumber scans a number: [-+]?[0-9][0-9,]*(\.[0-9]*)?
func (l *Lexer) scanNumber(start, line, col int) Token {
	for l.pos < len(l.source) && (isDigit(l.peek()) || l.peek() == ',') {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}
	return Token{NUMBER, start, l.pos, line, col}
}

// scanString scans a double-quoted string. Backslash escapes are kept in the
// token and resolved by unquote. An unterminated string is ILLEGAL.
func (l *Lexer) scanString(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.advance()
		switch ch {
		case '\\':
			if l.pos < len(l.source) {
				l.advance()
			}
		case '"':
			return Token{STRING, start, l.pos, line, col}
		case '\n':
			return Token{ILLEGAL, start, l.pos, line, col}
		}
	}
	return Token{ILLEGAL, start, l.pos, line, col}
}

// scanWord scans the body of a tag or link: [A-Za-z0-9_/.-]+ plus any non-ASCII letters.
func (l *Lexer) scanWord(typ TokenType, start, line, col int) Token {
	for l.pos < len(l.source) && isWordByte(l.peek()) {
		l.advance()
	}
	if l.pos == start+1 {
		return Token{ILLEGAL, start, l.pos, line, col}
	}
	return Token{typ, start, l.pos, line, col}
}

func (l *Lexer) scanAccountOrCurrency(start, line, col int) Token {
	hasColon := false
	for l.pos < len(l.source) {
		c := l.peek()
		if c == ':' {
			hasColon = true
		} else if !isWordByte(c) && c != '\'' {
			break
		}
		l.advance()
	}
	if hasColon {
		return Token{ACCOUNT, start, l.pos, line, col}
	}
	return Token{CURRENCY, start, l.pos, line, col}
}

func (l *Lexer) scanKeyOrIdent(start, line, col int) Token {
	for l.pos < len(l.source) {
		c := l.peek()
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '-' || c == '_') {
			break
		}
		l.advance()
	}
	if l.peek() == ':' {
		l.advance()
		return Token{KEY, start, l.pos, line, col}
	}
	if string(l.source[start:l.pos]) == "txn" {
		return Token{TXN, start, l.pos, line, col}
	}
	return Token{IDENT, start, l.pos, line, col}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.source) && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekIsDigit() bool {
	return isDigit(l.peek())
}

func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) ||
		c == '-' || c == '_' || c == '.' || c == '/' || c >= 0x80
}
