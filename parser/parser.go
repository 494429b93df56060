// Package parser reads Beancount transaction syntax.
//
// It covers what the bot needs from the ledger language: parsing one
// transaction block typed by a user (ParseTransaction) and splitting a ledger
// file into directive blocks with their byte ranges (ScanBlocks). It is not a
// full Beancount parser; other directive types are only recognized as blocks.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/beancount-bot/ast"
)

// Parser turns the tokens of one transaction block into an ast.Transaction.
type Parser struct {
	source []byte
	tokens []Token
	pos    int
}

// ParseTransaction parses a single transaction:
//
//	DATE [txn] FLAG [PAYEE] NARRATION [TAG | LINK]*
//	  [KEY: VALUE]*
//	  POSTING*
//
// Continuation lines do not have to be indented; a posting's metadata is
// recognized by being indented deeper than the posting itself.
func ParseTransaction(source []byte) (*ast.Transaction, error) {
	tokens, err := NewLexer(source).ScanAll()
	if err != nil {
		return nil, err
	}

	p := &Parser{source: source, tokens: tokens}
	return p.parseTransaction()
}

// ParseString is a convenience wrapper around ParseTransaction.
func ParseString(source string) (*ast.Transaction, error) {
	return ParseTransaction([]byte(source))
}

func (p *Parser) parseTransaction() (*ast.Transaction, error) {
	p.skipNewlines()

	dateTok := p.peek()
	if !p.match(DATE) {
		return nil, p.errorAtToken(dateTok, "expected transaction date (YYYY-MM-DD)")
	}
	date, err := time.Parse("2006-01-02", dateTok.String(p.source))
	if err != nil {
		return nil, p.errorAtToken(dateTok, fmt.Sprintf("invalid date %s", dateTok.String(p.source)))
	}

	txn := &ast.Transaction{Date: date}

	switch {
	case p.match(TXN):
		txn.Flag = "*"
		if p.match(ASTERISK) {
			txn.Flag = "*"
		} else if p.match(EXCLAIM) {
			txn.Flag = "!"
		}
	case p.match(ASTERISK):
		txn.Flag = "*"
	case p.match(EXCLAIM):
		txn.Flag = "!"
	default:
		return nil, p.error("expected transaction flag (* or !) or 'txn'")
	}

	// One string is the narration, two strings are payee and narration.
	if !p.check(STRING) {
		return nil, p.error("expected transaction payee or narration string")
	}
	first := p.parseString()
	if p.check(STRING) {
		txn.Payee = first
		txn.Narration = p.parseString()
	} else {
		txn.Narration = first
	}

	for p.check(TAG) || p.check(LINK) {
		tok := p.advance()
		value := tok.String(p.source)[1:]
		if tok.Type == TAG {
			txn.Tags = ast.MergeTags(txn.Tags, []string{value})
		} else {
			txn.Links = append(txn.Links, value)
		}
	}

	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}

	var last *ast.Posting
	lastColumn := 0

	for {
		p.skipNewlines()
		tok := p.peek()

		switch tok.Type {
		case EOF:
			if len(txn.Postings) == 0 {
				return nil, p.errorAtToken(tok, "transaction has no postings")
			}
			return txn, nil

		case KEY:
			meta, err := p.parseMetadata()
			if err != nil {
				return nil, err
			}
			switch {
			case last != nil && tok.Column > lastColumn:
				last.Metadata = append(last.Metadata, meta)
			case last == nil && meta.Key == ast.HandleKey:
				txn.Handle = meta.Value
			case last == nil:
				txn.Metadata = append(txn.Metadata, meta)
			default:
				return nil, p.errorAtToken(tok, "transaction metadata must come before the postings")
			}

		case ASTERISK, EXCLAIM, ACCOUNT:
			posting, err := p.parsePosting()
			if err != nil {
				return nil, err
			}
			txn.Postings = append(txn.Postings, posting)
			last = posting
			lastColumn = tok.Column

		case DATE:
			return nil, p.errorAtToken(tok, "only one transaction can be entered at a time")

		default:
			return nil, p.errorAtToken(tok, fmt.Sprintf("unexpected %s, expected posting or metadata", describe(tok, p.source)))
		}
	}
}

// parsePosting parses a single posting:
// [FLAG] ACCOUNT [AMOUNT] [{COST}] [@|@@ PRICE]
func (p *Parser) parsePosting() (*ast.Posting, error) {
	posting := &ast.Posting{}

	if p.match(ASTERISK) {
		posting.Flag = "*"
	} else if p.match(EXCLAIM) {
		posting.Flag = "!"
	}

	accountTok := p.peek()
	if !p.match(ACCOUNT) {
		return nil, p.errorAtToken(accountTok, "expected account")
	}
	account := accountTok.String(p.source)
	if err := ast.ValidateAccount(account); err != nil {
		return nil, p.errorAtToken(accountTok, err.Error())
	}
	posting.Account = account

	if p.check(NUMBER) {
		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Amount = amount
	}

	if p.check(LBRACE) {
		if posting.Amount == nil {
			return nil, p.error("cost requires a posting amount")
		}
		p.advance()
		cost, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		if !p.match(RBRACE) {
			return nil, p.error("expected '}' after cost")
		}
		posting.Cost = cost
	}

	if p.check(AT) || p.check(ATAT) {
		if posting.Amount == nil {
			return nil, p.error("price requires a posting amount")
		}
		posting.PriceTotal = p.advance().Type == ATAT
		price, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Price = price
	}

	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}

	return posting, nil
}

// parseAmount parses NUMBER CURRENCY. Thousands separators are dropped.
func (p *Parser) parseAmount() (*ast.Amount, error) {
	numTok := p.peek()
	if !p.match(NUMBER) {
		return nil, p.errorAtToken(numTok, "expected number")
	}

	curTok := p.peek()
	if !p.match(CURRENCY) || !ast.IsCurrency(curTok.String(p.source)) {
		return nil, p.errorAtToken(curTok, "expected currency after number")
	}

	number := strings.ReplaceAll(numTok.String(p.source), ",", "")
	amount, err := ast.NewAmount(strings.TrimPrefix(number, "+"), curTok.String(p.source))
	if err != nil {
		return nil, p.errorAtToken(numTok, err.Error())
	}
	return amount, nil
}

// parseMetadata parses KEY: VALUE. String values are unquoted; everything
// else is kept as written so the formatter can reproduce it.
func (p *Parser) parseMetadata() (*ast.Metadata, error) {
	keyTok := p.advance()
	key := strings.TrimSuffix(keyTok.String(p.source), ":")
	meta := &ast.Metadata{Key: key}

	tok := p.peek()
	switch tok.Type {
	case STRING:
		meta.Value = p.parseString()
		meta.Quoted = true
	case NUMBER:
		start := p.advance().Start
		end := tok.End
		if p.check(CURRENCY) {
			end = p.advance().End
		}
		meta.Value = string(p.source[start:end])
	case DATE, ACCOUNT, CURRENCY, TAG, LINK, IDENT:
		meta.Value = p.advance().String(p.source)
	case NEWLINE, EOF:
	default:
		return nil, p.errorAtToken(tok, fmt.Sprintf("unexpected %s in metadata value", describe(tok, p.source)))
	}

	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return meta, nil
}

func (p *Parser) parseString() string {
	tok := p.advance()
	return unquote(tok.String(p.source))
}

func (p *Parser) expectLineEnd() error {
	if p.match(NEWLINE) || p.check(EOF) {
		return nil
	}
	tok := p.peek()
	return p.errorAtToken(tok, fmt.Sprintf("unexpected %s", describe(tok, p.source)))
}

func (p *Parser) skipNewlines() {
	for p.match(NEWLINE) {
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) match(typ TokenType) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) error(message string) *ParseError {
	return p.errorAtToken(p.peek(), message)
}

func (p *Parser) errorAtToken(tok Token, message string) *ParseError {
	return &ParseError{Line: tok.Line, Column: tok.Column, Message: message}
}

// describe names a token for error messages.
func describe(tok Token, source []byte) string {
	switch tok.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "end of line"
	default:
		return quoteToken(tok.String(source))
	}
}

// unquote strips the surrounding quotes and resolves C-style escapes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			buf.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'r':
			buf.WriteByte('\r')
		default:
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}
