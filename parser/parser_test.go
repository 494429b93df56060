package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseTransaction(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		txn, err := ParseString(`2014-05-05 * "Cafe Mogador" "Lamb tagine with wine" #dining ^trip
  invoice: "INV-1"
  Liabilities:CreditCard:CapitalOne  -37.45 USD
    confirmation: "CONF123"
  Expenses:Food:Restaurant
`)
		assert.NoError(t, err)
		assert.Equal(t, "2014-05-05", txn.Date.Format("2006-01-02"))
		assert.Equal(t, "*", txn.Flag)
		assert.Equal(t, "Cafe Mogador", txn.Payee)
		assert.Equal(t, "Lamb tagine with wine", txn.Narration)
		assert.Equal(t, []string{"dining"}, txn.Tags)
		assert.Equal(t, []string{"trip"}, txn.Links)
		assert.Equal(t, 1, len(txn.Metadata))
		assert.Equal(t, "invoice", txn.Metadata[0].Key)
		assert.Equal(t, "INV-1", txn.Metadata[0].Value)
		assert.True(t, txn.Metadata[0].Quoted)

		assert.Equal(t, 2, len(txn.Postings))
		assert.Equal(t, "Liabilities:CreditCard:CapitalOne", txn.Postings[0].Account)
		assert.Equal(t, "-37.45 USD", txn.Postings[0].Amount.String())
		assert.Equal(t, 1, len(txn.Postings[0].Metadata))
		assert.Equal(t, "confirmation", txn.Postings[0].Metadata[0].Key)
		assert.Equal(t, "Expenses:Food:Restaurant", txn.Postings[1].Account)
		assert.Zero(t, txn.Postings[1].Amount)
	})

	t.Run("TxnKeywordAndPending", func(t *testing.T) {
		txn, err := ParseString("2024-01-01 txn \"Opening\"\n  Assets:Cash 10 USD\n  Equity:Opening\n")
		assert.NoError(t, err)
		assert.Equal(t, "*", txn.Flag)
		assert.Equal(t, "", txn.Payee)

		txn, err = ParseString("2024-01-01 ! \"Pending\"\n  Assets:Cash 10 USD\n  Equity:Opening\n")
		assert.NoError(t, err)
		assert.Equal(t, "!", txn.Flag)
	})

	t.Run("UnindentedContinuationLines", func(t *testing.T) {
		txn, err := ParseString("2024-01-01 * \"Lunch\"\nExpenses:Food 25.00 CNY\nAssets:Cash\n")
		assert.NoError(t, err)
		assert.Equal(t, 2, len(txn.Postings))
		assert.Equal(t, "25.00 CNY", txn.Postings[0].Amount.String())
	})

	t.Run("CostAndPrice", func(t *testing.T) {
		txn, err := ParseString(`2024-01-01 * "Buy"
  Assets:Broker   10 HOOL {518.73 USD}
  Assets:Cash     -200 EUR @@ 240.00 USD
  Assets:Savings  1,000.00 EUR @ 1.10 USD
`)
		assert.NoError(t, err)
		assert.Equal(t, "518.73 USD", txn.Postings[0].Cost.String())
		assert.True(t, txn.Postings[1].PriceTotal)
		assert.Equal(t, "240.00 USD", txn.Postings[1].Price.String())
		assert.False(t, txn.Postings[2].PriceTotal)
		assert.Equal(t, "1000.00 EUR", txn.Postings[2].Amount.String())
	})

	t.Run("EscapedStrings", func(t *testing.T) {
		txn, err := ParseString("2024-01-01 * \"Say \\\"hi\\\"\"\n  Assets:Cash 1 USD\n  Equity:Misc\n")
		assert.NoError(t, err)
		assert.Equal(t, `Say "hi"`, txn.Narration)
	})

	t.Run("DuplicateInlineTags", func(t *testing.T) {
		txn, err := ParseString("2024-01-01 * \"x\" #a #b #a\n  Assets:Cash 1 USD\n  Equity:Misc\n")
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, txn.Tags)
	})

	t.Run("HandleLine", func(t *testing.T) {
		txn, err := ParseString("2024-01-01 * \"x\"\n  bot-uuid: \"abc\"\n  note: \"n\"\n  Assets:Cash 1 USD\n  Equity:Misc\n")
		assert.NoError(t, err)
		assert.Equal(t, "abc", txn.Handle)
		assert.Equal(t, 1, len(txn.Metadata))
		assert.Equal(t, "note", txn.Metadata[0].Key)
	})

	t.Run("Comments", func(t *testing.T) {
		txn, err := ParseString("2024-01-01 * \"x\" ; header\n  ; note\n  Assets:Cash 1 USD ; posting\n  Equity:Misc\n")
		assert.NoError(t, err)
		assert.Equal(t, 2, len(txn.Postings))
	})
}

func TestParseTransactionErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"NoDate", "* \"x\"\n  Assets:Cash 1 USD\n", "expected transaction date"},
		{"NoFlag", "2024-01-01 \"x\"\n  Assets:Cash 1 USD\n", "expected transaction flag"},
		{"NoNarration", "2024-01-01 *\n  Assets:Cash 1 USD\n", "expected transaction payee or narration string"},
		{"NoPostings", "2024-01-01 * \"x\"\n", "transaction has no postings"},
		{"BadAccount", "2024-01-01 * \"x\"\n  Cash:Wallet 1 USD\n", "unexpected account type"},
		{"MissingCurrency", "2024-01-01 * \"x\"\n  Assets:Cash 1\n  Equity:Misc\n", "expected currency after number"},
		{"Unterminated", "2024-01-01 * \"x\n  Assets:Cash 1 USD\n", "unexpected character"},
		{"TwoTransactions", "2024-01-01 * \"x\"\n  Assets:Cash 1 USD\n2024-01-02 * \"y\"\n", "only one transaction"},
		{"LateMetadata", "2024-01-01 * \"x\"\n  Assets:Cash 1 USD\n  Equity:Misc\nnote: \"late\"\n", "metadata must come before the postings"},
		{"InvalidDate", "2024-13-01 * \"x\"\n  Assets:Cash 1 USD\n", "invalid date"},
		{"InvalidUTF8", "2024-01-01 * \"\xff\"\n", "not valid UTF-8"},
		{"Trailing", "2024-01-01 * \"x\" USD\n  Assets:Cash 1 USD\n", "unexpected \"USD\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			assert.Error(t, err)
			var perr *ParseError
			assert.True(t, asParseError(err, &perr))
			assert.Contains(t, perr.Error(), tt.message)
			assert.True(t, perr.Line >= 1)
		})
	}
}

func asParseError(err error, target **ParseError) bool {
	perr, ok := err.(*ParseError)
	if ok {
		*target = perr
	}
	return ok
}

func TestLexerPositions(t *testing.T) {
	tokens, err := NewLexer([]byte("2024-01-01 *\n  Assets:Cash -1.5 USD")).ScanAll()
	assert.NoError(t, err)

	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{DATE, ASTERISK, NEWLINE, ACCOUNT, NUMBER, CURRENCY, EOF}, types)

	assert.Equal(t, 2, tokens[3].Line)
	assert.Equal(t, 3, tokens[3].Column)
	assert.Equal(t, "-1.5", tokens[4].String([]byte("2024-01-01 *\n  Assets:Cash -1.5 USD")))
}
