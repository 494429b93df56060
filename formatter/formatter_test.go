package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/parser"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// posting builds the expected aligned posting line.
func posting(indent, account, number, currency string) string {
	pad := DefaultCurrencyColumn - len(indent) - len(account) - len(number)
	if pad < MinimumSpacing {
		pad = MinimumSpacing
	}
	return indent + account + strings.Repeat(" ", pad) + number + " " + currency + "\n"
}

func TestFormat(t *testing.T) {
	txn := ast.NewTransaction(date("2014-05-05"), "Lamb tagine with wine")
	txn.Payee = "Cafe Mogador"
	txn.Handle = "7b1f6c1e-3c5e-4c3c-9a55-0d0f3c2b9d11"
	txn.Tags = []string{"dining", "trip"}
	txn.Links = []string{"receipt-1"}
	txn.Metadata = []*ast.Metadata{{Key: "invoice", Value: "INV-1", Quoted: true}}
	txn.AddPosting(&ast.Posting{Account: "Liabilities:CreditCard", Amount: ast.MustNewAmount("-37.45", "USD")}).
		AddPosting(&ast.Posting{Account: "Expenses:Food:Restaurant"})

	expected := `2014-05-05 * "Cafe Mogador" "Lamb tagine with wine" ^receipt-1 #dining #trip
  bot-uuid: "7b1f6c1e-3c5e-4c3c-9a55-0d0f3c2b9d11"
  invoice: "INV-1"
` + posting("  ", "Liabilities:CreditCard", "-37.45", "USD") + `  Expenses:Food:Restaurant
`

	assert.Equal(t, expected, Stringify(txn))
}

func TestFormatNarrationOnly(t *testing.T) {
	txn := ast.NewTransaction(date("2024-01-01"), "")
	txn.Flag = "!"
	txn.AddPosting(&ast.Posting{Account: "Assets:Cash", Amount: ast.MustNewAmount("100.00", "EUR")}).
		AddPosting(&ast.Posting{Account: "Equity:Opening", Amount: ast.MustNewAmount("-100.00", "EUR")})

	expected := "2024-01-01 ! \"\"\n" +
		posting("  ", "Assets:Cash", "100.00", "EUR") +
		posting("  ", "Equity:Opening", "-100.00", "EUR")

	assert.Equal(t, expected, Stringify(txn))
}

func TestFormatSkipsReservedKey(t *testing.T) {
	txn := ast.NewTransaction(date("2024-01-01"), "x")
	txn.Metadata = []*ast.Metadata{
		{Key: ast.HandleKey, Value: "stale", Quoted: true},
		{Key: "note", Value: "42"},
	}
	txn.AddPosting(&ast.Posting{Account: "Assets:Cash", Amount: ast.MustNewAmount("1", "USD")}).
		AddPosting(&ast.Posting{Account: "Equity:Misc"})

	out := Stringify(txn)
	assert.NotContains(t, out, "stale")
	assert.Contains(t, out, "\n  note: 42\n")
}

func TestFormatCostPriceAndPostingMetadata(t *testing.T) {
	txn := ast.NewTransaction(date("2024-01-01"), "Buy")
	txn.AddPosting(&ast.Posting{
		Account: "Assets:Broker",
		Amount:  ast.MustNewAmount("10", "HOOL"),
		Cost:    ast.MustNewAmount("518.73", "USD"),
	}).AddPosting(&ast.Posting{
		Flag:       "!",
		Account:    "Assets:Cash",
		Amount:     ast.MustNewAmount("-200", "EUR"),
		Price:      ast.MustNewAmount("240.00", "USD"),
		PriceTotal: true,
		Metadata:   []*ast.Metadata{{Key: "confirmation", Value: "C1", Quoted: true}},
	})

	out := Stringify(txn)
	assert.Contains(t, out, "10 HOOL {518.73 USD}\n")
	assert.Contains(t, out, "  ! Assets:Cash")
	assert.Contains(t, out, "-200 EUR @@ 240.00 USD\n")
	assert.Contains(t, out, "\n    confirmation: \"C1\"\n")
}

func TestFormatWideAccounts(t *testing.T) {
	txn := ast.NewTransaction(date("2024-01-01"), "午餐")
	txn.AddPosting(&ast.Posting{Account: "Expenses:餐饮", Amount: ast.MustNewAmount("25.00", "CNY")}).
		AddPosting(&ast.Posting{Account: "Assets:Cash", Amount: ast.MustNewAmount("-25.00", "CNY")})

	lines := strings.Split(Stringify(txn), "\n")
	// "Expenses:餐饮" is 15 bytes but 13 cells wide.
	pad := DefaultCurrencyColumn - 2 - 13 - len("25.00")
	assert.Equal(t, "  Expenses:餐饮"+strings.Repeat(" ", pad)+"25.00 CNY", lines[1])
}

func TestFormatLongAccountKeepsMinimumSpacing(t *testing.T) {
	account := "Expenses:" + strings.Repeat("Long", 12)
	txn := ast.NewTransaction(date("2024-01-01"), "x")
	txn.AddPosting(&ast.Posting{Account: account, Amount: ast.MustNewAmount("1.00", "USD")}).
		AddPosting(&ast.Posting{Account: "Assets:Cash"})

	assert.Contains(t, Stringify(txn), account+"  1.00 USD\n")
}

func TestFormatEscapes(t *testing.T) {
	txn := ast.NewTransaction(date("2024-01-01"), "say \"hi\"\nbye")
	txn.AddPosting(&ast.Posting{Account: "Assets:Cash", Amount: ast.MustNewAmount("1", "USD")}).
		AddPosting(&ast.Posting{Account: "Equity:Misc"})

	out := Stringify(txn)
	assert.True(t, strings.HasPrefix(out, `2024-01-01 * "say \"hi\"\nbye"`+"\n"))
}

func TestFormatWithOptions(t *testing.T) {
	f := New(WithCurrencyColumn(30), WithIndentation(4))
	txn := ast.NewTransaction(date("2024-01-01"), "x")
	txn.AddPosting(&ast.Posting{Account: "Assets:Cash", Amount: ast.MustNewAmount("1", "USD")}).
		AddPosting(&ast.Posting{Account: "Equity:Misc"})

	out := f.Format(txn)
	assert.Contains(t, out, "    Assets:Cash"+strings.Repeat(" ", 30-15-1)+"1 USD\n")

	var buf bytes.Buffer
	assert.NoError(t, f.FormatTransaction(txn, &buf))
	assert.Equal(t, out, buf.String())
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"2014-05-05 * \"Cafe Mogador\" \"Lamb tagine\" #dining ^trip\n  bot-uuid: \"h-1\"\n  invoice: \"INV-1\"\n  Liabilities:CreditCard  -37.45 USD\n    confirmation: \"C1\"\n  Expenses:Food:Restaurant\n",
		"2024-01-01 ! \"Pending\"\n  Assets:Broker 10 HOOL {518.73 USD}\n  Assets:Cash -5,187.30 USD\n",
		"2024-01-01 txn \"Escapes \\\"q\\\" \\\\ \\t\"\n  Assets:Cash 1 EUR @ 1.10 USD\n  Equity:Misc\n",
		"2024-01-01 * \"午餐\"\n  Expenses:餐饮 25.00 CNY\n  Assets:现金\n",
	}

	for _, input := range inputs {
		txn, err := parser.ParseString(input)
		assert.NoError(t, err)

		first := Stringify(txn)
		again, err := parser.ParseString(first)
		assert.NoError(t, err, first)
		assert.Equal(t, first, Stringify(again))
	}
}
