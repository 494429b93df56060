// Large Ledger Generator
//
// This tool generates a large ledger in the shape the bot maintains for
// performance testing and profiling of indexing and removal. Most entries
// carry a handle as the bot writes them; the rest are hand-written
// directives the index has to skip.
//
// Usage:
//
//	go run main.go > large.beancount
//	go run main.go 20000000 > large.beancount  # Specify target size in bytes
//	beancount-bot check --list                 # with the ledger configured
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/formatter"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
)

var (
	accounts = []string{
		"Assets:Bank:Checking",
		"Assets:Bank:Savings",
		"Assets:Cash",
		"Liabilities:CreditCard:Visa",
		"Income:Salary",
		"Expenses:Food:Groceries",
		"Expenses:Food:Restaurant",
		"Expenses:Housing:Rent",
		"Expenses:Transport:Transit",
		"Expenses:Shopping:Clothing",
		"Expenses:Entertainment:Movies",
		"Equity:Opening-Balances",
	}

	payees = []string{
		"Whole Foods", "Safeway", "Trader Joe's", "BART", "Uber",
		"Landlord", "Amazon", "Target", "Netflix", "Employer Inc",
	}

	narrations = []string{
		"Grocery shopping", "Rent payment", "Salary deposit",
		"Restaurant dinner", "Coffee", "Monthly subscription",
		"Online purchase", "Gift",
	}

	tags = []string{"bot", "personal", "business", "vacation", "reimbursable"}

	currencies = []string{"USD", "EUR", "GBP"}
)

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	out := bufio.NewWriter(os.Stdout)
	defer func() { _ = out.Flush() }()

	bytesWritten, _ := fmt.Fprint(out, header())

	currentDate := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	transactionCount := 0

	for bytesWritten < targetSize {
		var entry string
		switch rand.Intn(10) {
		case 0, 1, 2, 3, 4, 5: // 60% - Bot transaction
			entry = formatter.Default.Format(botTransaction(currentDate)) + "\n"
			transactionCount++
		case 6, 7: // 20% - Bot transaction with metadata and a foreign currency
			entry = formatter.Default.Format(foreignTransaction(currentDate)) + "\n"
			transactionCount++
		case 8: // 10% - Hand-written balance assertion
			entry = fmt.Sprintf("%s balance %s  %s USD\n\n",
				currentDate.Format("2006-01-02"), pick(accounts), randAmount(1000, 50000))
		case 9: // 10% - Hand-written comment
			entry = fmt.Sprintf("; reviewed %s\n\n", currentDate.Format("2006-01-02"))
		}

		n, _ := fmt.Fprint(out, entry)
		bytesWritten += n

		currentDate = currentDate.AddDate(0, 0, rand.Intn(3))
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d bot transactions\n", bytesWritten, transactionCount)
}

func header() string {
	s := "; Large ledger for performance testing\n"
	s += "; Generated: " + time.Now().Format("2006-01-02 15:04:05") + "\n\n"
	for _, account := range accounts {
		s += "2020-01-01 open " + account + "\n"
	}
	return s + "\n"
}

func botTransaction(date time.Time) *ast.Transaction {
	txn := ast.NewTransaction(date, pick(narrations))
	txn.Handle = uuid.NewString()
	txn.Payee = pick(payees)
	txn.Tags = ast.MergeTags([]string{"bot"}, []string{pick(tags)})

	amount := ast.MustNewAmount(randAmount(1, 500), "USD")
	txn.AddPosting(&ast.Posting{Account: pick(accounts), Amount: amount}).
		AddPosting(&ast.Posting{Account: pick(accounts)})
	return txn
}

func foreignTransaction(date time.Time) *ast.Transaction {
	txn := botTransaction(date)
	currency := pick(currencies)
	txn.Metadata = append(txn.Metadata, &ast.Metadata{Key: "receipt", Value: fmt.Sprintf("RCP-%d", rand.Intn(100000)), Quoted: true})

	amount := ast.MustNewAmount(randAmount(10, 200), currency)
	rate := decimal.NewFromFloat(0.8 + rand.Float64()*0.6).Round(4)
	txn.Postings[0].Amount = amount
	txn.Postings[0].Price = &ast.Amount{Number: rate, Currency: "USD"}
	return txn
}

func pick(values []string) string {
	return values[rand.Intn(len(values))]
}

func randAmount(min, max float64) string {
	amount := min + rand.Float64()*(max-min)
	return fmt.Sprintf("%.2f", amount)
}
