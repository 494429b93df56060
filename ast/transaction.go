package ast

import (
	"time"
)

// HandleKey is the reserved metadata key that carries a transaction handle
// inside a ledger block. Dispatchers never emit it; the ledger store sets it.
const HandleKey = "bot-uuid"

// Transaction records a financial transaction with a date, flag, optional payee,
// narration, and a list of postings. The flag indicates transaction status: '*' for
// cleared/complete transactions and '!' for pending ones.
//
// Handle is assigned by the ledger store when the transaction is persisted and is
// written back as the HandleKey metadata line. RawText and Dispatcher describe
// where the value came from and are never serialized.
//
// Example:
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine with wine" #dining
//	  bot-uuid: "7b1f6c1e-3c5e-4c3c-9a55-0d0f3c2b9d11"
//	  Liabilities:CreditCard:CapitalOne         -37.45 USD
//	  Expenses:Food:Restaurant
type Transaction struct {
	Handle    string
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Metadata  []*Metadata
	Postings  []*Posting

	RawText    string
	Dispatcher string
}

// Posting represents a single leg of a transaction. Amount may be nil, in which
// case the ledger infers it from the other postings. Cost and Price are optional
// annotations passed through verbatim.
//
// Example postings within transactions:
//
//	Assets:Investments:Brokerage    10 HOOL {518.73 USD}
//	Assets:Investments:Cash        200 EUR @ 1.35 USD
//	Expenses:Groceries              45.60 USD
//	Assets:Checking
type Posting struct {
	Flag       string
	Account    string
	Amount     *Amount
	Cost       *Amount
	Price      *Amount
	PriceTotal bool
	Metadata   []*Metadata
}

// Metadata is a key-value pair attached to a transaction or posting. Quoted
// records whether the value was a string literal so it is written back the same way.
type Metadata struct {
	Key    string
	Value  string
	Quoted bool
}

// NewTransaction creates a cleared transaction for the given date.
func NewTransaction(date time.Time, narration string) *Transaction {
	return &Transaction{
		Date:      date,
		Flag:      "*",
		Narration: narration,
	}
}

// AddPosting appends a posting and returns the transaction for chaining.
func (t *Transaction) AddPosting(p *Posting) *Transaction {
	t.Postings = append(t.Postings, p)
	return t
}

// AddTags merges tags into the transaction, keeping the existing order and
// dropping duplicates.
func (t *Transaction) AddTags(tags ...string) {
	t.Tags = MergeTags(t.Tags, tags)
}

// MetadataValue returns the value stored under key at transaction level.
func (t *Transaction) MetadataValue(key string) (string, bool) {
	for _, m := range t.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// Clone returns a deep copy so callers can modify tags or metadata without
// touching a value that has already been handed out.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	c.Links = append([]string(nil), t.Links...)
	c.Metadata = cloneMetadata(t.Metadata)
	c.Postings = make([]*Posting, len(t.Postings))
	for i, p := range t.Postings {
		pc := *p
		pc.Amount = p.Amount.clone()
		pc.Cost = p.Cost.clone()
		pc.Price = p.Price.clone()
		pc.Metadata = cloneMetadata(p.Metadata)
		c.Postings[i] = &pc
	}
	return &c
}

func cloneMetadata(in []*Metadata) []*Metadata {
	if in == nil {
		return nil
	}
	out := make([]*Metadata, len(in))
	for i, m := range in {
		mc := *m
		out[i] = &mc
	}
	return out
}

// MergeTags returns the union of the given tag groups in insertion order.
// Empty tags and a leading '#' are normalized away.
func MergeTags(groups ...[]string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, tag := range group {
			tag = NormalizeTag(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// NormalizeTag strips surrounding whitespace and a leading '#'.
func NormalizeTag(tag string) string {
	for len(tag) > 0 && (tag[0] == ' ' || tag[0] == '\t' || tag[0] == '#') {
		tag = tag[1:]
	}
	for len(tag) > 0 && (tag[len(tag)-1] == ' ' || tag[len(tag)-1] == '\t') {
		tag = tag[:len(tag)-1]
	}
	return tag
}
