// Package ledger keeps the shared two-party debt document: open debts per party and
// the history of settlements.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/money"
)

var (
	// ErrUnknownParty is returned for a party name that is not one of the two ledger parties
	ErrUnknownParty = errors.New("unknown party")

	// ErrInvalidAmount is returned when a debt amount is not a positive number
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrNothingSelected is returned when confirming a selection worth nothing
	ErrNothingSelected = errors.New("no items selected")

	// ErrNothingToSettle is returned when settling a party without open debts
	ErrNothingToSettle = errors.New("no debts to settle")

	// ErrDebtNotFound is returned when a debt index is out of range
	ErrDebtNotFound = errors.New("debt not found")

	// ErrVersionConflict is returned when a document write is based on a stale version
	ErrVersionConflict = errors.New("ledger document was modified concurrently")
)

// DebtEntry is an amount one party owes the other. Entries are never edited, only removed.
type DebtEntry struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

// HistoryEntry records a settlement: From paid To the sum of From's open debts
type HistoryEntry struct {
	Date   time.Time       `json:"date"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Document is the whole persisted ledger
type Document struct {
	Version uint64                 `json:"version"`
	Debts   map[string][]DebtEntry `json:"debts"`
	History []HistoryEntry         `json:"history"`
}

// NewDocument returns an empty document with a debt list per party
func NewDocument(parties Parties) *Document {
	doc := &Document{
		Debts:   make(map[string][]DebtEntry),
		History: make([]HistoryEntry, 0),
	}
	doc.ensure(parties)
	return doc
}

func (d *Document) ensure(parties Parties) {
	if d.Debts == nil {
		d.Debts = make(map[string][]DebtEntry)
	}
	if d.History == nil {
		d.History = make([]HistoryEntry, 0)
	}
	for _, p := range []string{parties.A, parties.B} {
		if d.Debts[p] == nil {
			d.Debts[p] = make([]DebtEntry, 0)
		}
	}
}

// Total returns the sum of a party's open debts
func (d *Document) Total(party string) decimal.Decimal {
	sum := decimal.Zero
	for _, entry := range d.Debts[party] {
		sum = sum.Add(entry.Amount)
	}
	return sum
}

// Parties names the two people sharing the ledger
type Parties struct {
	A string
	B string
}

// Resolve maps user input such as "David" or " popa" to the configured party name
func (p Parties) Resolve(party string) (string, error) {
	party = strings.TrimSpace(party)
	switch {
	case strings.EqualFold(party, p.A):
		return p.A, nil
	case strings.EqualFold(party, p.B):
		return p.B, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownParty, party)
	}
}

// Other returns the party that is not party
func (p Parties) Other(party string) (string, error) {
	name, err := p.Resolve(party)
	if err != nil {
		return "", err
	}
	if name == p.A {
		return p.B, nil
	}
	return p.A, nil
}

// ParseAmount validates user-entered debt amounts such as "12,50"
func ParseAmount(input string) (decimal.Decimal, error) {
	amount, err := money.Parse(input)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	return amount, nil
}
