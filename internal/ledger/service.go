package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/money"
)

// IDGenerator generates unique IDs for debt entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service posts debts to the shared ledger and settles them
type Service struct {
	store       Store
	parties     Parties
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(store Store, parties Parties) *Service {
	return NewServiceWithDeps(store, parties, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, parties Parties, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		store:       store,
		parties:     parties,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Parties returns the two ledger parties
func (s *Service) Parties() Parties {
	return s.parties
}

// update runs fn on the stored document with both party lists present
func (s *Service) update(ctx context.Context, fn func(doc *Document) error) (*Document, error) {
	doc, err := s.store.Update(ctx, func(doc *Document) error {
		doc.ensure(s.parties)
		return fn(doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// State returns the current ledger document
func (s *Service) State(ctx context.Context) (*Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	doc.ensure(s.parties)
	return doc, nil
}

// ConfirmSelection posts the selected total of a receipt as a debt of the party who
// did not pay
func (s *Service) ConfirmSelection(ctx context.Context, payer string, selectedTotal, receiptTotal decimal.Decimal) (*DebtEntry, error) {
	debtor, err := s.parties.Other(payer)
	if err != nil {
		return nil, err
	}
	if !selectedTotal.IsPositive() {
		return nil, ErrNothingSelected
	}

	entry := DebtEntry{
		ID:     s.idGenerator.Generate(),
		Amount: selectedTotal,
		Date:   s.timeSource.Now(),
		Note:   fmt.Sprintf("receipt total %s", money.Format(receiptTotal)),
	}
	if _, err := s.update(ctx, func(doc *Document) error {
		doc.Debts[debtor] = append(doc.Debts[debtor], entry)
		return nil
	}); err != nil {
		slog.Error("Failed to save confirmed selection", "debtor", debtor, "amount", money.Format(selectedTotal), "error", err)
		return nil, fmt.Errorf("saving debt: %w", err)
	}

	slog.Info("Selection confirmed", "payer", payer, "debtor", debtor, "amount", money.Format(selectedTotal))
	return &entry, nil
}

// AddDebt appends a manually entered debt without a note
func (s *Service) AddDebt(ctx context.Context, party string, amount decimal.Decimal) (*DebtEntry, error) {
	party, err := s.parties.Resolve(party)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	entry := DebtEntry{
		ID:     s.idGenerator.Generate(),
		Amount: amount,
		Date:   s.timeSource.Now(),
	}
	if _, err := s.update(ctx, func(doc *Document) error {
		doc.Debts[party] = append(doc.Debts[party], entry)
		return nil
	}); err != nil {
		slog.Error("Failed to save debt", "party", party, "error", err)
		return nil, fmt.Errorf("saving debt: %w", err)
	}
	return &entry, nil
}

// DeleteDebt removes the entry at index from party's list. An out of range index
// leaves the ledger untouched and reports false.
func (s *Service) DeleteDebt(ctx context.Context, party string, index int) (bool, error) {
	party, err := s.parties.Resolve(party)
	if err != nil {
		return false, err
	}

	_, err = s.update(ctx, func(doc *Document) error {
		entries := doc.Debts[party]
		if index < 0 || index >= len(entries) {
			return ErrDebtNotFound
		}
		doc.Debts[party] = append(entries[:index:index], entries[index+1:]...)
		return nil
	})
	if errors.Is(err, ErrDebtNotFound) {
		return false, nil
	}
	if err != nil {
		slog.Error("Failed to delete debt", "party", party, "index", index, "error", err)
		return false, fmt.Errorf("deleting debt: %w", err)
	}
	return true, nil
}

// Settle records that party paid off all open debts and clears the list
func (s *Service) Settle(ctx context.Context, party string) (*HistoryEntry, error) {
	party, err := s.parties.Resolve(party)
	if err != nil {
		return nil, err
	}
	creditor, err := s.parties.Other(party)
	if err != nil {
		return nil, err
	}

	var entry HistoryEntry
	_, err = s.update(ctx, func(doc *Document) error {
		total := doc.Total(party)
		if total.IsZero() {
			return ErrNothingToSettle
		}
		entry = HistoryEntry{
			Date:   s.timeSource.Now(),
			From:   party,
			To:     creditor,
			Amount: total,
		}
		doc.History = append(doc.History, entry)
		doc.Debts[party] = make([]DebtEntry, 0)
		return nil
	})
	if errors.Is(err, ErrNothingToSettle) {
		return nil, err
	}
	if err != nil {
		slog.Error("Failed to settle debts", "party", party, "error", err)
		return nil, fmt.Errorf("settling debts: %w", err)
	}

	slog.Info("Debts settled", "from", party, "to", creditor, "amount", money.Format(entry.Amount))
	return &entry, nil
}

// History returns settlements oldest first
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	doc, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return doc.History, nil
}
