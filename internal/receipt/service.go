package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/ledger"
	"github.com/zombor/receipt-split/internal/scanning"
	"github.com/zombor/receipt-split/internal/translation"
)

var (
	// ErrNoItems is returned when confirming a session whose receipt yielded no items
	ErrNoItems = errors.New("no items detected")

	// ErrSessionNotFound is returned for an id other than the active session's
	ErrSessionNotFound = errors.New("receipt session not found")

	// ErrSessionConfirmed is returned when changing or confirming a session again
	ErrSessionConfirmed = errors.New("receipt session already confirmed")
)

// Session status lines
const (
	StatusReady     = "ready"
	StatusNoItems   = "no items detected"
	StatusConfirmed = "confirmed"
)

// IDGenerator generates unique session IDs
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Ledger receives confirmed selections
type Ledger interface {
	ConfirmSelection(ctx context.Context, payer string, selectedTotal, receiptTotal decimal.Decimal) (*ledger.DebtEntry, error)
}

// Session is the working state for one uploaded receipt
type Session struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Image   string   `json:"image,omitempty"`
	Receipt *Receipt `json:"receipt"`
}

// ItemView is an item with its display labels
type ItemView struct {
	Item
	Index       int    `json:"index"`
	DisplayName string `json:"display_name"`
	PriceLabel  string `json:"price_label"`
	ShareLabel  string `json:"share_label"`
}

// SessionView is a consistent snapshot of a session for callers outside the lock
type SessionView struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Image         string          `json:"image,omitempty"`
	Items         []ItemView      `json:"items"`
	DeclaredTotal decimal.Decimal `json:"declared_total"`
	NetSum        decimal.Decimal `json:"net_sum"`
	Total         decimal.Decimal `json:"total"`
	SelectedTotal decimal.Decimal `json:"selected_total"`
}

func (s *Session) view() *SessionView {
	v := &SessionView{
		ID:            s.ID,
		Status:        s.Status,
		Image:         s.Image,
		Items:         make([]ItemView, 0, len(s.Receipt.Items)),
		DeclaredTotal: s.Receipt.DeclaredTotal,
		NetSum:        s.Receipt.NetSum(),
		Total:         s.Receipt.Total(),
		SelectedTotal: s.Receipt.SelectedTotal(),
	}
	for i, item := range s.Receipt.Items {
		v.Items = append(v.Items, ItemView{
			Item:        *item,
			Index:       i,
			DisplayName: DisplayName(item.Name()),
			PriceLabel:  item.PriceLabel(),
			ShareLabel:  item.ShareLabel(),
		})
	}
	return v
}

// Config holds the Service's tunables
type Config struct {
	LookupSite         string
	TranslationTimeout time.Duration
}

// Service runs the receipt workflow: OCR, parsing, translation, selection and
// confirmation into the ledger. Only one session is active at a time; a new upload
// replaces it.
type Service struct {
	scanner     scanning.Scanner
	translator  translation.Translator
	ledger      Ledger
	storage     Storage
	parser      *Parser
	config      Config
	idGenerator IDGenerator

	mu      sync.Mutex
	current *Session
}

// NewService creates a new Service for Lidl receipts
func NewService(scanner scanning.Scanner, translator translation.Translator, ledger Ledger, storage Storage, config Config) *Service {
	return NewServiceWithDeps(scanner, translator, ledger, storage, NewLidlParser(), config, &uuidGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, translator translation.Translator, ledger Ledger, storage Storage, parser *Parser, config Config, idGen IDGenerator) *Service {
	return &Service{
		scanner:     scanner,
		translator:  translator,
		ledger:      ledger,
		storage:     storage,
		parser:      parser,
		config:      config,
		idGenerator: idGen,
	}
}

// ScanReceipt archives the photo, runs OCR on it and starts a session from the text
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*SessionView, error) {
	id := s.idGenerator.Generate()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.scanner.ScanText(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	return s.startSession(ctx, id, text, savedPath), nil
}

// ParseText starts a session from already recognized text
func (s *Service) ParseText(ctx context.Context, text string) *SessionView {
	return s.startSession(ctx, s.idGenerator.Generate(), text, "")
}

func (s *Service) startSession(ctx context.Context, id, text, image string) *SessionView {
	receipt := s.parser.Parse(text)

	session := &Session{ID: id, Status: StatusReady, Image: image, Receipt: receipt}
	if len(receipt.Items) == 0 {
		session.Status = StatusNoItems
		slog.Warn("No items detected", "session", id)
	} else {
		s.translate(ctx, receipt)
		slog.Info("Receipt parsed", "session", id, "items", len(receipt.Items), "total", receipt.Total().StringFixed(2))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session
	return session.view()
}

// translate fills every item's translated name and lookup link, returning only once
// all names are done
func (s *Service) translate(ctx context.Context, receipt *Receipt) {
	names := make([]string, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		names = append(names, item.SourceName)
		item.LookupRef = LookupLink(item.SourceName, s.config.LookupSite)
	}

	if s.translator == nil {
		return
	}
	translated, err := translation.TranslateAll(ctx, s.translator, names, s.config.TranslationTimeout)
	if err != nil {
		slog.Warn("Translation interrupted, keeping source names", "error", err)
	}
	for _, item := range receipt.Items {
		item.TranslatedName = translated[item.SourceName]
	}
}

// withSession runs fn on the active session while holding the lock
func (s *Service) withSession(id string, fn func(session *Session) error) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != id {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := fn(s.current); err != nil {
		return nil, err
	}
	return s.current.view(), nil
}

// GetSession returns the active session
func (s *Service) GetSession(id string) (*SessionView, error) {
	return s.withSession(id, func(*Session) error { return nil })
}

// editable fails once the selection has been posted to the ledger
func (s *Session) editable() error {
	if s.Status == StatusConfirmed {
		return fmt.Errorf("%w: %s", ErrSessionConfirmed, s.ID)
	}
	return nil
}

// SetSelected selects or deselects an item
func (s *Service) SetSelected(id string, index int, selected bool) (*SessionView, error) {
	return s.withSession(id, func(session *Session) error {
		if err := session.editable(); err != nil {
			return err
		}
		_, err := session.Receipt.SetSelected(index, selected)
		return err
	})
}

// SetFraction validates and stores an item's split fraction
func (s *Service) SetFraction(id string, index int, input string) (*SessionView, error) {
	return s.withSession(id, func(session *Session) error {
		if err := session.editable(); err != nil {
			return err
		}
		_, err := session.Receipt.SetFraction(index, input)
		return err
	})
}

// Confirm posts the session's selected total as a debt of the party who did not pay.
// A session is posted at most once; the lock is held across the ledger write so a
// concurrent second confirm sees the confirmed status.
func (s *Service) Confirm(ctx context.Context, id, payer string) (*ledger.DebtEntry, error) {
	var entry *ledger.DebtEntry
	if _, err := s.withSession(id, func(session *Session) error {
		if err := session.editable(); err != nil {
			return err
		}
		if len(session.Receipt.Items) == 0 {
			return ErrNoItems
		}

		var err error
		entry, err = s.ledger.ConfirmSelection(ctx, payer, session.Receipt.SelectedTotal(), session.Receipt.Total())
		if err != nil {
			return fmt.Errorf("confirming selection: %w", err)
		}
		session.Status = StatusConfirmed
		return nil
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetReceiptImage returns the archived photo of the active session
func (s *Service) GetReceiptImage(id string) ([]byte, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if session.Image == "" {
		return nil, fmt.Errorf("session %s has no image", id)
	}
	data, err := s.storage.Get(session.Image)
	if err != nil {
		return nil, fmt.Errorf("getting receipt image: %w", err)
	}
	return data, nil
}
