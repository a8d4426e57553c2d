package receipt

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/ledger"
)

const sampleText = `LIDL
Melk 1.5 x 0,89
Actieprijs -0,20
Brood 2,19 B
Brood 2,19 B
TOTAAL 23,45
Bankpas 23,45`

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	files     map[string][]byte
	saveErr   error
	deleteErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockStorage) Get(name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Delete(name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, name)
	return nil
}

// mockScanner is a mock implementation of scanning.Scanner
type mockScanner struct {
	text    string
	scanErr error
}

func (m *mockScanner) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	if m.scanErr != nil {
		return "", m.scanErr
	}
	return m.text, nil
}

func (m *mockScanner) Close() error {
	return nil
}

// mockTranslator is a mock implementation of translation.Translator
type mockTranslator struct {
	mu           sync.Mutex
	translations map[string]string
	calls        []string
}

func (m *mockTranslator) Translate(ctx context.Context, phrase string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, phrase)
	translated, ok := m.translations[phrase]
	if !ok {
		return "", errors.New("no translation")
	}
	return translated, nil
}

// mockLedger is a mock implementation of Ledger
type mockLedger struct {
	calls         int
	payer         string
	selectedTotal decimal.Decimal
	receiptTotal  decimal.Decimal
	err           error
}

func (m *mockLedger) ConfirmSelection(ctx context.Context, payer string, selectedTotal, receiptTotal decimal.Decimal) (*ledger.DebtEntry, error) {
	m.calls++
	m.payer = payer
	m.selectedTotal = selectedTotal
	m.receiptTotal = receiptTotal
	if m.err != nil {
		return nil, m.err
	}
	return &ledger.DebtEntry{ID: "debt-1", Amount: selectedTotal}, nil
}

// mockIDGenerator is a mock implementation of IDGenerator
type mockIDGenerator struct {
	id string
}

func (m *mockIDGenerator) Generate() string {
	return m.id
}

var _ = Describe("Service", func() {
	var (
		ctx        context.Context
		storage    *mockStorage
		scanner    *mockScanner
		translator *mockTranslator
		book       *mockLedger
		service    *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		storage = newMockStorage()
		scanner = &mockScanner{text: sampleText}
		translator = &mockTranslator{translations: map[string]string{"Melk": "Milk", "Brood": "Bread"}}
		book = &mockLedger{}
		service = NewServiceWithDeps(scanner, translator, book, storage, NewLidlParser(),
			Config{LookupSite: "lidl.nl", TranslationTimeout: time.Second}, &mockIDGenerator{id: "session-1"})
	})

	Describe("ScanReceipt", func() {
		var (
			session *SessionView
			err     error
		)

		JustBeforeEach(func() {
			session, err = service.ScanReceipt(ctx, "IMG 0001!.jpg", []byte("fake image"), "image/jpeg")
		})

		When("scanning succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should parse the items in receipt order", func() {
				Expect(session.Items).To(HaveLen(3))
				Expect(session.Items[0].SourceName).To(Equal("Melk"))
				Expect(session.Items[0].NetPrice).To(equalAmount("1.135"))
				Expect(session.Items[2].Index).To(Equal(2))
			})

			It("should report the declared total", func() {
				Expect(session.Total).To(equalAmount("23.45"))
				Expect(session.NetSum).To(equalAmount("5.515"))
			})

			It("should translate each distinct name once", func() {
				Expect(translator.calls).To(ConsistOf("Melk", "Brood"))
				Expect(session.Items[1].TranslatedName).To(Equal("Bread"))
				Expect(session.Items[1].DisplayName).To(Equal("Bread"))
			})

			It("should set lookup links", func() {
				Expect(session.Items[0].LookupRef).To(ContainSubstring("site%3Alidl.nl"))
			})

			It("should archive the photo", func() {
				Expect(session.Image).To(Equal("session-1_IMG 0001.jpg"))
				Expect(storage.files).To(HaveKey("session-1_IMG 0001.jpg"))
			})

			It("should be ready", func() {
				Expect(session.Status).To(Equal(StatusReady))
			})
		})

		When("scanning fails", func() {
			BeforeEach(func() {
				scanner.scanErr = errors.New("model overloaded")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("model overloaded")))
			})

			It("should remove the archived photo", func() {
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("saving the photo fails", func() {
			BeforeEach(func() {
				storage.saveErr = errors.New("disk full")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("saving file")))
			})
		})

		When("no items are found", func() {
			BeforeEach(func() {
				scanner.text = "Bankpas\nKassa 3"
			})

			It("should report the empty result as a status", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(session.Status).To(Equal(StatusNoItems))
				Expect(session.Items).To(BeEmpty())
			})

			It("should not call the translator", func() {
				Expect(translator.calls).To(BeEmpty())
			})
		})

		When("a translation fails", func() {
			BeforeEach(func() {
				translator.translations = map[string]string{"Melk": "Milk"}
			})

			It("should fall back to the source name", func() {
				Expect(session.Items[1].TranslatedName).To(Equal("Brood"))
			})
		})
	})

	Describe("selection", func() {
		BeforeEach(func() {
			service.ParseText(ctx, sampleText)
		})

		It("should update the selected total", func() {
			session, err := service.SetSelected("session-1", 1, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.SelectedTotal).To(equalAmount("2.19"))

			session, err = service.SetFraction("session-1", 1, "1/3")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.SelectedTotal.InexactFloat64()).To(BeNumerically("~", 0.73, 0.001))
		})

		It("should reject invalid fractions", func() {
			_, err := service.SetFraction("session-1", 0, "0")
			Expect(err).To(MatchError(ErrInvalidFraction))
		})

		It("should reject unknown sessions", func() {
			_, err := service.SetSelected("old-session", 0, true)
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("should reject unknown items", func() {
			_, err := service.SetSelected("session-1", 7, true)
			Expect(err).To(MatchError(ErrItemNotFound))
		})
	})

	Describe("Confirm", func() {
		BeforeEach(func() {
			service.ParseText(ctx, sampleText)
			_, err := service.SetSelected("session-1", 0, true)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should post the selected and receipt totals", func() {
			entry, err := service.Confirm(ctx, "session-1", "david")
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Amount).To(equalAmount("1.135"))
			Expect(book.payer).To(Equal("david"))
			Expect(book.receiptTotal).To(equalAmount("23.45"))
		})

		It("should refuse a receipt without items", func() {
			service.ParseText(ctx, "LIDL\nBankpas 3,00")
			_, err := service.Confirm(ctx, "session-1", "david")
			Expect(err).To(MatchError(ErrNoItems))
			Expect(book.payer).To(BeEmpty())
		})

		It("should surface ledger failures and allow a retry", func() {
			book.err = ledger.ErrNothingSelected
			_, err := service.Confirm(ctx, "session-1", "david")
			Expect(err).To(MatchError(ledger.ErrNothingSelected))

			book.err = nil
			_, err = service.Confirm(ctx, "session-1", "david")
			Expect(err).NotTo(HaveOccurred())
		})

		When("the session was already confirmed", func() {
			BeforeEach(func() {
				_, err := service.Confirm(ctx, "session-1", "david")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should not post the debt twice", func() {
				_, err := service.Confirm(ctx, "session-1", "david")
				Expect(err).To(MatchError(ErrSessionConfirmed))
				Expect(book.calls).To(Equal(1))
			})

			It("should report the confirmed status", func() {
				session, err := service.GetSession("session-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(session.Status).To(Equal(StatusConfirmed))
			})

			It("should reject further edits", func() {
				_, err := service.SetSelected("session-1", 1, true)
				Expect(err).To(MatchError(ErrSessionConfirmed))
				_, err = service.SetFraction("session-1", 0, "0.5")
				Expect(err).To(MatchError(ErrSessionConfirmed))
			})
		})
	})

	Describe("GetReceiptImage", func() {
		It("should fail for text sessions", func() {
			service.ParseText(ctx, sampleText)
			_, err := service.GetReceiptImage("session-1")
			Expect(err).To(HaveOccurred())
		})
	})
})
