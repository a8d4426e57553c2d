package ledger

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zombor/receipt-split/internal/money"
)

// DisplayParty capitalizes a party name for display
func DisplayParty(party string) string {
	return cases.Title(language.Und).String(party)
}

// Line renders a settlement as "2024-01-15 — David paid Popa €12.50"
func (h HistoryEntry) Line() string {
	return fmt.Sprintf("%s — %s paid %s €%s",
		h.Date.Format("2006-01-02"), DisplayParty(h.From), DisplayParty(h.To), money.Format(h.Amount))
}
