package receipt

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/money"
)

// Item is one purchased line of a receipt
type Item struct {
	SourceName     string          `json:"source_name"`
	TranslatedName string          `json:"translated_name,omitempty"` // Empty until translation ran
	GrossPrice     decimal.Decimal `json:"gross_price"`
	DiscountTotal  decimal.Decimal `json:"discount_total"`
	NetPrice       decimal.Decimal `json:"net_price"`
	Fraction       decimal.Decimal `json:"fraction"` // Portion of NetPrice owed by the other party
	Selected       bool            `json:"selected"`
	LookupRef      string          `json:"lookup_ref,omitempty"`
}

// newItem creates an undiscounted, unselected item with a full fraction
func newItem(name string, gross decimal.Decimal) *Item {
	return &Item{
		SourceName:    name,
		GrossPrice:    gross,
		DiscountTotal: decimal.Zero,
		NetPrice:      gross,
		Fraction:      decimal.NewFromInt(1),
	}
}

// ApplyDiscount folds a discount amount into the item. Discounts accumulate and the
// net price never drops below zero.
func (i *Item) ApplyDiscount(amount decimal.Decimal) {
	i.DiscountTotal = i.DiscountTotal.Add(amount.Abs())
	i.NetPrice = decimal.Max(i.GrossPrice.Sub(i.DiscountTotal), decimal.Zero)
}

// Share is the part of the net price attributed to the other party
func (i *Item) Share() decimal.Decimal {
	return i.NetPrice.Mul(i.Fraction)
}

// Name returns the translated name when available
func (i *Item) Name() string {
	if i.TranslatedName != "" {
		return i.TranslatedName
	}
	return i.SourceName
}

// PriceLabel renders "gross − discount = net" for discounted items, otherwise the net price
func (i *Item) PriceLabel() string {
	if i.DiscountTotal.IsPositive() {
		return fmt.Sprintf("€%s − €%s = €%s",
			money.Format(i.GrossPrice), money.Format(i.DiscountTotal), money.Format(i.NetPrice))
	}
	return "€" + money.Format(i.NetPrice)
}

// ShareLabel renders the split percentage and resulting portion, e.g. "50% → €0.45"
func (i *Item) ShareLabel() string {
	percent := i.Fraction.Mul(decimal.NewFromInt(100)).StringFixed(0)
	return fmt.Sprintf("%s%% → €%s", percent, money.Format(i.Share()))
}
