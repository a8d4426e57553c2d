package receipt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/money"
)

var (
	// ErrItemNotFound is returned when an item index is outside the receipt
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidFraction is returned when a split fraction is not in (0, 5]
	ErrInvalidFraction = errors.New("invalid fraction")
)

// maxFraction guards against fat-fingered splits
var maxFraction = decimal.NewFromInt(5)

// Receipt holds the items parsed from one receipt in receipt order, plus the total
// printed on the receipt (zero when none was found)
type Receipt struct {
	Items         []*Item         `json:"items"`
	DeclaredTotal decimal.Decimal `json:"declared_total"`
}

// NetSum returns the sum of all items' net prices
func (r *Receipt) NetSum() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		sum = sum.Add(item.NetPrice)
	}
	return sum
}

// Total returns the declared total when present, otherwise the computed net sum
func (r *Receipt) Total() decimal.Decimal {
	if r.DeclaredTotal.IsPositive() {
		return r.DeclaredTotal
	}
	return r.NetSum()
}

// SelectedTotal returns the sum of netPrice × fraction over selected items
func (r *Receipt) SelectedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		if item.Selected {
			sum = sum.Add(item.Share())
		}
	}
	return sum
}

// Item returns the item at index
func (r *Receipt) Item(index int) (*Item, error) {
	if index < 0 || index >= len(r.Items) {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, index)
	}
	return r.Items[index], nil
}

// SetSelected marks an item as selected or not and returns the new selected total
func (r *Receipt) SetSelected(index int, selected bool) (decimal.Decimal, error) {
	item, err := r.Item(index)
	if err != nil {
		return decimal.Zero, err
	}
	item.Selected = selected
	return r.SelectedTotal(), nil
}

// Toggle flips an item's selection and returns the new selected total
func (r *Receipt) Toggle(index int) (decimal.Decimal, error) {
	item, err := r.Item(index)
	if err != nil {
		return decimal.Zero, err
	}
	return r.SetSelected(index, !item.Selected)
}

// SetFraction parses input and stores it as the item's fraction. On failure the
// previous fraction is kept.
func (r *Receipt) SetFraction(index int, input string) (decimal.Decimal, error) {
	item, err := r.Item(index)
	if err != nil {
		return decimal.Zero, err
	}
	fraction, err := ParseFraction(input)
	if err != nil {
		return decimal.Zero, err
	}
	item.Fraction = fraction
	return r.SelectedTotal(), nil
}

// ParseFraction accepts a decimal literal ("0.5", "0,5") or a ratio ("2/3") and
// validates it is in (0, 5]
func ParseFraction(input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)

	var fraction decimal.Decimal
	if num, den, ok := strings.Cut(input, "/"); ok {
		a, err := money.Parse(num)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidFraction, input)
		}
		b, err := money.Parse(den)
		if err != nil || b.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidFraction, input)
		}
		fraction = a.Div(b)
	} else {
		f, err := money.Parse(input)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidFraction, input)
		}
		fraction = f
	}

	if !fraction.IsPositive() || fraction.GreaterThan(maxFraction) {
		return decimal.Zero, fmt.Errorf("%w: %q must be greater than 0 and at most 5", ErrInvalidFraction, input)
	}
	return fraction, nil
}
