package receipt

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/money"
)

// LineKind is the classification of a single trimmed OCR line
type LineKind int

const (
	Unrecognized LineKind = iota
	Noise
	TotalMarker
	DiscountMarker
	QuantityItem
	SimpleItem
)

func (k LineKind) String() string {
	switch k {
	case Noise:
		return "noise"
	case TotalMarker:
		return "total"
	case DiscountMarker:
		return "discount"
	case QuantityItem:
		return "quantity-item"
	case SimpleItem:
		return "simple-item"
	default:
		return "unrecognized"
	}
}

// Rule classifies every line matching Pattern as Kind. Handle receives the submatches
// and applies the line to the parse context; an error means the line is skipped.
// A nil Handle discards the line.
type Rule struct {
	Kind    LineKind
	Pattern *regexp.Regexp
	Handle  func(ctx *parseContext, match []string) error
}

// parseContext is threaded through every line of one parse
type parseContext struct {
	receipt *Receipt
	last    *Item // Most recently created item, target of discount lines
}

func (c *parseContext) addItem(name string, gross decimal.Decimal) {
	item := newItem(strings.TrimSpace(name), gross)
	c.receipt.Items = append(c.receipt.Items, item)
	c.last = item
}

const itemName = `([A-Za-zÀ-ÿ0-9\s\.\-\(\)\/]+?)`

var amountPattern = regexp.MustCompile(`(-?\d+[.,]\d{2})`)

// LidlRules returns the classification table for Dutch Lidl receipts, in priority order
func LidlRules() []Rule {
	return []Rule{
		{
			Kind:    Noise,
			Pattern: regexp.MustCompile(`(?i)\b(?:aantal|bankpas|eur|customer|bon|kassa|betaal\w*|te betalen)\b`),
		},
		{
			Kind:    TotalMarker,
			Pattern: regexp.MustCompile(`(?i)tota+l`),
			Handle:  handleTotal,
		},
		{
			Kind:    DiscountMarker,
			Pattern: regexp.MustCompile(`(?i)actieprijs|lidl plus korting|in prijs verlaagd`),
			Handle:  handleDiscount,
		},
		{
			Kind:    QuantityItem,
			Pattern: regexp.MustCompile(`^` + itemName + `\s+(\d+[.,]?\d*)\s*[xX]\s*(\d+[.,]\d{2})`),
			Handle:  handleQuantityItem,
		},
		{
			Kind:    SimpleItem,
			Pattern: regexp.MustCompile(`^` + itemName + `\s+(\d+[.,]\d{2})\s*[A-Z]?$`),
			Handle:  handleSimpleItem,
		},
	}
}

func handleTotal(ctx *parseContext, match []string) error {
	amount := amountPattern.FindString(match[0])
	if amount == "" {
		return fmt.Errorf("total line without amount")
	}
	total, err := money.Parse(amount)
	if err != nil {
		return err
	}
	ctx.receipt.DeclaredTotal = total.Abs()
	return nil
}

func handleDiscount(ctx *parseContext, match []string) error {
	amount := amountPattern.FindString(match[0])
	if amount == "" {
		return fmt.Errorf("discount line without amount")
	}
	discount, err := money.Parse(amount)
	if err != nil {
		return err
	}
	if ctx.last == nil {
		return fmt.Errorf("discount before any item")
	}
	ctx.last.ApplyDiscount(discount.Abs())
	return nil
}

func handleQuantityItem(ctx *parseContext, match []string) error {
	qty, err := money.Parse(match[2])
	if err != nil {
		return fmt.Errorf("parsing quantity: %w", err)
	}
	unit, err := money.Parse(match[3])
	if err != nil {
		return fmt.Errorf("parsing unit price: %w", err)
	}
	ctx.addItem(match[1], qty.Mul(unit))
	return nil
}

func handleSimpleItem(ctx *parseContext, match []string) error {
	price, err := money.Parse(match[2])
	if err != nil {
		return fmt.Errorf("parsing price: %w", err)
	}
	if !price.IsPositive() {
		return fmt.Errorf("non-positive price %s", price)
	}
	ctx.addItem(match[1], price)
	return nil
}

// Parser turns raw OCR text into a Receipt using an ordered rule table
type Parser struct {
	rules []Rule
}

// NewParser creates a Parser. Rules are evaluated in order; the first match wins.
func NewParser(rules []Rule) *Parser {
	return &Parser{rules: rules}
}

// NewLidlParser creates a Parser for Lidl receipts
func NewLidlParser() *Parser {
	return NewParser(LidlRules())
}

// Classify returns the kind of the first rule matching line
func (p *Parser) Classify(line string) LineKind {
	rule, _ := p.match(strings.TrimSpace(line))
	if rule == nil {
		return Unrecognized
	}
	return rule.Kind
}

func (p *Parser) match(line string) (*Rule, []string) {
	for i := range p.rules {
		if m := p.rules[i].Pattern.FindStringSubmatch(line); m != nil {
			return &p.rules[i], m
		}
	}
	return nil, nil
}

// Parse classifies every non-empty line of text in order. Lines that do not match or
// fail numeric conversion are skipped; they never stop the parse.
func (p *Parser) Parse(text string) *Receipt {
	ctx := &parseContext{receipt: &Receipt{Items: make([]*Item, 0)}}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		rule, match := p.match(line)
		if rule == nil {
			slog.Debug("Skipping unrecognized line", "line", line)
			continue
		}
		if rule.Handle == nil {
			continue
		}
		if err := rule.Handle(ctx, match); err != nil {
			slog.Debug("Skipping line", "line", line, "kind", rule.Kind.String(), "reason", err)
		}
	}

	return ctx.receipt
}
