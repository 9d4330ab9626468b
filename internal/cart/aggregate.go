package cart

import (
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

// Line is one purchasable line. FinalPrice is UnitPrice times Quantity.
type Line struct {
	ProductID     uuid.UUID `json:"productId"`
	UnitReference string    `json:"unitReference,omitempty"`
	Title         string    `json:"title,omitempty"`
	Quantity      int       `json:"quantity"`
	UnitPrice     int64     `json:"unitPrice"`
	FinalPrice    int64     `json:"finalPrice"`
}

// Aggregate is the in-memory cart owned by one shopper session. Lines are
// identified by product and unit reference, the same pair the server cart
// merges on.
type Aggregate struct {
	mu    sync.Mutex
	lines []Line
}

// NewAggregate seeds an aggregate with lines, merging duplicates.
func NewAggregate(lines ...Line) *Aggregate {
	a := &Aggregate{}
	for _, line := range lines {
		_ = a.AddLine(line)
	}
	return a
}

// AddLine appends a line or, when the product and unit reference are already
// present, adds to its quantity.
func (a *Aggregate) AddLine(line Line) error {
	if line.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if line.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.indexOf(line.ProductID, line.UnitReference); i >= 0 {
		existing := &a.lines[i]
		existing.Quantity += line.Quantity
		existing.UnitPrice = line.UnitPrice
		if line.Title != "" {
			existing.Title = line.Title
		}
		existing.FinalPrice = existing.UnitPrice * int64(existing.Quantity)
		return nil
	}
	line.FinalPrice = line.UnitPrice * int64(line.Quantity)
	a.lines = append(a.lines, line)
	return nil
}

// RemoveLine drops the matching line. Removing a line that is not present is
// not an error, so a stale local copy never blocks the shopper.
func (a *Aggregate) RemoveLine(productID uuid.UUID, unitReference string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.indexOf(productID, unitReference); i >= 0 {
		a.lines = append(a.lines[:i:i], a.lines[i+1:]...)
	}
}

// SetQuantity changes the quantity of a line and recomputes its final price.
func (a *Aggregate) SetQuantity(productID uuid.UUID, unitReference string, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.indexOf(productID, unitReference)
	if i < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	a.lines[i].Quantity = quantity
	a.lines[i].FinalPrice = a.lines[i].UnitPrice * int64(quantity)
	return nil
}

// Clear empties the cart.
func (a *Aggregate) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = nil
}

// Subtotal sums the final prices of all lines.
func (a *Aggregate) Subtotal() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total int64
	for _, line := range a.lines {
		total += line.FinalPrice
	}
	return total
}

// Lines returns a copy of the current lines in insertion order.
func (a *Aggregate) Lines() []Line {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Line, len(a.lines))
	copy(out, a.lines)
	return out
}

// Len returns the number of lines.
func (a *Aggregate) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lines)
}

// IsEmpty reports whether the cart has no lines.
func (a *Aggregate) IsEmpty() bool {
	return a.Len() == 0
}

func (a *Aggregate) indexOf(productID uuid.UUID, unitReference string) int {
	for i, line := range a.lines {
		if line.ProductID == productID && line.UnitReference == unitReference {
			return i
		}
	}
	return -1
}
