package cart

import (
	"errors"
	"fmt"

	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInstallmentAlreadyInCart is returned when a subscription period
	// already present in the cart is added again
	ErrInstallmentAlreadyInCart = errors.New("subscription installment already in cart")

	// ErrDiscountExceedsSubtotal is returned when a discount larger than
	// the current subtotal is applied
	ErrDiscountExceedsSubtotal = errors.New("discount exceeds subtotal")

	// ErrLineNotFound is returned when a line id is not in the cart
	ErrLineNotFound = errors.New("cart line not found")
)

// Line kinds
const (
	KindProduct     = "product"
	KindInstallment = "subscription_installment"
)

// Line is a single cart entry. Product lines carry a catalog reference and
// a mutable quantity; installment lines are pinned to quantity 1 and carry
// the subscription period they settle.
type Line struct {
	ID                   string
	Kind                 string
	ProductID            *int64
	Description          string
	UnitPrice            decimal.Decimal
	Quantity             int
	ManageStock          bool
	SubscriptionPeriodID *int64
	PeriodLabel          string
}

// Amount returns price x quantity for the line.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// IsInstallment reports whether the line settles a subscription period.
func (l Line) IsInstallment() bool {
	return l.Kind == KindInstallment
}

// NewProductLine builds a cart line from a catalog product.
func NewProductLine(p models.Product, quantity int) Line {
	if quantity < 1 {
		quantity = 1
	}
	id := p.ID
	return Line{
		ID:          fmt.Sprintf("P-%d", p.ID),
		Kind:        KindProduct,
		ProductID:   &id,
		Description: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		ManageStock: p.ManageStock,
	}
}

// NewInstallmentLine synthesizes a pseudo-product line for a pending
// subscription period. The line is not stock-managed and its quantity is
// fixed at 1.
func NewInstallmentLine(sub models.Subscription, period models.SubscriptionPeriod) Line {
	periodID := period.ID
	return Line{
		ID:                   fmt.Sprintf("SUB-%d", sub.ID),
		Kind:                 KindInstallment,
		Description:          fmt.Sprintf("Assinatura %s - %s", sub.Provider, period.PeriodLabel),
		UnitPrice:            period.Value,
		Quantity:             1,
		SubscriptionPeriodID: &periodID,
		PeriodLabel:          period.PeriodLabel,
	}
}

// Cart holds the in-progress sale state for one terminal: ordered lines,
// the selected customer, the applied discount and, when an existing pending
// order is being edited, its sale id.
type Cart struct {
	lines         []Line
	customerID    *int64
	discount      decimal.Decimal
	editingSaleID *int64
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// AddProduct adds a product to the cart. Adding a product already present
// increments its quantity instead of creating a second line.
func (c *Cart) AddProduct(p models.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.lines {
		if c.lines[i].Kind == KindProduct && c.lines[i].ProductID != nil && *c.lines[i].ProductID == p.ID {
			c.lines[i].Quantity += quantity
			return
		}
	}
	c.lines = append(c.lines, NewProductLine(p, quantity))
}

// AddInstallment adds a subscription installment line. A period already in
// the cart cannot be added twice.
func (c *Cart) AddInstallment(line Line) error {
	if line.SubscriptionPeriodID == nil {
		return ErrLineNotFound
	}
	for _, l := range c.lines {
		if l.SubscriptionPeriodID != nil && *l.SubscriptionPeriodID == *line.SubscriptionPeriodID {
			return ErrInstallmentAlreadyInCart
		}
	}
	line.Quantity = 1
	c.lines = append(c.lines, line)
	return nil
}

// Increment raises a line's quantity by one. No-op for installment lines.
func (c *Cart) Increment(lineID string) error {
	l := c.find(lineID)
	if l == nil {
		return ErrLineNotFound
	}
	if l.IsInstallment() {
		return nil
	}
	l.Quantity++
	return nil
}

// Decrement lowers a line's quantity by one, never below 1. No-op for
// installment lines.
func (c *Cart) Decrement(lineID string) error {
	l := c.find(lineID)
	if l == nil {
		return ErrLineNotFound
	}
	if l.IsInstallment() || l.Quantity <= 1 {
		return nil
	}
	l.Quantity--
	return nil
}

// SetQuantity sets a product line's quantity directly, clamped to >= 1.
// No-op for installment lines.
func (c *Cart) SetQuantity(lineID string, quantity int) error {
	l := c.find(lineID)
	if l == nil {
		return ErrLineNotFound
	}
	if l.IsInstallment() {
		return nil
	}
	if quantity < 1 {
		quantity = 1
	}
	l.Quantity = quantity
	return nil
}

// Remove deletes a line from the cart.
func (c *Cart) Remove(lineID string) error {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Subtotal is recomputed from the lines on every call, never cached.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Amount())
	}
	return total
}

// SetDiscount applies a fixed discount amount. Negative values are clamped
// to zero; a discount greater than the current subtotal is rejected and the
// previous discount is kept.
func (c *Cart) SetDiscount(d decimal.Decimal) error {
	if d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(c.Subtotal()) {
		return ErrDiscountExceedsSubtotal
	}
	c.discount = d
	return nil
}

// Discount returns the applied discount amount.
func (c *Cart) Discount() decimal.Decimal {
	return c.discount
}

// SetCustomer selects the customer for the sale.
func (c *Cart) SetCustomer(customerID *int64) {
	c.customerID = customerID
}

// CustomerID returns the selected customer, if any.
func (c *Cart) CustomerID() *int64 {
	return c.customerID
}

// SetEditingSale marks the cart as editing an existing pending order.
func (c *Cart) SetEditingSale(saleID *int64) {
	c.editingSaleID = saleID
}

// EditingSaleID returns the pending order being edited, if any.
func (c *Cart) EditingSaleID() *int64 {
	return c.editingSaleID
}

// Clear resets lines, customer, discount and editing state.
func (c *Cart) Clear() {
	c.lines = nil
	c.customerID = nil
	c.discount = decimal.Zero
	c.editingSaleID = nil
}

func (c *Cart) find(lineID string) *Line {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return &c.lines[i]
		}
	}
	return nil
}
