package og

import (
	"slices"

	"main/internal/schema"
	"main/pkg/exception"
)

// Book tracks live orders by ID. It is owned by the engine loop and is
// not safe for concurrent use.
type Book struct {
	orders map[schema.OrderID]*Order
}

// NewBook creates an empty order book.
func NewBook() *Book {
	return &Book{orders: make(map[schema.OrderID]*Order)}
}

// Track adds an order. The ID must be unique among live orders.
func (b *Book) Track(o *Order) error {
	if o == nil || o.ID == 0 {
		return exception.ErrOrderUnknown
	}
	if _, ok := b.orders[o.ID]; ok {
		return exception.ErrOrderDuplicate
	}
	b.orders[o.ID] = o
	return nil
}

// Order returns a tracked order.
func (b *Book) Order(id schema.OrderID) (*Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// ApplyFill routes a fill to its order and drops the order once it
// reaches a terminal state.
func (b *Book) ApplyFill(fill schema.Fill) (*Order, error) {
	o, ok := b.orders[fill.OrderID]
	if !ok {
		return nil, exception.ErrOrderUnknown
	}
	if err := o.Fill(fill.Qty, fill.Price); err != nil {
		return o, err
	}
	if o.State.IsTerminal() {
		delete(b.orders, o.ID)
	}
	return o, nil
}

// CancelAll cancels every live order and clears the book. Pending and
// acknowledged orders move to Cancelled.
func (b *Book) CancelAll() {
	for id, o := range b.orders {
		if !o.State.IsTerminal() {
			_ = o.Cancel()
		}
		delete(b.orders, id)
	}
}

// Remove drops an order from the book without changing its state.
func (b *Book) Remove(id schema.OrderID) {
	delete(b.orders, id)
}

// Each calls fn for every live order in ascending ID order.
func (b *Book) Each(fn func(*Order)) {
	ids := make([]schema.OrderID, 0, len(b.orders))
	for id := range b.orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fn(b.orders[id])
	}
}

// Len returns the number of live orders.
func (b *Book) Len() int {
	return len(b.orders)
}
