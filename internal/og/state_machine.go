package og

import (
	"main/internal/schema"
	"main/pkg/exception"
)

// OrderState tracks the lifecycle of an order.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStatePending
	OrderStateAcknowledged
	OrderStatePartiallyFilled
	OrderStateFilled
	OrderStateCancelled
	OrderStateRejected
)

func (s OrderState) String() string {
	switch s {
	case OrderStatePending:
		return "pending"
	case OrderStateAcknowledged:
		return "acknowledged"
	case OrderStatePartiallyFilled:
		return "partially_filled"
	case OrderStateFilled:
		return "filled"
	case OrderStateCancelled:
		return "cancelled"
	case OrderStateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderState) IsTerminal() bool {
	switch s {
	case OrderStateFilled, OrderStateCancelled, OrderStateRejected:
		return true
	default:
		return false
	}
}

// Order is one order moving through its lifecycle. Quantities are
// scaled integers; FilledQty never exceeds Qty.
type Order struct {
	ID       schema.OrderID
	MarketID uint64
	Side     schema.OrderSide
	Price    schema.Price
	Qty      schema.Quantity

	FilledQty     schema.Quantity
	LastFillPrice schema.Price
	State         OrderState
}

// NewOrder creates an order in Pending state.
func NewOrder(id schema.OrderID, marketID uint64, side schema.OrderSide, price schema.Price, qty schema.Quantity) *Order {
	return &Order{
		ID:       id,
		MarketID: marketID,
		Side:     side,
		Price:    price,
		Qty:      qty,
		State:    OrderStatePending,
	}
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() schema.Quantity {
	return o.Qty - o.FilledQty
}

// Acknowledge moves a pending order to Acknowledged.
func (o *Order) Acknowledge() error {
	switch o.State {
	case OrderStatePending:
		o.State = OrderStateAcknowledged
		return nil
	default:
		return exception.ErrOrderInvalidTransition
	}
}

// Reject moves a pending order to Rejected.
func (o *Order) Reject() error {
	switch o.State {
	case OrderStatePending:
		o.State = OrderStateRejected
		return nil
	default:
		return exception.ErrOrderInvalidTransition
	}
}

// Cancel moves a live order to Cancelled. Terminal orders and orders
// never submitted stay unchanged.
func (o *Order) Cancel() error {
	switch o.State {
	case OrderStatePending, OrderStateAcknowledged, OrderStatePartiallyFilled:
		o.State = OrderStateCancelled
		return nil
	default:
		return exception.ErrOrderInvalidTransition
	}
}

// Fill applies an execution of qty at price. On any error the order is
// left exactly as it was. A fill for the full remaining quantity moves
// the order to Filled, anything less to PartiallyFilled.
func (o *Order) Fill(qty schema.Quantity, price schema.Price) error {
	switch o.State {
	case OrderStateAcknowledged, OrderStatePartiallyFilled:
	default:
		return exception.ErrOrderInvalidTransition
	}
	if qty <= 0 {
		return exception.ErrFillZeroQuantity
	}
	if price <= 0 {
		return exception.ErrFillZeroPrice
	}
	if qty > o.Remaining() {
		return exception.ErrFillExceedsRemaining
	}

	o.FilledQty += qty
	o.LastFillPrice = price
	if o.FilledQty == o.Qty {
		o.State = OrderStateFilled
	} else {
		o.State = OrderStatePartiallyFilled
	}
	return nil
}
