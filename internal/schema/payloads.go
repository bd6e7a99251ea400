package schema

// OrderID identifies an order within the process.
type OrderID uint64

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Fill is the payload for EventFill: an execution against one of our
// orders.
type Fill struct {
	OrderID  OrderID
	MarketID uint64
	Side     OrderSide
	Flags    uint16
	Price    Price
	Qty      Quantity
	Fee      Fee
	TsNano   int64
}

// SignalAction is the strategy's requested action for the current tick.
type SignalAction uint16

const (
	SignalNoAction SignalAction = iota
	SignalQuoteBoth
	SignalQuoteBid
	SignalQuoteAsk
	SignalCancelAll
)

func (a SignalAction) String() string {
	switch a {
	case SignalNoAction:
		return "no_action"
	case SignalQuoteBoth:
		return "quote_both"
	case SignalQuoteBid:
		return "quote_bid"
	case SignalQuoteAsk:
		return "quote_ask"
	case SignalCancelAll:
		return "cancel_all"
	default:
		return "unknown"
	}
}

// Signal is the payload for EventSignal: the strategy's desired quotes.
type Signal struct {
	Action   SignalAction
	Flags    uint16
	BidPrice Price
	BidSize  Quantity
	AskPrice Price
	AskSize  Quantity
	TsNano   int64
}

// RiskAction is the outcome of a risk decision.
type RiskAction uint16

const (
	RiskActionUnknown RiskAction = iota
	RiskActionAllow
	RiskActionDeny
)

// RiskReason is a coarse reason code for risk decisions.
type RiskReason uint16

const (
	RiskReasonNone RiskReason = iota
	RiskReasonOrderTooSmall
	RiskReasonOrderTooLarge
	RiskReasonMaxNotional
	RiskReasonPositionLimit
	RiskReasonShortLimit
	RiskReasonDailyLoss
	RiskReasonDrawdown
)

func (r RiskReason) String() string {
	switch r {
	case RiskReasonNone:
		return "none"
	case RiskReasonOrderTooSmall:
		return "order_too_small"
	case RiskReasonOrderTooLarge:
		return "order_too_large"
	case RiskReasonMaxNotional:
		return "max_notional"
	case RiskReasonPositionLimit:
		return "position_limit"
	case RiskReasonShortLimit:
		return "short_limit"
	case RiskReasonDailyLoss:
		return "daily_loss"
	case RiskReasonDrawdown:
		return "drawdown"
	default:
		return "unknown"
	}
}

// RiskDecision is the payload for EventRiskDecision.
type RiskDecision struct {
	Action        RiskAction
	Reason        RiskReason
	Side          OrderSide
	Flags         uint16
	ProposedQty   Quantity
	ProposedPrice Price
	CurrentPos    Quantity
	MaxPos        Quantity
	MaxNotional   Notional
}
