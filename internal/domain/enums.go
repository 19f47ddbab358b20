package domain

// Side is which side of the book an order rests on or crosses against.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// OrderType distinguishes limit orders (which rest on the book) from
// market orders (which only ever sweep).
type OrderType uint8

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Market {
		return "MARKET"
	}
	return "LIMIT"
}

// Tif is an order's time-in-force.
type Tif uint8

const (
	GTC Tif = iota // Good-Til-Cancel
	IOC            // Immediate-Or-Cancel
	FOK            // Fill-Or-Kill
)

func (t Tif) String() string {
	switch t {
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "GTC"
	}
}

// Visibility tracks whether an order's resting price is currently
// inside the observed top-N depth.
type Visibility uint8

const (
	Visible Visibility = iota // price currently in top-N
	Blind                     // price not in top-N (deep book)
	Frozen                    // was visible, dropped out; queue tracking frozen
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "VISIBLE"
	case Frozen:
		return "FROZEN"
	default:
		return "BLIND"
	}
}

// OrderState is an order's lifecycle stage.
type OrderState uint8

const (
	Pending OrderState = iota
	Active
	Partial
	Filled
	Cancelled
	Rejected
)

func (s OrderState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Active:
		return "ACTIVE"
	case Partial:
		return "PARTIAL"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the order state can never transition again.
func (s OrderState) IsTerminal() bool {
	return s == Filled || s == Cancelled || s == Rejected
}

// StpPolicy selects the self-trade-prevention behavior applied when an
// order activates against the book.
type StpPolicy uint8

const (
	StpNone StpPolicy = iota
	StpRejectIncoming
	StpCancelResting
)

func (p StpPolicy) String() string {
	switch p {
	case StpRejectIncoming:
		return "REJECT_INCOMING"
	case StpCancelResting:
		return "CANCEL_RESTING"
	default:
		return "NONE"
	}
}

// RejectReason explains why an order was rejected or why an event
// could not be recorded.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectInvalidParams
	RejectInsufficientFunds
	RejectInsufficientResources // capacity / throttling / logging overflow
	RejectSelfTradePrevention
	RejectUnknownOrderID
	RejectAlreadyTerminal
)

func (r RejectReason) String() string {
	switch r {
	case RejectInvalidParams:
		return "INVALID_PARAMS"
	case RejectInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case RejectInsufficientResources:
		return "INSUFFICIENT_RESOURCES"
	case RejectSelfTradePrevention:
		return "SELF_TRADE_PREVENTION"
	case RejectUnknownOrderID:
		return "UNKNOWN_ORDER_ID"
	case RejectAlreadyTerminal:
		return "ALREADY_TERMINAL"
	default:
		return "NONE"
	}
}

// EventType classifies an entry in the lifecycle event log.
type EventType uint8

const (
	EventSubmit EventType = iota
	EventActivate
	EventCancel
	EventReject
)

func (t EventType) String() string {
	switch t {
	case EventActivate:
		return "ACTIVATE"
	case EventCancel:
		return "CANCEL"
	case EventReject:
		return "REJECT"
	default:
		return "SUBMIT"
	}
}

// LiquidityFlag marks whether a fill added or removed book depth.
type LiquidityFlag uint8

const (
	Maker LiquidityFlag = iota
	Taker
)

func (l LiquidityFlag) String() string {
	if l == Taker {
		return "TAKER"
	}
	return "MAKER"
}
