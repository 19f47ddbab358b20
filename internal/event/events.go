package event

import (
	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
)

// Type identifies the payload carried by an Event.
type Type uint16

const (
	EvBookUpdate Type = iota + 1
	EvLimitOrder
	EvMarketOrder
	EvCancel
	EvSystemHalt
)

// Event is the interface for all sequencer events. Every concrete
// event type is WAL-persisted and, on replay, re-dispatched through
// the exact same code path a live run would have taken.
type Event interface {
	GetSeq() uint64
	GetTs() quant.Ns
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64   `json:"seq"`
	Ts  quant.Ns `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64   { return e.Seq }
func (e BaseEvent) GetTs() quant.Ns { return e.Ts }

// BookUpdateEvent carries one L2 snapshot tick to be fed to the
// matching engine's Step.
type BookUpdateEvent struct {
	BaseEvent
	Record snapshot.Record `json:"record"`
}

func (e BookUpdateEvent) GetType() Type { return EvBookUpdate }

// LimitOrderEvent carries an order-placement intent.
type LimitOrderEvent struct {
	BaseEvent
	Request domain.LimitOrderRequest `json:"request"`
}

func (e LimitOrderEvent) GetType() Type { return EvLimitOrder }

// MarketOrderEvent carries an immediate-execution order intent.
type MarketOrderEvent struct {
	BaseEvent
	Request domain.MarketOrderRequest `json:"request"`
}

func (e MarketOrderEvent) GetType() Type { return EvMarketOrder }

// CancelEvent carries a cancel intent against a resting order.
type CancelEvent struct {
	BaseEvent
	Request domain.CancelRequest `json:"request"`
}

func (e CancelEvent) GetType() Type { return EvCancel }

// SystemHaltEvent signals the sequencer should stop processing.
type SystemHaltEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

func (e SystemHaltEvent) GetType() Type { return EvSystemHalt }
