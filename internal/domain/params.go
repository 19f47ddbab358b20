package domain

import "github.com/kvistrand/microsim/pkg/quant"

// FeeSchedule sets maker/taker fee rates in parts-per-million of
// notional: fee = notional_q * fee_ppm / 1_000_000.
type FeeSchedule struct {
	MakerFeePpm uint64 `yaml:"maker_fee_ppm"`
	TakerFeePpm uint64 `yaml:"taker_fee_ppm"`
}

// RiskLimits is the spot-like risk model checked at order placement.
type RiskLimits struct {
	// MaxAbsPositionQtyQ caps absolute base position; 0 disables the check.
	MaxAbsPositionQtyQ int64 `yaml:"max_abs_position_qty_q"`

	// SpotNoShort disallows selling more base than currently held.
	SpotNoShort bool `yaml:"spot_no_short"`
}

// SimulatorParams configures one deterministic run of the engine.
type SimulatorParams struct {
	// OutboundLatency is the agent->exchange active time applied to
	// every accepted order before it can become Active.
	OutboundLatency quant.Ns `yaml:"outbound_latency_ns"`

	// ObservationLatency is the exchange->agent observation delay
	// (tracked for completeness; the core matching path does not gate
	// on it).
	ObservationLatency quant.Ns `yaml:"observation_latency_ns"`

	// MaxOrders and MaxEvents are hard, deterministic capacity caps.
	// Exceeding either is a rejection, never an unbounded allocation.
	MaxOrders uint64 `yaml:"max_orders"`
	MaxEvents uint64 `yaml:"max_events"`

	// AlphaPpm scales queue depletion attribution:
	// effective_depletion = depletion * alpha_ppm / 1_000_000, alpha_ppm ∈ [0, 1_000_000].
	AlphaPpm uint64 `yaml:"alpha_ppm"`

	Stp StpPolicy `yaml:"stp_policy"`

	Fees FeeSchedule `yaml:"fees"`
	Risk RiskLimits  `yaml:"risk"`
}
