package strategy_test

import (
	"testing"

	"github.com/kvistrand/microsim/internal/domain"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/internal/strategy"
	"github.com/kvistrand/microsim/pkg/quant"
)

func bookAt(price int64) snapshot.Record {
	var r snapshot.Record
	for i := 0; i < snapshot.Depth; i++ {
		r.Bids[i] = snapshot.Level{PriceQ: quant.BidNullPriceQ, QtyQ: quant.NullQtyQ}
		r.Asks[i] = snapshot.Level{PriceQ: quant.AskNullPriceQ, QtyQ: quant.NullQtyQ}
	}
	p := quant.PriceQ(price * quant.PriceScale)
	r.Bids[0] = snapshot.Level{PriceQ: p, QtyQ: quant.QtyQ(quant.QtyScale)}
	r.Asks[0] = snapshot.Level{PriceQ: p, QtyQ: quant.QtyQ(quant.QtyScale)}
	return r
}

func TestSMACrossStrategy(t *testing.T) {
	// Short=3, Long=5
	strat := strategy.NewSMACrossStrategy(3, 5, quant.QtyQ(quant.QtyScale))

	push := func(price int64) []strategy.Intent {
		out := make([]strategy.Intent, 1)
		count := strat.OnBookUpdate(bookAt(price), out)
		return out[:count]
	}

	// T1-T5: mid price flat at 100 — not enough history, then S==L.
	for i := 0; i < 5; i++ {
		intents := push(100)
		if len(intents) > 0 {
			t.Errorf("T%d: expected no signal, got %v", i, intents)
		}
	}

	// T6: mid jumps to 200.
	// window=[100,100,100,100,200], long=600/5=120, short=400/3=133
	// prev(S=100,L=100) -> curr(S=133>L=120): golden cross, BUY
	intents := push(200)
	if len(intents) != 1 {
		t.Fatalf("T6: expected 1 signal (BUY), got %d", len(intents))
	}
	if intents[0].Limit == nil || intents[0].Limit.Side != domain.Buy {
		t.Errorf("T6: expected a BUY IOC limit order, got %+v", intents[0])
	}

	// T7: mid drops to 50.
	// window=[100,100,100,200,50], long=550/5=110, short=350/3=116
	// prev(S=133,L=120) -> curr(S=116>L=110): still above, no cross
	intents = push(50)
	if len(intents) != 0 {
		t.Errorf("T7: expected no signal, got %v", intents)
	}

	// T8: mid drops to 5.
	// window=[100,100,200,50,5], long=455/5=91, short=255/3=85
	// prev(S=116,L=110) -> curr(S=85<L=91): dead cross, SELL
	intents = push(5)
	if len(intents) != 1 {
		t.Fatalf("T8: expected 1 signal (SELL), got %d", len(intents))
	}
	if intents[0].Limit == nil || intents[0].Limit.Side != domain.Sell {
		t.Errorf("T8: expected a SELL IOC limit order, got %+v", intents[0])
	}
}
