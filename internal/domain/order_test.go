package domain

import (
	"testing"

	"github.com/kvistrand/microsim/pkg/quant"
)

func TestOrderRemaining(t *testing.T) {
	o := Order{QtyQ: quant.QtyQ(10_00000000), FilledQtyQ: quant.QtyQ(4_00000000)}
	if got, want := o.Remaining(), quant.QtyQ(6_00000000); got != want {
		t.Errorf("Remaining() = %d, want %d", got, want)
	}
}

func TestOrderIsResting(t *testing.T) {
	tests := []struct {
		state OrderState
		want  bool
	}{
		{Pending, false},
		{Active, true},
		{Partial, true},
		{Filled, false},
		{Cancelled, false},
		{Rejected, false},
	}
	for _, tt := range tests {
		o := Order{State: tt.state}
		if got := o.IsResting(); got != tt.want {
			t.Errorf("IsResting() with state %v = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestOrderStateIsTerminal(t *testing.T) {
	for _, s := range []OrderState{Filled, Cancelled, Rejected} {
		if !s.IsTerminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	for _, s := range []OrderState{Pending, Active, Partial} {
		if s.IsTerminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}
