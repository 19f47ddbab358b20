package safe

import (
	"math"
	"math/bits"
)

// SafeAdd performs int64 addition and panics on overflow/underflow.
func SafeAdd(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic("CORE_SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// SafeSub performs int64 subtraction and panics on overflow/underflow.
func SafeSub(a, b int64) int64 {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		panic("CORE_SAFE_SUB_OVERFLOW")
	}
	return a - b
}

// SafeMul performs int64 multiplication and panics on overflow/underflow.
func SafeMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > 0 {
		if b > 0 {
			if a > math.MaxInt64/b {
				panic("CORE_SAFE_MUL_OVERFLOW")
			}
		} else {
			if b < math.MinInt64/a {
				panic("CORE_SAFE_MUL_OVERFLOW")
			}
		}
	} else {
		if b > 0 {
			if a < math.MinInt64/b {
				panic("CORE_SAFE_MUL_OVERFLOW")
			}
		} else {
			if a < math.MaxInt64/b {
				panic("CORE_SAFE_MUL_OVERFLOW")
			}
		}
	}
	return a * b
}

// SafeDiv performs int64 division and panics on division by zero.
func SafeDiv(a, b int64) int64 {
	if b == 0 {
		panic("CORE_SAFE_DIV_BY_ZERO")
	}
	// Note: int64 MinInt64 / -1 also overflows, but it's rare.
	if a == math.MinInt64 && b == -1 {
		panic("CORE_SAFE_DIV_OVERFLOW")
	}
	return a / b
}

// MulDivFloor computes floor(a*b/div) for non-negative a, b and positive
// div, carrying the intermediate product at full 128-bit width so that
// a*b may exceed MaxInt64 without wrapping. This is the fixed-point
// notional/fee primitive: every price*qty/scale computation on the hot
// path goes through here instead of int64 multiplication.
//
// Panics if a or b is negative, if div is not positive, or if the final
// result does not fit in an int64 (these are programmer-error-class
// conditions, never reachable from valid order/snapshot input).
func MulDivFloor(a, b, div int64) int64 {
	if a < 0 || b < 0 {
		panic("CORE_MULDIV_NEGATIVE_OPERAND")
	}
	if div <= 0 {
		panic("CORE_MULDIV_NONPOSITIVE_DIVISOR")
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, _, overflow := div192(hi, lo, uint64(div))
	if overflow || q > uint64(math.MaxInt64) {
		panic("CORE_MULDIV_OVERFLOW")
	}
	return int64(q)
}

// MulDivOverflows reports whether floor(a*b/div) would overflow int64,
// without panicking — the check a caller runs before a locking
// computation that must reject deterministically instead of crashing
// on oversized but otherwise well-formed input. Valid only for
// non-negative a, b and positive div; any other combination is itself
// reported as overflowing so callers don't need a separate guard.
func MulDivOverflows(a, b, div int64) bool {
	if a < 0 || b < 0 || div <= 0 {
		return true
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, _, overflow := div192(hi, lo, uint64(div))
	return overflow || q > uint64(math.MaxInt64)
}

// div192 divides the 128-bit value (hi,lo) by d, returning the quotient
// and remainder. overflow is true when the quotient does not fit in 64
// bits.
func div192(hi, lo, d uint64) (q, r uint64, overflow bool) {
	if hi >= d {
		return 0, 0, true
	}
	q, r = bits.Div64(hi, lo, d)
	return q, r, false
}
