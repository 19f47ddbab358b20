package event

import "sync"

// bookUpdatePool recycles BookUpdateEvent allocations across the
// feedtap hot path, where a new tick arrives far faster than the GC
// would like to collect one-shot allocations.
var bookUpdatePool = sync.Pool{
	New: func() any { return &BookUpdateEvent{} },
}

// AcquireBookUpdateEvent returns a zeroed BookUpdateEvent from the pool.
func AcquireBookUpdateEvent() *BookUpdateEvent {
	ev := bookUpdatePool.Get().(*BookUpdateEvent)
	*ev = BookUpdateEvent{}
	return ev
}

// ReleaseBookUpdateEvent returns ev to the pool. Callers must not
// retain ev, or any reference derived from it, after calling this.
func ReleaseBookUpdateEvent(ev *BookUpdateEvent) {
	*ev = BookUpdateEvent{}
	bookUpdatePool.Put(ev)
}

// Warmup pre-populates the pool so the first ticks of a feedtap run
// don't pay sync.Pool's cold-start allocation cost.
func Warmup() {
	const n = 64
	evs := make([]*BookUpdateEvent, n)
	for i := range evs {
		evs[i] = AcquireBookUpdateEvent()
	}
	for _, ev := range evs {
		ReleaseBookUpdateEvent(ev)
	}
}
