// Package feed ingests a live L2 depth feed over WebSocket, turning each
// message into a snapshot.Record that is both archived to a binary
// snapshot file and pushed into the sequencer as a BookUpdateEvent —
// the same record shape cmd/replay consumes, so a feedtap capture is
// itself replayable.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/kvistrand/microsim/internal/event"
	"github.com/kvistrand/microsim/internal/infra"
	"github.com/kvistrand/microsim/internal/snapshot"
	"github.com/kvistrand/microsim/pkg/quant"
)

// depthMessage is the wire shape of one depth update: a list of
// [price, qty] string pairs per side, best level first.
type depthMessage struct {
	Symbol string      `json:"symbol"`
	TsMs   int64       `json:"ts_ms"`
	Bids   [][2]string `json:"bids"`
	Asks   [][2]string `json:"asks"`
}

type subscribeRequest struct {
	Op     string `json:"op"`
	Symbol string `json:"symbol"`
	Depth  int    `json:"depth"`
}

// Worker decodes a live depth feed into snapshot.Records, archives them
// to disk, and enqueues them onto a sequencer inbox.
type Worker struct {
	base *infra.BaseWSWorker

	url    string
	symbol string
	depth  int

	writer  *snapshot.Writer
	inbox   chan<- event.Event
	limiter *infra.RateLimiter
	breaker *infra.CircuitBreaker

	seq atomic.Uint64
}

// NewWorker builds a depth-feed worker. writer may be nil to skip
// on-disk archival (tests, dry runs).
func NewWorker(url, symbol string, depth int, inbox chan<- event.Event, writer *snapshot.Writer) *Worker {
	w := &Worker{
		url:     url,
		symbol:  symbol,
		depth:   depth,
		writer:  writer,
		inbox:   inbox,
		limiter: infra.GetFeedLimiter(symbol, 20, 10),
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("feed:" + symbol)),
	}
	w.base = infra.NewBaseWSWorker(w)
	return w
}

// Start begins the reconnecting WebSocket loop; it returns immediately.
func (w *Worker) Start(ctx context.Context) { w.base.Start(ctx) }

// Stop tears down the connection and waits for the loop to exit.
func (w *Worker) Stop() { w.base.Stop() }

func (w *Worker) ID() string     { return "FEEDTAP:" + w.symbol }
func (w *Worker) GetURL() string { return w.url }

func (w *Worker) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	req := subscribeRequest{Op: "subscribe", Symbol: w.symbol, Depth: w.depth}
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.base.Write(websocket.TextMessage, b)
}

func (w *Worker) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return w.base.Write(websocket.PingMessage, nil)
}

func (w *Worker) OnMessage(ctx context.Context, msg []byte) {
	if !w.breaker.Allow() {
		slog.Warn("feed circuit open, dropping message", slog.String("id", w.ID()))
		return
	}

	rec, err := w.decode(msg)
	if err != nil {
		w.breaker.RecordFailure()
		slog.Warn("failed to decode depth message", slog.String("id", w.ID()), slog.Any("error", err))
		return
	}
	w.breaker.RecordSuccess()

	w.limiter.Wait()

	if w.writer != nil {
		if err := w.writer.Write(rec); err != nil {
			slog.Error("failed to archive record", slog.Any("error", err))
		}
	}

	ev := event.AcquireBookUpdateEvent()
	ev.Seq = w.seq.Add(1)
	ev.Ts = rec.TsRecvNs
	ev.Record = rec

	select {
	case w.inbox <- *ev:
	default:
		slog.Warn("sequencer inbox full, dropping tick", slog.String("id", w.ID()))
	}
	event.ReleaseBookUpdateEvent(ev)
}

func (w *Worker) decode(msg []byte) (snapshot.Record, error) {
	var m depthMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return snapshot.Record{}, fmt.Errorf("unmarshal: %w", err)
	}

	var rec snapshot.Record
	rec.TsEventMs = quant.TimeStampMs(m.TsMs)
	rec.TsRecvNs = quant.Ns(m.TsMs * 1_000_000)

	for i := 0; i < snapshot.Depth; i++ {
		rec.Bids[i] = snapshot.EmptyLevel("bid")
		rec.Asks[i] = snapshot.EmptyLevel("ask")
	}
	for i, lvl := range m.Bids {
		if i >= snapshot.Depth {
			break
		}
		l, err := decodeLevel(lvl)
		if err != nil {
			return snapshot.Record{}, fmt.Errorf("bid[%d]: %w", i, err)
		}
		rec.Bids[i] = l
	}
	for i, lvl := range m.Asks {
		if i >= snapshot.Depth {
			break
		}
		l, err := decodeLevel(lvl)
		if err != nil {
			return snapshot.Record{}, fmt.Errorf("ask[%d]: %w", i, err)
		}
		rec.Asks[i] = l
	}

	return rec, nil
}

func decodeLevel(pair [2]string) (snapshot.Level, error) {
	price, err := quant.ParsePriceQ(pair[0])
	if err != nil {
		return snapshot.Level{}, err
	}
	qty, err := quant.ParseQtyQ(pair[1])
	if err != nil {
		return snapshot.Level{}, err
	}
	return snapshot.Level{PriceQ: price, QtyQ: qty}, nil
}
