package reconcile

import (
	"context"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/realtime"
)

// DefaultDebounce is the trailing-edge delay between a change event and
// the reload it schedules.
const DefaultDebounce = 300 * time.Millisecond

// Watch ties one scope's listener, debouncer and reconciler together: a
// change event on the feed schedules a debounced refresh, and every applied
// refresh feeds the new order-id set back into the listener's membership
// filter. This is the live-view building block for the restaurant
// dashboard, the customer order list and the single-order tracker.
type Watch struct {
	listener   *realtime.Listener
	debouncer  *Debouncer
	reconciler *Reconciler
	cancel     context.CancelFunc
}

// NewWatch wires the pieces and performs the initial load synchronously.
// A delay of zero falls back to DefaultDebounce.
func NewWatch(feed *realtime.Feed, scope realtime.Scope, fetch Fetcher, notify Notifier, delay time.Duration, log *logger.Logger, opts ...Option) *Watch {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Watch{cancel: cancel}
	w.reconciler = New(fetch, notify, log, opts...)
	w.debouncer = NewDebouncer(delay, func() {
		w.reconciler.Refresh(ctx)
		w.listener.SetKnownOrders(w.reconciler.KnownIDs())
	})
	w.listener = realtime.NewListener(feed, scope, w.debouncer.Trigger, log)

	w.reconciler.Refresh(ctx)
	w.listener.SetKnownOrders(w.reconciler.KnownIDs())
	return w
}

// Refresh forces an immediate, non-debounced reload (manual refresh).
func (w *Watch) Refresh(ctx context.Context) {
	w.reconciler.Refresh(ctx)
	w.listener.SetKnownOrders(w.reconciler.KnownIDs())
}

// Snapshot exposes the current in-memory order list.
func (w *Watch) Snapshot() []models.Order {
	return w.reconciler.Snapshot()
}

// Close stops the watch: no further listener events schedule refreshes and
// any in-flight fetch context is cancelled.
func (w *Watch) Close() {
	w.listener.Close()
	w.debouncer.Stop()
	w.cancel()
}
