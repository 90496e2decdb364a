package reconcile

import (
	"context"
	"fmt"
	"sync"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// Fetcher loads the authoritative order snapshot for a scope.
type Fetcher func(ctx context.Context) ([]models.Order, error)

// Notifier receives the user-facing outcomes of a reconciliation pass.
type Notifier interface {
	OrderStatusUpdated(order models.Order)
	PaymentStatusUpdated(order models.Order)
	NewOrderReceived(order models.Order)
	RefreshFailed(err error)
}

// Reconciler re-fetches the full snapshot for one scope and diffs it
// against the previous one to detect transitions worth surfacing.
//
// Overlapping refreshes are allowed; each fetch is tagged with a
// monotonically increasing sequence number and a response older than the
// last applied one is discarded, so a slow stale fetch can never overwrite
// a newer snapshot.
type Reconciler struct {
	fetch     Fetcher
	notify    Notifier
	log       *logger.Logger
	notifyNew bool

	mu      sync.Mutex
	seq     uint64
	applied uint64
	loaded  bool
	byID    map[string]models.Order
	orders  []models.Order
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithNewOrderNotifications enables "new order received" notifications.
// Used by the restaurant-side view only; a customer's own list growing is
// not news to the customer.
func WithNewOrderNotifications() Option {
	return func(r *Reconciler) { r.notifyNew = true }
}

func New(fetch Fetcher, notify Notifier, log *logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetch:  fetch,
		notify: notify,
		log:    log,
		byID:   make(map[string]models.Order),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh performs one reconciliation pass: fetch, stale-check, diff,
// replace. A failed fetch keeps the previous snapshot visible.
func (r *Reconciler) Refresh(ctx context.Context) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	orders, err := r.fetch(ctx)
	if err != nil {
		if r.log != nil {
			r.log.Error("RECONCILE", fmt.Sprintf("refresh %d failed, keeping previous snapshot: %v", seq, err))
		}
		r.notify.RefreshFailed(err)
		return
	}

	r.apply(seq, orders)
}

func (r *Reconciler) apply(seq uint64, orders []models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq < r.applied {
		if r.log != nil {
			r.log.Warn("RECONCILE", fmt.Sprintf("discarding stale response %d (latest applied %d)", seq, r.applied))
		}
		return
	}

	prev := r.byID
	first := !r.loaded

	next := make(map[string]models.Order, len(orders))
	for _, o := range orders {
		next[o.ID] = o

		old, existed := prev[o.ID]
		if !existed {
			if !first && r.notifyNew {
				r.notify.NewOrderReceived(o)
			}
			continue
		}
		if old.Status != o.Status {
			r.notify.OrderStatusUpdated(o)
		}
		if old.PaymentStatus != o.PaymentStatus {
			r.notify.PaymentStatusUpdated(o)
		}
	}

	r.byID = next
	r.orders = orders
	r.applied = seq
	r.loaded = true
}

// Snapshot returns a copy of the current in-memory order list.
func (r *Reconciler) Snapshot() []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Order, len(r.orders))
	copy(out, r.orders)
	return out
}

// KnownIDs returns the ids of the current snapshot, for the listener's
// membership filter.
func (r *Reconciler) KnownIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}
