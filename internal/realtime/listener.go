package realtime

import (
	"fmt"
	"sync"

	"ms-ordering/internal/logger"
)

// Listener wraps a Feed subscription for one view. Orders-table events are
// already scope-filtered by the feed; item and history events arrive
// unfiltered for restaurant/customer scopes, so the listener checks their
// order id against the set of orders currently known to the view before
// triggering a reload.
type Listener struct {
	scope   Scope
	log     *logger.Logger
	trigger func()

	mu    sync.Mutex
	known map[string]struct{}

	sub *Subscription
}

// NewListener subscribes to feed and calls trigger for every event that
// survives filtering. The caller owns the listener and must Close it.
func NewListener(feed *Feed, scope Scope, trigger func(), log *logger.Logger) *Listener {
	l := &Listener{
		scope:   scope,
		log:     log,
		trigger: trigger,
		known:   make(map[string]struct{}),
	}
	l.sub = feed.Subscribe(scope, l.handle)
	if log != nil {
		log.LogRealtime(scope.String(), "listener subscribed")
	}
	return l
}

// SetKnownOrders replaces the membership set. Called after every
// reconciliation with the ids of the freshly loaded snapshot.
func (l *Listener) SetKnownOrders(ids []string) {
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	l.mu.Lock()
	l.known = known
	l.mu.Unlock()
}

func (l *Listener) handle(ev ChangeEvent) {
	if ev.Table != TableOrders && !l.knows(ev.OrderID) {
		if l.log != nil {
			l.log.Debug("REALTIME", fmt.Sprintf("[%s] dropped %s event for unknown order %s", l.scope, ev.Table, ev.OrderID))
		}
		return
	}
	l.trigger()
}

func (l *Listener) knows(orderID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.known[orderID]
	return ok
}

// Close tears down the underlying subscription.
func (l *Listener) Close() {
	l.sub.Unsubscribe()
	if l.log != nil {
		l.log.LogRealtime(l.scope.String(), "listener closed")
	}
}
