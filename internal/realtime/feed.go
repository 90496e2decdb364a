package realtime

import (
	"encoding/json"
	"sync"
)

// Table names the logical event sources a subscriber can observe.
type Table string

const (
	TableOrders        Table = "orders"
	TableOrderItems    Table = "order_items"
	TableStatusHistory Table = "order_status_history"
)

// Action is the row-level change kind.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent is one row-level change notification. Old and New carry the
// row snapshots before and after the change. RestaurantID and CustomerID
// are set only for orders-table events; item and history rows do not carry
// them, which is why subscribers run a membership check on OrderID.
// Origin names the service instance that produced the event; it is stamped
// on the Kafka wire only, so a consuming instance can skip events it
// already delivered to its own feed.
type ChangeEvent struct {
	Table        Table           `json:"table"`
	Action       Action          `json:"action"`
	OrderID      string          `json:"order_id"`
	RestaurantID string          `json:"restaurant_id,omitempty"`
	CustomerID   string          `json:"customer_id,omitempty"`
	Origin       string          `json:"origin,omitempty"`
	Old          json.RawMessage `json:"old,omitempty"`
	New          json.RawMessage `json:"new,omitempty"`
}

// Scope selects which orders a subscription cares about. Exactly one field
// is normally set.
type Scope struct {
	RestaurantID string
	CustomerID   string
	OrderID      string
}

func RestaurantScope(id string) Scope { return Scope{RestaurantID: id} }
func CustomerScope(id string) Scope   { return Scope{CustomerID: id} }
func OrderScope(id string) Scope      { return Scope{OrderID: id} }

func (s Scope) String() string {
	switch {
	case s.RestaurantID != "":
		return "restaurant:" + s.RestaurantID
	case s.CustomerID != "":
		return "customer:" + s.CustomerID
	case s.OrderID != "":
		return "order:" + s.OrderID
	}
	return "all"
}

// wants decides at the feed level whether ev is delivered to a subscriber
// with this scope. Orders rows carry the scoping keys and are filtered
// here; item and history rows can only be filtered by order id, so for
// restaurant and customer scopes they pass through and the subscriber's
// membership check decides.
func (s Scope) wants(ev ChangeEvent) bool {
	if ev.Table == TableOrders {
		switch {
		case s.RestaurantID != "":
			return ev.RestaurantID == s.RestaurantID
		case s.CustomerID != "":
			return ev.CustomerID == s.CustomerID
		case s.OrderID != "":
			return ev.OrderID == s.OrderID
		}
		return true
	}
	if s.OrderID != "" {
		return ev.OrderID == s.OrderID
	}
	return true
}

// Feed is the in-process change feed. Mutations publish into it; scoped
// subscriptions consume from it. Each subscriber gets a buffered channel
// drained by its own goroutine, so a slow callback never blocks publishers.
type Feed struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers fn for events matching scope and returns a handle
// the caller owns; the caller must Unsubscribe when done.
func (f *Feed) Subscribe(scope Scope, fn func(ChangeEvent)) *Subscription {
	f.mu.Lock()
	f.nextID++
	sub := &Subscription{
		id:    f.nextID,
		feed:  f,
		scope: scope,
		ch:    make(chan ChangeEvent, 16),
	}
	f.subs[sub.id] = sub
	f.mu.Unlock()

	go func() {
		for ev := range sub.ch {
			fn(ev)
		}
	}()

	return sub
}

// Publish delivers ev to every matching subscription. Sends are
// non-blocking; a subscriber whose buffer is full misses the event and
// recovers on its next reload.
func (f *Feed) Publish(ev ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		if !sub.scope.wants(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[sub.id]; ok {
		delete(f.subs, sub.id)
		close(sub.ch)
	}
}

// Subscription is a live scoped registration on a Feed.
type Subscription struct {
	id    uint64
	feed  *Feed
	scope Scope
	ch    chan ChangeEvent
	once  sync.Once
}

// Unsubscribe tears the subscription down. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s)
	})
}
