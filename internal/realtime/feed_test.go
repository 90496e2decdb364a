package realtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-ordering/internal/realtime"
)

func collect(buf chan realtime.ChangeEvent) func(realtime.ChangeEvent) {
	return func(ev realtime.ChangeEvent) {
		buf <- ev
	}
}

func waitFor(t *testing.T, buf chan realtime.ChangeEvent) realtime.ChangeEvent {
	t.Helper()
	select {
	case ev := <-buf:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return realtime.ChangeEvent{}
	}
}

func assertNone(t *testing.T, buf chan realtime.ChangeEvent) {
	t.Helper()
	select {
	case ev := <-buf:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeedRestaurantScopeFiltersOrdersEvents(t *testing.T) {
	feed := realtime.NewFeed()
	buf := make(chan realtime.ChangeEvent, 16)

	sub := feed.Subscribe(realtime.RestaurantScope("rest-1"), collect(buf))
	defer sub.Unsubscribe()

	feed.Publish(realtime.ChangeEvent{
		Table:        realtime.TableOrders,
		Action:       realtime.ActionInsert,
		OrderID:      "order-1",
		RestaurantID: "rest-1",
	})
	ev := waitFor(t, buf)
	assert.Equal(t, "order-1", ev.OrderID)

	feed.Publish(realtime.ChangeEvent{
		Table:        realtime.TableOrders,
		Action:       realtime.ActionInsert,
		OrderID:      "order-2",
		RestaurantID: "rest-other",
	})
	assertNone(t, buf)
}

func TestFeedItemEventsPassThroughForRestaurantScope(t *testing.T) {
	feed := realtime.NewFeed()
	buf := make(chan realtime.ChangeEvent, 16)

	sub := feed.Subscribe(realtime.RestaurantScope("rest-1"), collect(buf))
	defer sub.Unsubscribe()

	// Item rows carry no restaurant id, so the feed cannot filter them;
	// they reach the subscriber and the membership check decides there.
	feed.Publish(realtime.ChangeEvent{
		Table:   realtime.TableOrderItems,
		Action:  realtime.ActionInsert,
		OrderID: "order-from-elsewhere",
	})
	ev := waitFor(t, buf)
	assert.Equal(t, realtime.TableOrderItems, ev.Table)
}

func TestFeedOrderScopeFiltersItemEventsByOrderID(t *testing.T) {
	feed := realtime.NewFeed()
	buf := make(chan realtime.ChangeEvent, 16)

	sub := feed.Subscribe(realtime.OrderScope("order-1"), collect(buf))
	defer sub.Unsubscribe()

	feed.Publish(realtime.ChangeEvent{
		Table:   realtime.TableOrderItems,
		Action:  realtime.ActionInsert,
		OrderID: "order-2",
	})
	assertNone(t, buf)

	feed.Publish(realtime.ChangeEvent{
		Table:   realtime.TableStatusHistory,
		Action:  realtime.ActionInsert,
		OrderID: "order-1",
	})
	ev := waitFor(t, buf)
	assert.Equal(t, realtime.TableStatusHistory, ev.Table)
}

func TestFeedUnsubscribeStopsDelivery(t *testing.T) {
	feed := realtime.NewFeed()
	buf := make(chan realtime.ChangeEvent, 16)

	sub := feed.Subscribe(realtime.RestaurantScope("rest-1"), collect(buf))
	assert.Equal(t, 1, feed.SubscriberCount())

	sub.Unsubscribe()
	sub.Unsubscribe() // second call is a no-op
	assert.Equal(t, 0, feed.SubscriberCount())

	feed.Publish(realtime.ChangeEvent{
		Table:        realtime.TableOrders,
		OrderID:      "order-1",
		RestaurantID: "rest-1",
	})
	assertNone(t, buf)
}

func TestListenerDropsItemEventsForUnknownOrders(t *testing.T) {
	feed := realtime.NewFeed()
	triggered := make(chan struct{}, 16)

	l := realtime.NewListener(feed, realtime.RestaurantScope("rest-1"), func() {
		triggered <- struct{}{}
	}, nil)
	defer l.Close()
	l.SetKnownOrders([]string{"order-known"})

	feed.Publish(realtime.ChangeEvent{
		Table:   realtime.TableOrderItems,
		Action:  realtime.ActionInsert,
		OrderID: "order-unknown",
	})
	select {
	case <-triggered:
		t.Fatal("item event for unknown order should not trigger a reload")
	case <-time.After(50 * time.Millisecond):
	}

	feed.Publish(realtime.ChangeEvent{
		Table:   realtime.TableOrderItems,
		Action:  realtime.ActionInsert,
		OrderID: "order-known",
	})
	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("item event for known order should trigger a reload")
	}
}

func TestListenerAlwaysTriggersOnOrdersEvents(t *testing.T) {
	feed := realtime.NewFeed()
	triggered := make(chan struct{}, 16)

	l := realtime.NewListener(feed, realtime.RestaurantScope("rest-1"), func() {
		triggered <- struct{}{}
	}, nil)
	defer l.Close()

	// No known orders yet: an orders-row event for the scope still
	// triggers, that is how a brand new order becomes visible.
	feed.Publish(realtime.ChangeEvent{
		Table:        realtime.TableOrders,
		Action:       realtime.ActionInsert,
		OrderID:      "order-new",
		RestaurantID: "rest-1",
	})
	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("orders event should trigger a reload")
	}
}
