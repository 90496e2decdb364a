package models

// OrderStatus is the kitchen-side lifecycle axis of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// PaymentStatus is the payment axis, independent of the order axis.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// PaymentMethod selects how a customer settles the bill.
type PaymentMethod string

const (
	PayOnline           PaymentMethod = "online"
	PayCashOnCollection PaymentMethod = "cash-on-collection"
)

// orderTransitions is the enforced transition table. cancelled is reachable
// from every non-terminal state; completed and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderServed, OrderCancelled},
	OrderServed:    {OrderCompleted, OrderCancelled},
	OrderCompleted: {},
	OrderCancelled: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
	PaymentCompleted:  {PaymentRefunded},
	PaymentFailed:     {PaymentProcessing},
	PaymentRefunded:   {},
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// AllowedNext returns the statuses reachable from s in one step.
func (s OrderStatus) AllowedNext() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether s -> next is permitted. A same-status
// update is treated as a permitted no-op.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) Terminal() bool {
	return s.Valid() && len(paymentTransitions[s]) == 0
}

func (s PaymentStatus) AllowedNext() []PaymentStatus {
	next := paymentTransitions[s]
	out := make([]PaymentStatus, len(next))
	copy(out, next)
	return out
}

func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, n := range paymentTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	return m == PayOnline || m == PayCashOnCollection
}
