package order

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// ErrStripeClientInitFailed is returned when the Stripe secret key is
// missing at startup.
var ErrStripeClientInitFailed = fmt.Errorf("failed to initialize Stripe client")

// StripeCheckout couples order persistence with Stripe Checkout: creating
// a session first persists the order and its items, then requests the
// payment session, so a checkout id always refers to a stored order.
// Verification is pull-based, driven by the customer's browser landing on
// the return URL; there is no webhook path here.
type StripeCheckout struct {
	client *client.API
	orders *OrderService
	cfg    config.StripeConfig
	log    *logger.Logger
}

func NewStripeCheckout(orders *OrderService, cfg config.StripeConfig, log *logger.Logger) (*StripeCheckout, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY not set")
		return nil, ErrStripeClientInitFailed
	}
	sc := client.New(cfg.SecretKey, nil)
	log.Info("STRIPE", "Stripe client initialized")
	return &StripeCheckout{client: sc, orders: orders, cfg: cfg, log: log}, nil
}

// CreateCheckoutSession persists the order (payment method forced to
// online), creates a Stripe Checkout Session for its items and returns the
// redirect URL. The session id is stored on the order and the payment axis
// moves to processing.
func (s *StripeCheckout) CreateCheckoutSession(ctx context.Context, draft models.OrderDraft) (*models.CheckoutSession, error) {
	draft.PaymentMethod = models.PayOnline

	order, err := s.orders.PlaceOrder(ctx, draft)
	if err != nil {
		return nil, err
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(order.Currency),
				UnitAmount: stripe.Int64(toCents(item.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(s.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.AddMetadata("order_id", order.ID)

	sess, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("failed to create checkout session for order %s: %v", order.ID, err))
		if cancelErr := s.orders.CancelOrder(ctx, order.ID, "", "checkout session creation failed"); cancelErr != nil {
			s.log.Warn("STRIPE", fmt.Sprintf("failed to cancel order %s after checkout failure: %v", order.ID, cancelErr))
		}
		return nil, requestErr("create checkout session", err)
	}

	if err := s.orders.AttachCheckoutSession(ctx, order.ID, sess.ID); err != nil {
		return nil, err
	}

	s.log.LogPayment("CHECKOUT", order.ID, fmt.Sprintf("session %s created (%.2f %s)", sess.ID, order.TotalAmount, order.Currency))

	return &models.CheckoutSession{
		OrderID:   order.ID,
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// VerifyPayment retrieves the session and reports whether it is paid. On
// success the order's payment status advances to completed; verifying an
// already-completed payment is a no-op.
func (s *StripeCheckout) VerifyPayment(ctx context.Context, sessionID string) (bool, error) {
	sess, err := s.client.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		return false, requestErr("retrieve checkout session", err)
	}

	orderID := sess.Metadata["order_id"]
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.log.LogPayment("VERIFY", orderID, fmt.Sprintf("session %s not paid (%s)", sessionID, sess.PaymentStatus))
		return false, nil
	}

	if orderID == "" {
		s.log.Warn("STRIPE", fmt.Sprintf("paid session %s carries no order_id metadata", sessionID))
		return true, nil
	}

	if err := s.orders.UpdatePayment(ctx, orderID, models.PaymentCompleted, ""); err != nil {
		return true, err
	}
	s.log.LogPayment("VERIFY", orderID, fmt.Sprintf("session %s verified", sessionID))
	return true, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
