package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/homefix/homeservices-backend/pkg/stripe"
)

// Currency is the only currency bookings are priced in.
const Currency = "inr"

// IntentRequest describes a gateway payment intent in minor units.
type IntentRequest struct {
	AmountMinor int64
	BookingID   uuid.UUID
	UserID      uuid.UUID
}

// Intent is the gateway's view of a payment. Failed is set once the gateway
// will not collect the intent without a new payment method.
type Intent struct {
	ID            string
	ClientSecret  string
	Status        string
	Succeeded     bool
	Failed        bool
	TransactionID string
}

// Gateway exposes the subset of payment intent operations the service needs.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

type stripeGateway struct{}

// NewStripeGateway wraps the configured Stripe client so the payment service can be tested.
func NewStripeGateway(api *pkgstripe.Client) Gateway {
	if api == nil {
		return nil
	}
	return &stripeGateway{}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(Currency),
	}
	params.Context = ctx
	params.AddMetadata("bookingId", req.BookingID.String())
	params.AddMetadata("userId", req.UserID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return intentFromStripe(pi), nil
}

func (g *stripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, err
	}
	return intentFromStripe(pi), nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
		Failed: pi.Status == stripe.PaymentIntentStatusCanceled ||
			(pi.Status == stripe.PaymentIntentStatusRequiresPaymentMethod && pi.LastPaymentError != nil),
	}
	if pi.LatestCharge != nil {
		intent.TransactionID = pi.LatestCharge.ID
	}
	if intent.TransactionID == "" {
		intent.TransactionID = pi.ID
	}
	return intent
}
