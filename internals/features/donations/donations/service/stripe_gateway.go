package service

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeGateway implements PaymentGateway against Stripe payment intents
// and hosted checkout sessions.
type StripeGateway struct{}

// InitStripe must be called once at bootstrap.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

func NewStripeGateway() *StripeGateway { return &StripeGateway{} }

// Stripe amounts are in the currency's minor unit.
func toMinorUnits(amount int64) int64 { return amount * 100 }

func fromMinorUnits(amount int64) int64 { return amount / 100 }

func (g *StripeGateway) CreateIntent(ctx context.Context, in CreateIntentInput) (*PaymentHandle, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(in.Amount)),
		Currency: stripe.String(in.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, normalizeStripeErr(err)
	}
	return &PaymentHandle{IntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (*CheckoutSession, error) {
	amount := toMinorUnits(in.Amount)
	name := in.Description
	if name == "" {
		name = "Campaign Donation"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SubmitType: stripe.String("donate"),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(in.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:     stripe.String(name),
						Metadata: in.Metadata,
					},
					UnitAmount: stripe.Int64(amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{},
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
		params.PaymentIntentData.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, normalizeStripeErr(err)
	}

	out := &CheckoutSession{SessionID: s.ID, URL: s.URL}
	// The underlying intent is created lazily for hosted checkout; it is
	// only present here on some API versions.
	if s.PaymentIntent != nil {
		out.IntentID = s.PaymentIntent.ID
	}
	return out, nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*GatewayIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, normalizeStripeErr(err)
	}

	return &GatewayIntent{
		IntentID: pi.ID,
		Status:   mapStripeStatus(pi.Status),
		Amount:   fromMinorUnits(pi.Amount),
	}, nil
}

func mapStripeStatus(s stripe.PaymentIntentStatus) IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentStatusCanceled
	default:
		return IntentStatusProcessing
	}
}

func normalizeStripeErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return errors.New(se.Msg)
	}
	return err
}
