package service

import (
	"context"
)

// Terminal and in-flight states of a gateway-side payment, normalized across
// providers.
type IntentStatus string

const (
	IntentStatusSucceeded  IntentStatus = "succeeded"
	IntentStatusProcessing IntentStatus = "processing"
	IntentStatusFailed     IntentStatus = "failed"
	IntentStatusCanceled   IntentStatus = "canceled"
)

// CreateIntentInput carries everything a provider needs to open a payment.
// Amount is in major units; adapters convert to the provider's minor-unit
// convention.
type CreateIntentInput struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type PaymentHandle struct {
	IntentID     string
	ClientSecret string
}

type CreateCheckoutInput struct {
	DonationID  string
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	SessionID string
	// IntentID is filled when the provider exposes the underlying payment
	// intent at session-creation time.
	IntentID string
	URL      string
}

type GatewayIntent struct {
	IntentID string
	Status   IntentStatus
	Amount   int64
}

// PaymentGateway is the port to the hosted payment provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*PaymentHandle, error)
	CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (*CheckoutSession, error)
	RetrieveIntent(ctx context.Context, intentID string) (*GatewayIntent, error)
}
