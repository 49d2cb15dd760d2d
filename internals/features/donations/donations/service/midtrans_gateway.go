package service

import (
	"context"
	"errors"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransGateway implements PaymentGateway on Midtrans Snap (hosted
// checkout only). The donation id doubles as the Midtrans order id, so
// RetrieveIntent is keyed by it.
type MidtransGateway struct {
	Snap snap.Client
	Core coreapi.Client
}

func NewMidtransGateway(serverKey string, useProduction bool) *MidtransGateway {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	g := &MidtransGateway{}
	g.Snap.New(serverKey, env)
	g.Core.New(serverKey, env)
	return g
}

var errMidtransDirectUnsupported = errors.New("midtrans supports hosted checkout only")

// CreateIntent is not offered by Snap; direct-variant donations require the
// stripe provider.
func (g *MidtransGateway) CreateIntent(ctx context.Context, in CreateIntentInput) (*PaymentHandle, error) {
	return nil, errMidtransDirectUnsupported
}

func (g *MidtransGateway) CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (*CheckoutSession, error) {
	name := in.Description
	if name == "" {
		name = "Campaign Donation"
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  in.DonationID,
			GrossAmt: in.Amount,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       in.DonationID,
				Price:    in.Amount,
				Qty:      1,
				Name:     truncate(name, 50),
				Category: "donation",
			},
		},
		Metadata: in.Metadata,
		Callbacks: &snap.Callbacks{
			Finish: in.SuccessURL,
		},
	}

	resp, mErr := g.Snap.CreateTransaction(req)
	if mErr != nil {
		return nil, errors.New(mErr.Message)
	}

	return &CheckoutSession{
		SessionID: resp.Token,
		IntentID:  in.DonationID, // order id is the queryable handle
		URL:       resp.RedirectURL,
	}, nil
}

func (g *MidtransGateway) RetrieveIntent(ctx context.Context, intentID string) (*GatewayIntent, error) {
	resp, mErr := g.Core.CheckTransaction(intentID)
	if mErr != nil {
		return nil, errors.New(mErr.Message)
	}

	return &GatewayIntent{
		IntentID: resp.OrderID,
		Status:   MapMidtransStatus(resp.TransactionStatus, resp.FraudStatus),
	}, nil
}

// MapMidtransStatus converts a Midtrans transaction/fraud status pair into
// the normalized intent status. Shared with the webhook path.
func MapMidtransStatus(transactionStatus, fraudStatus string) IntentStatus {
	ts := strings.ToLower(transactionStatus)
	fraud := strings.ToLower(fraudStatus)

	switch ts {
	case "capture":
		if fraud == "accept" {
			return IntentStatusSucceeded
		}
		if fraud == "challenge" {
			return IntentStatusProcessing
		}
		return IntentStatusFailed
	case "settlement":
		return IntentStatusSucceeded
	case "pending":
		return IntentStatusProcessing
	case "deny", "failure":
		return IntentStatusFailed
	case "cancel":
		return IntentStatusCanceled
	case "expire":
		return IntentStatusFailed
	}
	return IntentStatusProcessing
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
