package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"masjidfund_backend/internals/features/donations/donations/model"
	donationRepo "masjidfund_backend/internals/features/donations/donations/repository"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// GatewayNotification is the server-to-server callback payload
// (Midtrans shape).
type GatewayNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
}

// NotificationStore is the slice of donation persistence the webhook needs.
type NotificationStore interface {
	FindByHandle(ctx context.Context, handle string) (*model.Donation, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
	LogGatewayEvent(ctx context.Context, ev *model.DonationGatewayEvent) error
}

// WebhookProcessor applies asynchronous gateway notifications to the
// donation ledger. It shares the settle semantics with client-driven
// confirm: the status-guarded transition keeps campaign increments
// exactly-once even when both paths fire.
type WebhookProcessor struct {
	Donations NotificationStore
	Campaigns CampaignStore
	ServerKey string
}

func NewWebhookProcessor(donations NotificationStore, campaigns CampaignStore, serverKey string) *WebhookProcessor {
	return &WebhookProcessor{Donations: donations, Campaigns: campaigns, ServerKey: serverKey}
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount +
// server key) against the payload's signature key.
func (w *WebhookProcessor) VerifySignature(n *GatewayNotification) bool {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" {
		return false
	}
	raw := n.OrderID + n.StatusCode + n.GrossAmount + w.ServerKey
	sum := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(sum[:]) == want
}

// Process validates and applies one notification. ErrDonationNotFound means
// the order id is unknown; callers should still answer 200 so the gateway
// stops retrying.
func (w *WebhookProcessor) Process(ctx context.Context, n *GatewayNotification, headers map[string]string) error {
	if !w.VerifySignature(n) {
		return ErrInvalidSignature
	}

	donation, err := w.Donations.FindByHandle(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, donationRepo.ErrDonationNotFound) {
			w.logEvent(ctx, nil, n, headers, model.GatewayEventStatusFailed, "donation not found for order_id "+n.OrderID)
			return ErrDonationNotFound
		}
		// Store failure, not an unknown order; surface it so the gateway
		// retries the delivery.
		w.logEvent(ctx, nil, n, headers, model.GatewayEventStatusFailed, err.Error())
		return fmt.Errorf("find donation: %w", err)
	}

	status := MapMidtransStatus(n.TransactionStatus, n.FraudStatus)
	switch status {
	case IntentStatusSucceeded:
		now := time.Now()
		won, err := w.Donations.MarkCompleted(ctx, donation.DonationID, now)
		if err != nil {
			w.logEvent(ctx, &donation.DonationID, n, headers, model.GatewayEventStatusFailed, err.Error())
			return err
		}
		if won {
			if err := w.Campaigns.IncrementAmountRaised(ctx, donation.DonationCampaignID, donation.DonationAmount); err != nil {
				w.logEvent(ctx, &donation.DonationID, n, headers, model.GatewayEventStatusFailed, err.Error())
				return err
			}
		}

	case IntentStatusFailed, IntentStatusCanceled:
		if err := w.Donations.MarkFailed(ctx, donation.DonationID); err != nil {
			w.logEvent(ctx, &donation.DonationID, n, headers, model.GatewayEventStatusFailed, err.Error())
			return err
		}

	default:
		// pending / challenge: recorded, nothing to apply yet
		w.logEvent(ctx, &donation.DonationID, n, headers, model.GatewayEventStatusReceived, "")
		return nil
	}

	w.logEvent(ctx, &donation.DonationID, n, headers, model.GatewayEventStatusProcessed, "")
	return nil
}

func (w *WebhookProcessor) logEvent(ctx context.Context, donationID *uuid.UUID, n *GatewayNotification, headers map[string]string, status, errMsg string) {
	payloadJSON, _ := json.Marshal(n)
	headersJSON, _ := json.Marshal(headers)

	now := time.Now()
	ev := &model.DonationGatewayEvent{
		GatewayEventDonationID:  donationID,
		GatewayEventProvider:    model.GatewayProviderMidtrans,
		GatewayEventType:        strPtr(n.TransactionStatus),
		GatewayEventExternalID:  strPtr(n.OrderID),
		GatewayEventHeaders:     datatypes.JSON(headersJSON),
		GatewayEventPayload:     datatypes.JSON(payloadJSON),
		GatewayEventStatus:      status,
		GatewayEventProcessedAt: &now,
	}
	if errMsg != "" {
		ev.GatewayEventError = &errMsg
	}
	// Audit only; processing outcome does not depend on the log write.
	_ = w.Donations.LogGatewayEvent(ctx, ev)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
