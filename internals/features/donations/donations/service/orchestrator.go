package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"masjidfund_backend/internals/constants"
	campaignModel "masjidfund_backend/internals/features/donations/campaigns/model"
	campaignRepo "masjidfund_backend/internals/features/donations/campaigns/repository"
	"masjidfund_backend/internals/features/donations/donations/model"
	donationRepo "masjidfund_backend/internals/features/donations/donations/repository"
)

var (
	ErrUnauthorized        = errors.New("Unauthorized")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrCampaignNotActive   = errors.New("campaign is not active")
	ErrPaymentNotCompleted = errors.New("Payment not completed")
	ErrDonationNotFound    = errors.New("donation not found")
)

// CampaignStore is the slice of campaign persistence the orchestrator needs.
// GetByID reports a missing row as repository.ErrCampaignNotFound; any other
// error is treated as a store failure, not a miss.
type CampaignStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*campaignModel.Campaign, error)
	IncrementAmountRaised(ctx context.Context, id uuid.UUID, amount int64) error
}

// DonationStore is the donation-ledger side. Lookups report a missing row
// as repository.ErrDonationNotFound.
type DonationStore interface {
	Create(ctx context.Context, m *model.Donation) error
	SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error
	SetCheckoutSessionID(ctx context.Context, id uuid.UUID, sessionID string) error
	FindByIntentAndUser(ctx context.Context, intentID string, userID uuid.UUID) (*model.Donation, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
}

// Orchestrator coordinates the campaign store, the donation ledger and the
// payment gateway for the donation flow. All collaborators are injected so
// each one can be faked in tests.
type Orchestrator struct {
	Campaigns CampaignStore
	Donations DonationStore
	Gateway   PaymentGateway
	Verifier  TokenVerifier

	Provider   string // model.GatewayProviderStripe | model.GatewayProviderMidtrans
	Currency   string
	SuccessURL string // base page URL; donation_id and status are appended
	CancelURL  string
}

func NewOrchestrator(campaigns CampaignStore, donations DonationStore, gw PaymentGateway, verifier TokenVerifier) *Orchestrator {
	return &Orchestrator{
		Campaigns: campaigns,
		Donations: donations,
		Gateway:   gw,
		Verifier:  verifier,
		Provider:  model.GatewayProviderStripe,
		Currency:  "usd",
	}
}

type IntentResult struct {
	DonationID      uuid.UUID `json:"donationId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	ClientSecret    string    `json:"clientSecret"`
}

type CheckoutResult struct {
	DonationID uuid.UUID `json:"donationId"`
	SessionID  string    `json:"sessionId"`
	URL        string    `json:"url"`
}

type ConfirmResult struct {
	DonationID       uuid.UUID `json:"donationId"`
	Amount           int64     `json:"amount"`
	AlreadyConfirmed bool      `json:"alreadyConfirmed"`
}

// authorizeDonor resolves the token and requires the donor role. Imams and
// admins do not donate through this flow, so any other role is rejected
// before any side effect.
func (o *Orchestrator) authorizeDonor(ctx context.Context, token string) (*Principal, error) {
	p, err := o.Verifier.Verify(ctx, token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if p.Role != constants.RoleUser {
		return nil, ErrUnauthorized
	}
	return p, nil
}

// loadActiveCampaign enforces the active-status gate shared by both
// creation variants.
func (o *Orchestrator) loadActiveCampaign(ctx context.Context, campaignID string) (*campaignModel.Campaign, error) {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	campaign, err := o.Campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, campaignRepo.ErrCampaignNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if !campaign.IsActive() {
		return nil, ErrCampaignNotActive
	}
	return campaign, nil
}

func (o *Orchestrator) newPendingDonation(campaign *campaignModel.Campaign, userID uuid.UUID, amount int64, variant string) *model.Donation {
	return &model.Donation{
		DonationID:              uuid.New(),
		DonationCampaignID:      campaign.CampaignID,
		DonationUserID:          userID,
		DonationImamID:          campaign.CampaignImamID,
		DonationAmount:          amount,
		DonationCurrency:        o.Currency,
		DonationStatus:          model.DonationStatusPending,
		DonationVariant:         variant,
		DonationGatewayProvider: o.Provider,
	}
}

func (o *Orchestrator) metadata(d *model.Donation) map[string]string {
	return map[string]string{
		"campaign_id": d.DonationCampaignID.String(),
		"user_id":     d.DonationUserID.String(),
		"imam_id":     d.DonationImamID.String(),
		"donation_id": d.DonationID.String(),
		"type":        "campaign",
	}
}

// CreateDonationIntent opens a direct payment intent for a campaign
// donation: gate checks, pending ledger row, gateway call, handle
// write-back. The client completes the payment with the gateway using the
// returned client secret and then calls ConfirmCampaignDonation.
func (o *Orchestrator) CreateDonationIntent(ctx context.Context, campaignID string, amount int64, token string) (*IntentResult, error) {
	p, err := o.authorizeDonor(ctx, token)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	campaign, err := o.loadActiveCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	donation := o.newPendingDonation(campaign, p.UserID, amount, model.DonationVariantDirect)
	if err := o.Donations.Create(ctx, donation); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	handle, err := o.Gateway.CreateIntent(ctx, CreateIntentInput{
		Amount:   amount,
		Currency: o.Currency,
		Metadata: o.metadata(donation),
	})
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	// Persist the handle so confirm can locate the donation later. Without
	// this, a direct-variant donation could never be matched to its intent.
	if err := o.Donations.SetPaymentIntentID(ctx, donation.DonationID, handle.IntentID); err != nil {
		return nil, fmt.Errorf("persist intent id: %w", err)
	}

	return &IntentResult{
		DonationID:      donation.DonationID,
		PaymentIntentID: handle.IntentID,
		ClientSecret:    handle.ClientSecret,
	}, nil
}

// CreateDonationCheckoutSession opens a hosted checkout page. The session id
// write-back is mandatory: the result page only carries the gateway handle,
// so a donation without its session id is unconfirmable.
func (o *Orchestrator) CreateDonationCheckoutSession(ctx context.Context, campaignID string, amount int64, token string) (*CheckoutResult, error) {
	p, err := o.authorizeDonor(ctx, token)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	campaign, err := o.loadActiveCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	donation := o.newPendingDonation(campaign, p.UserID, amount, model.DonationVariantHostedCheckout)
	if err := o.Donations.Create(ctx, donation); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	sess, err := o.Gateway.CreateCheckoutSession(ctx, CreateCheckoutInput{
		DonationID:  donation.DonationID.String(),
		Amount:      amount,
		Currency:    o.Currency,
		Description: campaign.CampaignTitle,
		Metadata:    o.metadata(donation),
		SuccessURL:  resultURL(o.SuccessURL, donation.DonationID, "success"),
		CancelURL:   resultURL(o.CancelURL, donation.DonationID, "canceled"),
	})
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	if err := o.Donations.SetCheckoutSessionID(ctx, donation.DonationID, sess.SessionID); err != nil {
		return nil, fmt.Errorf("persist session id: %w", err)
	}
	if sess.IntentID != "" {
		if err := o.Donations.SetPaymentIntentID(ctx, donation.DonationID, sess.IntentID); err != nil {
			return nil, fmt.Errorf("persist intent id: %w", err)
		}
	}

	return &CheckoutResult{
		DonationID: donation.DonationID,
		SessionID:  sess.SessionID,
		URL:        sess.URL,
	}, nil
}

// ConfirmCampaignDonation verifies gateway-side success, transitions the
// caller's donation to completed and bumps the campaign total. The
// transition is guarded so repeated confirms (client retry racing the
// webhook, double click after redirect) increment the campaign exactly once.
func (o *Orchestrator) ConfirmCampaignDonation(ctx context.Context, paymentIntentID, token string) (*ConfirmResult, error) {
	p, err := o.authorizeDonor(ctx, token)
	if err != nil {
		return nil, err
	}

	intent, err := o.Gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}
	if intent.Status != IntentStatusSucceeded {
		return nil, ErrPaymentNotCompleted
	}

	donation, err := o.Donations.FindByIntentAndUser(ctx, paymentIntentID, p.UserID)
	if err != nil {
		if errors.Is(err, donationRepo.ErrDonationNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}

	if donation.IsCompleted() {
		return &ConfirmResult{
			DonationID:       donation.DonationID,
			Amount:           donation.DonationAmount,
			AlreadyConfirmed: true,
		}, nil
	}

	won, err := o.Donations.MarkCompleted(ctx, donation.DonationID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	if !won {
		// Lost the race to a concurrent confirm or the webhook; the winner
		// already incremented the campaign.
		return &ConfirmResult{
			DonationID:       donation.DonationID,
			Amount:           donation.DonationAmount,
			AlreadyConfirmed: true,
		}, nil
	}

	if err := o.Campaigns.IncrementAmountRaised(ctx, donation.DonationCampaignID, donation.DonationAmount); err != nil {
		return nil, fmt.Errorf("increment campaign: %w", err)
	}

	return &ConfirmResult{
		DonationID: donation.DonationID,
		Amount:     donation.DonationAmount,
	}, nil
}

func resultURL(base string, donationID uuid.UUID, status string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s?donation_id=%s&status=%s", base, donationID, status)
}
