package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
)

// Creation variant: direct payment intent vs hosted checkout page.
// Both variants persist their gateway handle on the donation row.
const (
	DonationVariantDirect         = "direct"
	DonationVariantHostedCheckout = "hosted_checkout"
)

const (
	GatewayProviderStripe   = "stripe"
	GatewayProviderMidtrans = "midtrans"
)

type Donation struct {
	DonationID uuid.UUID `gorm:"column:donation_id;type:uuid;default:gen_random_uuid();primaryKey" json:"donation_id"`

	DonationCampaignID uuid.UUID `gorm:"column:donation_campaign_id;type:uuid;not null;index" json:"donation_campaign_id"`
	DonationUserID     uuid.UUID `gorm:"column:donation_user_id;type:uuid;not null;index" json:"donation_user_id"`

	// Copied from the campaign at creation time for attribution.
	DonationImamID uuid.UUID `gorm:"column:donation_imam_id;type:uuid;not null" json:"donation_imam_id"`

	DonationAmount   int64  `gorm:"column:donation_amount;not null;check:donation_amount > 0" json:"donation_amount"`
	DonationCurrency string `gorm:"column:donation_currency;type:varchar(8);not null;default:'usd'" json:"donation_currency"`

	DonationStatus  string `gorm:"column:donation_status;type:varchar(20);not null;default:'pending'" json:"donation_status"`
	DonationVariant string `gorm:"column:donation_variant;type:varchar(20);not null" json:"donation_variant"`

	// Gateway handles. Exactly one payment lives behind a donation, so both
	// columns are unique; the hosted variant fills both once the session's
	// intent is known.
	DonationPaymentIntentID   *string `gorm:"column:donation_payment_intent_id;type:varchar(100);unique" json:"donation_payment_intent_id,omitempty"`
	DonationCheckoutSessionID *string `gorm:"column:donation_checkout_session_id;type:varchar(100);unique" json:"donation_checkout_session_id,omitempty"`

	DonationGatewayProvider string `gorm:"column:donation_gateway_provider;type:varchar(50);not null;default:'stripe'" json:"donation_gateway_provider"`

	DonationPaidAt *time.Time `gorm:"column:donation_paid_at" json:"donation_paid_at,omitempty"`

	CreatedAt time.Time      `gorm:"column:donation_created_at;autoCreateTime" json:"donation_created_at"`
	UpdatedAt time.Time      `gorm:"column:donation_updated_at;autoUpdateTime" json:"donation_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:donation_deleted_at;index" json:"donation_deleted_at,omitempty"`
}

func (Donation) TableName() string { return "donations" }

func (m *Donation) IsCompleted() bool {
	return m.DonationStatus == DonationStatusCompleted
}
