package dto

// Request bodies for the donation endpoints. Field names follow the public
// API contract (camelCase), unlike the snake_case persistence models.

type CreateDonationRequest struct {
	CampaignID string `json:"campaignId" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

type ConfirmDonationRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}
