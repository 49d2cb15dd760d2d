package dto

import (
	"strings"

	"github.com/google/uuid"

	"masjidfund_backend/internals/features/donations/campaigns/model"
)

type CreateCampaignRequest struct {
	CampaignTitle       string   `json:"campaign_title" validate:"required,min=3,max=100"`
	CampaignDescription string   `json:"campaign_description" validate:"max=5000"`
	CampaignCategory    string   `json:"campaign_category" validate:"max=50"`
	CampaignTags        []string `json:"campaign_tags" validate:"omitempty,dive,max=30"`
	CampaignGoalAmount  int64    `json:"campaign_goal_amount" validate:"required,gt=0"`
	CampaignStatus      string   `json:"campaign_status" validate:"omitempty,oneof=active completed upcoming archived"`
}

func (r *CreateCampaignRequest) ToModel(imamID uuid.UUID) *model.Campaign {
	status := strings.TrimSpace(r.CampaignStatus)
	if status == "" {
		status = model.CampaignStatusUpcoming
	}
	return &model.Campaign{
		CampaignImamID:      imamID,
		CampaignTitle:       strings.TrimSpace(r.CampaignTitle),
		CampaignDescription: strings.TrimSpace(r.CampaignDescription),
		CampaignCategory:    strings.TrimSpace(r.CampaignCategory),
		CampaignTags:        r.CampaignTags,
		CampaignStatus:      status,
		CampaignGoalAmount:  r.CampaignGoalAmount,
	}
}

type UpdateCampaignRequest struct {
	CampaignTitle       *string   `json:"campaign_title" validate:"omitempty,min=3,max=100"`
	CampaignDescription *string   `json:"campaign_description" validate:"omitempty,max=5000"`
	CampaignCategory    *string   `json:"campaign_category" validate:"omitempty,max=50"`
	CampaignTags        *[]string `json:"campaign_tags" validate:"omitempty,dive,max=30"`
	CampaignGoalAmount  *int64    `json:"campaign_goal_amount" validate:"omitempty,gt=0"`
	CampaignStatus      *string   `json:"campaign_status" validate:"omitempty,oneof=active completed upcoming archived"`
}

// Apply patches the model in place. amount_raised is never writable here;
// only the confirm flow mutates it.
func (r *UpdateCampaignRequest) Apply(m *model.Campaign) {
	if r.CampaignTitle != nil {
		m.CampaignTitle = strings.TrimSpace(*r.CampaignTitle)
	}
	if r.CampaignDescription != nil {
		m.CampaignDescription = strings.TrimSpace(*r.CampaignDescription)
	}
	if r.CampaignCategory != nil {
		m.CampaignCategory = strings.TrimSpace(*r.CampaignCategory)
	}
	if r.CampaignTags != nil {
		m.CampaignTags = *r.CampaignTags
	}
	if r.CampaignGoalAmount != nil {
		m.CampaignGoalAmount = *r.CampaignGoalAmount
	}
	if r.CampaignStatus != nil {
		m.CampaignStatus = *r.CampaignStatus
	}
}
