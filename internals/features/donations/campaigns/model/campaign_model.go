package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusUpcoming  = "upcoming"
	CampaignStatusArchived  = "archived"
)

type Campaign struct {
	CampaignID uuid.UUID `gorm:"column:campaign_id;type:uuid;default:gen_random_uuid();primaryKey" json:"campaign_id"`

	CampaignImamID uuid.UUID `gorm:"column:campaign_imam_id;type:uuid;not null;index" json:"campaign_imam_id"`

	CampaignTitle       string         `gorm:"column:campaign_title;type:varchar(100);not null" json:"campaign_title"`
	CampaignDescription string         `gorm:"column:campaign_description;type:text" json:"campaign_description"`
	CampaignCategory    string         `gorm:"column:campaign_category;type:varchar(50)" json:"campaign_category"`
	CampaignTags        pq.StringArray `gorm:"column:campaign_tags;type:text[]" json:"campaign_tags,omitempty"`

	CampaignStatus string `gorm:"column:campaign_status;type:varchar(20);not null;default:'upcoming'" json:"campaign_status"`

	CampaignGoalAmount   int64 `gorm:"column:campaign_goal_amount;not null;check:campaign_goal_amount > 0" json:"campaign_goal_amount"`
	CampaignAmountRaised int64 `gorm:"column:campaign_amount_raised;not null;default:0;check:campaign_amount_raised >= 0" json:"campaign_amount_raised"`

	CreatedAt time.Time      `gorm:"column:campaign_created_at;autoCreateTime" json:"campaign_created_at"`
	UpdatedAt time.Time      `gorm:"column:campaign_updated_at;autoUpdateTime" json:"campaign_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:campaign_deleted_at;index" json:"campaign_deleted_at,omitempty"`
}

func (Campaign) TableName() string { return "campaigns" }

func (m *Campaign) IsActive() bool {
	return m.CampaignStatus == CampaignStatusActive
}
