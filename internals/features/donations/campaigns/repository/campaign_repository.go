package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"masjidfund_backend/internals/features/donations/campaigns/model"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignRepository struct {
	DB *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) Create(ctx context.Context, m *model.Campaign) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	var m model.Campaign
	if err := r.DB.WithContext(ctx).
		First(&m, "campaign_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Update persists admin-editable fields. The raised counter is excluded:
// it moves only through IncrementAmountRaised, and writing it back from a
// stale read would erase confirms that landed in between.
func (r *CampaignRepository) Update(ctx context.Context, m *model.Campaign) error {
	return r.DB.WithContext(ctx).
		Omit("campaign_amount_raised").
		Save(m).Error
}

// Delete soft-deletes a campaign.
func (r *CampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("campaign_id = ?", id).
		Delete(&model.Campaign{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// List returns campaigns filtered by status ("" = all), newest first.
func (r *CampaignRepository) List(ctx context.Context, status string, offset, limit int) ([]model.Campaign, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Campaign{})
	if status != "" {
		q = q.Where("campaign_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.Campaign
	if err := q.Order("campaign_created_at desc").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// IncrementAmountRaised bumps the raised counter with a single atomic UPDATE.
// A read-modify-write here would lose updates under concurrent confirms.
func (r *CampaignRepository) IncrementAmountRaised(ctx context.Context, id uuid.UUID, amount int64) error {
	res := r.DB.WithContext(ctx).Model(&model.Campaign{}).
		Where("campaign_id = ?", id).
		UpdateColumn("campaign_amount_raised", gorm.Expr("campaign_amount_raised + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}
