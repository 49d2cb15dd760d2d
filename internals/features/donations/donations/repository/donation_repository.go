package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"masjidfund_backend/internals/features/donations/donations/model"
)

var ErrDonationNotFound = errors.New("donation not found")

type DonationRepository struct {
	DB *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{DB: db}
}

func (r *DonationRepository) Create(ctx context.Context, m *model.Donation) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *DonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	var m model.Donation
	if err := r.DB.WithContext(ctx).
		First(&m, "donation_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *DonationRepository) SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.DB.WithContext(ctx).Model(&model.Donation{}).
		Where("donation_id = ?", id).
		Updates(map[string]interface{}{
			"donation_payment_intent_id": intentID,
			"donation_updated_at":        time.Now(),
		}).Error
}

func (r *DonationRepository) SetCheckoutSessionID(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.DB.WithContext(ctx).Model(&model.Donation{}).
		Where("donation_id = ?", id).
		Updates(map[string]interface{}{
			"donation_checkout_session_id": sessionID,
			"donation_updated_at":          time.Now(),
		}).Error
}

// FindByIntentAndUser is the ownership lookup used by confirm: the donation
// must carry the gateway handle AND belong to the caller.
func (r *DonationRepository) FindByIntentAndUser(ctx context.Context, intentID string, userID uuid.UUID) (*model.Donation, error) {
	var m model.Donation
	if err := r.DB.WithContext(ctx).
		Where("donation_payment_intent_id = ? AND donation_user_id = ?", intentID, userID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByHandle locates a donation from a gateway-side reference: payment
// intent id, checkout session id, or the donation id itself (Midtrans order
// ids are donation ids).
func (r *DonationRepository) FindByHandle(ctx context.Context, handle string) (*model.Donation, error) {
	q := r.DB.WithContext(ctx).
		Where("donation_payment_intent_id = ?", handle).
		Or("donation_checkout_session_id = ?", handle)
	if id, err := uuid.Parse(handle); err == nil {
		q = q.Or("donation_id = ?", id)
	}

	var m model.Donation
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &m, nil
}

// MarkCompleted transitions pending → completed. The status guard in the
// WHERE clause makes the transition happen at most once; the boolean reports
// whether this call won the transition.
func (r *DonationRepository) MarkCompleted(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Donation{}).
		Where("donation_id = ? AND donation_status = ?", id, model.DonationStatusPending).
		Updates(map[string]interface{}{
			"donation_status":     model.DonationStatusCompleted,
			"donation_paid_at":    paidAt,
			"donation_updated_at": paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed transitions pending → failed (gateway expire/cancel/deny).
// Completed donations are never demoted.
func (r *DonationRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&model.Donation{}).
		Where("donation_id = ? AND donation_status = ?", id, model.DonationStatusPending).
		Updates(map[string]interface{}{
			"donation_status":     model.DonationStatusFailed,
			"donation_updated_at": time.Now(),
		}).Error
}

func (r *DonationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Donation, error) {
	var rows []model.Donation
	if err := r.DB.WithContext(ctx).
		Where("donation_user_id = ?", userID).
		Order("donation_created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DonationRepository) ListAll(ctx context.Context, offset, limit int) ([]model.Donation, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Donation{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.Donation
	if err := q.Order("donation_created_at desc").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LogGatewayEvent appends a webhook audit row; failures are non-fatal for
// webhook processing so the error is just returned for logging.
func (r *DonationRepository) LogGatewayEvent(ctx context.Context, ev *model.DonationGatewayEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}
