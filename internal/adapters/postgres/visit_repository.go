package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"gorm.io/gorm"
)

type visitRepository struct {
	db *gorm.DB
}

func (r *visitRepository) Create(ctx context.Context, visit domain.VisitEvent) error {
	rec := toVisitModel(visit)
	if err := dbFrom(ctx, r.db).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *visitRepository) GetByID(ctx context.Context, visitID string) (domain.VisitEvent, error) {
	var rec visitEventModel
	if err := dbFrom(ctx, r.db).Where("visit_id = ?", visitID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VisitEvent{}, domain.ErrNotFound
		}
		return domain.VisitEvent{}, err
	}
	return toDomainVisit(rec), nil
}

func (r *visitRepository) Update(ctx context.Context, visit domain.VisitEvent) error {
	rec := toVisitModel(visit)
	res := dbFrom(ctx, r.db).Model(&visitEventModel{}).Where("visit_id = ?", visit.VisitID).Updates(map[string]any{
		"is_suspicious": rec.IsSuspicious,
		"is_validated":  rec.IsValidated,
		"is_billable":   rec.IsBillable,
		"reject_reason": rec.RejectReason,
		"validated_at":  rec.ValidatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *visitRepository) HasRecordedVisit(ctx context.Context, campaignID, creatorID, visitorID string, since time.Time) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&visitEventModel{}).
		Where("campaign_id = ? AND creator_id = ? AND visitor_id = ?", campaignID, creatorID, visitorID).
		Where("reject_reason = ''").
		Where("occurred_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *visitRepository) CountByVisitor(ctx context.Context, visitorID string) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&visitEventModel{}).Where("visitor_id = ?", visitorID).Count(&count).Error
	return count, err
}

func (r *visitRepository) CountByIPHash(ctx context.Context, ipHash string) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&visitEventModel{}).Where("ip_hash = ?", ipHash).Count(&count).Error
	return count, err
}

func (r *visitRepository) HasFingerprint(ctx context.Context, fingerprintHash string) (bool, error) {
	if fingerprintHash == "" {
		return false, nil
	}
	var count int64
	err := dbFrom(ctx, r.db).Model(&visitEventModel{}).Where("fingerprint_hash = ?", fingerprintHash).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *visitRepository) LatestValidated(ctx context.Context, visitorID, campaignID string, since time.Time) (domain.VisitEvent, error) {
	return r.validatedEdge(ctx, visitorID, campaignID, since, "occurred_at DESC")
}

func (r *visitRepository) EarliestValidated(ctx context.Context, visitorID, campaignID string, since time.Time) (domain.VisitEvent, error) {
	return r.validatedEdge(ctx, visitorID, campaignID, since, "occurred_at ASC")
}

func (r *visitRepository) validatedEdge(ctx context.Context, visitorID, campaignID string, since time.Time, order string) (domain.VisitEvent, error) {
	var rec visitEventModel
	err := dbFrom(ctx, r.db).
		Where("visitor_id = ? AND campaign_id = ?", visitorID, campaignID).
		Where("is_validated = TRUE AND is_suspicious = FALSE AND reject_reason = ''").
		Where("occurred_at >= ?", since).
		Order(order).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VisitEvent{}, domain.ErrNotFound
		}
		return domain.VisitEvent{}, err
	}
	return toDomainVisit(rec), nil
}

func (r *visitRepository) MarkPaid(ctx context.Context, visitID string, at time.Time) error {
	res := dbFrom(ctx, r.db).Model(&visitEventModel{}).
		Where("visit_id = ? AND is_paid = FALSE", visitID).
		Updates(map[string]any{"is_paid": true, "paid_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := dbFrom(ctx, r.db).Model(&visitEventModel{}).Where("visit_id = ?", visitID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrVisitAlreadyPaid
	}
	return nil
}
