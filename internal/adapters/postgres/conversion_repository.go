package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"gorm.io/gorm"
)

type conversionRepository struct {
	db *gorm.DB
}

func (r *conversionRepository) Create(ctx context.Context, conversion domain.ConversionEvent) error {
	rec := toConversionModel(conversion)
	if err := dbFrom(ctx, r.db).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *conversionRepository) GetByID(ctx context.Context, conversionID string) (domain.ConversionEvent, error) {
	var rec conversionEventModel
	if err := dbFrom(ctx, r.db).Where("conversion_id = ?", conversionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ConversionEvent{}, domain.ErrNotFound
		}
		return domain.ConversionEvent{}, err
	}
	return toDomainConversion(rec), nil
}

func (r *conversionRepository) HasValidConversion(ctx context.Context, visitorID, campaignID string) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&conversionEventModel{}).
		Where("visitor_id = ? AND campaign_id = ? AND is_valid = TRUE", visitorID, campaignID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
