package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"gorm.io/gorm"
)

// campaignRepository reads the campaign projection maintained by the
// campaign service's replication feed. This service never writes to it.
type campaignRepository struct {
	db *gorm.DB
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID string) (domain.Campaign, error) {
	var rec campaignModel
	if err := dbFrom(ctx, r.db).Where("campaign_id = ?", campaignID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, err
	}
	return toDomainCampaign(rec), nil
}
