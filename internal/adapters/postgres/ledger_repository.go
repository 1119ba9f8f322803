package postgres

import (
	"context"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

func (r *ledgerRepository) Create(ctx context.Context, entry domain.LedgerEntry) error {
	rec := toLedgerModel(entry)
	if err := dbFrom(ctx, r.db).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ledgerRepository) ListByConversion(ctx context.Context, conversionID string) ([]domain.LedgerEntry, error) {
	var recs []ledgerEntryModel
	err := dbFrom(ctx, r.db).
		Where("conversion_id = ?", conversionID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LedgerEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, toDomainLedger(rec))
	}
	return entries, nil
}
