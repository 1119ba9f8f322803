package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type balanceRepository struct {
	db *gorm.DB
}

func (r *balanceRepository) Get(ctx context.Context, creatorID string) (domain.CreatorBalance, error) {
	var rec creatorBalanceModel
	if err := dbFrom(ctx, r.db).Where("creator_id = ?", creatorID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CreatorBalance{}, domain.ErrNotFound
		}
		return domain.CreatorBalance{}, err
	}
	return toDomainBalance(rec), nil
}

func (r *balanceRepository) Upsert(ctx context.Context, balance domain.CreatorBalance) error {
	rec := toBalanceModel(balance)
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "creator_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

// Apply adjusts all four buckets in one statement. The WHERE guard
// rejects a delta that would push pending negative, which would mean a
// payout transition ran twice.
func (r *balanceRepository) Apply(ctx context.Context, creatorID string, delta domain.BalanceDelta, at time.Time) error {
	res := dbFrom(ctx, r.db).Model(&creatorBalanceModel{}).
		Where("creator_id = ? AND pending_balance_cents + ? >= 0", creatorID, delta.PendingCents).
		Updates(map[string]any{
			"available_balance_cents": gorm.Expr("available_balance_cents + ?", delta.AvailableCents),
			"pending_balance_cents":   gorm.Expr("pending_balance_cents + ?", delta.PendingCents),
			"locked_reserve_cents":    gorm.Expr("locked_reserve_cents + ?", delta.LockedReserveCents),
			"total_earned_cents":      gorm.Expr("total_earned_cents + ?", delta.TotalEarnedCents),
			"updated_at":              at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := dbFrom(ctx, r.db).Model(&creatorBalanceModel{}).Where("creator_id = ?", creatorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}
