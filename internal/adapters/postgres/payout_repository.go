package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
	"gorm.io/gorm"
)

type payoutQueueRepository struct {
	db *gorm.DB
}

func (r *payoutQueueRepository) Create(ctx context.Context, entry domain.PayoutQueueEntry) error {
	rec := toPayoutModel(entry)
	if err := dbFrom(ctx, r.db).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *payoutQueueRepository) GetByID(ctx context.Context, entryID string) (domain.PayoutQueueEntry, error) {
	var rec payoutQueueModel
	if err := dbFrom(ctx, r.db).Where("entry_id = ?", entryID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PayoutQueueEntry{}, domain.ErrNotFound
		}
		return domain.PayoutQueueEntry{}, err
	}
	return toDomainPayout(rec), nil
}

func (r *payoutQueueRepository) List(ctx context.Context, query ports.PayoutQuery) ([]domain.PayoutQueueEntry, int, error) {
	q := dbFrom(ctx, r.db).Model(&payoutQueueModel{})
	if query.CreatorID != "" {
		q = q.Where("creator_id = ?", query.CreatorID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", string(query.Status))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var recs []payoutQueueModel
	if err := q.Order("created_at DESC").Limit(query.Limit).Offset(query.Offset).Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]domain.PayoutQueueEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, toDomainPayout(rec))
	}
	return entries, int(total), nil
}

func (r *payoutQueueRepository) ListEligible(ctx context.Context, asOf time.Time, limit int) ([]domain.PayoutQueueEntry, error) {
	var recs []payoutQueueModel
	err := dbFrom(ctx, r.db).
		Where("status = ? AND eligible_at <= ?", string(domain.PayoutStatusPending), asOf).
		Order("eligible_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	entries := make([]domain.PayoutQueueEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, toDomainPayout(rec))
	}
	return entries, nil
}

func (r *payoutQueueRepository) ListExpiredReserves(ctx context.Context, eligibleBefore time.Time, limit int) ([]domain.PayoutQueueEntry, error) {
	var recs []payoutQueueModel
	err := dbFrom(ctx, r.db).
		Where("status = ? AND reserve_amount_cents > 0 AND eligible_at <= ?",
			string(domain.PayoutStatusReleased), eligibleBefore).
		Order("eligible_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	entries := make([]domain.PayoutQueueEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, toDomainPayout(rec))
	}
	return entries, nil
}

// UpdateIf writes the full entry only while the stored status still
// matches expect. A lost race surfaces as ErrConflict so sweeps can
// skip instead of double-applying balance deltas.
func (r *payoutQueueRepository) UpdateIf(ctx context.Context, entry domain.PayoutQueueEntry, expect domain.PayoutStatus) error {
	rec := toPayoutModel(entry)
	res := dbFrom(ctx, r.db).Model(&payoutQueueModel{}).
		Where("entry_id = ? AND status = ?", entry.EntryID, string(expect)).
		Updates(map[string]any{
			"status":               rec.Status,
			"reserve_amount_cents": rec.ReserveAmountCents,
			"released_at":          rec.ReleasedAt,
			"cancelled_at":         rec.CancelledAt,
			"cancel_reason":        rec.CancelReason,
			"freeze_reason":        rec.FreezeReason,
			"updated_at":           rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := dbFrom(ctx, r.db).Model(&payoutQueueModel{}).Where("entry_id = ?", entry.EntryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *payoutQueueRepository) SumReleasedSince(ctx context.Context, creatorID string, since time.Time) (int64, error) {
	var total int64
	err := dbFrom(ctx, r.db).Model(&payoutQueueModel{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("creator_id = ? AND status = ? AND released_at >= ?", creatorID, string(domain.PayoutStatusReleased), since).
		Scan(&total).Error
	return total, err
}
