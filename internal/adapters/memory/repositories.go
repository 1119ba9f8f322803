package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

// Map-backed implementations of the storage ports. They share one mutex
// so the TxManager can hand out a coarse-grained critical section with
// the same atomicity the SQL transaction provides.

type Store struct {
	mu          sync.Mutex
	visits      map[string]domain.VisitEvent
	conversions map[string]domain.ConversionEvent
	payouts     map[string]domain.PayoutQueueEntry
	balances    map[string]domain.CreatorBalance
	ledger      map[string]domain.LedgerEntry
	campaigns   map[string]domain.Campaign
}

func NewStore() *Store {
	return &Store{
		visits:      make(map[string]domain.VisitEvent),
		conversions: make(map[string]domain.ConversionEvent),
		payouts:     make(map[string]domain.PayoutQueueEntry),
		balances:    make(map[string]domain.CreatorBalance),
		ledger:      make(map[string]domain.LedgerEntry),
		campaigns:   make(map[string]domain.Campaign),
	}
}

func (s *Store) Visits() ports.VisitRepository           { return &visitRepository{store: s} }
func (s *Store) Conversions() ports.ConversionRepository { return &conversionRepository{store: s} }
func (s *Store) Payouts() ports.PayoutQueueRepository    { return &payoutQueueRepository{store: s} }
func (s *Store) Balances() ports.BalanceRepository       { return &balanceRepository{store: s} }
func (s *Store) Ledger() ports.LedgerRepository          { return &ledgerRepository{store: s} }
func (s *Store) Campaigns() ports.CampaignRepository     { return &campaignRepository{store: s} }
func (s *Store) Tx() ports.TxManager                     { return &txManager{} }

// SeedCampaign and SeedBalance bypass the repository surface for test setup.
func (s *Store) SeedCampaign(c domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.CampaignID] = c
}

func (s *Store) SeedBalance(b domain.CreatorBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[b.CreatorID] = b
}

// txManager is a passthrough: individual map operations are already
// atomic under the store mutex, and tests do not exercise rollback.
type txManager struct{}

func (t *txManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type visitRepository struct {
	store *Store
}

func (r *visitRepository) Create(_ context.Context, visit domain.VisitEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.visits[visit.VisitID]; exists {
		return domain.ErrConflict
	}
	r.store.visits[visit.VisitID] = visit
	return nil
}

func (r *visitRepository) GetByID(_ context.Context, visitID string) (domain.VisitEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	visit, ok := r.store.visits[visitID]
	if !ok {
		return domain.VisitEvent{}, domain.ErrNotFound
	}
	return visit, nil
}

func (r *visitRepository) Update(_ context.Context, visit domain.VisitEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.visits[visit.VisitID]; !ok {
		return domain.ErrNotFound
	}
	r.store.visits[visit.VisitID] = visit
	return nil
}

func (r *visitRepository) HasRecordedVisit(_ context.Context, campaignID, creatorID, visitorID string, since time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.visits {
		if v.CampaignID == campaignID && v.CreatorID == creatorID && v.VisitorID == visitorID &&
			v.RejectReason == "" && !v.OccurredAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *visitRepository) CountByVisitor(_ context.Context, visitorID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, v := range r.store.visits {
		if v.VisitorID == visitorID {
			count++
		}
	}
	return count, nil
}

func (r *visitRepository) CountByIPHash(_ context.Context, ipHash string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, v := range r.store.visits {
		if v.IPHash == ipHash {
			count++
		}
	}
	return count, nil
}

func (r *visitRepository) HasFingerprint(_ context.Context, fingerprintHash string) (bool, error) {
	if fingerprintHash == "" {
		return false, nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.visits {
		if v.FingerprintHash == fingerprintHash {
			return true, nil
		}
	}
	return false, nil
}

func (r *visitRepository) LatestValidated(_ context.Context, visitorID, campaignID string, since time.Time) (domain.VisitEvent, error) {
	return r.validatedEdge(visitorID, campaignID, since, true)
}

func (r *visitRepository) EarliestValidated(_ context.Context, visitorID, campaignID string, since time.Time) (domain.VisitEvent, error) {
	return r.validatedEdge(visitorID, campaignID, since, false)
}

func (r *visitRepository) validatedEdge(visitorID, campaignID string, since time.Time, latest bool) (domain.VisitEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var candidates []domain.VisitEvent
	for _, v := range r.store.visits {
		if v.VisitorID == visitorID && v.CampaignID == campaignID &&
			v.IsValidated && !v.IsSuspicious && v.RejectReason == "" &&
			!v.OccurredAt.Before(since) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return domain.VisitEvent{}, domain.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if latest {
			return candidates[i].OccurredAt.After(candidates[j].OccurredAt)
		}
		return candidates[i].OccurredAt.Before(candidates[j].OccurredAt)
	})
	return candidates[0], nil
}

func (r *visitRepository) MarkPaid(_ context.Context, visitID string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	visit, ok := r.store.visits[visitID]
	if !ok {
		return domain.ErrNotFound
	}
	if visit.IsPaid {
		return domain.ErrVisitAlreadyPaid
	}
	visit.IsPaid = true
	visit.PaidAt = &at
	r.store.visits[visitID] = visit
	return nil
}

type conversionRepository struct {
	store *Store
}

func (r *conversionRepository) Create(_ context.Context, conversion domain.ConversionEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.conversions[conversion.ConversionID]; exists {
		return domain.ErrConflict
	}
	r.store.conversions[conversion.ConversionID] = conversion
	return nil
}

func (r *conversionRepository) GetByID(_ context.Context, conversionID string) (domain.ConversionEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	conversion, ok := r.store.conversions[conversionID]
	if !ok {
		return domain.ConversionEvent{}, domain.ErrNotFound
	}
	return conversion, nil
}

func (r *conversionRepository) HasValidConversion(_ context.Context, visitorID, campaignID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.conversions {
		if c.VisitorID == visitorID && c.CampaignID == campaignID && c.IsValid {
			return true, nil
		}
	}
	return false, nil
}

type payoutQueueRepository struct {
	store *Store
}

func (r *payoutQueueRepository) Create(_ context.Context, entry domain.PayoutQueueEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.payouts[entry.EntryID]; exists {
		return domain.ErrConflict
	}
	r.store.payouts[entry.EntryID] = entry
	return nil
}

func (r *payoutQueueRepository) GetByID(_ context.Context, entryID string) (domain.PayoutQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.payouts[entryID]
	if !ok {
		return domain.PayoutQueueEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (r *payoutQueueRepository) List(_ context.Context, query ports.PayoutQuery) ([]domain.PayoutQueueEntry, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []domain.PayoutQueueEntry
	for _, entry := range r.store.payouts {
		if query.CreatorID != "" && entry.CreatorID != query.CreatorID {
			continue
		}
		if query.Status != "" && entry.Status != query.Status {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if query.Offset >= total {
		return nil, total, nil
	}
	matched = matched[query.Offset:]
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}
	return matched, total, nil
}

func (r *payoutQueueRepository) ListEligible(_ context.Context, asOf time.Time, limit int) ([]domain.PayoutQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var eligible []domain.PayoutQueueEntry
	for _, entry := range r.store.payouts {
		if entry.Status == domain.PayoutStatusPending && !entry.EligibleAt.After(asOf) {
			eligible = append(eligible, entry)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].EligibleAt.Before(eligible[j].EligibleAt) })
	if limit > 0 && limit < len(eligible) {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (r *payoutQueueRepository) ListExpiredReserves(_ context.Context, eligibleBefore time.Time, limit int) ([]domain.PayoutQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var expired []domain.PayoutQueueEntry
	for _, entry := range r.store.payouts {
		if entry.Status == domain.PayoutStatusReleased && entry.ReserveAmountCents > 0 &&
			!entry.EligibleAt.After(eligibleBefore) {
			expired = append(expired, entry)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].EligibleAt.Before(expired[j].EligibleAt) })
	if limit > 0 && limit < len(expired) {
		expired = expired[:limit]
	}
	return expired, nil
}

func (r *payoutQueueRepository) UpdateIf(_ context.Context, entry domain.PayoutQueueEntry, expect domain.PayoutStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.payouts[entry.EntryID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Status != expect {
		return domain.ErrConflict
	}
	r.store.payouts[entry.EntryID] = entry
	return nil
}

func (r *payoutQueueRepository) SumReleasedSince(_ context.Context, creatorID string, since time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var total int64
	for _, entry := range r.store.payouts {
		if entry.CreatorID == creatorID && entry.Status == domain.PayoutStatusReleased &&
			entry.ReleasedAt != nil && !entry.ReleasedAt.Before(since) {
			total += entry.AmountCents
		}
	}
	return total, nil
}

type balanceRepository struct {
	store *Store
}

func (r *balanceRepository) Get(_ context.Context, creatorID string) (domain.CreatorBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	balance, ok := r.store.balances[creatorID]
	if !ok {
		return domain.CreatorBalance{}, domain.ErrNotFound
	}
	return balance, nil
}

func (r *balanceRepository) Upsert(_ context.Context, balance domain.CreatorBalance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.balances[balance.CreatorID] = balance
	return nil
}

func (r *balanceRepository) Apply(_ context.Context, creatorID string, delta domain.BalanceDelta, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	balance, ok := r.store.balances[creatorID]
	if !ok {
		return domain.ErrNotFound
	}
	if balance.PendingBalanceCents+delta.PendingCents < 0 {
		return domain.ErrConflict
	}
	balance.AvailableBalanceCents += delta.AvailableCents
	balance.PendingBalanceCents += delta.PendingCents
	balance.LockedReserveCents += delta.LockedReserveCents
	balance.TotalEarnedCents += delta.TotalEarnedCents
	balance.UpdatedAt = at
	r.store.balances[creatorID] = balance
	return nil
}

type ledgerRepository struct {
	store *Store
}

func (r *ledgerRepository) Create(_ context.Context, entry domain.LedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.ledger[entry.EntryID]; exists {
		return domain.ErrConflict
	}
	r.store.ledger[entry.EntryID] = entry
	return nil
}

func (r *ledgerRepository) ListByConversion(_ context.Context, conversionID string) ([]domain.LedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var entries []domain.LedgerEntry
	for _, entry := range r.store.ledger {
		if entry.ConversionID == conversionID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

type campaignRepository struct {
	store *Store
}

func (r *campaignRepository) GetByID(_ context.Context, campaignID string) (domain.Campaign, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	campaign, ok := r.store.campaigns[campaignID]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return campaign, nil
}
