package postgres

import (
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Visits      ports.VisitRepository
	Conversions ports.ConversionRepository
	Payouts     ports.PayoutQueueRepository
	Balances    ports.BalanceRepository
	Ledger      ports.LedgerRepository
	Campaigns   ports.CampaignRepository
	Tx          ports.TxManager
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Visits:      &visitRepository{db: db},
		Conversions: &conversionRepository{db: db},
		Payouts:     &payoutQueueRepository{db: db},
		Balances:    &balanceRepository{db: db},
		Ledger:      &ledgerRepository{db: db},
		Campaigns:   &campaignRepository{db: db},
		Tx:          NewTxManager(db),
	}
}
