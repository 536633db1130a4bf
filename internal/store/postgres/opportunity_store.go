package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a store backed by the given connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, sell_exchange, buy_exchange, sell_price, buy_price,
	gross_spread, net_spread, profit_pct, fee_buy, fee_sell,
	ts_sell, ts_buy, detected_at`

// Insert stores a new opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, sell_exchange, buy_exchange, sell_price, buy_price,
			gross_spread, net_spread, profit_pct, fee_buy, fee_sell,
			ts_sell, ts_buy, detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.SellExchange, opp.BuyExchange, opp.SellPrice, opp.BuyPrice,
		opp.GrossSpread, opp.NetSpread, opp.ProfitPct, opp.FeeBuy, opp.FeeSell,
		nullableTime(opp.TsSell), nullableTime(opp.TsBuy), opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var tsSell, tsBuy *time.Time

		if err := rows.Scan(
			&opp.ID, &opp.SellExchange, &opp.BuyExchange, &opp.SellPrice, &opp.BuyPrice,
			&opp.GrossSpread, &opp.NetSpread, &opp.ProfitPct, &opp.FeeBuy, &opp.FeeSell,
			&tsSell, &tsBuy, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		if tsSell != nil {
			opp.TsSell = *tsSell
		}
		if tsBuy != nil {
			opp.TsBuy = *tsBuy
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return opps, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
