// Package analytics aggregates performance metrics over a filtered trade
// set, either in total or broken down by a dimension.
package analytics

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/filter"
	"trade-journal-go/internal/journal"
)

// Summary holds the headline metrics of a trade set. Ratios that are
// undefined for the set are nil.
type Summary struct {
	TotalTrades  int64    `json:"totalTrades"`
	Wins         int64    `json:"wins"`
	Losses       int64    `json:"losses"`
	Breakeven    int64    `json:"breakeven"`
	WinRate      float64  `json:"winRate"`
	AvgWin       *float64 `json:"avgWin"`
	AvgLoss      *float64 `json:"avgLoss"`
	ProfitFactor *float64 `json:"profitFactor"`
	Expectancy   *float64 `json:"expectancy"`
	AvgR         *float64 `json:"avgR"`
	AvgWinR      *float64 `json:"avgWinR"`
	AvgLossR     *float64 `json:"avgLossR"`
	PayoffRatio  *float64 `json:"payoffRatio"`
}

// Engine runs aggregate queries against the trade store.
type Engine struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(db *gorm.DB, log *zap.Logger) *Engine {
	return &Engine{db: db, log: log.Named("analytics")}
}

// outcome columns shared by the summary and the breakdown queries
const outcomeColumns = `
	COUNT(*) AS trades,
	COALESCE(SUM(CASE WHEN t.pnl > 0 THEN 1 ELSE 0 END), 0) AS wins,
	COALESCE(SUM(CASE WHEN t.pnl < 0 THEN 1 ELSE 0 END), 0) AS losses,
	COALESCE(SUM(CASE WHEN t.pnl = 0 THEN 1 ELSE 0 END), 0) AS breakeven,
	SUM(CASE WHEN t.pnl > 0 THEN t.pnl END) AS sum_wins,
	SUM(CASE WHEN t.pnl < 0 THEN t.pnl END) AS sum_losses,
	AVG(CASE WHEN t.pnl > 0 THEN t.pnl END) AS avg_win,
	AVG(CASE WHEN t.pnl < 0 THEN t.pnl END) AS avg_loss,
	AVG(t.pnl) AS avg_pnl`

// aggregateRow receives one row of either query. Group columns stay empty
// for the summary and R columns for a breakdown.
type aggregateRow struct {
	GroupKey   string
	GroupLabel string
	Trades     int64
	Wins       int64
	Losses     int64
	Breakeven  int64
	SumWins    *float64
	SumLosses  *float64
	AvgWin     *float64
	AvgLoss    *float64
	AvgPnl     *float64
	AvgR       *float64
	AvgWinR    *float64
	AvgLossR   *float64
}

// Summary computes the headline metrics of the trades matching f with a
// single aggregate query.
func (e *Engine) Summary(ctx context.Context, f filter.Filter) (Summary, error) {
	f = filter.Normalize(f)
	if err := journal.EnsureFields(ctx, e.db, f.FieldIDs()); err != nil {
		return Summary{}, err
	}
	pred := filter.Compile(f)

	query := "SELECT" + outcomeColumns + `,
	AVG(t.r_multiple) AS avg_r,
	AVG(CASE WHEN t.pnl > 0 THEN t.r_multiple END) AS avg_win_r,
	AVG(CASE WHEN t.pnl < 0 THEN t.r_multiple END) AS avg_loss_r
FROM trades AS t
WHERE ` + pred.Where()

	var row aggregateRow
	if err := e.db.WithContext(ctx).Raw(query, pred.Args...).Scan(&row).Error; err != nil {
		return Summary{}, fmt.Errorf("failed to aggregate trades: %w", err)
	}
	return deriveSummary(row), nil
}

func deriveSummary(row aggregateRow) Summary {
	return Summary{
		TotalTrades:  row.Trades,
		Wins:         row.Wins,
		Losses:       row.Losses,
		Breakeven:    row.Breakeven,
		WinRate:      rate(row.Wins, row.Trades),
		AvgWin:       row.AvgWin,
		AvgLoss:      row.AvgLoss,
		ProfitFactor: ratio(row.SumWins, row.SumLosses),
		Expectancy:   row.AvgPnl,
		AvgR:         row.AvgR,
		AvgWinR:      row.AvgWinR,
		AvgLossR:     row.AvgLossR,
		PayoffRatio:  ratio(row.AvgWin, row.AvgLoss),
	}
}

func rate(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// ratio returns gain / |loss|, or nil when either side is missing or zero.
func ratio(gain, loss *float64) *float64 {
	if gain == nil || loss == nil || *gain == 0 || *loss == 0 {
		return nil
	}
	v := *gain / math.Abs(*loss)
	return &v
}
