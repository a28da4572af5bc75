// backend/src/model/reconciliation.go
package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/username/optionvisor/backend/src/models"
)

// ReconciliationRun is one journaled invocation of the matching engine:
// the query window and filters, the selected assignment-filter policy, and
// the aggregate outcome. The broker stays the system of record; the journal
// is an audit artifact.
type ReconciliationRun struct {
	ID                string  `json:"id"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Ticker            string  `json:"ticker"`
	ContractType      string  `json:"contract_type"`
	RealizedGainsOnly bool    `json:"realized_gains_only"`
	FilterMode        string  `json:"filter_mode"`
	TradeCount        int     `json:"trade_count"`
	TotalAmount       float64 `json:"total_amount"`
	CreatedAt         string  `json:"created_at"`
}

// SaveReconciliationRun inserts a run and its trade rows in one transaction.
// Assigns run.ID and run.CreatedAt.
func SaveReconciliationRun(db *sql.DB, run *ReconciliationRun, records []models.OptionTradeRecord) error {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning journal transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO reconciliation_runs
			(id, start_date, end_date, ticker, contract_type, realized_only, filter_mode, trade_count, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartDate, run.EndDate, run.Ticker, run.ContractType,
		run.RealizedGainsOnly, run.FilterMode, run.TradeCount, run.TotalAmount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting reconciliation run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO matched_trades
			(run_id, open_date, close_date, underlying_symbol, expiration_date, strike_price,
			 symbol, option_type, classification, quantity, price, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing matched trade insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(run.ID, r.Date, r.CloseDate, r.UnderlyingSymbol, r.ExpirationDate,
			r.StrikePrice, r.Symbol, r.OptionType, string(r.Type), r.Amount, r.Price, r.TotalAmount); err != nil {
			return fmt.Errorf("inserting matched trade for run %s: %w", run.ID, err)
		}
	}

	return tx.Commit()
}

// ListReconciliationRuns returns runs newest first.
func ListReconciliationRuns(db *sql.DB, limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, start_date, end_date, ticker, contract_type, realized_only, filter_mode, trade_count, total_amount, created_at
		FROM reconciliation_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reconciliation runs: %w", err)
	}
	defer rows.Close()

	var runs []ReconciliationRun
	for rows.Next() {
		var run ReconciliationRun
		if err := rows.Scan(&run.ID, &run.StartDate, &run.EndDate, &run.Ticker, &run.ContractType,
			&run.RealizedGainsOnly, &run.FilterMode, &run.TradeCount, &run.TotalAmount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reconciliation run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetReconciliationRun returns one run and its journaled trades.
func GetReconciliationRun(db *sql.DB, runID string) (*ReconciliationRun, []models.OptionTradeRecord, error) {
	var run ReconciliationRun
	err := db.QueryRow(`
		SELECT id, start_date, end_date, ticker, contract_type, realized_only, filter_mode, trade_count, total_amount, created_at
		FROM reconciliation_runs
		WHERE id = ?`, runID).Scan(
		&run.ID, &run.StartDate, &run.EndDate, &run.Ticker, &run.ContractType,
		&run.RealizedGainsOnly, &run.FilterMode, &run.TradeCount, &run.TotalAmount, &run.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.Query(`
		SELECT open_date, close_date, underlying_symbol, expiration_date, strike_price,
		       symbol, option_type, classification, quantity, price, total_amount
		FROM matched_trades
		WHERE run_id = ?
		ORDER BY close_date, id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying trades for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []models.OptionTradeRecord
	for rows.Next() {
		var r models.OptionTradeRecord
		var classification string
		if err := rows.Scan(&r.Date, &r.CloseDate, &r.UnderlyingSymbol, &r.ExpirationDate, &r.StrikePrice,
			&r.Symbol, &r.OptionType, &classification, &r.Amount, &r.Price, &r.TotalAmount); err != nil {
			return nil, nil, fmt.Errorf("scanning trade for run %s: %w", runID, err)
		}
		r.Type = models.TradeClassification(classification)
		records = append(records, r)
	}
	return &run, records, rows.Err()
}
