package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"group-order-bot/internal/database"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/models"
)

// PostgresLedger stores order records in the order_records table.
type PostgresLedger struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresLedger creates a ledger backed by PostgreSQL.
func NewPostgresLedger(db *database.DB, log *logger.Logger) *PostgresLedger {
	return &PostgresLedger{
		db:     db,
		logger: log,
	}
}

func (l *PostgresLedger) Append(ctx context.Context, userID, restaurantName, item string, quantity int) error {
	err := l.db.Exec(ctx, database.InsertOrderRecordSQL, userID, restaurantName, item, quantity)
	if err != nil {
		return fmt.Errorf("failed to append order record: %w", err)
	}
	return nil
}

func (l *PostgresLedger) QueryByUser(ctx context.Context, userID string) ([]models.LedgerRow, error) {
	rows, err := l.db.Query(ctx, database.QueryRecordsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user records: %w", err)
	}
	return scanRows(rows)
}

func (l *PostgresLedger) QueryRecent(ctx context.Context, windowDays int) ([]models.LedgerRow, error) {
	rows, err := l.db.Query(ctx, database.QueryRecentRecordsSQL, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	return scanRows(rows)
}

func (l *PostgresLedger) QueryAll(ctx context.Context) ([]models.LedgerRow, error) {
	rows, err := l.db.Query(ctx, database.QueryAllRecordsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query order records: %w", err)
	}
	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]models.LedgerRow, error) {
	defer rows.Close()

	var records []models.LedgerRow
	for rows.Next() {
		var r models.LedgerRow
		if err := rows.Scan(&r.UserID, &r.Item, &r.Quantity, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
