package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/square-key-labs/voxline/src/logger"
)

// Call statuses written by the IVR layer.
const (
	StatusReceived      = "received"
	StatusRoutedSales   = "routed_sales"
	StatusRoutedSupport = "routed_support"
	StatusRoutedAI      = "routed_ai"
	StatusCompleted     = "completed"
)

// CallRecord is one row of the call log.
type CallRecord struct {
	ID           int64
	CallerNumber string
	Status       string
	CreatedAt    time.Time
}

// CallLog persists call records in Postgres.
type CallLog struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewCallLog connects a pool and ensures the table exists.
func NewCallLog(ctx context.Context, databaseURL string) (*CallLog, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	c := &CallLog{pool: pool, log: logger.WithPrefix("CallLog")}
	if err := c.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func (c *CallLog) migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS call_logs (
			id            BIGSERIAL PRIMARY KEY,
			caller_number VARCHAR(20) NOT NULL,
			call_status   VARCHAR(32) NOT NULL DEFAULT 'received',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create call_logs: %w", err)
	}
	return nil
}

// Record inserts a new call row and returns its ID.
func (c *CallLog) Record(ctx context.Context, callerNumber string) (int64, error) {
	var id int64
	err := c.pool.QueryRow(ctx,
		`INSERT INTO call_logs (caller_number, call_status) VALUES ($1, $2) RETURNING id`,
		callerNumber, StatusReceived).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert call: %w", err)
	}
	c.log.Debug("recorded call %d from %s", id, callerNumber)
	return id, nil
}

// UpdateStatus sets the status of a call row.
func (c *CallLog) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE call_logs SET call_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update call %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("call %d not found", id)
	}
	return nil
}

// History returns the most recent calls from a number, newest first.
func (c *CallLog) History(ctx context.Context, callerNumber string, limit int) ([]CallRecord, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, caller_number, call_status, created_at
		 FROM call_logs WHERE caller_number = $1
		 ORDER BY created_at DESC LIMIT $2`,
		callerNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []CallRecord
	for rows.Next() {
		var r CallRecord
		if err := rows.Scan(&r.ID, &r.CallerNumber, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan call row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the pool.
func (c *CallLog) Close() {
	c.pool.Close()
}
