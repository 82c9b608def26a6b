// Package database is the run ledger: one job row per batch and one conversion
// row per input file, stored through bun in sqlite or postgres.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pdfcover/config"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Ledger records batch runs and their per-file outcomes
type Ledger interface {
	Close() error
	CreateJob(ctx context.Context, jobType JobType, message string) (*Job, error)
	UpdateJobProgress(ctx context.Context, jobID ulid.ULID, progress int, currentStep string) error
	RecordConversion(ctx context.Context, c *Conversion) error
	CompleteJob(ctx context.Context, jobID ulid.ULID, result string) error
	FailJob(ctx context.Context, jobID ulid.ULID, errorMsg string) error
	GetJob(ctx context.Context, jobID ulid.ULID) (*Job, error)
	ListConversions(ctx context.Context, jobID ulid.ULID) ([]Conversion, error)
}

// NewLedger opens the ledger selected by ledgerType. "none" returns a ledger that
// hands out job ids but stores nothing.
func NewLedger(ctx context.Context, ledgerType, dsn string) (Ledger, error) {
	switch ledgerType {
	case "", config.LedgerNone:
		return nopLedger{}, nil
	case config.LedgerSQLite:
		return OpenSQLite(ctx, dsn)
	case config.LedgerPostgres:
		return OpenPostgres(ctx, dsn)
	case config.LedgerEphemeral:
		return StartEphemeralPostgres(ctx)
	}
	return nil, fmt.Errorf("unknown ledger type %q", ledgerType)
}

// CalculateUUID returns a ULID for t. Ids generated in one process sort in
// creation order.
func CalculateUUID(t time.Time) (ulid.ULID, error) {
	return ulid.New(ulid.Timestamp(t), ulid.DefaultEntropy())
}

type nopLedger struct{}

func (nopLedger) Close() error { return nil }

func (nopLedger) CreateJob(_ context.Context, jobType JobType, message string) (*Job, error) {
	now := time.Now()
	id, err := CalculateUUID(now)
	if err != nil {
		return nil, err
	}
	return &Job{ID: id, Type: jobType, Status: JobStatusRunning, Message: message,
		CreatedAt: now, UpdatedAt: now, StartedAt: &now}, nil
}

func (nopLedger) UpdateJobProgress(context.Context, ulid.ULID, int, string) error { return nil }
func (nopLedger) RecordConversion(context.Context, *Conversion) error             { return nil }
func (nopLedger) CompleteJob(context.Context, ulid.ULID, string) error            { return nil }
func (nopLedger) FailJob(context.Context, ulid.ULID, string) error                { return nil }

func (nopLedger) GetJob(context.Context, ulid.ULID) (*Job, error) { return nil, sql.ErrNoRows }

func (nopLedger) ListConversions(context.Context, ulid.ULID) ([]Conversion, error) {
	return nil, nil
}
