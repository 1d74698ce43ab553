package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/advance/internal/pricing"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadySettled is returned when recording a second settlement.
	ErrAlreadySettled = errors.New("store: advancement already settled")
	// ErrDuplicateReference is returned when an advancement reference is reused.
	ErrDuplicateReference = errors.New("store: advancement reference already exists")
	// ErrScheduleInactive is returned when drawing down against a retired schedule.
	ErrScheduleInactive = errors.New("store: fee schedule is not active")
	// ErrDuplicateName is returned when a fee schedule name is reused.
	ErrDuplicateName = errors.New("store: fee schedule name already exists")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists fee schedules and advancements in SQLite. Decimal values are
// written as their exact string form.
type Store struct {
	db DBTX
}

// New returns a Store over db, which may be a transaction.
func New(db DBTX) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scheduleColumns is the column order of scheduleArgs and scheduleFields.dest.
const scheduleColumns = `currency, initial_fee, daily_fee, exit_fee, minimum_term_months, maximum_term_months, representative_term_months`

func scheduleArgs(s pricing.FeeSchedule) []any {
	return []any{
		s.Currency(),
		s.InitialFee().String(),
		s.DailyFee().String(),
		s.ExitFee().String(),
		s.MinimumTermMonths(),
		s.MaximumTermMonths(),
		s.RepresentativeTermMonths(),
	}
}

// scheduleFields collects the scanned snapshot columns of a schedule.
type scheduleFields struct {
	currency                                   string
	initial, daily, exit                       string
	minMonths, maxMonths, representativeMonths int
}

func (f *scheduleFields) dest() []any {
	return []any{&f.currency, &f.initial, &f.daily, &f.exit, &f.minMonths, &f.maxMonths, &f.representativeMonths}
}

func (f *scheduleFields) schedule() (pricing.FeeSchedule, error) {
	initial, err := parseDecimal(f.initial, "initial_fee")
	if err != nil {
		return pricing.FeeSchedule{}, err
	}
	daily, err := parseDecimal(f.daily, "daily_fee")
	if err != nil {
		return pricing.FeeSchedule{}, err
	}
	exit, err := parseDecimal(f.exit, "exit_fee")
	if err != nil {
		return pricing.FeeSchedule{}, err
	}

	s, err := pricing.NewFeeSchedule(pricing.FeeScheduleParams{
		InitialFee:               initial,
		DailyFee:                 daily,
		ExitFee:                  exit,
		MinimumTermMonths:        f.minMonths,
		MaximumTermMonths:        f.maxMonths,
		RepresentativeTermMonths: f.representativeMonths,
		Currency:                 f.currency,
	})
	if err != nil {
		return pricing.FeeSchedule{}, eris.Wrap(err, "store: stored fee schedule is invalid")
	}
	return s, nil
}

func parseDecimal(raw, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "store: parse %s %q", column, raw)
	}
	return d, nil
}
