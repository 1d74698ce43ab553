package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/advance/internal/pricing"
)

const dateLayout = "2006-01-02"

// Advancement is one signed agreement in the advancement book. Schedule is a
// snapshot taken at creation, so later product edits never reprice it.
type Advancement struct {
	ID               uuid.UUID           `json:"id"`
	Reference        string              `json:"reference"`
	FeeScheduleID    int64               `json:"fee_schedule_id"`
	Principal        decimal.Decimal     `json:"principal"`
	Schedule         pricing.FeeSchedule `json:"-"`
	DrawdownDate     time.Time           `json:"drawdown_date"`
	SettledOn        *time.Time          `json:"settled_on,omitempty"`
	SettlementAmount decimal.NullDecimal `json:"settlement_amount"`
}

// Request returns the pricing request for this advancement.
func (a Advancement) Request() pricing.AdvancementRequest {
	return pricing.AdvancementRequest{Principal: a.Principal, Schedule: a.Schedule}
}

// Settled reports whether a settlement has been recorded.
func (a Advancement) Settled() bool {
	return a.SettledOn != nil
}

// NewAdvancement holds the inputs of CreateAdvancement.
type NewAdvancement struct {
	Reference     string
	FeeScheduleID int64
	Principal     decimal.Decimal
	DrawdownDate  time.Time
}

const selectAdvancement = `
	SELECT id, reference, fee_schedule_id, principal, drawdown_date, settled_on, settlement_amount, ` + scheduleColumns + `
	FROM advancements`

// CreateAdvancement records a new advancement against an existing fee schedule,
// snapshotting the schedule's current values.
func (s *Store) CreateAdvancement(ctx context.Context, in NewAdvancement) (Advancement, error) {
	if !in.Principal.IsPositive() {
		return Advancement{}, &pricing.DomainError{Field: "principal", Reason: "must be positive"}
	}

	rec, err := s.GetFeeSchedule(ctx, in.FeeScheduleID)
	if err != nil {
		return Advancement{}, err
	}
	if !rec.Active {
		return Advancement{}, ErrScheduleInactive
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM advancements WHERE reference = ? LIMIT 1)`, in.Reference).Scan(&exists); err != nil {
		return Advancement{}, eris.Wrapf(err, "store: check advancement reference %q", in.Reference)
	}
	if exists {
		return Advancement{}, ErrDuplicateReference
	}

	adv := Advancement{
		ID:            uuid.New(),
		Reference:     in.Reference,
		FeeScheduleID: rec.ID,
		Principal:     in.Principal,
		Schedule:      rec.Schedule,
		DrawdownDate:  truncateDate(in.DrawdownDate),
	}

	args := []any{adv.ID.String(), adv.Reference, adv.FeeScheduleID, adv.Principal.String(), adv.DrawdownDate.Format(dateLayout)}
	args = append(args, scheduleArgs(adv.Schedule)...)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO advancements (id, reference, fee_schedule_id, principal, drawdown_date, `+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...); err != nil {
		return Advancement{}, eris.Wrapf(err, "store: insert advancement %q", in.Reference)
	}

	return adv, nil
}

// GetAdvancement loads an advancement by id.
func (s *Store) GetAdvancement(ctx context.Context, id uuid.UUID) (Advancement, error) {
	row := s.db.QueryRowContext(ctx, selectAdvancement+` WHERE id = ?`, id.String())
	adv, err := scanAdvancement(row)
	if errors.Is(err, ErrNotFound) {
		return Advancement{}, err
	}
	if err != nil {
		return Advancement{}, eris.Wrapf(err, "store: get advancement %s", id)
	}
	return adv, nil
}

// RecordSettlement stores the authoritative amount paid on settledOn. It
// fails with ErrAlreadySettled if a settlement was recorded before.
func (s *Store) RecordSettlement(ctx context.Context, id uuid.UUID, settledOn time.Time, amount decimal.Decimal) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE advancements
		SET settled_on = ?, settlement_amount = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND settled_on IS NULL
	`, truncateDate(settledOn).Format(dateLayout), amount.String(), id.String())
	if err != nil {
		return eris.Wrapf(err, "store: record settlement %s", id)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "store: record settlement %s", id)
	}
	if affected == 1 {
		return nil
	}

	if _, err := s.GetAdvancement(ctx, id); err != nil {
		return err
	}
	return ErrAlreadySettled
}

func scanAdvancement(row rowScanner) (Advancement, error) {
	var (
		adv                  Advancement
		id, principal, drawn string
		settledOn, amount    sql.NullString
		fields               scheduleFields
	)

	dest := append([]any{&id, &adv.Reference, &adv.FeeScheduleID, &principal, &drawn, &settledOn, &amount}, fields.dest()...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Advancement{}, ErrNotFound
		}
		return Advancement{}, err
	}

	var err error
	if adv.ID, err = uuid.Parse(id); err != nil {
		return Advancement{}, eris.Wrapf(err, "store: parse advancement id %q", id)
	}
	if adv.Principal, err = parseDecimal(principal, "principal"); err != nil {
		return Advancement{}, err
	}
	if adv.DrawdownDate, err = time.Parse(dateLayout, drawn); err != nil {
		return Advancement{}, eris.Wrapf(err, "store: parse drawdown_date %q", drawn)
	}
	if settledOn.Valid {
		t, err := time.Parse(dateLayout, settledOn.String)
		if err != nil {
			return Advancement{}, eris.Wrapf(err, "store: parse settled_on %q", settledOn.String)
		}
		adv.SettledOn = &t
	}
	if amount.Valid {
		d, err := parseDecimal(amount.String, "settlement_amount")
		if err != nil {
			return Advancement{}, err
		}
		adv.SettlementAmount = decimal.NewNullDecimal(d)
	}
	if adv.Schedule, err = fields.schedule(); err != nil {
		return Advancement{}, err
	}

	return adv, nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
