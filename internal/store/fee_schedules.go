package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/Simplici0/advance/internal/pricing"
)

// FeeScheduleRecord is a named product fee schedule.
type FeeScheduleRecord struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	Active   bool                `json:"active"`
	Schedule pricing.FeeSchedule `json:"-"`
}

const selectFeeSchedule = `SELECT id, name, active, ` + scheduleColumns + ` FROM fee_schedules`

// CreateFeeSchedule inserts a new named schedule.
func (s *Store) CreateFeeSchedule(ctx context.Context, name string, schedule pricing.FeeSchedule) (FeeScheduleRecord, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM fee_schedules WHERE name = ? LIMIT 1)`, name).Scan(&exists); err != nil {
		return FeeScheduleRecord{}, eris.Wrapf(err, "store: check fee schedule name %q", name)
	}
	if exists {
		return FeeScheduleRecord{}, ErrDuplicateName
	}

	args := append([]any{name}, scheduleArgs(schedule)...)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO fee_schedules (name, `+scheduleColumns+`, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE)
	`, args...)
	if err != nil {
		return FeeScheduleRecord{}, eris.Wrapf(err, "store: insert fee schedule %q", name)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return FeeScheduleRecord{}, eris.Wrap(err, "store: fee schedule id")
	}

	return FeeScheduleRecord{ID: id, Name: name, Active: true, Schedule: schedule}, nil
}

// GetFeeSchedule loads a schedule by id.
func (s *Store) GetFeeSchedule(ctx context.Context, id int64) (FeeScheduleRecord, error) {
	row := s.db.QueryRowContext(ctx, selectFeeSchedule+` WHERE id = ?`, id)
	rec, err := scanFeeSchedule(row)
	if errors.Is(err, ErrNotFound) {
		return FeeScheduleRecord{}, err
	}
	if err != nil {
		return FeeScheduleRecord{}, eris.Wrapf(err, "store: get fee schedule %d", id)
	}
	return rec, nil
}

// GetFeeScheduleByName loads a schedule by its unique name.
func (s *Store) GetFeeScheduleByName(ctx context.Context, name string) (FeeScheduleRecord, error) {
	row := s.db.QueryRowContext(ctx, selectFeeSchedule+` WHERE name = ?`, name)
	rec, err := scanFeeSchedule(row)
	if errors.Is(err, ErrNotFound) {
		return FeeScheduleRecord{}, err
	}
	if err != nil {
		return FeeScheduleRecord{}, eris.Wrapf(err, "store: get fee schedule %q", name)
	}
	return rec, nil
}

// ListFeeSchedules returns every schedule, newest first.
func (s *Store) ListFeeSchedules(ctx context.Context) ([]FeeScheduleRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectFeeSchedule+` ORDER BY id DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "store: query fee schedules")
	}
	defer rows.Close()

	records := make([]FeeScheduleRecord, 0)
	for rows.Next() {
		rec, err := scanFeeSchedule(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan fee schedule")
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate fee schedules")
	}

	return records, nil
}

// EnsureFeeSchedule inserts schedule under name unless a schedule with that
// name exists. It reports whether a row was inserted.
func (s *Store) EnsureFeeSchedule(ctx context.Context, name string, schedule pricing.FeeSchedule) (FeeScheduleRecord, bool, error) {
	rec, err := s.GetFeeScheduleByName(ctx, name)
	if err == nil {
		return rec, false, nil
	}
	if err != ErrNotFound {
		return FeeScheduleRecord{}, false, err
	}

	rec, err = s.CreateFeeSchedule(ctx, name, schedule)
	if err != nil {
		return FeeScheduleRecord{}, false, err
	}
	return rec, true, nil
}

// SetFeeScheduleActive toggles whether a schedule is offered for new advancements.
func (s *Store) SetFeeScheduleActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE fee_schedules
		SET active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, active, id)
	if err != nil {
		return eris.Wrapf(err, "store: update fee schedule %d", id)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "store: update fee schedule %d", id)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFeeSchedule(row rowScanner) (FeeScheduleRecord, error) {
	var (
		rec    FeeScheduleRecord
		fields scheduleFields
	)
	dest := append([]any{&rec.ID, &rec.Name, &rec.Active}, fields.dest()...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FeeScheduleRecord{}, ErrNotFound
		}
		return FeeScheduleRecord{}, err
	}

	schedule, err := fields.schedule()
	if err != nil {
		return FeeScheduleRecord{}, err
	}
	rec.Schedule = schedule
	return rec, nil
}
