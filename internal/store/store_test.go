package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/advance/internal/db"
	"github.com/Simplici0/advance/internal/migrations"
	"github.com/Simplici0/advance/internal/pricing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.Up(ctx, database, "../../migrations"))
	return database
}

func testSchedule(t *testing.T) pricing.FeeSchedule {
	t.Helper()

	s, err := pricing.NewFeeSchedule(pricing.FeeScheduleParams{
		InitialFee:        decimal.RequireFromString("0.15"),
		DailyFee:          decimal.RequireFromString("0.0007"),
		ExitFee:           decimal.RequireFromString("0.015"),
		MinimumTermMonths: 12,
		MaximumTermMonths: 36,
		Currency:          "EUR",
	})
	require.NoError(t, err)
	return s
}

func TestFeeSchedules_RoundTripIsLossless(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))

	schedule := testSchedule(t)
	created, err := s.CreateFeeSchedule(ctx, "Standard", schedule)
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.True(t, created.Active)

	got, err := s.GetFeeSchedule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standard", got.Name)
	assert.True(t, got.Schedule.Equal(schedule), "stored schedule differs: %+v", got.Schedule.Params())
	assert.Equal(t, "0.0007", got.Schedule.DailyFee().String())

	byName, err := s.GetFeeScheduleByName(ctx, "Standard")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = s.CreateFeeSchedule(ctx, "Standard", schedule)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestFeeSchedules_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))

	_, err := s.GetFeeSchedule(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetFeeScheduleByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.SetFeeScheduleActive(ctx, 42, false), ErrNotFound)
}

func TestFeeSchedules_ListAndToggle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))
	schedule := testSchedule(t)

	first, err := s.CreateFeeSchedule(ctx, "First", schedule)
	require.NoError(t, err)
	second, err := s.CreateFeeSchedule(ctx, "Second", schedule)
	require.NoError(t, err)

	require.NoError(t, s.SetFeeScheduleActive(ctx, first.ID, false))

	list, err := s.ListFeeSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.False(t, list[1].Active)
	assert.True(t, list[0].Active)
}

func TestEnsureFeeSchedule_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))
	schedule := testSchedule(t)

	rec, inserted, err := s.EnsureFeeSchedule(ctx, "Standard", schedule)
	require.NoError(t, err)
	assert.True(t, inserted)

	again, inserted, err := s.EnsureFeeSchedule(ctx, "Standard", schedule)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, rec.ID, again.ID)
}

func TestAdvancements_CreateSnapshotsSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))

	rec, err := s.CreateFeeSchedule(ctx, "Standard", testSchedule(t))
	require.NoError(t, err)

	drawdown := time.Date(2024, time.March, 1, 15, 30, 0, 0, time.UTC)
	adv, err := s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0001",
		FeeScheduleID: rec.ID,
		Principal:     decimal.RequireFromString("10000.00"),
		DrawdownDate:  drawdown,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, adv.ID)

	got, err := s.GetAdvancement(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, "EST-0001", got.Reference)
	assert.Equal(t, rec.ID, got.FeeScheduleID)
	assert.True(t, got.Principal.Equal(decimal.RequireFromString("10000")))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), got.DrawdownDate)
	assert.True(t, got.Schedule.Equal(rec.Schedule))
	assert.False(t, got.Settled())
	assert.False(t, got.SettlementAmount.Valid)

	req := got.Request()
	assert.True(t, req.Principal.Equal(got.Principal))
}

func TestAdvancements_RejectsBadInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))

	rec, err := s.CreateFeeSchedule(ctx, "Standard", testSchedule(t))
	require.NoError(t, err)

	_, err = s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0002",
		FeeScheduleID: rec.ID,
		Principal:     decimal.Zero,
		DrawdownDate:  time.Now(),
	})
	assert.ErrorIs(t, err, pricing.ErrDomain)

	_, err = s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0003",
		FeeScheduleID: rec.ID + 100,
		Principal:     decimal.NewFromInt(500),
		DrawdownDate:  time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetAdvancement(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0005",
		FeeScheduleID: rec.ID,
		Principal:     decimal.NewFromInt(500),
		DrawdownDate:  time.Now(),
	})
	require.NoError(t, err)
	_, err = s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0005",
		FeeScheduleID: rec.ID,
		Principal:     decimal.NewFromInt(700),
		DrawdownDate:  time.Now(),
	})
	assert.ErrorIs(t, err, ErrDuplicateReference)

	require.NoError(t, s.SetFeeScheduleActive(ctx, rec.ID, false))
	_, err = s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0006",
		FeeScheduleID: rec.ID,
		Principal:     decimal.NewFromInt(500),
		DrawdownDate:  time.Now(),
	})
	assert.ErrorIs(t, err, ErrScheduleInactive)
}

func TestRecordSettlement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(openTestDB(t))

	rec, err := s.CreateFeeSchedule(ctx, "Standard", testSchedule(t))
	require.NoError(t, err)
	adv, err := s.CreateAdvancement(ctx, NewAdvancement{
		Reference:     "EST-0004",
		FeeScheduleID: rec.ID,
		Principal:     decimal.NewFromInt(10000),
		DrawdownDate:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	settledOn := time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("13492.50")
	require.NoError(t, s.RecordSettlement(ctx, adv.ID, settledOn, amount))

	got, err := s.GetAdvancement(ctx, adv.ID)
	require.NoError(t, err)
	require.True(t, got.Settled())
	assert.Equal(t, settledOn, *got.SettledOn)
	require.True(t, got.SettlementAmount.Valid)
	assert.Equal(t, "13492.5", got.SettlementAmount.Decimal.String())

	err = s.RecordSettlement(ctx, adv.ID, settledOn, amount)
	assert.ErrorIs(t, err, ErrAlreadySettled)

	err = s.RecordSettlement(ctx, uuid.New(), settledOn, amount)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRunsInsideTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := openTestDB(t)

	tx, err := database.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = New(tx).CreateFeeSchedule(ctx, "Rolled back", testSchedule(t))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, err = New(database).GetFeeScheduleByName(ctx, "Rolled back")
	assert.ErrorIs(t, err, ErrNotFound)
}
