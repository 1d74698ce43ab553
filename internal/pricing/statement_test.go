package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElapsedDays(t *testing.T) {
	drawdown := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ElapsedDays(drawdown, drawdown))
	assert.Equal(t, 366, ElapsedDays(drawdown, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)), "2024 is a leap year")
	assert.Equal(t, -1, ElapsedDays(drawdown, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)))

	late := time.Date(2024, 3, 30, 23, 0, 0, 0, time.UTC)
	early := time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, ElapsedDays(late, early), "time of day is ignored")
}

func TestClassifyTerm(t *testing.T) {
	s := referenceSchedule(t)

	assert.Equal(t, TermEarly, ClassifyTerm(s, 359))
	assert.Equal(t, TermWithinTerm, ClassifyTerm(s, 360))
	assert.Equal(t, TermWithinTerm, ClassifyTerm(s, 1080))
	assert.Equal(t, TermOverdue, ClassifyTerm(s, 1081))
}

func TestStatementAt_AfterFirstYear(t *testing.T) {
	s := referenceSchedule(t)
	req := AdvancementRequest{Principal: dec("10000"), Schedule: s}
	drawdown := time.Date(2023, 3, 1, 9, 30, 0, 0, time.UTC)
	on := drawdown.AddDate(0, 0, 500)

	st, err := StatementAt(req, drawdown, on)
	require.NoError(t, err)

	assert.Equal(t, 500, st.ElapsedDays)
	assert.False(t, st.WithinFirstYear)
	assert.Equal(t, TermWithinTerm, st.TermStatus)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), st.DrawdownDate)

	require.Len(t, st.Entries, 3)

	initial := st.Entries[0]
	assert.Equal(t, EntryInitialCharge, initial.Kind)
	assert.Equal(t, 1, initial.FromDay)
	assertDecimal(t, "1500", initial.Amount, "initial amount")
	assertDecimal(t, "11500", initial.RunningBalance, "balance after initial charge")

	daily := st.Entries[1]
	assert.Equal(t, EntryDailyCharge, daily.Kind)
	assert.Equal(t, 366, daily.FromDay)
	assert.Equal(t, 500, daily.ToDay)
	assert.Equal(t, drawdown.AddDate(0, 0, 365).Truncate(24*time.Hour), daily.Date)
	assertDecimal(t, "1350", daily.Amount, "daily accrual")
	assertDecimal(t, "12850", daily.RunningBalance, "balance after accrual")

	exit := st.Entries[2]
	assert.Equal(t, EntryExitCharge, exit.Kind)
	assertDecimal(t, "642.5", exit.Amount, "exit fee")
	assertDecimal(t, "13492.50", exit.RunningBalance, "final balance")
	assert.True(t, st.Breakdown.TotalPayable.Equal(exit.RunningBalance))
}

func TestStatementAt_WithinFirstYearIsEarly(t *testing.T) {
	s := referenceSchedule(t)
	req := AdvancementRequest{Principal: dec("10000"), Schedule: s}
	drawdown := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	st, err := StatementAt(req, drawdown, drawdown.AddDate(0, 0, 100))
	require.NoError(t, err)

	assert.True(t, st.WithinFirstYear)
	assert.Equal(t, TermEarly, st.TermStatus)
	require.Len(t, st.Entries, 2)
	assert.Equal(t, EntryExitCharge, st.Entries[1].Kind)
	assertDecimal(t, "12075", st.Breakdown.TotalPayable, "total payable")
}

func TestStatementAt_OverdueStillAccrues(t *testing.T) {
	s := referenceSchedule(t)
	req := AdvancementRequest{Principal: dec("10000"), Schedule: s}
	drawdown := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	st, err := StatementAt(req, drawdown, drawdown.AddDate(0, 0, 1100))
	require.NoError(t, err)

	assert.Equal(t, TermOverdue, st.TermStatus)
	assertDecimal(t, "7350", st.Breakdown.DailyCharge, "daily charge past maximum term")
}

func TestStatementAt_BeforeDrawdown(t *testing.T) {
	s := referenceSchedule(t)
	req := AdvancementRequest{Principal: dec("10000"), Schedule: s}
	drawdown := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := StatementAt(req, drawdown, drawdown.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrDomain)
}
