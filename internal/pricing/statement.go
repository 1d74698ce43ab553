package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// TermStatus classifies a settlement against the permitted term window.
type TermStatus string

const (
	TermEarly      TermStatus = "early"
	TermWithinTerm TermStatus = "within_term"
	TermOverdue    TermStatus = "overdue"
)

// EntryKind identifies a statement line.
type EntryKind string

const (
	EntryInitialCharge EntryKind = "initial_charge"
	EntryDailyCharge   EntryKind = "daily_charge"
	EntryExitCharge    EntryKind = "exit_charge"
)

// StatementEntry is one line of a settlement statement. Days are 1-based
// counts from drawdown; FromDay equals ToDay except for the daily accrual line.
type StatementEntry struct {
	Kind           EntryKind       `json:"kind"`
	FromDay        int             `json:"from_day"`
	ToDay          int             `json:"to_day"`
	Date           time.Time       `json:"date"`
	Rate           decimal.Decimal `json:"rate"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Statement explains what is owed on a given date for an advancement drawn down earlier.
type Statement struct {
	DrawdownDate    time.Time        `json:"drawdown_date"`
	OnDate          time.Time        `json:"on_date"`
	ElapsedDays     int              `json:"elapsed_days"`
	WithinFirstYear bool             `json:"within_first_year"`
	TermStatus      TermStatus       `json:"term_status"`
	Breakdown       CostBreakdown    `json:"breakdown"`
	Entries         []StatementEntry `json:"entries"`
}

// ElapsedDays returns the whole calendar days from drawdown to on, comparing
// UTC dates only. It is negative when on precedes drawdown.
func ElapsedDays(drawdown, on time.Time) int {
	return int(dateOf(on).Sub(dateOf(drawdown)) / (24 * time.Hour))
}

// ClassifyTerm reports where a settlement after elapsedDays falls relative to
// the schedule's term window. It never alters the amount owed.
func ClassifyTerm(schedule FeeSchedule, elapsedDays int) TermStatus {
	switch {
	case elapsedDays < schedule.MinimumTermDays():
		return TermEarly
	case elapsedDays > schedule.MaximumTermDays():
		return TermOverdue
	default:
		return TermWithinTerm
	}
}

// StatementAt builds the settlement statement for req on the given date.
// A date before drawdown is a *DomainError.
func StatementAt(req AdvancementRequest, drawdown, on time.Time) (Statement, error) {
	elapsed := ElapsedDays(drawdown, on)
	b, err := EvaluateAt(req, elapsed)
	if err != nil {
		return Statement{}, err
	}

	start := dateOf(drawdown)
	s := req.Schedule

	running := b.Principal.Add(b.InitialCharge)
	entries := []StatementEntry{{
		Kind:           EntryInitialCharge,
		FromDay:        1,
		ToDay:          1,
		Date:           start,
		Rate:           s.InitialFee(),
		Amount:         b.InitialCharge,
		RunningBalance: running,
	}}

	if b.AccruingDays > 0 {
		running = running.Add(b.DailyCharge)
		entries = append(entries, StatementEntry{
			Kind:           EntryDailyCharge,
			FromDay:        FirstYearDays + 1,
			ToDay:          elapsed,
			Date:           start.AddDate(0, 0, FirstYearDays),
			Rate:           s.DailyFee(),
			Amount:         b.DailyCharge,
			RunningBalance: running,
		})
	}

	entries = append(entries, StatementEntry{
		Kind:           EntryExitCharge,
		FromDay:        elapsed + 1,
		ToDay:          elapsed + 1,
		Date:           dateOf(on),
		Rate:           s.ExitFee(),
		Amount:         b.ExitCharge,
		RunningBalance: b.TotalPayable,
	})

	return Statement{
		DrawdownDate:    start,
		OnDate:          dateOf(on),
		ElapsedDays:     elapsed,
		WithinFirstYear: elapsed <= FirstYearDays,
		TermStatus:      ClassifyTerm(s, elapsed),
		Breakdown:       b,
		Entries:         entries,
	}, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
