package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AdvancementRequest is one inquiry against a fee schedule. A nil Settlement
// means only the regulated bounds are wanted.
type AdvancementRequest struct {
	Principal  decimal.Decimal
	Schedule   FeeSchedule
	Settlement *int
}

// SettlingAfter returns a copy of r settling after the given number of elapsed days.
func (r AdvancementRequest) SettlingAfter(days int) AdvancementRequest {
	r.Settlement = &days
	return r
}

// CostBreakdown contains the charges owed when an advancement settles after ElapsedDays.
// Only TotalPayable (and TotalCost derived from it) is rounded; the charges are exact.
type CostBreakdown struct {
	Principal     decimal.Decimal `json:"principal"`
	ElapsedDays   int             `json:"elapsed_days"`
	AccruingDays  int             `json:"accruing_days"`
	InitialCharge decimal.Decimal `json:"initial_charge"`
	DailyCharge   decimal.Decimal `json:"daily_charge"`
	ExitCharge    decimal.Decimal `json:"exit_charge"`
	TotalPayable  decimal.Decimal `json:"total_payable"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// Balance is the outstanding balance before the exit fee.
func (b CostBreakdown) Balance() decimal.Decimal {
	return b.Principal.Add(b.InitialCharge).Add(b.DailyCharge)
}

// Projection groups the bounds of a request and, when it carries a settlement,
// the breakdown at that settlement.
type Projection struct {
	Settlement *CostBreakdown `json:"settlement,omitempty"`
	Minimum    CostBreakdown  `json:"minimum"`
	Maximum    CostBreakdown  `json:"maximum"`
}

// EvaluateAt computes the amount owed when req settles after elapsedDays.
//
// The term window is not applied here: charges accrue as a function of
// elapsed time and settling outside the window is a contractual event for
// the caller to handle.
func EvaluateAt(req AdvancementRequest, elapsedDays int) (CostBreakdown, error) {
	if err := checkPrincipal(req.Principal); err != nil {
		return CostBreakdown{}, err
	}
	if elapsedDays < 0 {
		return CostBreakdown{}, &DomainError{Field: "elapsed_days", Reason: "must not be negative"}
	}

	s := req.Schedule
	principal := req.Principal

	accruing := elapsedDays - FirstYearDays
	if accruing < 0 {
		accruing = 0
	}

	initialCharge := principal.Mul(s.initialFee)
	dailyCharge := principal.Mul(s.dailyFee).Mul(decimal.NewFromInt(int64(accruing)))
	balance := principal.Add(initialCharge).Add(dailyCharge)
	exitCharge := balance.Mul(s.exitFee)

	totalPayable := balance.Add(exitCharge).Round(MinorUnitPlaces)

	return CostBreakdown{
		Principal:     principal,
		ElapsedDays:   elapsedDays,
		AccruingDays:  accruing,
		InitialCharge: initialCharge,
		DailyCharge:   dailyCharge,
		ExitCharge:    exitCharge,
		TotalPayable:  totalPayable,
		TotalCost:     totalPayable.Sub(principal),
	}, nil
}

// MinimumBound is the cheapest permitted outcome: settlement at the minimum term.
func MinimumBound(schedule FeeSchedule, principal decimal.Decimal) (CostBreakdown, error) {
	return EvaluateAt(AdvancementRequest{Principal: principal, Schedule: schedule}, schedule.MinimumTermDays())
}

// MaximumBound is the most expensive permitted outcome: settlement at the maximum term.
func MaximumBound(schedule FeeSchedule, principal decimal.Decimal) (CostBreakdown, error) {
	return EvaluateAt(AdvancementRequest{Principal: principal, Schedule: schedule}, schedule.MaximumTermDays())
}

// Project evaluates both bounds of req and, if req has a settlement, the
// breakdown at that settlement.
func Project(req AdvancementRequest) (Projection, error) {
	minimum, err := MinimumBound(req.Schedule, req.Principal)
	if err != nil {
		return Projection{}, err
	}
	maximum, err := MaximumBound(req.Schedule, req.Principal)
	if err != nil {
		return Projection{}, err
	}

	projection := Projection{Minimum: minimum, Maximum: maximum}
	if req.Settlement != nil {
		at, err := EvaluateAt(req, *req.Settlement)
		if err != nil {
			return Projection{}, err
		}
		projection.Settlement = &at
	}
	return projection, nil
}

// RepresentativeAPR returns the annual rate r, as a percentage rounded to two
// places, solving principal * (1+r)^(termDays/365) = total payable for a
// single bullet repayment after termDays.
func RepresentativeAPR(schedule FeeSchedule, principal decimal.Decimal, termDays int) (decimal.Decimal, error) {
	if termDays <= 0 {
		return decimal.Zero, &DomainError{Field: "term_days", Reason: "must be positive"}
	}

	b, err := EvaluateAt(AdvancementRequest{Principal: principal, Schedule: schedule}, termDays)
	if err != nil {
		return decimal.Zero, err
	}

	// The fractional power has no exact decimal form; money stays decimal up
	// to this ratio and the result is rounded well above float64 precision.
	ratio := b.TotalPayable.Div(principal).InexactFloat64()
	rate := math.Pow(ratio, float64(FirstYearDays)/float64(termDays)) - 1
	if math.IsInf(rate, 0) || math.IsNaN(rate) {
		return decimal.Zero, &DomainError{Field: "term_days", Reason: "too short to annualize the total payable"}
	}

	return decimal.NewFromFloat(rate).Mul(hundred).Round(2), nil
}

// CostPerUnit returns the total cost at the representative term per unit of
// principal (cost per 100 when unit is 100), rounded to two places.
func CostPerUnit(schedule FeeSchedule, principal, unit decimal.Decimal) (decimal.Decimal, error) {
	if !unit.IsPositive() {
		return decimal.Zero, &DomainError{Field: "unit", Reason: "must be positive"}
	}

	b, err := EvaluateAt(AdvancementRequest{Principal: principal, Schedule: schedule}, schedule.RepresentativeTermDays())
	if err != nil {
		return decimal.Zero, err
	}

	return b.TotalCost.Mul(unit).DivRound(principal, 2), nil
}

// CostPer100 is CostPerUnit with the conventional unit of 100.
func CostPer100(schedule FeeSchedule, principal decimal.Decimal) (decimal.Decimal, error) {
	return CostPerUnit(schedule, principal, hundred)
}

func checkPrincipal(principal decimal.Decimal) error {
	if !principal.IsPositive() {
		return &DomainError{Field: "principal", Reason: "must be positive"}
	}
	return nil
}
