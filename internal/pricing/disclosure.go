package pricing

import "github.com/shopspring/decimal"

// Disclosure holds the pre-contract figures a SECCI or agreement document
// prints. Monetary amounts are rounded half-up to the minor unit; Apr and
// CostPer100 are percentages rounded to two places.
type Disclosure struct {
	Currency  string          `json:"currency"`
	Principal decimal.Decimal `json:"principal"`

	MinimumTermMonths        int `json:"minimum_term_months"`
	MaximumTermMonths        int `json:"maximum_term_months"`
	RepresentativeTermMonths int `json:"representative_term_months"`
	MinimumTermDays          int `json:"minimum_term_days"`
	MaximumTermDays          int `json:"maximum_term_days"`

	FirstYearCharge      decimal.Decimal `json:"first_year_charge"`
	DailyCharge          decimal.Decimal `json:"daily_charge"`
	MaximumDailyInterest decimal.Decimal `json:"maximum_daily_interest"`
	MinimumExitFee       decimal.Decimal `json:"minimum_exit_fee"`
	MaximumExitFee       decimal.Decimal `json:"maximum_exit_fee"`

	MinimumPayable        decimal.Decimal `json:"minimum_payable"`
	MaximumPayable        decimal.Decimal `json:"maximum_payable"`
	RepresentativePayable decimal.Decimal `json:"representative_payable"`
	RepresentativeCost    decimal.Decimal `json:"representative_cost"`

	Apr        decimal.Decimal `json:"apr"`
	CostPer100 decimal.Decimal `json:"cost_per_100"`
}

// Disclose computes every disclosure figure for principal under schedule.
// Document layers print these values as-is and never recompute them.
func Disclose(schedule FeeSchedule, principal decimal.Decimal) (Disclosure, error) {
	minimum, err := MinimumBound(schedule, principal)
	if err != nil {
		return Disclosure{}, err
	}
	maximum, err := MaximumBound(schedule, principal)
	if err != nil {
		return Disclosure{}, err
	}
	representative, err := EvaluateAt(AdvancementRequest{Principal: principal, Schedule: schedule}, schedule.RepresentativeTermDays())
	if err != nil {
		return Disclosure{}, err
	}
	apr, err := RepresentativeAPR(schedule, principal, schedule.RepresentativeTermDays())
	if err != nil {
		return Disclosure{}, err
	}
	costPer100, err := CostPer100(schedule, principal)
	if err != nil {
		return Disclosure{}, err
	}

	return Disclosure{
		Currency:  schedule.Currency(),
		Principal: principal,

		MinimumTermMonths:        schedule.MinimumTermMonths(),
		MaximumTermMonths:        schedule.MaximumTermMonths(),
		RepresentativeTermMonths: schedule.RepresentativeTermMonths(),
		MinimumTermDays:          schedule.MinimumTermDays(),
		MaximumTermDays:          schedule.MaximumTermDays(),

		FirstYearCharge:      minorUnits(minimum.InitialCharge),
		DailyCharge:          minorUnits(principal.Mul(schedule.DailyFee())),
		MaximumDailyInterest: minorUnits(maximum.DailyCharge),
		MinimumExitFee:       minorUnits(minimum.ExitCharge),
		MaximumExitFee:       minorUnits(maximum.ExitCharge),

		MinimumPayable:        minimum.TotalPayable,
		MaximumPayable:        maximum.TotalPayable,
		RepresentativePayable: representative.TotalPayable,
		RepresentativeCost:    representative.TotalCost,

		Apr:        apr,
		CostPer100: costPer100,
	}, nil
}

func minorUnits(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitPlaces)
}
