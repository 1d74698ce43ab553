package pricing

import (
	"regexp"

	"github.com/shopspring/decimal"
)

const (
	// DaysPerMonth converts contractual term months into elapsed days.
	DaysPerMonth = 30
	// FirstYearDays is the window covered by the flat initial fee.
	FirstYearDays = 365
	// MinorUnitPlaces is the currency minor-unit precision (cents).
	MinorUnitPlaces = 2

	defaultCurrency = "EUR"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// FeeScheduleParams is the raw product configuration a FeeSchedule is built from.
// Percentages are fractions: 0.15 means 15%.
type FeeScheduleParams struct {
	InitialFee               decimal.Decimal
	DailyFee                 decimal.Decimal
	ExitFee                  decimal.Decimal
	MinimumTermMonths        int
	MaximumTermMonths        int
	RepresentativeTermMonths int // zero means MaximumTermMonths
	Currency                 string
}

// FeeSchedule is the validated, immutable tiered cost structure of the product.
// Fields are unexported so a schedule cannot change after construction.
type FeeSchedule struct {
	initialFee               decimal.Decimal
	dailyFee                 decimal.Decimal
	exitFee                  decimal.Decimal
	minimumTermMonths        int
	maximumTermMonths        int
	representativeTermMonths int
	currency                 string
}

// NewFeeSchedule validates params and returns a FeeSchedule, or a *ValidationError.
func NewFeeSchedule(p FeeScheduleParams) (FeeSchedule, error) {
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"initial_fee_percentage", p.InitialFee},
		{"daily_fee_percentage", p.DailyFee},
		{"exit_fee_percentage", p.ExitFee},
	} {
		if f.value.IsNegative() {
			return FeeSchedule{}, &ValidationError{Field: f.name, Reason: "must not be negative"}
		}
	}

	if p.MinimumTermMonths <= 0 {
		return FeeSchedule{}, &ValidationError{Field: "minimum_term_months", Reason: "must be positive"}
	}
	if p.MaximumTermMonths <= 0 {
		return FeeSchedule{}, &ValidationError{Field: "maximum_term_months", Reason: "must be positive"}
	}
	if p.MinimumTermMonths > p.MaximumTermMonths {
		return FeeSchedule{}, &ValidationError{Field: "minimum_term_months", Reason: "must not exceed maximum_term_months"}
	}

	representative := p.RepresentativeTermMonths
	if representative == 0 {
		representative = p.MaximumTermMonths
	}
	if representative < p.MinimumTermMonths || representative > p.MaximumTermMonths {
		return FeeSchedule{}, &ValidationError{Field: "representative_term_months", Reason: "must lie within the term window"}
	}

	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	if !currencyCodeRe.MatchString(currency) {
		return FeeSchedule{}, &ValidationError{Field: "currency", Reason: "must be a 3-letter upper-case ISO 4217 code"}
	}

	return FeeSchedule{
		initialFee:               p.InitialFee,
		dailyFee:                 p.DailyFee,
		exitFee:                  p.ExitFee,
		minimumTermMonths:        p.MinimumTermMonths,
		maximumTermMonths:        p.MaximumTermMonths,
		representativeTermMonths: representative,
		currency:                 currency,
	}, nil
}

// NewFeeScheduleFromPercent builds a schedule from percentages as stored in product
// configuration (15.00 means 15%). Conversion is exact.
func NewFeeScheduleFromPercent(initialPct, dailyPct, exitPct decimal.Decimal, minMonths, maxMonths, representativeMonths int, currency string) (FeeSchedule, error) {
	return NewFeeSchedule(FeeScheduleParams{
		InitialFee:               initialPct.Shift(-2),
		DailyFee:                 dailyPct.Shift(-2),
		ExitFee:                  exitPct.Shift(-2),
		MinimumTermMonths:        minMonths,
		MaximumTermMonths:        maxMonths,
		RepresentativeTermMonths: representativeMonths,
		Currency:                 currency,
	})
}

func (s FeeSchedule) InitialFee() decimal.Decimal { return s.initialFee }
func (s FeeSchedule) DailyFee() decimal.Decimal   { return s.dailyFee }
func (s FeeSchedule) ExitFee() decimal.Decimal    { return s.exitFee }
func (s FeeSchedule) MinimumTermMonths() int      { return s.minimumTermMonths }
func (s FeeSchedule) MaximumTermMonths() int      { return s.maximumTermMonths }
func (s FeeSchedule) Currency() string            { return s.currency }

func (s FeeSchedule) RepresentativeTermMonths() int { return s.representativeTermMonths }

// MinimumTermDays is the earliest permitted settlement, in elapsed days.
func (s FeeSchedule) MinimumTermDays() int { return s.minimumTermMonths * DaysPerMonth }

// MaximumTermDays is the latest permitted settlement, in elapsed days.
func (s FeeSchedule) MaximumTermDays() int { return s.maximumTermMonths * DaysPerMonth }

// RepresentativeTermDays is the disclosure term used for APR and cost per 100.
func (s FeeSchedule) RepresentativeTermDays() int { return s.representativeTermMonths * DaysPerMonth }

// Params returns the configuration the schedule was built from, with the
// representative term and currency resolved.
func (s FeeSchedule) Params() FeeScheduleParams {
	return FeeScheduleParams{
		InitialFee:               s.initialFee,
		DailyFee:                 s.dailyFee,
		ExitFee:                  s.exitFee,
		MinimumTermMonths:        s.minimumTermMonths,
		MaximumTermMonths:        s.maximumTermMonths,
		RepresentativeTermMonths: s.representativeTermMonths,
		Currency:                 s.currency,
	}
}

// Equal reports whether two schedules carry the same values.
func (s FeeSchedule) Equal(o FeeSchedule) bool {
	return s.initialFee.Equal(o.initialFee) &&
		s.dailyFee.Equal(o.dailyFee) &&
		s.exitFee.Equal(o.exitFee) &&
		s.minimumTermMonths == o.minimumTermMonths &&
		s.maximumTermMonths == o.maximumTermMonths &&
		s.representativeTermMonths == o.representativeTermMonths &&
		s.currency == o.currency
}
