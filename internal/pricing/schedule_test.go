package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeeSchedule_Validation(t *testing.T) {
	valid := FeeScheduleParams{
		InitialFee:        dec("0.15"),
		DailyFee:          dec("0.0007"),
		ExitFee:           dec("0.015"),
		MinimumTermMonths: 12,
		MaximumTermMonths: 36,
	}

	tests := []struct {
		name   string
		mutate func(p *FeeScheduleParams)
		field  string
	}{
		{"inverted term bounds", func(p *FeeScheduleParams) { p.MinimumTermMonths, p.MaximumTermMonths = 40, 36 }, "minimum_term_months"},
		{"negative initial fee", func(p *FeeScheduleParams) { p.InitialFee = dec("-0.01") }, "initial_fee_percentage"},
		{"negative daily fee", func(p *FeeScheduleParams) { p.DailyFee = dec("-0.0001") }, "daily_fee_percentage"},
		{"negative exit fee", func(p *FeeScheduleParams) { p.ExitFee = dec("-1") }, "exit_fee_percentage"},
		{"zero minimum term", func(p *FeeScheduleParams) { p.MinimumTermMonths = 0 }, "minimum_term_months"},
		{"negative maximum term", func(p *FeeScheduleParams) { p.MaximumTermMonths = -3 }, "maximum_term_months"},
		{"representative outside window", func(p *FeeScheduleParams) { p.RepresentativeTermMonths = 48 }, "representative_term_months"},
		{"lower-case currency", func(p *FeeScheduleParams) { p.Currency = "eur" }, "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			_, err := NewFeeSchedule(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestNewFeeSchedule_Defaults(t *testing.T) {
	s, err := NewFeeSchedule(FeeScheduleParams{MinimumTermMonths: 12, MaximumTermMonths: 36})
	require.NoError(t, err)

	assert.Equal(t, "EUR", s.Currency())
	assert.Equal(t, 36, s.RepresentativeTermMonths())
	assert.Equal(t, 360, s.MinimumTermDays())
	assert.Equal(t, 1080, s.MaximumTermDays())
	assert.Equal(t, 1080, s.RepresentativeTermDays())
	assert.True(t, s.InitialFee().IsZero())
}

func TestNewFeeSchedule_EqualBoundsAllowed(t *testing.T) {
	s, err := NewFeeSchedule(FeeScheduleParams{MinimumTermMonths: 24, MaximumTermMonths: 24, Currency: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, 24, s.RepresentativeTermMonths())
	assert.Equal(t, "GBP", s.Currency())
}

func TestNewFeeScheduleFromPercent_ConvertsExactly(t *testing.T) {
	s, err := NewFeeScheduleFromPercent(dec("15.00"), dec("0.07"), dec("1.50"), 12, 36, 24, "EUR")
	require.NoError(t, err)

	assertDecimal(t, "0.15", s.InitialFee(), "initial fee")
	assertDecimal(t, "0.0007", s.DailyFee(), "daily fee")
	assertDecimal(t, "0.015", s.ExitFee(), "exit fee")
	assert.Equal(t, 24, s.RepresentativeTermMonths())

	_, err = NewFeeScheduleFromPercent(dec("15"), dec("0.07"), dec("1.5"), 40, 36, 0, "EUR")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFeeSchedule_ParamsRoundTrip(t *testing.T) {
	s := referenceSchedule(t)

	rebuilt, err := NewFeeSchedule(s.Params())
	require.NoError(t, err)
	assert.True(t, s.Equal(rebuilt))

	other, err := NewFeeSchedule(FeeScheduleParams{
		InitialFee:        dec("0.15"),
		DailyFee:          dec("0.001"),
		ExitFee:           dec("0.06"),
		MinimumTermMonths: 12,
		MaximumTermMonths: 36,
	})
	require.NoError(t, err)
	assert.False(t, s.Equal(other))
}
