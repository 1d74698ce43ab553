package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisclose_ReferenceProduct(t *testing.T) {
	s := referenceSchedule(t)

	d, err := Disclose(s, dec("10000.00"))
	require.NoError(t, err)

	assert.Equal(t, "EUR", d.Currency)
	assert.Equal(t, 12, d.MinimumTermMonths)
	assert.Equal(t, 36, d.MaximumTermMonths)
	assert.Equal(t, 360, d.MinimumTermDays)
	assert.Equal(t, 1080, d.MaximumTermDays)

	assertDecimal(t, "1500.00", d.FirstYearCharge, "first year charge")
	assertDecimal(t, "10.00", d.DailyCharge, "daily charge")
	assertDecimal(t, "7150.00", d.MaximumDailyInterest, "maximum daily interest")
	assertDecimal(t, "575.00", d.MinimumExitFee, "minimum exit fee")
	assertDecimal(t, "932.50", d.MaximumExitFee, "maximum exit fee")
	assertDecimal(t, "12075.00", d.MinimumPayable, "minimum payable")
	assertDecimal(t, "19582.50", d.MaximumPayable, "maximum payable")
	assertDecimal(t, "19582.50", d.RepresentativePayable, "representative payable")
	assertDecimal(t, "9582.50", d.RepresentativeCost, "representative cost")
	assertDecimal(t, "95.83", d.CostPer100, "cost per 100")

	apr, err := RepresentativeAPR(s, dec("10000.00"), s.RepresentativeTermDays())
	require.NoError(t, err)
	assert.True(t, apr.Equal(d.Apr))
}

func TestDisclose_RoundsMoneyToMinorUnit(t *testing.T) {
	s, err := NewFeeScheduleFromPercent(dec("15.00"), dec("0.07"), dec("1.50"), 12, 36, 0, "EUR")
	require.NoError(t, err)

	d, err := Disclose(s, dec("12345.67"))
	require.NoError(t, err)

	for name, v := range map[string]decimal.Decimal{
		"first_year_charge":      d.FirstYearCharge,
		"daily_charge":           d.DailyCharge,
		"maximum_daily_interest": d.MaximumDailyInterest,
		"minimum_exit_fee":       d.MinimumExitFee,
		"maximum_exit_fee":       d.MaximumExitFee,
		"minimum_payable":        d.MinimumPayable,
		"maximum_payable":        d.MaximumPayable,
	} {
		assert.GreaterOrEqualf(t, v.Exponent(), int32(-2), "%s has sub-cent precision: %s", name, v)
	}
	assertDecimal(t, "1851.85", d.FirstYearCharge, "first year charge")
	assertDecimal(t, "8.64", d.DailyCharge, "daily charge")
}

func TestDisclose_RejectsNonPositivePrincipal(t *testing.T) {
	_, err := Disclose(referenceSchedule(t), decimal.Zero)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestDisclosure_JSONKeepsDecimalStrings(t *testing.T) {
	d, err := Disclose(referenceSchedule(t), dec("10000.00"))
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "19582.5", fields["maximum_payable"])
	assert.Equal(t, "932.5", fields["maximum_exit_fee"])
}
