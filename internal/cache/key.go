package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/advance/internal/pricing"
)

// DisclosureKey identifies the disclosure of schedule for principal. Numerically
// equal decimals ("100" and "100.00") map to the same key.
func DisclosureKey(schedule pricing.FeeSchedule, principal decimal.Decimal) string {
	d := xxhash.New()
	for _, part := range []string{
		schedule.Currency(),
		normalize(schedule.InitialFee()),
		normalize(schedule.DailyFee()),
		normalize(schedule.ExitFee()),
		strconv.Itoa(schedule.MinimumTermMonths()),
		strconv.Itoa(schedule.MaximumTermMonths()),
		strconv.Itoa(schedule.RepresentativeTermMonths()),
		normalize(principal),
	} {
		_, _ = d.WriteString(part)
		_, _ = d.WriteString("|")
	}
	return "disclosure:" + strconv.FormatUint(d.Sum64(), 16)
}

func normalize(v decimal.Decimal) string {
	// String trims trailing zeros of the fractional part.
	return v.String()
}
