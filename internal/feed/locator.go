package feed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"TickPull/internal/domain/models"
	"TickPull/pkg/util"
)

// The datafeed serves one LZMA-compressed file per instrument per hour:
//
//	{base}/{SYMBOL}/{year}/{month}/{day}/{hour}h_ticks.bi5
//
// Month is zero-based on the wire (January = "00"); day and hour are
// zero-padded to two digits. This is provider wire format, not a choice.

// BuildDayRefs returns the 24 hourly refs of one UTC calendar day.
func BuildDayRefs(symbol string, day time.Time) []models.HourRef {
	day = day.UTC()
	symbol = strings.ToUpper(symbol)
	refs := make([]models.HourRef, 0, 24)
	for h := 0; h < 24; h++ {
		refs = append(refs, models.HourRef{
			Symbol: symbol,
			Year:   day.Year(),
			Month:  int(day.Month()),
			Day:    day.Day(),
			Hour:   h,
		})
	}
	return refs
}

// BuildRange returns hourly refs for every UTC day in [start, end), hours and
// days ascending. An empty or inverted range yields an empty slice.
func BuildRange(symbol string, start, end time.Time) []models.HourRef {
	start = util.DayStart(start)
	end = util.DayStart(end)

	var refs []models.HourRef
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		refs = append(refs, BuildDayRefs(symbol, day)...)
	}
	return refs
}

// URL renders the fetchable resource locator for a ref.
func URL(base string, ref models.HourRef) string {
	return fmt.Sprintf("%s/%s/%d/%02d/%02d/%02dh_ticks.bi5",
		base, ref.Symbol, ref.Year, ref.Month-1, ref.Day, ref.Hour)
}

var resourceKeyRe = regexp.MustCompile(`([A-Z]+)/(\d{4})/(\d{2})/(\d{2})/(\d{2})h_ticks\.bi5`)

// ParseResourceKey recovers the ref from a resource URL. This is the binding
// round-trip with URL: the decoder derives its hour anchor from the key, not
// from whatever fetched the payload.
func ParseResourceKey(rawURL string) (models.HourRef, error) {
	m := resourceKeyRe.FindStringSubmatch(rawURL)
	if m == nil {
		return models.HourRef{}, fmt.Errorf("unrecognized resource key: %s", rawURL)
	}
	year, _ := strconv.Atoi(m[2])
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[4])
	hour, _ := strconv.Atoi(m[5])
	return models.HourRef{
		Symbol: m[1],
		Year:   year,
		Month:  month + 1,
		Day:    day,
		Hour:   hour,
	}, nil
}
