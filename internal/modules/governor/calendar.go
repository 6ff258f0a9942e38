package governor

import (
	"fmt"
	"time"

	"github.com/aristath/helmsman/internal/domain"
)

// DateLayout is the ISO date format used across the engine.
const DateLayout = "2006-01-02"

// BusinessDays returns every Monday-Friday date between start and end
// inclusive, in ascending order. The engine has no exchange-holiday
// awareness: holidays simply show up as days without strategy data.
func BusinessDays(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "start_date", Reason: fmt.Sprintf("cannot parse %q: %v", start, err)}
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "end_date", Reason: fmt.Sprintf("cannot parse %q: %v", end, err)}
	}
	if to.Before(from) {
		return nil, &domain.ConfigurationError{Field: "end_date", Reason: fmt.Sprintf("end date %s precedes start date %s", end, start)}
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			days = append(days, d.Format(DateLayout))
		}
	}
	return days, nil
}
