package forecaster

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/us"
)

var ErrUnknownHolidayCountry = errors.New("unknown holiday country")

// HolidayCalendar returns the public holiday calendar for a country code. An empty code returns a
// nil calendar which disables annotation.
func HolidayCalendar(country string) (*cal.Calendar, error) {
	c := &cal.Calendar{Cacheable: true}
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "":
		return nil, nil
	case "br":
		c.Name = "br"
		c.AddHoliday(br.Holidays...)
	case "us":
		c.Name = "us"
		c.AddHoliday(us.Holidays...)
	default:
		return nil, fmt.Errorf("%q, %w", country, ErrUnknownHolidayCountry)
	}
	return c, nil
}

// holidayNames returns the holiday name for each date or nil when c is nil.
func holidayNames(c *cal.Calendar, t []time.Time) []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(t))
	for i, d := range t {
		actual, observed, h := c.IsHoliday(d)
		if (actual || observed) && h != nil {
			names[i] = h.Name
		}
	}
	return names
}
