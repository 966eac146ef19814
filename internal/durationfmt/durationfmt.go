// Package durationfmt renders logged seconds for people.
package durationfmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	sixty = decimal.NewFromInt(60)
	ten   = decimal.NewFromInt(10)
	hour  = decimal.NewFromInt(3600)
)

// Formatter knows how long a working day and week are.
type Formatter struct {
	hoursPerDay decimal.Decimal
	daysPerWeek decimal.Decimal
}

// New returns a Formatter for the given working day and week lengths.
func New(hoursPerDay, daysPerWeek decimal.Decimal) Formatter {
	return Formatter{hoursPerDay: hoursPerDay, daysPerWeek: daysPerWeek}
}

type fragment struct {
	value  int64
	suffix string
}

// fragments splits seconds into working weeks, days, hours and minutes.
func (f Formatter) fragments(seconds int64) [4]fragment {
	minutes := decimal.NewFromInt(seconds / 60)
	dayMin := f.hoursPerDay.Mul(sixty)
	weekMin := dayMin.Mul(f.daysPerWeek)

	var weeks, days int64
	if weekMin.IsPositive() {
		weeks = minutes.Div(weekMin).IntPart()
		minutes = minutes.Mod(weekMin)
	}
	if dayMin.IsPositive() {
		days = minutes.Div(dayMin).IntPart()
		minutes = minutes.Mod(dayMin)
	}
	rest := minutes.IntPart()

	return [4]fragment{
		{weeks, "w"},
		{days, "d"},
		{rest / 60, "h"},
		{rest % 60, "m"},
	}
}

// ExactDuration renders every non-zero fragment, e.g. "1w 2d 3h 30m".
// Zero renders as "0m".
func (f Formatter) ExactDuration(seconds int64) string {
	if seconds < 0 {
		return "-" + f.ExactDuration(-seconds)
	}
	var parts []string
	for _, fr := range f.fragments(seconds) {
		if fr.value > 0 {
			parts = append(parts, strconv.FormatInt(fr.value, 10)+fr.suffix)
		}
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// RoundedDuration keeps the two leading fragments and prefixes "~" when
// anything smaller was dropped, e.g. "~1w 2d".
func (f Formatter) RoundedDuration(seconds int64) string {
	if seconds < 0 {
		return "-" + f.RoundedDuration(-seconds)
	}
	frs := f.fragments(seconds)
	first := -1
	for i, fr := range frs {
		if fr.value != 0 {
			first = i
			break
		}
	}
	if first == -1 {
		return "0m"
	}

	var parts []string
	tilde := false
	for i := first; i < len(frs); i++ {
		if frs[i].value <= 0 {
			continue
		}
		if i <= first+1 {
			parts = append(parts, strconv.FormatInt(frs[i].value, 10)+frs[i].suffix)
		} else {
			tilde = true
		}
	}
	out := strings.Join(parts, " ")
	if tilde {
		out = "~" + out
	}
	return out
}

// IndustryDuration renders hours floored to one decimal, e.g. "7.5h".
func (f Formatter) IndustryDuration(seconds int64) string {
	return IndustryHours(decimal.NewFromInt(seconds).Div(hour))
}

// HoursPerDayIndustry renders the configured working day, e.g. "8h".
func (f Formatter) HoursPerDayIndustry() string {
	return IndustryHours(f.hoursPerDay)
}

// IndustryHours floors h to one decimal and appends "h".
func IndustryHours(h decimal.Decimal) string {
	return h.Mul(ten).Floor().Div(ten).String() + "h"
}

// MissingHours renders a shortfall in hours rounded half-even to one
// decimal, without a unit: 1000 seconds is "0.3", 3600 is "1".
func MissingHours(seconds int64) string {
	return OneDecimal(decimal.NewFromInt(seconds).Div(hour))
}

// OneDecimal rounds d half-even to one decimal and drops a trailing ".0".
func OneDecimal(d decimal.Decimal) string {
	return d.RoundBank(1).String()
}

var fragmentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([wdhm])`)

// Parse reads a duration such as "1w 2d", "1h30m" or "1.5h" into seconds.
// Weeks and days use the working week and day lengths.
func (f Formatter) Parse(s string) (int64, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("empty duration")
	}
	matches := fragmentRe.FindAllStringSubmatchIndex(in, -1)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	total := decimal.Zero
	pos := 0
	for _, m := range matches {
		if strings.TrimSpace(in[pos:m[0]]) != "" {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		value := decimal.RequireFromString(in[m[2]:m[3]])
		var unit decimal.Decimal
		switch in[m[4]:m[5]] {
		case "w":
			unit = f.hoursPerDay.Mul(f.daysPerWeek).Mul(hour)
		case "d":
			unit = f.hoursPerDay.Mul(hour)
		case "h":
			unit = hour
		case "m":
			unit = sixty
		}
		total = total.Add(value.Mul(unit))
		pos = m[1]
	}
	if strings.TrimSpace(in[pos:]) != "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if !total.IsPositive() {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return total.IntPart(), nil
}
