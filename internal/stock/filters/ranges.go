// internal/stock/filters/ranges.go
package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RangeRule bounds one numeric range filter. Values at or above Warn are
// accepted with a warning.
type RangeRule struct {
	Label string
	Min   int
	Max   int
	Warn  int
}

// RangeIssue is one finding of ValidateRanges. Field is the JSON name of
// the offending bound.
type RangeIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RangeReport collects blocking errors and non-blocking warnings.
type RangeReport struct {
	Errors   []RangeIssue `json:"errors"`
	Warnings []RangeIssue `json:"warnings"`
}

// Valid reports whether the report has no blocking errors.
func (r RangeReport) Valid() bool { return len(r.Errors) == 0 }

// Fields maps every erroneous field to its message.
func (r RangeReport) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Errors))
	for _, issue := range r.Errors {
		out[issue.Field] = issue.Message
	}
	return out
}

func (r *RangeReport) fail(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, RangeIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *RangeReport) warn(field, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, RangeIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

const minYear = 1900

// RangeRules returns the numeric range limits. The year ceiling follows
// the clock.
func RangeRules(now time.Time) map[string]RangeRule {
	return map[string]RangeRule{
		"year":        {Label: "year", Min: minYear, Max: now.Year()},
		"powerHP":     {Label: "engine power (hp)", Min: 1, Max: 10000, Warn: 500},
		"powerKW":     {Label: "engine power (kW)", Min: 1, Max: 7500, Warn: 400},
		"mileage":     {Label: "mileage", Min: 0, Max: 10_000_000, Warn: 1_000_000},
		"engineHours": {Label: "engine hours", Min: 0, Max: 10_000_000, Warn: 100_000},
	}
}

// ValidateRanges checks every range filter of f against its limits and
// checks that maximums are not below minimums.
func ValidateRanges(f Filters, now time.Time) RangeReport {
	var report RangeReport
	rules := RangeRules(now)

	checkPair(&report, "year", rules["year"], f.YearMin, f.YearMax)
	checkPair(&report, "powerHP", rules["powerHP"], f.PowerHPMin, f.PowerHPMax)
	checkPair(&report, "powerKW", rules["powerKW"], f.PowerKWMin, f.PowerKWMax)
	checkPair(&report, "mileage", rules["mileage"], f.MileageMin, f.MileageMax)
	checkPair(&report, "engineHours", rules["engineHours"], f.EngineHoursMin, f.EngineHoursMax)
	checkDates(&report, f.DateOfSeizureMin, f.DateOfSeizureMax, now)

	return report
}

func checkPair(report *RangeReport, name string, rule RangeRule, min, max *int) {
	okMin := checkBound(report, name+"Min", rule, min)
	okMax := checkBound(report, name+"Max", rule, max)
	if okMin && okMax && min != nil && max != nil && *max < *min {
		report.fail(name+"Max", "%s: maximum %d is less than minimum %d", rule.Label, *max, *min)
	}
}

func checkBound(report *RangeReport, field string, rule RangeRule, v *int) bool {
	if v == nil {
		return true
	}
	if *v < rule.Min || *v > rule.Max {
		report.fail(field, "%s must be between %d and %d", rule.Label, rule.Min, rule.Max)
		return false
	}
	if rule.Warn > 0 && *v >= rule.Warn {
		report.warn(field, "%s %d is unusually high", rule.Label, *v)
	}
	return true
}

func checkDates(report *RangeReport, min, max *string, now time.Time) {
	from, okMin := checkDate(report, "dateOfSeizureMin", min, now)
	to, okMax := checkDate(report, "dateOfSeizureMax", max, now)
	if okMin && okMax && !from.IsZero() && !to.IsZero() && to.Before(from) {
		report.fail("dateOfSeizureMax", "seizure date: end %s is before start %s", *max, *min)
	}
}

func checkDate(report *RangeReport, field string, v *string, now time.Time) (time.Time, bool) {
	if v == nil || *v == "" {
		return time.Time{}, true
	}
	t, err := ParseDate(*v)
	if err != nil {
		report.fail(field, "seizure date %q is not a valid YYYY-MM-DD date", *v)
		return time.Time{}, false
	}
	if t.Year() < minYear || t.Year() > now.Year() {
		report.fail(field, "seizure date year must be between %d and %d", minYear, now.Year())
		return time.Time{}, false
	}
	return t, true
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time part.
func ParseDate(s string) (time.Time, error) {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	return time.Parse("2006-01-02", s)
}

var (
	digitsOnly = regexp.MustCompile(`^\d+$`)
	fourDigits = regexp.MustCompile(`^\d{4}$`)
)

// ParseBound parses raw user input for the named range (year, powerHP,
// powerKW, mileage, engineHours). Blank input yields nil.
func ParseBound(name, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !digitsOnly.MatchString(raw) {
		return nil, fmt.Errorf("%s: %q must contain digits only", name, raw)
	}
	if name == "year" && !fourDigits.MatchString(raw) {
		return nil, fmt.Errorf("year: %q must have four digits", raw)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &v, nil
}
