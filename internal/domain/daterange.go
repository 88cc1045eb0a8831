package domain

import "time"

// DateLayout is the wire format of the upstream startDate/endDate filters.
const DateLayout = "2006-01-02"

// RangeOption is one of the dashboard's date-range chips.
type RangeOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`

	start func(end time.Time) time.Time
}

// DateRange is a closed interval of calendar days, both ends at local midnight.
type DateRange struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartDate returns Start formatted for the upstream API.
func (r DateRange) StartDate() string { return FormatDate(r.Start) }

// EndDate returns End formatted for the upstream API.
func (r DateRange) EndDate() string { return FormatDate(r.End) }

var rangeOptions = []RangeOption{
	// Seven days including today.
	{Key: "7d", Label: "Past Week", start: func(end time.Time) time.Time { return end.AddDate(0, 0, -6) }},
	{Key: "1m", Label: "Past Month", start: func(end time.Time) time.Time { return end.AddDate(0, -1, 0) }},
	{Key: "6m", Label: "Past 6 Months", start: func(end time.Time) time.Time { return end.AddDate(0, -6, 0) }},
	{Key: "1y", Label: "Past Year", start: func(end time.Time) time.Time { return end.AddDate(-1, 0, 0) }},
}

// RangeOptions returns the date-range chips in display order.
func RangeOptions() []RangeOption {
	return append([]RangeOption(nil), rangeOptions...)
}

// IsRangeKey reports whether key names a known range option.
func IsRangeKey(key string) bool {
	_, ok := findRange(key)
	return ok
}

// ResolveDateRange turns a range key into concrete dates ending today.
// Unknown keys fall back to fallbackKey and then to the first option.
// Month arithmetic overflows like a calendar would: one month before
// March 31 is March 3 (or 2 in leap years).
func ResolveDateRange(key, fallbackKey string) DateRange {
	opt, ok := findRange(key)
	if !ok {
		opt, ok = findRange(fallbackKey)
	}
	if !ok {
		opt = rangeOptions[0]
	}

	end := midnight(clock.Now())
	return DateRange{
		Key:   opt.Key,
		Start: midnight(opt.start(end)),
		End:   end,
	}
}

// FormatDate renders t as YYYY-MM-DD in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func findRange(key string) (RangeOption, bool) {
	for _, opt := range rangeOptions {
		if opt.Key == key {
			return opt, true
		}
	}
	return RangeOption{}, false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
