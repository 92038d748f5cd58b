package core

import (
	"sort"
	"time"
)

type (
	// Point is one time-series entry: a record annotated with its calendar
	// year and the running total up to and including it.
	Point struct {
		Month       MonthKey
		Year        int
		MonthOfYear time.Month
		Amount      int64
		Cumulative  int64
	}

	// TimeSeries is the ordered, cumulative view over all stored records.
	TimeSeries []Point

	// YearlySummary aggregates one calendar year.
	YearlySummary struct {
		Year     int
		Total    int64
		MonthAvg int64 // mean over months with data, half-up rounded
		MaxMonth int64
	}

	// Progress measures a total against the savings target.
	Progress struct {
		Ratio     float64 // clamped to [0, 1]
		Remaining int64   // target - total; negative means over target
	}
)

// BuildTimeSeries sorts records ascending by month and computes the running
// cumulative total. Records with an unparsable month key are dropped rather
// than failing the whole view; callers that care should log them via
// SalaryRecord.Validate before storing. The cumulative never resets at year
// boundaries.
func BuildTimeSeries(records []SalaryRecord) TimeSeries {
	ts := make(TimeSeries, 0, len(records))
	for _, r := range records {
		year, month, err := ParseMonthKey(r.Month)
		if err != nil {
			continue
		}
		ts = append(ts, Point{
			Month:       r.Month,
			Year:        year,
			MonthOfYear: month,
			Amount:      r.Amount,
		})
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Month < ts[j].Month })
	var running int64
	for i := range ts {
		running += ts[i].Amount
		ts[i].Cumulative = running
	}
	return ts
}

// Total returns the grand total, i.e. the final cumulative value.
func (ts TimeSeries) Total() int64 {
	if len(ts) == 0 {
		return 0
	}
	return ts[len(ts)-1].Cumulative
}

// Years lists the distinct years present, most recent first.
func (ts TimeSeries) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, p := range ts {
		if !seen[p.Year] {
			seen[p.Year] = true
			years = append(years, p.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// YearTotal sums the amounts recorded in a single year. It is the input for
// year-scoped progress, computed independently of the all-time cumulative.
func (ts TimeSeries) YearTotal(year int) int64 {
	var total int64
	for _, p := range ts {
		if p.Year == year {
			total += p.Amount
		}
	}
	return total
}

// YearlySummaries groups the series by year, most recent year first. The
// month average divides by the number of months actually recorded that year,
// never by twelve.
func (ts TimeSeries) YearlySummaries() []YearlySummary {
	byYear := make(map[int]*YearlySummary)
	counts := make(map[int]int64)
	for _, p := range ts {
		s, ok := byYear[p.Year]
		if !ok {
			s = &YearlySummary{Year: p.Year}
			byYear[p.Year] = s
		}
		s.Total += p.Amount
		if p.Amount > s.MaxMonth {
			s.MaxMonth = p.Amount
		}
		counts[p.Year]++
	}
	out := make([]YearlySummary, 0, len(byYear))
	for year, s := range byYear {
		n := counts[year]
		s.MonthAvg = (s.Total + n/2) / n // half-up
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

// MonthlySkeleton produces twelve slots for a year, one per calendar month.
// A nil slot means no record exists for that month, which presentation must
// render as blank: "no data yet" is not the same as a zero salary.
func (ts TimeSeries) MonthlySkeleton(year int) [12]*int64 {
	var slots [12]*int64
	for _, p := range ts {
		if p.Year == year {
			amount := p.Amount
			slots[int(p.MonthOfYear)-1] = &amount
		}
	}
	return slots
}

// ComputeProgress measures a total against a target. With a non-positive
// target the ratio is zero. The remaining value keeps its sign so callers can
// label over-target distinctly instead of showing a negative remainder.
func ComputeProgress(total, target int64) Progress {
	p := Progress{Remaining: target - total}
	if target > 0 {
		ratio := float64(total) / float64(target)
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		p.Ratio = ratio
	}
	return p
}
