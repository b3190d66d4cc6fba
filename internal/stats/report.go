package stats

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/myrjola/gymstats/internal/muscle"
)

// Report summarises the workouts completed in one calendar month.
type Report struct {
	Year       int
	Month      time.Month
	Summary    Summary
	ActiveDays int
	Counts     Counts
	Totals     map[muscle.Group]Totals
}

// MonthlyReport aggregates the records completed in the given month of loc. Records without a completion time are
// not part of any month.
func (a *Aggregator) MonthlyReport(records []WorkoutRecord, year int, month time.Month, loc *time.Location) Report {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)

	var inMonth []WorkoutRecord
	days := make(map[int]struct{})
	for _, r := range records {
		if r.CompletedAt.IsZero() || r.CompletedAt.Before(from) || !r.CompletedAt.Before(to) {
			continue
		}
		inMonth = append(inMonth, r)
		days[r.CompletedAt.In(loc).Day()] = struct{}{}
	}

	return Report{
		Year:       from.Year(),
		Month:      from.Month(),
		Summary:    a.Summarize(inMonth, AllTime),
		ActiveDays: len(days),
		Counts:     a.Aggregate(inMonth, AllTime),
		Totals:     a.GroupTotals(inMonth, AllTime),
	}
}

// Markdown renders the report as a Markdown document. Numbers are formatted for lang.
func (r Report) Markdown(lang language.Tag) string {
	p := message.NewPrinter(lang)
	var b strings.Builder

	// The year is printed without the printer to avoid digit grouping.
	fmt.Fprintf(&b, "# %s %d\n\n", r.Month.String(), r.Year)
	if r.Summary.Workouts == 0 {
		b.WriteString("No workouts completed this month.\n")
		return b.String()
	}

	b.WriteString("| Metric | Value |\n|---|---:|\n")
	p.Fprintf(&b, "| Workouts | %d |\n", r.Summary.Workouts)
	p.Fprintf(&b, "| Active days | %d |\n", r.ActiveDays)
	p.Fprintf(&b, "| Series | %d |\n", r.Summary.Series)
	p.Fprintf(&b, "| Reps | %d |\n", r.Summary.Reps)
	p.Fprintf(&b, "| Volume | %.1f kg |\n", r.Summary.Volume)
	p.Fprintf(&b, "| Time | %s |\n", r.Summary.Elapsed.Round(time.Minute).String())

	b.WriteString("\n## Series per muscle group\n\n")
	b.WriteString("| Muscle group | Series | Reps | Volume |\n|---|---:|---:|---:|\n")
	for _, gc := range r.Counts.Ranked() {
		if gc.Count == 0 {
			break
		}
		t := r.Totals[gc.Group]
		p.Fprintf(&b, "| %s | %d | %d | %.1f kg |\n", gc.Group, gc.Count, t.Reps, t.Volume)
	}

	if top := r.Counts.Top(3); len(top) > 0 {
		b.WriteString("\n## Most trained\n\n")
		for i, gc := range top {
			p.Fprintf(&b, "%d. %s\n", i+1, gc.Group)
		}
	}
	return b.String()
}
