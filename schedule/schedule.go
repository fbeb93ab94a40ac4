// Package schedule generates accrual periods for coupon legs.
package schedule

import (
	"fmt"
	"time"

	"github.com/meenmo/moquant/calendar"
)

// Rule selects the generation direction.
type Rule string

const (
	// Forward rolls from the effective date; any stub is at the back.
	Forward Rule = "FORWARD"
	// Backward rolls from the termination date; any stub is at the front.
	Backward Rule = "BACKWARD"
)

// Params describes a schedule. Zero Convention means ModifiedFollowing and
// zero Rule means Backward.
type Params struct {
	Effective   time.Time
	Termination time.Time
	Tenor       calendar.Period
	Calendar    calendar.CalendarID
	Convention  calendar.BusinessDayConvention
	Rule        Rule
	EndOfMonth  bool
	PayLagDays  int
}

// Period is one accrual period. RefStart and RefEnd hold the regular period
// the accrual belongs to, which differ from Start and End only for stubs.
type Period struct {
	Start    time.Time
	End      time.Time
	Pay      time.Time
	RefStart time.Time
	RefEnd   time.Time
}

// stubTolerance is the number of days within which a rolled date next to the
// effective or termination date is dropped rather than leaving a tiny stub.
const stubTolerance = 7

// Generate builds the adjusted periods of p.
func Generate(p Params) ([]Period, error) {
	if !p.Termination.After(p.Effective) {
		return nil, fmt.Errorf("schedule.Generate: termination %s not after effective %s",
			p.Termination.Format("2006-01-02"), p.Effective.Format("2006-01-02"))
	}
	months, ok := p.Tenor.Months()
	if !ok || months <= 0 {
		return nil, fmt.Errorf("schedule.Generate: unsupported tenor %s", p.Tenor)
	}
	if p.Convention == "" {
		p.Convention = calendar.ModifiedFollowing
	}

	var unadj []time.Time
	switch p.Rule {
	case Forward:
		unadj = rollForward(p, months)
	case Backward, "":
		unadj = rollBackward(p, months)
	default:
		return nil, fmt.Errorf("schedule.Generate: unknown rule %q", p.Rule)
	}

	periods := make([]Period, 0, len(unadj)-1)
	for i := 0; i < len(unadj)-1; i++ {
		start := p.adjust(unadj[i])
		end := p.adjust(unadj[i+1])
		refStart, refEnd := unadj[i], unadj[i+1]
		switch {
		case i == 0 && p.Rule != Forward:
			refStart = roll(p, refEnd, -months)
		case i == len(unadj)-2 && p.Rule == Forward:
			refEnd = roll(p, refStart, months)
		}
		periods = append(periods, Period{
			Start:    start,
			End:      end,
			Pay:      calendar.AddBusinessDays(p.Calendar, end, p.PayLagDays),
			RefStart: refStart,
			RefEnd:   refEnd,
		})
	}
	return periods, nil
}

func rollForward(p Params, months int) []time.Time {
	dates := []time.Time{p.Effective}
	for k := 1; ; k++ {
		next := roll(p, p.Effective, k*months)
		if !next.Before(p.Termination.AddDate(0, 0, -stubTolerance)) {
			break
		}
		dates = append(dates, next)
	}
	return append(dates, p.Termination)
}

func rollBackward(p Params, months int) []time.Time {
	dates := []time.Time{p.Termination}
	for k := 1; ; k++ {
		prev := roll(p, p.Termination, -k*months)
		if !prev.After(p.Effective.AddDate(0, 0, stubTolerance)) {
			break
		}
		dates = append(dates, prev)
	}
	dates = append(dates, p.Effective)
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}

// roll moves an unadjusted anchor by months, keeping month ends when the
// end-of-month rule applies.
func roll(p Params, anchor time.Time, months int) time.Time {
	d := calendar.AddMonths(anchor, months)
	if p.EndOfMonth && isMonthEnd(anchor) {
		d = time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func isMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

func (p Params) adjust(t time.Time) time.Time {
	return calendar.Adjust(p.Calendar, t, p.Convention)
}

// Dates returns the adjusted period boundaries, start of the first period first.
func Dates(periods []Period) []time.Time {
	if len(periods) == 0 {
		return nil
	}
	out := make([]time.Time, 0, len(periods)+1)
	out = append(out, periods[0].Start)
	for _, pr := range periods {
		out = append(out, pr.End)
	}
	return out
}
