package recurrence

import (
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

// DayStat is the completion tally for one day.
type DayStat struct {
	Date      string  `json:"date"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// Series is a run of DayStats plus the totals over the whole range.
type Series struct {
	Days      []DayStat `json:"days"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Rate      float64   `json:"rate"`
}

// Rates returns the per-day rates in order, for charting.
func (s Series) Rates() []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.Rate
	}
	return out
}

// Ratio returns completed/total, or 0 when total is 0.
func Ratio(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// CompletionRate tallies active instances and completions for every day in
// [from, to]. History counts too: unlike Project, days before today are
// included. A malformed or inverted range yields an empty series.
func CompletionRate(tasks []models.Task, ix *CompletionIndex, from, to string) Series {
	start, end, ok := utils.ParseRange(from, to)
	if !ok {
		return Series{}
	}

	var s Series
	utils.EachDay(start, end, func(day time.Time) {
		stat := DayStat{Date: utils.FormatDate(day)}
		for _, task := range tasks {
			if !ActiveOn(task, day) {
				continue
			}
			stat.Total++
			if ix.IsComplete(Instance{Task: task, Date: stat.Date}) {
				stat.Completed++
			}
		}
		stat.Rate = Ratio(stat.Completed, stat.Total)
		s.Days = append(s.Days, stat)
		s.Total += stat.Total
		s.Completed += stat.Completed
	})
	s.Rate = Ratio(s.Completed, s.Total)
	return s
}

// LastDays returns the YYYY-MM-DD bounds of the n days ending today.
func LastDays(n int, today time.Time) (from, to string) {
	if n < 1 {
		n = 1
	}
	end := utils.Day(today)
	return utils.FormatDate(end.AddDate(0, 0, -(n - 1))), utils.FormatDate(end)
}
