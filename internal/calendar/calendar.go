// Package calendar assembles one month of diary status, anniversaries and the
// couple's monthly photo into a single view model.
package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lovary/lovary/internal/api"
)

// MonthAPI is the part of the API client a month view needs.
type MonthAPI interface {
	MonthDiaries(ctx context.Context, year, month int) (map[int]api.DayStatus, error)
	MonthAnniversaries(ctx context.Context, year, month int) (map[int]api.AnniversaryDay, error)
	MonthlyPhoto(ctx context.Context, year, month int) (*api.MonthlyPhoto, error)
}

// Day is one calendar cell.
type Day struct {
	Number          int
	Date            time.Time
	Status          string // past, today or future; empty when the backend sent nothing
	HasMyDiary      bool
	HasPartnerDiary bool
	IsComplete      bool
	Anniversary     *api.AnniversaryDay
}

// Month is a fully merged month.
type Month struct {
	Year  int
	Month time.Month
	Days  []Day
	Photo *api.MonthlyPhoto
}

// Load fetches the three month endpoints concurrently and merges them. Any
// failure fails the whole load.
func Load(ctx context.Context, client MonthAPI, year int, month time.Month) (Month, error) {
	if month < time.January || month > time.December {
		return Month{}, fmt.Errorf("month %d out of range", month)
	}

	var (
		statuses      map[int]api.DayStatus
		anniversaries map[int]api.AnniversaryDay
		photo         *api.MonthlyPhoto
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statuses, err = client.MonthDiaries(gctx, year, int(month))
		if err != nil {
			return fmt.Errorf("month diaries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		anniversaries, err = client.MonthAnniversaries(gctx, year, int(month))
		if err != nil {
			return fmt.Errorf("month anniversaries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		photo, err = client.MonthlyPhoto(gctx, year, int(month))
		if err != nil {
			return fmt.Errorf("monthly photo: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Month{}, err
	}

	return Merge(year, month, statuses, anniversaries, photo), nil
}

// Merge builds a Month with one Day per calendar day, sorted by day number.
// Entries outside the month's range are dropped.
func Merge(year int, month time.Month, statuses map[int]api.DayStatus, anniversaries map[int]api.AnniversaryDay, photo *api.MonthlyPhoto) Month {
	n := DaysIn(year, month)
	days := make([]Day, 0, n)
	for d := 1; d <= n; d++ {
		day := Day{
			Number: d,
			Date:   time.Date(year, month, d, 0, 0, 0, 0, time.Local),
		}
		if st, ok := statuses[d]; ok {
			day.Status = st.Status
			day.HasMyDiary = st.HasMyDiary
			day.HasPartnerDiary = st.HasPartnerDiary
			day.IsComplete = st.IsComplete
		}
		if a, ok := anniversaries[d]; ok {
			day.Anniversary = &a
		}
		days = append(days, day)
	}
	return Month{Year: year, Month: month, Days: days, Photo: photo}
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Weeks lays the days out in Sunday-first rows. Cells outside the month are nil.
func (m Month) Weeks() [][]*Day {
	if len(m.Days) == 0 {
		return nil
	}
	var weeks [][]*Day
	week := make([]*Day, 7)
	col := int(m.Days[0].Date.Weekday())
	for i := range m.Days {
		week[col] = &m.Days[i]
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = make([]*Day, 7)
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// Day returns the cell for day number n, or nil.
func (m Month) Day(n int) *Day {
	if n < 1 || n > len(m.Days) {
		return nil
	}
	return &m.Days[n-1]
}

// Shift returns the year and month delta months away from year/month.
func Shift(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
