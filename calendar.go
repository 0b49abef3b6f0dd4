package main

import (
	"fmt"
	"time"
)

// Diary views. The daily view is served by /food-diary/daily; the summary
// endpoint accepts weekly and monthly.
const (
	viewDaily   = "daily"
	viewWeekly  = "weekly"
	viewMonthly = "monthly"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var shortMonthNames = [...]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// weekRange returns the Sunday..Saturday week containing d, at midnight UTC.
// Uses AddDate to safely handle month/year boundaries.
func weekRange(d time.Time) (start, end time.Time) {
	day := dateOf(d)
	start = day.AddDate(0, 0, -int(day.Weekday())) // Weekday: 0=Sun
	return start, start.AddDate(0, 0, 6)
}

// monthRange returns the first and last day of d's month.
func monthRange(d time.Time) (start, end time.Time) {
	y, m, _ := d.Date()
	start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// viewRange returns the date range covered by view around d.
func viewRange(d time.Time, view string) (start, end time.Time, err error) {
	switch view {
	case viewDaily:
		day := dateOf(d)
		return day, day, nil
	case viewWeekly:
		start, end = weekRange(d)
		return start, end, nil
	case viewMonthly:
		start, end = monthRange(d)
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown view %q", view)
}

// navigateDate moves d one step of the given view forward or back. Month steps
// clamp to the last day of the target month (Jan 31 → Feb 28) instead of
// overflowing into the following month the way AddDate does.
func navigateDate(d time.Time, view string, forward bool) time.Time {
	step := -1
	if forward {
		step = 1
	}
	day := dateOf(d)
	switch view {
	case viewWeekly:
		return day.AddDate(0, 0, 7*step)
	case viewMonthly:
		return addMonthsClamped(day, step)
	default:
		return day.AddDate(0, 0, step)
	}
}

// addMonthsClamped moves d by n months, keeping the day of month but clamping it
// to the last day of the target month (Feb 29 - 12 months → Feb 28).
func addMonthsClamped(d time.Time, n int) time.Time {
	day := dateOf(d)
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	_, last := monthRange(first)
	if day.Day() > last.Day() {
		return last
	}
	return first.AddDate(0, 0, day.Day()-1)
}

// daysBetween lists every day from start to end inclusive.
func daysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	for d := dateOf(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// rangeLabel is the header text the diary shows for a view, e.g. "15 de Mayo",
// "12 May - 18 May" or "Mayo 2024".
func rangeLabel(d time.Time, view string) string {
	switch view {
	case viewWeekly:
		start, end := weekRange(d)
		return fmt.Sprintf("%d %s - %d %s",
			start.Day(), shortMonthNames[start.Month()-1],
			end.Day(), shortMonthNames[end.Month()-1])
	case viewMonthly:
		return fmt.Sprintf("%s %d", monthNames[d.Month()-1], d.Year())
	default:
		return fmt.Sprintf("%d de %s", d.Day(), monthNames[d.Month()-1])
	}
}
