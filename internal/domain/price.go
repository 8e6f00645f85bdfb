package domain

import "time"

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

// Product represents a row in the products table.
type Product struct {
	ID       string // product identifier
	Name     string // display name, e.g. "Potatoes"
	Category string // e.g. "Vegetables"
}

// PricePoint is a single raw market price observation. Multiple points
// may share a date when several markets in the same city report on the
// same day.
type PricePoint struct {
	ProductID string
	City      string
	Date      time.Time // calendar date, truncated to midnight UTC
	Price     float64   // unit price, positive
}

// DailyPrice is one entry of a daily-averaged series.
type DailyPrice struct {
	Date     time.Time
	AvgPrice float64 // arithmetic mean of all observations on Date
}

// DailySeries is a daily-averaged price series, one entry per distinct
// date, sorted ascending. Dates are strictly increasing; gaps are kept
// as gaps, never interpolated.
type DailySeries []DailyPrice

// LastDate returns the date of the most recent entry.
// The series must be non-empty.
func (s DailySeries) LastDate() time.Time {
	return s[len(s)-1].Date
}

// Prices returns the price values in series order.
func (s DailySeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.AvgPrice
	}
	return out
}

// Tail returns the trailing n entries (the whole series if shorter).
// The result shares no backing storage with s.
func (s DailySeries) Tail(n int) DailySeries {
	if n > len(s) {
		n = len(s)
	}
	out := make(DailySeries, n)
	copy(out, s[len(s)-n:])
	return out
}

// Day normalizes a timestamp to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
