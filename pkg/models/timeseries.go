package models

import (
	"time"
)

// PricePoint is a single daily observation of an asset's closing price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a chronologically ascending daily closing-price series.
// Dates are strictly increasing; days with no data from the source are
// simply absent, never interpolated.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Market string       `json:"market"`
	Points []PricePoint `json:"points"`

	// DisplayRange is a human-readable description of the covered span,
	// e.g. "from 2023-01-01 to 2024-06-30".
	DisplayRange string `json:"display_range"`
}

// Len returns the number of observations in the series.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the closing prices as a flat slice, oldest first.
func (s *PriceSeries) Closes() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Close
	}
	return values
}

// DateLabels returns the observation dates formatted as YYYY-MM-DD,
// oldest first.
func (s *PriceSeries) DateLabels() []string {
	labels := make([]string, len(s.Points))
	for i, p := range s.Points {
		labels[i] = p.Date.Format("2006-01-02")
	}
	return labels
}

// IsOrdered reports whether the series dates are strictly ascending.
func (s *PriceSeries) IsOrdered() bool {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Date.After(s.Points[i-1].Date) {
			return false
		}
	}
	return true
}
