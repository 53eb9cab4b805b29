package domain

import "fmt"

// Period is the (month, year) pair a payment is credited against,
// independent of the date the payment was recorded.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewPeriod(month, year int) Period {
	return Period{Month: month, Year: year}
}

// Valid reports whether the month is in 1..12.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12
}

// Next returns the period immediately after p. December rolls over to
// January of the following year.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// After reports whether p is chronologically after other, comparing
// year first and month second.
func (p Period) After(other Period) bool {
	if p.Year != other.Year {
		return p.Year > other.Year
	}
	return p.Month > other.Month
}

// MonthsSince returns how many calendar months separate p from other,
// positive when other is in the past relative to p.
func (p Period) MonthsSince(other Period) int {
	return (p.Year-other.Year)*12 + (p.Month - other.Month)
}

func (p Period) String() string {
	return fmt.Sprintf("%d/%d", p.Month, p.Year)
}
