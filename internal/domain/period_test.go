package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodNext(t *testing.T) {
	tests := []struct {
		name     string
		period   Period
		expected Period
	}{
		{
			name:     "mid-year advances the month",
			period:   NewPeriod(5, 2024),
			expected: NewPeriod(6, 2024),
		},
		{
			name:     "december rolls over to january",
			period:   NewPeriod(12, 2024),
			expected: NewPeriod(1, 2025),
		},
		{
			name:     "january advances within the year",
			period:   NewPeriod(1, 2024),
			expected: NewPeriod(2, 2024),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.period.Next())
		})
	}
}

func TestPeriodAfter(t *testing.T) {
	assert.True(t, NewPeriod(1, 2025).After(NewPeriod(12, 2024)))
	assert.True(t, NewPeriod(6, 2024).After(NewPeriod(5, 2024)))
	assert.False(t, NewPeriod(5, 2024).After(NewPeriod(5, 2024)))
	assert.False(t, NewPeriod(12, 2023).After(NewPeriod(1, 2024)))
}

func TestPeriodMonthsSince(t *testing.T) {
	current := NewPeriod(6, 2024)

	assert.Equal(t, 0, current.MonthsSince(NewPeriod(6, 2024)))
	assert.Equal(t, 1, current.MonthsSince(NewPeriod(5, 2024)))
	assert.Equal(t, 3, current.MonthsSince(NewPeriod(3, 2024)))
	assert.Equal(t, 7, current.MonthsSince(NewPeriod(11, 2023)))
	assert.Equal(t, -2, current.MonthsSince(NewPeriod(8, 2024)))
}

func TestPeriodValid(t *testing.T) {
	assert.True(t, NewPeriod(1, 2024).Valid())
	assert.True(t, NewPeriod(12, 2024).Valid())
	assert.False(t, NewPeriod(0, 2024).Valid())
	assert.False(t, NewPeriod(13, 2024).Valid())
}
