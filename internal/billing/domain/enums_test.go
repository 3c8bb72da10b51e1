package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingCycle_MonthsCovered(t *testing.T) {
	assert.Equal(t, 1, CycleMonthly.MonthsCovered())
	assert.Equal(t, 6, CycleSemiannually.MonthsCovered())
	assert.Equal(t, 12, CycleAnnually.MonthsCovered())
}

func TestBillingCycle_Advance(t *testing.T) {
	from := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), CycleMonthly.Advance(from))
	assert.Equal(t, time.Date(2025, 7, 31, 10, 0, 0, 0, time.UTC), CycleSemiannually.Advance(from))
	assert.Equal(t, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), CycleAnnually.Advance(from))
}

func TestBillingCycle_AdvanceClampsMonthEnd(t *testing.T) {
	tests := []struct {
		name  string
		cycle BillingCycle
		from  time.Time
		want  time.Time
	}{
		{"semiannual from Aug 31", CycleSemiannually, time.Date(2025, 8, 31, 9, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)},
		{"semiannual into leap Feb", CycleSemiannually, time.Date(2023, 8, 31, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
		{"semiannual from Mar 31", CycleSemiannually, time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC), time.Date(2025, 9, 30, 9, 0, 0, 0, time.UTC)},
		{"annual from leap day", CycleAnnually, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)},
		{"annual from Jan 31", CycleAnnually, time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC), time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cycle.Advance(tt.from))
		})
	}
}

func TestAddCalendarMonths(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), 0, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, addCalendarMonths(tt.from, tt.n), "%s + %d", tt.from.Format(time.DateOnly), tt.n)
	}
}

func TestParseEnums(t *testing.T) {
	cycle, err := ParseBillingCycle(" annually ")
	require.NoError(t, err)
	assert.Equal(t, CycleAnnually, cycle)

	_, err = ParseBillingCycle("weekly")
	assert.ErrorIs(t, err, ErrInvalidBillingCycle)

	bt, err := ParseBillingType("postpaid")
	require.NoError(t, err)
	assert.Equal(t, BillingPostpaid, bt)

	_, err = ParseBillingType("credit")
	assert.ErrorIs(t, err, ErrValidation)

	method, err := ParsePaymentMethod("pix")
	require.NoError(t, err)
	assert.Equal(t, PaymentPix, method)

	_, err = ParsePaymentMethod("barter")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}
