package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFine_ZeroOnOrBeforeDueDate(t *testing.T) {
	due := mustDate(t, "2026-03-10")
	tx := &Transaction{Status: StatusBorrowed, DueDate: due}

	assert.Equal(t, 0.0, CalculateFine(tx, mustDate(t, "2026-03-01"), DefaultDailyFine))
	assert.Equal(t, 0.0, CalculateFine(tx, due, DefaultDailyFine), "due date itself accrues nothing")
}

func TestCalculateFine_AccruesPerFullDay(t *testing.T) {
	due := mustDate(t, "2026-03-10")
	tx := &Transaction{Status: StatusBorrowed, DueDate: due}

	assert.Equal(t, 1.0, CalculateFine(tx, due.AddDays(1), DefaultDailyFine))
	assert.Equal(t, 3.0, CalculateFine(tx, due.AddDays(3), DefaultDailyFine))
	// No cap: accrual is unbounded.
	assert.Equal(t, 365.0, CalculateFine(tx, due.AddDays(365), DefaultDailyFine))
}

func TestCalculateFine_StrictlyIncreasingPerDay(t *testing.T) {
	due := mustDate(t, "2026-03-10")
	tx := &Transaction{Status: StatusBorrowed, DueDate: due}

	prev := 0.0
	for days := 1; days <= 30; days++ {
		fine := CalculateFine(tx, due.AddDays(days), DefaultDailyFine)
		assert.Equal(t, prev+DefaultDailyFine, fine, "fine must grow by exactly the unit rate per day")
		prev = fine
	}
}

func TestCalculateFine_CustomRate(t *testing.T) {
	due := mustDate(t, "2026-03-10")
	tx := &Transaction{Status: StatusBorrowed, DueDate: due}

	assert.Equal(t, 1.5, CalculateFine(tx, due.AddDays(3), 0.50))
	assert.Equal(t, 0.0, CalculateFine(tx, due.AddDays(3), 0))
}

func TestCalculateFine_ZeroForNonBorrowed(t *testing.T) {
	due := mustDate(t, "2026-03-10")
	today := due.AddDays(10)

	reserved := &Transaction{Status: StatusReserved, DueDate: due}
	assert.Equal(t, 0.0, CalculateFine(reserved, today, DefaultDailyFine))

	returned := &Transaction{Status: StatusBorrowed, DueDate: due}
	returned.MarkReturned(due.AddDays(2))
	assert.Equal(t, 0.0, CalculateFine(returned, today, DefaultDailyFine),
		"finalized returns are never fined retroactively")
}

func TestCalculateFine_ZeroDueDate(t *testing.T) {
	tx := &Transaction{Status: StatusBorrowed}
	assert.Equal(t, 0.0, CalculateFine(tx, mustDate(t, "2026-03-10"), DefaultDailyFine))
}

func TestCalculateFine_Deterministic(t *testing.T) {
	due := mustDate(t, "2026-03-10")
	tx := &Transaction{Status: StatusBorrowed, DueDate: due}
	today := due.AddDays(5)

	first := CalculateFine(tx, today, DefaultDailyFine)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CalculateFine(tx, today, DefaultDailyFine))
	}
}
