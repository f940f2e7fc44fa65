package domain

// DefaultDailyFine is the fallback fine per overdue day, in currency units,
// when no policy rate is configured.
const DefaultDailyFine = 1.00

// CalculateFine computes the monetary penalty accrued by a transaction as of
// the given date, at rate currency units per full overdue day.
//
// The result is zero when the transaction is not an open loan (reservations
// and returned loans accrue nothing, and a finalized return is never fined
// retroactively) or when today is on or before the due date. Otherwise the
// fine is the number of whole days past due times the daily rate, with no
// cap: an unreturned resource accrues indefinitely.
//
// The function is pure. Given the same transaction, date and rate it always
// returns the same amount, which is what lets the return flow and the
// reporting dashboards share it without coordination.
func CalculateFine(t *Transaction, today Date, rate float64) float64 {
	if t.Status != StatusBorrowed || t.ReturnDate != nil {
		return 0
	}
	if t.DueDate.IsZero() || !today.After(t.DueDate) {
		return 0
	}

	daysOverdue := today.DaysSince(t.DueDate)
	return float64(daysOverdue) * rate
}
