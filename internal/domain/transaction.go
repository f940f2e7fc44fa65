package domain

import "time"

// TransactionStatus is the stored lifecycle state of a lending event.
type TransactionStatus string

// Stored transaction statuses. Overdue is intentionally absent: it is a view
// derived from the due date at read time (see Transaction.IsOverdue), never a
// persisted state. Persisting it would mean a background job mutating ledger
// rows as midnight passes; deriving it keeps the ledger append-then-return
// only.
const (
	StatusBorrowed TransactionStatus = "borrowed"
	StatusReserved TransactionStatus = "reserved"
	StatusReturned TransactionStatus = "returned"
)

// StatusOverdue is the derived status reported to callers for borrowed
// transactions past their due date. It never appears in storage.
const StatusOverdue TransactionStatus = "overdue"

// Transaction records one lending event: a loan or a reservation.
//
// Transactions are append-only. A loan is mutated exactly once, by its
// return, which sets ReturnDate and flips Status to returned. ReturnDate is
// non-nil if and only if Status is returned; once returned, the record is
// frozen.
type Transaction struct {
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	ResourceID   string            `json:"resource_id"`
	CheckoutDate Date              `json:"checkout_date"`
	DueDate      Date              `json:"due_date,omitzero"` // zero for open-ended reservations
	ReturnDate   *Date             `json:"return_date,omitempty"`
	Status       TransactionStatus `json:"status"`
}

// IsActiveBorrow reports whether this is an open loan: borrowed and not yet
// returned.
func (t *Transaction) IsActiveBorrow() bool {
	return t.Status == StatusBorrowed && t.ReturnDate == nil
}

// IsOverdue reports whether the transaction is logically overdue on the given
// date: an open loan whose due date has passed.
func (t *Transaction) IsOverdue(today Date) bool {
	return t.IsActiveBorrow() && !t.DueDate.IsZero() && t.DueDate.Before(today)
}

// EffectiveStatus returns the status as reported to callers: the stored
// status, except that open loans past due read as overdue.
func (t *Transaction) EffectiveStatus(today Date) TransactionStatus {
	if t.IsOverdue(today) {
		return StatusOverdue
	}
	return t.Status
}

// MarkReturned finalizes the loan: sets the return date and flips the status.
// The due date is left untouched and frozen from here on.
func (t *Transaction) MarkReturned(returnDate Date) {
	t.ReturnDate = &returnDate
	t.Status = StatusReturned
	t.UpdatedAt = time.Now()
}

// Touch updates the UpdatedAt timestamp to the current time.
func (t *Transaction) Touch() {
	t.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (t *Transaction) InitTimestamps() {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
}
