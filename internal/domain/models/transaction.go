package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TxnKind is the direction of a transaction on the user's ledger.
type TxnKind string

const (
	KindIncome  TxnKind = "Income"
	KindExpense TxnKind = "Expense"
)

// Valid reports whether k is one of the known kinds.
func (k TxnKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

type Transaction struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Kind          TxnKind   `json:"kind"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	OccurredAt    time.Time `json:"occurred_at"`
	Verified      bool      `json:"verified"`
	ExtractedText *string   `json:"extracted_text,omitempty"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidAmount reports whether amount is a positive finite number.
func ValidAmount(amount float64) bool {
	return amount > 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// Categories is the recognized category set. Validation against it is
// optional; by default only non-empty is required.
var Categories = []string{
	"Freelance Pay", "Salary", "Business Income", "Investment", "Other Income",
	"Grocery", "Rent", "Utility Bill", "Transport", "Healthcare", "Entertainment", "Other Expense",
}

// KnownCategory reports whether name is in the recognized set.
func KnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
