// Package ledger keeps a single user's ordered transaction history.
package ledger

import (
	"sort"

	"github.com/trustbridge-ng/trustbridge/internal/domain/models"
)

// KindFilter narrows a query to one transaction kind.
type KindFilter string

const (
	KindAll     KindFilter = "All"
	KindIncome  KindFilter = "Income"
	KindExpense KindFilter = "Expense"
)

// VerifiedFilter narrows a query by verification status.
type VerifiedFilter string

const (
	VerifiedAny  VerifiedFilter = "All"
	VerifiedOnly VerifiedFilter = "Verified"
	Unverified   VerifiedFilter = "Unverified"
)

// Sort orders query results. Amount sorts are stable so equal amounts keep
// their ledger order.
type Sort string

const (
	SortDateDesc   Sort = "date-desc"
	SortDateAsc    Sort = "date-asc"
	SortAmountDesc Sort = "amount-desc"
	SortAmountAsc  Sort = "amount-asc"
)

// Filter is a conjunction over kind and verification status.
type Filter struct {
	Kind     KindFilter
	Verified VerifiedFilter
}

// Ledger is an append-only, most-recent-first transaction sequence for one
// user. It does no validation and no locking; the owning service serializes
// access per user.
type Ledger struct {
	txs []models.Transaction
}

func New(txs ...models.Transaction) *Ledger {
	l := &Ledger{txs: make([]models.Transaction, len(txs))}
	copy(l.txs, txs)
	return l
}

// Append inserts tx at the logical head of the sequence.
func (l *Ledger) Append(tx models.Transaction) {
	l.txs = append([]models.Transaction{tx}, l.txs...)
}

// RemoveHead undoes the most recent Append. Used to roll back an append
// whose persistence failed.
func (l *Ledger) RemoveHead() {
	if len(l.txs) > 0 {
		l.txs = l.txs[1:]
	}
}

func (l *Ledger) Len() int {
	return len(l.txs)
}

// All returns a snapshot copy of the full history, most recent first.
func (l *Ledger) All() []models.Transaction {
	out := make([]models.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Query returns a fresh filtered and sorted slice. It never aliases the
// ledger's internal state, so re-querying is side-effect free.
func (l *Ledger) Query(f Filter, s Sort) []models.Transaction {
	out := make([]models.Transaction, 0, len(l.txs))
	for _, tx := range l.txs {
		if f.Kind == KindIncome && tx.Kind != models.KindIncome {
			continue
		}
		if f.Kind == KindExpense && tx.Kind != models.KindExpense {
			continue
		}
		if f.Verified == VerifiedOnly && !tx.Verified {
			continue
		}
		if f.Verified == Unverified && tx.Verified {
			continue
		}
		out = append(out, tx)
	}

	switch s {
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		})
	case SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].OccurredAt.Before(out[i].OccurredAt)
		})
	case SortAmountAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Amount < out[j].Amount
		})
	case SortAmountDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].Amount < out[i].Amount
		})
	}
	return out
}

// ActiveDates returns the calendar dates (time of day collapsed) that have
// at least one transaction, keyed YYYY-MM-DD.
func (l *Ledger) ActiveDates() map[string]struct{} {
	dates := make(map[string]struct{}, len(l.txs))
	for _, tx := range l.txs {
		dates[tx.OccurredAt.Format("2006-01-02")] = struct{}{}
	}
	return dates
}

// ActiveDateCount is the number of distinct calendar dates with activity.
func (l *Ledger) ActiveDateCount() int {
	return len(l.ActiveDates())
}
