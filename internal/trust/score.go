// Package trust derives a bounded trust score from a user's transaction
// history and exposes the core service the API layer calls into.
package trust

import (
	"github.com/trustbridge-ng/trustbridge/internal/domain/models"
	"github.com/trustbridge-ng/trustbridge/internal/ledger"
)

// Score weights. The verification credit stacks with the flat
// per-transaction credit on verified transactions; that is intentional.
const (
	verifiedCredit  = 5
	perTxnCredit    = 1
	perActiveDay    = 2
	streakBonus     = 20
	streakThreshold = 30
	cashflowBonus   = 15
	incomeBonus     = 10
)

// ComputeScore folds the full history into a score in [300, 850]. It is
// the reference semantics: a deterministic full rescan, recomputed after
// every append so the cached score never drifts.
func ComputeScore(txs []models.Transaction) int {
	score := models.BaseScore

	if len(txs) == 0 {
		return score
	}

	var verified int
	var income, expense float64
	var hasIncome bool
	dates := make(map[string]struct{}, len(txs))

	for _, tx := range txs {
		if tx.Verified {
			verified++
		}
		switch tx.Kind {
		case models.KindIncome:
			income += tx.Amount
			hasIncome = true
		case models.KindExpense:
			expense += tx.Amount
		}
		dates[tx.OccurredAt.Format("2006-01-02")] = struct{}{}
	}

	score += verified * verifiedCredit
	score += len(txs) * perTxnCredit

	activeDays := len(dates)
	score += activeDays * perActiveDay
	if activeDays >= streakThreshold {
		score += streakBonus
	}

	if income > expense {
		score += cashflowBonus
	}
	// Presence check over the whole history, not a recency window.
	if hasIncome {
		score += incomeBonus
	}

	if score > models.MaxScore {
		score = models.MaxScore
	}
	return score
}

// ScoreLedger is ComputeScore over a ledger snapshot.
func ScoreLedger(l *ledger.Ledger) int {
	return ComputeScore(l.All())
}

// TierFor maps a score to its named tier.
func TierFor(score int) models.Tier {
	switch {
	case score >= 750:
		return models.Tier{Name: "Excellent", Level: "LEVEL 5", Color: "#4CAF50"}
	case score >= 650:
		return models.Tier{Name: "Good", Level: "LEVEL 4", Color: "#2196F3"}
	case score >= 500:
		return models.Tier{Name: "Building", Level: "LEVEL 3", Color: "#FF9800"}
	case score >= 400:
		return models.Tier{Name: "Fair", Level: "LEVEL 2", Color: "#FFC107"}
	default:
		return models.Tier{Name: "Starting", Level: "LEVEL 1", Color: "#9E9E9E"}
	}
}
