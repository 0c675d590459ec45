package trust

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trustbridge-ng/trustbridge/internal/domain/models"
)

func mkTx(kind models.TxnKind, amount float64, verified bool, occurredAt time.Time) models.Transaction {
	return models.Transaction{
		ID:         uuid.New(),
		UserID:     "user@example.com",
		Kind:       kind,
		Amount:     amount,
		Category:   "Other Expense",
		OccurredAt: occurredAt,
		Verified:   verified,
		CreatedAt:  occurredAt,
	}
}

func TestComputeScoreEmptyLedger(t *testing.T) {
	if got := ComputeScore(nil); got != 300 {
		t.Errorf("ComputeScore(empty) = %d, want 300", got)
	}
}

func TestComputeScoreSingleVerifiedIncome(t *testing.T) {
	// 300 base + 5 verified + 1 count + 2 active day + 15 cashflow + 10 income.
	txs := []models.Transaction{
		mkTx(models.KindIncome, 100.00, true, time.Now()),
	}
	if got := ComputeScore(txs); got != 333 {
		t.Errorf("ComputeScore = %d, want 333", got)
	}
}

func TestComputeScoreThirtyDayExpenseStreak(t *testing.T) {
	// 300 base + 30 count + 60 active days + 20 streak; no income credits.
	day := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	txs := make([]models.Transaction, 0, 30)
	for i := 0; i < 30; i++ {
		txs = append(txs, mkTx(models.KindExpense, 10.00, false, day.AddDate(0, 0, i)))
	}
	if got := ComputeScore(txs); got != 410 {
		t.Errorf("ComputeScore = %d, want 410", got)
	}
}

func TestComputeScoreStreakBonusAppliesOnce(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(days int) []models.Transaction {
		txs := make([]models.Transaction, 0, days)
		for i := 0; i < days; i++ {
			txs = append(txs, mkTx(models.KindExpense, 10, false, day.AddDate(0, 0, i)))
		}
		return txs
	}
	// Each extra day past the threshold adds exactly +1 count and +2 active
	// day, never another +20.
	at30 := ComputeScore(mk(30))
	at31 := ComputeScore(mk(31))
	if at31-at30 != 3 {
		t.Errorf("day 31 delta = %d, want 3", at31-at30)
	}
}

func TestComputeScoreCashflowCredit(t *testing.T) {
	day := time.Now()
	incomeHeavy := []models.Transaction{
		mkTx(models.KindIncome, 200, false, day),
		mkTx(models.KindExpense, 100, false, day),
	}
	expenseHeavy := []models.Transaction{
		mkTx(models.KindIncome, 100, false, day),
		mkTx(models.KindExpense, 200, false, day),
	}
	if diff := ComputeScore(incomeHeavy) - ComputeScore(expenseHeavy); diff != 15 {
		t.Errorf("cashflow credit diff = %d, want 15", diff)
	}
}

func TestComputeScoreIncomePresenceNotRecency(t *testing.T) {
	// An income transaction far in the past still earns the regularity
	// credit; the check is presence over the whole history.
	old := time.Now().AddDate(-1, 0, 0)
	withOldIncome := []models.Transaction{
		mkTx(models.KindIncome, 50, false, old),
		mkTx(models.KindExpense, 100, false, time.Now()),
	}
	noIncome := []models.Transaction{
		mkTx(models.KindExpense, 50, false, old),
		mkTx(models.KindExpense, 100, false, time.Now()),
	}
	if diff := ComputeScore(withOldIncome) - ComputeScore(noIncome); diff != 10 {
		t.Errorf("income presence diff = %d, want 10", diff)
	}
}

func TestComputeScoreClampsAt850(t *testing.T) {
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := make([]models.Transaction, 0, 200)
	for i := 0; i < 200; i++ {
		txs = append(txs, mkTx(models.KindIncome, 100, true, day.AddDate(0, 0, i)))
	}
	if got := ComputeScore(txs); got != 850 {
		t.Errorf("ComputeScore = %d, want 850 (clamped)", got)
	}
}

func TestComputeScoreMonotonicUnderAppend(t *testing.T) {
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{}
	prev := ComputeScore(txs)
	appends := []models.Transaction{
		mkTx(models.KindExpense, 10, false, day),
		mkTx(models.KindExpense, 500, false, day),
		mkTx(models.KindIncome, 1, true, day.AddDate(0, 0, 1)),
		mkTx(models.KindExpense, 5, false, day.AddDate(0, 0, 2)),
	}
	for _, tx := range appends {
		txs = append(txs, tx)
		got := ComputeScore(txs)
		if got < prev {
			t.Fatalf("score decreased from %d to %d after append", prev, got)
		}
		prev = got
	}
}

func TestComputeScoreBounds(t *testing.T) {
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{}
	for i := 0; i < 120; i++ {
		kind := models.KindExpense
		if i%3 == 0 {
			kind = models.KindIncome
		}
		txs = append(txs, mkTx(kind, float64(i+1), i%2 == 0, day.AddDate(0, 0, i%40)))
		got := ComputeScore(txs)
		if got < 300 || got > 850 {
			t.Fatalf("score %d out of [300, 850] at %d transactions", got, len(txs))
		}
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score     int
		wantName  string
		wantLevel string
	}{
		{300, "Starting", "LEVEL 1"},
		{399, "Starting", "LEVEL 1"},
		{400, "Fair", "LEVEL 2"},
		{499, "Fair", "LEVEL 2"},
		{500, "Building", "LEVEL 3"},
		{649, "Building", "LEVEL 3"},
		{650, "Good", "LEVEL 4"},
		{749, "Good", "LEVEL 4"},
		{750, "Excellent", "LEVEL 5"},
		{850, "Excellent", "LEVEL 5"},
	}
	for _, tt := range tests {
		tier := TierFor(tt.score)
		if tier.Name != tt.wantName || tier.Level != tt.wantLevel {
			t.Errorf("TierFor(%d) = %s/%s, want %s/%s", tt.score, tier.Name, tier.Level, tt.wantName, tt.wantLevel)
		}
		if tier.Color == "" {
			t.Errorf("TierFor(%d) missing color token", tt.score)
		}
	}
}
