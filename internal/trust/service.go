package trust

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trustbridge-ng/trustbridge/internal/domain/models"
	"github.com/trustbridge-ng/trustbridge/internal/ledger"
	"github.com/trustbridge-ng/trustbridge/internal/receipt"
)

// Repository persists profiles and transactions. The service never assumes
// global state; any store that preserves transaction field semantics and
// most-recent-first ordering can back it.
type Repository interface {
	SaveProfile(ctx context.Context, profile models.Profile) error
	SaveTransaction(ctx context.Context, tx models.Transaction) error
	UpdateScore(ctx context.Context, email string, score int) error
	// LoadProfiles returns every profile with its transactions, most
	// recent first, for warming the in-process cache at startup.
	LoadProfiles(ctx context.Context) ([]models.Profile, map[string][]models.Transaction, error)
}

// profileState is one user's cached profile and ledger. mu serializes the
// append, recompute, persist sequence so the cached score always matches a
// full recompute over the committed ledger.
type profileState struct {
	mu      sync.Mutex
	profile models.Profile
	ledger  *ledger.Ledger
}

// Service is the core facade: profile lifecycle, transaction recording and
// the read paths the dashboard and report layers consume. Different users
// share nothing and proceed in parallel.
type Service struct {
	repo             Repository
	logger           *slog.Logger
	strictCategories bool
	profiles         sync.Map // email -> *profileState
}

func NewService(repo Repository, logger *slog.Logger, strictCategories bool) *Service {
	return &Service{
		repo:             repo,
		logger:           logger,
		strictCategories: strictCategories,
	}
}

// WarmCache loads every stored profile and its history into memory.
func (s *Service) WarmCache(ctx context.Context) error {
	const op = "trust.WarmCache"

	profiles, txsByUser, err := s.repo.LoadProfiles(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range profiles {
		txs := txsByUser[p.Email]
		// Recompute instead of trusting the stored score: a crash between
		// the transaction write and the score write would otherwise leave
		// the cache inconsistent with the ledger.
		p.Score = ComputeScore(txs)
		s.profiles.Store(p.Email, &profileState{
			profile: p,
			ledger:  ledger.New(txs...),
		})
	}
	s.logger.Info("Cache warmed", slog.Int("profiles", len(profiles)))
	return nil
}

// CreateProfile registers a new user with the base score and an empty
// ledger.
func (s *Service) CreateProfile(ctx context.Context, email, name, passwordHash, plan string) (models.Profile, error) {
	const op = "trust.CreateProfile"

	if plan == "" {
		plan = models.PlanFree
	}
	profile := models.Profile{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Plan:         plan,
		Score:        models.BaseScore,
		CreatedAt:    time.Now(),
	}
	// Claim the email atomically so concurrent registrations cannot both
	// reach SaveProfile.
	state := &profileState{profile: profile, ledger: ledger.New()}
	if _, loaded := s.profiles.LoadOrStore(email, state); loaded {
		return models.Profile{}, ErrProfileExists
	}
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		s.profiles.Delete(email)
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("Profile created", slog.String("email", email), slog.String("plan", plan))
	return profile, nil
}

// GetProfile returns a snapshot of the profile, including the password
// hash for the auth layer's credential check.
func (s *Service) GetProfile(email string) (models.Profile, error) {
	state, err := s.state(email)
	if err != nil {
		return models.Profile{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.profile, nil
}

// TransactionInput carries everything RecordTransaction needs. Amount may
// be nil when EvidenceText is supplied; the extractor resolves it then.
type TransactionInput struct {
	Kind         models.TxnKind
	Amount       *float64
	Category     string
	OccurredAt   time.Time
	Note         string
	EvidenceText *string
}

// RecordTransaction validates the input, resolves a missing amount from the
// receipt text, appends to the ledger and recomputes the cached score as
// one atomic unit. A rejected transaction never mutates any state.
func (s *Service) RecordTransaction(ctx context.Context, email string, in TransactionInput) (models.Transaction, error) {
	const op = "trust.RecordTransaction"

	state, err := s.state(email)
	if err != nil {
		return models.Transaction{}, err
	}

	if !in.Kind.Valid() {
		return models.Transaction{}, ErrInvalidKind
	}

	var amount float64
	switch {
	case in.Amount != nil:
		amount = *in.Amount
	case in.EvidenceText != nil:
		extracted, extractErr := receipt.Extract(*in.EvidenceText)
		if extractErr != nil {
			return models.Transaction{}, ErrAmountRequired
		}
		amount = extracted
	default:
		return models.Transaction{}, ErrAmountRequired
	}
	if !models.ValidAmount(amount) {
		return models.Transaction{}, ErrInvalidAmount
	}

	if in.Category == "" {
		return models.Transaction{}, ErrUnknownCategory
	}
	if s.strictCategories && !models.KnownCategory(in.Category) {
		return models.Transaction{}, ErrUnknownCategory
	}

	now := time.Now()
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	tx := models.Transaction{
		ID:         uuid.New(),
		UserID:     email,
		Kind:       in.Kind,
		Amount:     amount,
		Category:   in.Category,
		OccurredAt: occurredAt,
		Verified:   in.EvidenceText != nil,
		Note:       in.Note,
		CreatedAt:  now,
	}
	if in.EvidenceText != nil {
		text := *in.EvidenceText
		tx.ExtractedText = &text
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.ledger.Append(tx)
	score := ScoreLedger(state.ledger)

	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		state.ledger.RemoveHead()
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateScore(ctx, email, score); err != nil {
		state.ledger.RemoveHead()
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}
	state.profile.Score = score

	s.logger.Info("Transaction recorded",
		slog.String("email", email),
		slog.String("kind", string(tx.Kind)),
		slog.Bool("verified", tx.Verified),
		slog.Int("score", score),
	)
	return tx, nil
}

// ScoreInfo is the cached score plus its derived tier.
type ScoreInfo struct {
	Score int         `json:"score"`
	Tier  models.Tier `json:"tier"`
}

func (s *Service) GetScore(email string) (ScoreInfo, error) {
	state, err := s.state(email)
	if err != nil {
		return ScoreInfo{}, err
	}
	state.mu.Lock()
	score := state.profile.Score
	state.mu.Unlock()
	return ScoreInfo{Score: score, Tier: TierFor(score)}, nil
}

func (s *Service) ListTransactions(email string, f ledger.Filter, sort ledger.Sort) ([]models.Transaction, error) {
	state, err := s.state(email)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.ledger.Query(f, sort), nil
}

func (s *Service) ActiveDateCount(email string) (int, error) {
	state, err := s.state(email)
	if err != nil {
		return 0, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.ledger.ActiveDateCount(), nil
}

// Summary aggregates the figures the dashboard and report pages show.
type Summary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpense  float64 `json:"total_expense"`
	NetFlow       float64 `json:"net_flow"`
	Count         int     `json:"count"`
	VerifiedCount int     `json:"verified_count"`
	ActiveDays    int     `json:"active_days"`
	WeeksActive   int     `json:"weeks_active"`
}

func (s *Service) Summary(email string) (Summary, error) {
	state, err := s.state(email)
	if err != nil {
		return Summary{}, err
	}
	state.mu.Lock()
	txs := state.ledger.All()
	activeDays := state.ledger.ActiveDateCount()
	state.mu.Unlock()

	var sum Summary
	sum.Count = len(txs)
	sum.ActiveDays = activeDays
	sum.WeeksActive = (activeDays + 6) / 7
	for _, tx := range txs {
		if tx.Verified {
			sum.VerifiedCount++
		}
		switch tx.Kind {
		case models.KindIncome:
			sum.TotalIncome += tx.Amount
		case models.KindExpense:
			sum.TotalExpense += tx.Amount
		}
	}
	sum.NetFlow = sum.TotalIncome - sum.TotalExpense
	return sum, nil
}

func (s *Service) state(email string) (*profileState, error) {
	v, ok := s.profiles.Load(email)
	if !ok {
		return nil, ErrProfileNotFound
	}
	return v.(*profileState), nil
}
