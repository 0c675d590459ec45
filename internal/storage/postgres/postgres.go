package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/trustbridge-ng/trustbridge/internal/domain/models"
)

// Storage implements the trust.Repository interface over postgres.
type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func (s *Storage) SaveProfile(ctx context.Context, profile models.Profile) error {
	const op = "storage.postgres.SaveProfile"

	stmt, err := s.db.Prepare("INSERT INTO users (email, name, password_hash, plan, trust_score, created_at) VALUES($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, profile.Email, profile.Name, profile.PasswordHash, profile.Plan, profile.Score, profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateScore(ctx context.Context, email string, score int) error {
	const op = "storage.postgres.UpdateScore"

	stmt, err := s.db.Prepare("UPDATE users SET trust_score = $1 WHERE email = $2")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, score, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	const op = "storage.postgres.SaveTransaction"

	stmt, err := s.db.Prepare("INSERT INTO transactions(id, user_email, kind, amount, category, occurred_at, verified, extracted_text, note, created_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, tx.ID, tx.UserID, tx.Kind, tx.Amount, tx.Category, tx.OccurredAt, tx.Verified, tx.ExtractedText, tx.Note, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) ListTransactions(ctx context.Context, email string) ([]models.Transaction, error) {
	const op = "storage.postgres.ListTransactions"

	rows, err := s.db.QueryContext(ctx, "SELECT id, user_email, kind, amount, category, occurred_at, verified, extracted_text, note, created_at FROM transactions WHERE user_email = $1 ORDER BY created_at DESC", email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Kind, &tx.Amount, &tx.Category, &tx.OccurredAt, &tx.Verified, &tx.ExtractedText, &tx.Note, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}

// LoadProfiles loads every profile with its transaction history, most
// recent first, for warming the service cache at startup.
func (s *Storage) LoadProfiles(ctx context.Context) ([]models.Profile, map[string][]models.Transaction, error) {
	const op = "storage.postgres.LoadProfiles"

	rows, err := s.db.QueryContext(ctx, "SELECT email, name, password_hash, plan, trust_score, created_at FROM users")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.Email, &p.Name, &p.PasswordHash, &p.Plan, &p.Score, &p.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	txsByUser := make(map[string][]models.Transaction, len(profiles))
	for _, p := range profiles {
		txs, err := s.ListTransactions(ctx, p.Email)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		txsByUser[p.Email] = txs
	}

	return profiles, txsByUser, nil
}
