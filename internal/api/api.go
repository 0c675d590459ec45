package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/trustbridge-ng/trustbridge/internal/config"
	"github.com/trustbridge-ng/trustbridge/internal/domain/models"
	"github.com/trustbridge-ng/trustbridge/internal/ledger"
	"github.com/trustbridge-ng/trustbridge/internal/lib/jwt"
	"github.com/trustbridge-ng/trustbridge/internal/trust"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey string

const emailKey ctxKey = "email"

const tokenTTL = 24 * time.Hour

type APIServer struct {
	config    *config.Config
	logger    *slog.Logger
	service   *trust.Service
	server    *http.Server
	jwtSecret []byte
}

func New(config *config.Config, logger *slog.Logger, service *trust.Service, jwtSecret []byte) *APIServer {
	return &APIServer{
		config:  config,
		logger:  logger,
		service: service,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		jwtSecret: jwtSecret,
	}
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("port", strconv.Itoa(s.config.ApiPort)))

	s.configureRouter()

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()
	router.HandleFunc("/api/auth", s.authHandler()).Methods("POST")
	router.HandleFunc("/api/transactions", s.authenticate(s.recordTransactionHandler())).Methods("POST")
	router.HandleFunc("/api/transactions", s.authenticate(s.listTransactionsHandler())).Methods("GET")
	router.HandleFunc("/api/score", s.authenticate(s.scoreHandler())).Methods("GET")
	router.HandleFunc("/api/summary", s.authenticate(s.summaryHandler())).Methods("GET")
	router.HandleFunc("/api/opportunities", s.authenticate(s.opportunitiesHandler())).Methods("GET")
	s.server.Handler = router
}

type AuthRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Plan     string `json:"plan"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

// authHandler registers the user on first sight, logs in otherwise.
func (s *APIServer) authHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			http.Error(w, "Email and password are required", http.StatusBadRequest)
			return
		}

		profile, err := s.service.GetProfile(req.Email)
		if errors.Is(err, trust.ErrProfileNotFound) {
			created, err := s.registerNewUser(r.Context(), req)
			if err != nil {
				http.Error(w, "Registration failed", http.StatusInternalServerError)
				return
			}
			profile = created
		} else if err != nil {
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			return
		} else {
			if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
				return
			}
		}

		token, err := jwt.NewToken(&profile, string(s.jwtSecret), tokenTTL)
		if err != nil {
			s.logger.Error("Failed to sign token", "error", err)
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, http.StatusOK, AuthResponse{Token: token})
	}
}

func (s *APIServer) registerNewUser(ctx context.Context, req AuthRequest) (models.Profile, error) {
	s.logger.Info("Register new user", slog.String("email", req.Email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		return models.Profile{}, err
	}

	profile, err := s.service.CreateProfile(ctx, req.Email, req.Name, string(passHash), req.Plan)
	if err != nil {
		s.logger.Error("Failed to create profile", "error", err)
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *APIServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenHeader := r.Header.Get("Authorization")
		if tokenHeader == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(tokenHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims, err := jwt.ParseToken(parts[1], string(s.jwtSecret))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		email, ok := claims["email"].(string)
		if !ok {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), emailKey, email)))
	}
}

func requestEmail(r *http.Request) string {
	email, _ := r.Context().Value(emailKey).(string)
	return email
}

type RecordTransactionRequest struct {
	Kind        string   `json:"kind"`
	Amount      *float64 `json:"amount,omitempty"`
	Category    string   `json:"category"`
	OccurredAt  string   `json:"occurred_at,omitempty"`
	Note        string   `json:"note,omitempty"`
	ReceiptText *string  `json:"receipt_text,omitempty"`
}

func (s *APIServer) recordTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecordTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var occurredAt time.Time
		if req.OccurredAt != "" {
			parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
				return
			}
			occurredAt = parsed
		}

		tx, err := s.service.RecordTransaction(r.Context(), requestEmail(r), trust.TransactionInput{
			Kind:         models.TxnKind(req.Kind),
			Amount:       req.Amount,
			Category:     req.Category,
			OccurredAt:   occurredAt,
			Note:         req.Note,
			EvidenceText: req.ReceiptText,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, tx)
	}
}

func (s *APIServer) listTransactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		f, sort, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		txs, err := s.service.ListTransactions(requestEmail(r), f, sort)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":        len(txs),
			"transactions": txs,
		})
	}
}

func parseQuery(r *http.Request) (ledger.Filter, ledger.Sort, error) {
	f := ledger.Filter{Kind: ledger.KindAll, Verified: ledger.VerifiedAny}
	sort := ledger.SortDateDesc

	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "All":
	case "Income":
		f.Kind = ledger.KindIncome
	case "Expense":
		f.Kind = ledger.KindExpense
	default:
		return f, sort, errors.New("kind must be All, Income or Expense")
	}

	switch status := r.URL.Query().Get("status"); status {
	case "", "All":
	case "Verified":
		f.Verified = ledger.VerifiedOnly
	case "Unverified":
		f.Verified = ledger.Unverified
	default:
		return f, sort, errors.New("status must be All, Verified or Unverified")
	}

	switch qs := r.URL.Query().Get("sort"); qs {
	case "", string(ledger.SortDateDesc):
	case string(ledger.SortDateAsc):
		sort = ledger.SortDateAsc
	case string(ledger.SortAmountDesc):
		sort = ledger.SortAmountDesc
	case string(ledger.SortAmountAsc):
		sort = ledger.SortAmountAsc
	default:
		return f, sort, errors.New("sort must be date-desc, date-asc, amount-desc or amount-asc")
	}

	return f, sort, nil
}

type ScoreResponse struct {
	Score int    `json:"score"`
	Tier  string `json:"tier"`
	Level string `json:"level"`
	Color string `json:"color"`
}

func (s *APIServer) scoreHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := s.service.GetScore(requestEmail(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, ScoreResponse{
			Score: info.Score,
			Tier:  info.Tier.Name,
			Level: info.Tier.Level,
			Color: info.Tier.Color,
		})
	}
}

func (s *APIServer) summaryHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := s.service.Summary(requestEmail(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sum)
	}
}

func (s *APIServer) opportunitiesHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		opps, err := s.service.Opportunities(requestEmail(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"opportunities": opps})
	}
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps core error kinds to HTTP statuses. Anything unrecognized
// is a 500.
func (s *APIServer) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trust.ErrProfileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, trust.ErrInvalidAmount),
		errors.Is(err, trust.ErrAmountRequired),
		errors.Is(err, trust.ErrUnknownCategory),
		errors.Is(err, trust.ErrInvalidKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("Request failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
