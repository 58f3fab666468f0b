// Package server exposes the ledger engine over HTTP. This is glue around
// the core: it parses requests, resolves the acting user from the
// already-authenticated identity header, and maps engine errors to status
// codes. All monetary amounts cross the wire as exact decimal strings.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bankledger/internal/common"
	"bankledger/internal/ledger"
	"bankledger/internal/logging"
	"bankledger/internal/models"
	"bankledger/internal/money"
)

// userHeader carries the authenticated user id resolved by the identity
// layer in front of this service.
const userHeader = "X-User-ID"

// Server routes HTTP requests to the ledger engine.
type Server struct {
	engine *ledger.Engine
	log    *logging.Logger
	router *mux.Router
}

// New creates a server. The prometheus gatherer backs the /metrics endpoint;
// pass nil to disable it.
func New(engine *ledger.Engine, log *logging.Logger, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		engine: engine,
		log:    log.Named("http"),
		router: mux.NewRouter(),
	}
	s.routes(gatherer)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router.HandleFunc("/accounts", s.handleOpenAccount).Methods(http.MethodPost)
	s.router.HandleFunc("/accounts/by-number/{number}", s.handleGetAccountByNumber).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{id}/transactions", s.handleHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/accounts/{id}/deposit", s.handleDeposit).Methods(http.MethodPost)
	s.router.HandleFunc("/accounts/{id}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	s.router.HandleFunc("/accounts/{id}/close", s.handleCloseAccount).Methods(http.MethodPost)
	s.router.HandleFunc("/accounts/{id}/fee", s.handleMonthlyFee).Methods(http.MethodPost)
	s.router.HandleFunc("/accounts/{id}/interest", s.handleInterest).Methods(http.MethodPost)

	s.router.HandleFunc("/transfers", s.handleTransfer).Methods(http.MethodPost)

	s.router.HandleFunc("/bills", s.handleCreateBill).Methods(http.MethodPost)
	s.router.HandleFunc("/bills", s.handleListBills).Methods(http.MethodGet)
	s.router.HandleFunc("/bills/{id}/pay", s.handlePayBill).Methods(http.MethodPost)
	s.router.HandleFunc("/bills/{id}/cancel", s.handleCancelBill).Methods(http.MethodPost)
	s.router.HandleFunc("/bills/sweep-overdue", s.handleSweepOverdue).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// amountPayload is the wire form of a monetary amount: an exact decimal
// string plus a 3-letter currency code.
type amountPayload struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (a amountPayload) toMoney() (money.Money, error) {
	return money.Parse(a.Amount, a.Currency)
}

func (s *Server) handleOpenAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID         string         `json:"user_id"`
		AccountTypeID  string         `json:"account_type_id"`
		AccountNumber  string         `json:"account_number"`
		Currency       string         `json:"currency"`
		InitialDeposit *amountPayload `json:"initial_deposit"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	open := ledger.OpenAccountRequest{
		UserID:        req.UserID,
		AccountTypeID: req.AccountTypeID,
		AccountNumber: req.AccountNumber,
		Currency:      req.Currency,
	}
	if req.InitialDeposit != nil {
		deposit, err := req.InitialDeposit.toMoney()
		if err != nil {
			s.writeError(w, err)
			return
		}
		open.InitialDeposit = &deposit
	}

	acct, err := s.engine.OpenAccount(r.Context(), open)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.engine.Account(r.Context(), mux.Vars(r)["id"], r.Header.Get(userHeader))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleGetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	acct, err := s.engine.AccountByNumber(r.Context(), mux.Vars(r)["number"], r.Header.Get(userHeader))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.History(r.Context(), mux.Vars(r)["id"], r.Header.Get(userHeader))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		amountPayload
		Description string `json:"description"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := req.toMoney()
	if err != nil {
		s.writeError(w, err)
		return
	}

	acct, err := s.engine.Deposit(r.Context(), ledger.DepositRequest{
		AccountID:    mux.Vars(r)["id"],
		Amount:       amount,
		ActingUserID: r.Header.Get(userHeader),
		Description:  req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		amountPayload
		Description string `json:"description"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := req.toMoney()
	if err != nil {
		s.writeError(w, err)
		return
	}

	acct, err := s.engine.Withdraw(r.Context(), ledger.WithdrawRequest{
		AccountID:    mux.Vars(r)["id"],
		Amount:       amount,
		ActingUserID: r.Header.Get(userHeader),
		Description:  req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleCloseAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.engine.CloseAccount(r.Context(), ledger.CloseAccountRequest{
		AccountID:    mux.Vars(r)["id"],
		ActingUserID: r.Header.Get(userHeader),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleMonthlyFee(w http.ResponseWriter, r *http.Request) {
	acct, err := s.engine.ApplyMonthlyFee(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleInterest(w http.ResponseWriter, r *http.Request) {
	acct, err := s.engine.AccrueInterest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccountID string `json:"from_account_id"`
		ToAccountID   string `json:"to_account_id"`
		amountPayload
		Description string `json:"description"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := req.toMoney()
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.engine.Transfer(r.Context(), ledger.TransferRequest{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		ActingUserID:  r.Header.Get(userHeader),
		Description:   req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		amountPayload
		DueDate   time.Time `json:"due_date"`
		AccountID string    `json:"account_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := req.toMoney()
	if err != nil {
		s.writeError(w, err)
		return
	}

	bill, err := s.engine.CreateBill(r.Context(), ledger.CreateBillRequest{
		UserID:    req.UserID,
		Name:      req.Name,
		Category:  req.Category,
		Amount:    amount,
		DueDate:   req.DueDate,
		AccountID: req.AccountID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is a mandatory field", http.StatusBadRequest)
		return
	}
	status := models.BillStatus(r.URL.Query().Get("status"))

	bills, err := s.engine.Bills(r.Context(), userID, r.Header.Get(userHeader), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.PayBill(r.Context(), ledger.PayBillRequest{
		BillID:       mux.Vars(r)["id"],
		AccountID:    req.AccountID,
		ActingUserID: r.Header.Get(userHeader),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCancelBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.engine.CancelBill(r.Context(), ledger.CancelBillRequest{
		BillID:       mux.Vars(r)["id"],
		ActingUserID: r.Header.Get(userHeader),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleSweepOverdue(w http.ResponseWriter, r *http.Request) {
	marked, err := s.engine.MarkBillsOverdue(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked_overdue": marked})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps the engine's error taxonomy to HTTP status codes. The
// response carries enough detail to correct the request without leaking
// internal state.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrAccountNotFound),
		errors.Is(err, common.ErrAccountTypeNotFound),
		errors.Is(err, common.ErrBillNotFound),
		errors.Is(err, common.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, common.ErrInvalidCurrency),
		errors.Is(err, common.ErrCurrencyMismatch),
		errors.Is(err, common.ErrSameAccount):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrInsufficientFunds),
		errors.Is(err, common.ErrNonZeroBalance),
		errors.Is(err, common.ErrAccountInactive),
		errors.Is(err, common.ErrBillNotPayable),
		errors.Is(err, common.ErrDuplicateEntry),
		errors.Is(err, common.ErrConcurrencyConflict):
		status = http.StatusConflict
	case errors.Is(err, common.ErrOperationTimedOut):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.log.Error("internal error", zap.Error(err))
		http.Error(w, "internal error", status)
		return
	}
	writeJSON(w, status, map[string]any{
		"error":     err.Error(),
		"retryable": common.IsRetryable(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
