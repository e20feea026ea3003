package api

import (
	"net/http"

	"github.com/hayatos/hayatos/internal/auth"
	"github.com/hayatos/hayatos/internal/finance"
	"github.com/shopspring/decimal"
)

func (s *Server) registerFinanceRoutes(authed func(pattern string, h http.HandlerFunc)) {
	authed("GET /api/finance/accounts", s.handleListAccounts)
	authed("POST /api/finance/accounts", s.handleCreateAccount)
	authed("DELETE /api/finance/accounts/{id}", s.handleDeleteAccount)

	authed("GET /api/finance/transactions", s.handleListTransactions)
	authed("POST /api/finance/transactions", s.handleCreateTransaction)
	authed("DELETE /api/finance/transactions/{id}", s.handleDeleteTransaction)

	authed("GET /api/finance/budgets", s.handleListBudgets)
	authed("POST /api/finance/budgets", s.handleCreateBudget)
	authed("DELETE /api/finance/budgets/{id}", s.handleDeleteBudget)

	authed("GET /api/finance/goals", s.handleListGoals)
	authed("POST /api/finance/goals", s.handleCreateGoal)
	authed("PUT /api/finance/goals/{id}/saved", s.handleUpdateGoalSaved)
	authed("DELETE /api/finance/goals/{id}", s.handleDeleteGoal)

	authed("GET /api/finance/bills", s.handleListBills)
	authed("POST /api/finance/bills", s.handleCreateBill)
	authed("PUT /api/finance/bills/{id}/paid", s.handleSetBillPaid)
	authed("DELETE /api/finance/bills/{id}", s.handleDeleteBill)

	authed("GET /api/finance/investments", s.handleListInvestments)
	authed("POST /api/finance/investments", s.handleCreateInvestment)
	authed("DELETE /api/finance/investments/{id}", s.handleDeleteInvestment)

	authed("GET /api/finance/loans", s.handleListLoans)
	authed("POST /api/finance/loans", s.handleCreateLoan)
	authed("DELETE /api/finance/loans/{id}", s.handleDeleteLoan)

	authed("GET /api/finance/ledger", s.handleListLedger)
	authed("POST /api/finance/ledger", s.handleCreateLedgerEntry)
	authed("DELETE /api/finance/ledger/{id}", s.handleDeleteLedgerEntry)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListAccounts(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var req struct {
		Name     string          `json:"name"`
		Type     string          `json:"type"`
		Balance  decimal.Decimal `json:"balance"`
		Currency string          `json:"currency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Finance.CreateAccount(r.Context(), udb, req.Name, req.Type, req.Balance, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteAccount(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListTransactions(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in finance.Transaction
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Finance.CreateTransaction(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteTransaction(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListBudgets(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var req struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Period   string          `json:"period"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.Finance.CreateBudget(r.Context(), udb, req.Category, req.Amount, req.Period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteBudget(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListGoals(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in finance.Goal
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.Finance.CreateGoal(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGoalSaved(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var req struct {
		SavedAmount decimal.Decimal `json:"savedAmount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Finance.UpdateGoalSaved(r.Context(), udb, r.PathValue("id"), req.SavedAmount); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteGoal(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListBills(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in finance.Bill
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.Finance.CreateBill(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleSetBillPaid(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var req struct {
		Paid bool `json:"paid"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Finance.SetBillPaid(r.Context(), udb, r.PathValue("id"), req.Paid); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteBill(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListInvestments(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in finance.Investment
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Finance.CreateInvestment(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteInvestment(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListLoans(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in finance.Loan
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.Finance.CreateLoan(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteLoan(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	list, err := s.Finance.ListLedger(r.Context(), udb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	var in finance.LedgerEntry
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.Finance.CreateLedgerEntry(r.Context(), udb, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteLedgerEntry(w http.ResponseWriter, r *http.Request) {
	udb := auth.GetUserDB(r.Context())
	if err := s.Finance.DeleteLedgerEntry(r.Context(), udb, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
