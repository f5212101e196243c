package server

import (
	"net/http"
	"strings"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

func (s *Server) handleAddOrUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req model.AccountInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Balance.IsNegative() {
		respondMessage(w, http.StatusBadRequest, "Balance cannot be negative")
		return
	}
	gender := model.GenderOther
	if req.Gender != nil {
		gender = *req.Gender
	}
	if gender < model.GenderOther || gender > model.GenderFemale {
		respondMessage(w, http.StatusBadRequest, "Invalid gender")
		return
	}

	acct, err := s.store.UpsertAccount(r.Context(), UserIDFromContext(r.Context()), name, req.Balance, gender)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondOK(w, acct)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	if acct == nil {
		respondMessage(w, http.StatusNotFound, "Account not found")
		return
	}
	respondOK(w, acct)
}

func (s *Server) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeactivateAccount(r.Context(), UserIDFromContext(r.Context())); err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "Account deactivated")
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if !decodeJSON(w, r, &req) || !requirePositive(w, req.Amount) {
		return
	}
	userID := UserIDFromContext(r.Context())
	balance, err := s.store.Transfer(r.Context(), userID, req.DestinationID, req.Amount)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondOK(w, model.TransferResponse{UserID: userID, NewBalance: balance})
}

func (s *Server) handleFundGroup(w http.ResponseWriter, r *http.Request) {
	var req model.FundGroupRequest
	if !decodeJSON(w, r, &req) || !requirePositive(w, req.Amount) {
		return
	}
	out, err := s.store.FundGroup(r.Context(), UserIDFromContext(r.Context()), req.GroupID, req.Amount, req.Description)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondOK(w, out)
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.Transactions(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	respondOK(w, model.TransactionHistoryResponse{TransactionHistory: txs})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	if users == nil {
		users = []model.UserSummary{}
	}
	respondOK(w, users)
}

// requirePositive answers 400 unless amount > 0.
func requirePositive(w http.ResponseWriter, amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		respondMessage(w, http.StatusBadRequest, "Amount must be positive")
		return false
	}
	return true
}
