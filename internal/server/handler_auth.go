package server

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/me/gobank/internal/store"
	"github.com/me/gobank/pkg/model"
)

// minPasswordLen matches the client-side rule.
const minPasswordLen = 6

var validUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.store.GetUserByName(r.Context(), req.Username)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	// Unknown users and wrong passwords answer the same way.
	if u == nil || !checkPassword(u.PasswordHash, req.Password) {
		respondMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := s.tokens.issue(u.ID, u.Username)
	if err != nil {
		s.logger.Error("sign token", "user_id", u.ID, "error", err)
		respondMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.logger.Info("login", "user_id", u.ID)
	respondOK(w, model.LoginResponse{Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	if !validUsername.MatchString(req.Username) {
		respondJSON(w, http.StatusBadRequest, model.RegisterError{Error: model.RegisterInvalidUsername})
		return
	}
	if len(req.Password) < minPasswordLen {
		respondJSON(w, http.StatusBadRequest, model.RegisterError{Error: model.RegisterPasswordTooShort})
		return
	}
	if s.config.MaxUsers > 0 {
		n, err := s.store.CountUsers(r.Context())
		if err != nil {
			respondStoreError(w, r, s.logger, err)
			return
		}
		if n >= s.config.MaxUsers {
			respondJSON(w, http.StatusBadRequest, model.RegisterError{Error: model.RegisterMaxAccountsReached})
			return
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password", "error", err)
		respondMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	id, err := s.store.CreateUser(r.Context(), req.Username, hash)
	if errors.Is(err, store.ErrUsernameTaken) {
		respondJSON(w, http.StatusBadRequest, model.RegisterError{Error: model.RegisterInvalidUsername})
		return
	}
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	s.logger.Info("user registered", "user_id", id)
	respondMessage(w, http.StatusOK, "User registered successfully")
}

func (s *Server) handleCheckToken(w http.ResponseWriter, r *http.Request) {
	respondOK(w, model.CheckTokenResponse{UserID: UserIDFromContext(r.Context())})
}
