// Package server implements development stubs of the two remote services the
// client talks to: the authentication service and the banking/groups service.
// Both share one store; each is exposed as its own http.Handler so they can
// listen on separate addresses.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/gobank/internal/config"
	"github.com/me/gobank/internal/store"
	"github.com/me/gobank/pkg/bankapi"
)

// Server holds the state shared by the auth and bank routers.
type Server struct {
	auth      chi.Router
	bank      chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	tokens    *tokens
}

// New creates a Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		auth:      chi.NewRouter(),
		bank:      chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		tokens:    newTokens(cfg.JWTSecret, cfg.TokenTTL),
	}
	s.authRoutes()
	s.bankRoutes()
	return s
}

// AuthHandler returns the http.Handler of the authentication service.
func (s *Server) AuthHandler() http.Handler {
	return s.auth
}

// BankHandler returns the http.Handler of the banking/groups service.
func (s *Server) BankHandler() http.Handler {
	return s.bank
}

func (s *Server) middleware(r chi.Router, service string) {
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger.With("service", service)))
}

func (s *Server) authRoutes() {
	r := s.auth
	s.middleware(r, "auth")

	r.Get("/health", s.handleHealth)
	r.Post(bankapi.PathLogin, s.handleLogin)
	r.Post(bankapi.PathRegister, s.handleRegister)
	r.With(authMiddleware(s.tokens, s.logger)).Post(bankapi.PathCheckToken, s.handleCheckToken)
}

func (s *Server) bankRoutes() {
	r := s.bank
	s.middleware(r, "bank")

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.tokens, s.logger))

		// Account
		r.Post(bankapi.PathAccountCreate, s.handleAddOrUpdateAccount)
		r.Get(bankapi.PathAccountInfo, s.handleGetAccount)
		r.Post(bankapi.PathAccountDeactivate, s.handleDeactivateAccount)
		r.Post(bankapi.PathAccountFundGroup, s.handleFundGroup)
		r.Get(bankapi.PathAccountTransactions, s.handleTransactionHistory)
		r.Post(bankapi.PathAccountTransfer, s.handleTransfer)
		r.Get(bankapi.PathAccountUsers, s.handleListUsers)

		// Groups
		r.Post(bankapi.PathGroupCreate, s.handleCreateGroup)
		r.Post(bankapi.PathGroupCreateWithMembers, s.handleCreateGroupWithMembers)
		r.Post(bankapi.PathGroupAddMember, s.handleAddMember)
		r.Post(bankapi.PathGroupRemoveMember, s.handleRemoveMember)
		r.Post(bankapi.PathGroupPayment, s.handleGroupPayment)
		r.Post(bankapi.PathGroupDeactivate, s.handleDeactivateGroup)
		r.Post(bankapi.PathGroupDetails, s.handleGroupDetails)
	})
}
