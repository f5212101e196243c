package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/me/gobank/internal/config"
	"github.com/me/gobank/internal/store"
	"github.com/me/gobank/pkg/bankapi"
	"github.com/me/gobank/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(cfg, st, testLogger())
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return v
}

// signup registers and logs in a user, optionally creating an account.
func signup(t *testing.T, srv *Server, username, balance string) string {
	t.Helper()
	creds := model.Credentials{Username: username, Password: "secret-" + username}
	if w := do(t, srv.AuthHandler(), "POST", bankapi.PathRegister, "", creds); w.Code != http.StatusOK {
		t.Fatalf("register %s: status=%d body=%s", username, w.Code, w.Body.String())
	}
	w := do(t, srv.AuthHandler(), "POST", bankapi.PathLogin, "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status=%d body=%s", username, w.Code, w.Body.String())
	}
	token := decode[model.LoginResponse](t, w).Token
	if balance != "" {
		body := map[string]any{"name": username, "balance": balance}
		if w := do(t, srv.BankHandler(), "POST", bankapi.PathAccountCreate, token, body); w.Code != http.StatusOK {
			t.Fatalf("create account %s: status=%d body=%s", username, w.Code, w.Body.String())
		}
	}
	return token
}

func userID(t *testing.T, srv *Server, token string) int64 {
	t.Helper()
	w := do(t, srv.AuthHandler(), "POST", bankapi.PathCheckToken, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("check-token: status=%d", w.Code)
	}
	return decode[model.CheckTokenResponse](t, w).UserID
}

func TestHealth(t *testing.T) {
	srv := testServer(t, config.DefaultServerConfig())
	for _, h := range []http.Handler{srv.AuthHandler(), srv.BankHandler()} {
		w := do(t, h, "GET", "/health", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if got := decode[healthResponse](t, w); got.Status != "healthy" {
			t.Errorf("health = %+v", got)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header missing")
		}
	}
}

func TestRequestID_Propagated(t *testing.T) {
	srv := testServer(t, config.DefaultServerConfig())
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	srv.BankHandler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestRegister(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.MaxUsers = 2
	srv := testServer(t, cfg)
	signup(t, srv, "alice", "")

	tests := []struct {
		name     string
		username string
		password string
		want     model.RegisterErrorCode
	}{
		{"too short username", "al", "secret1", model.RegisterInvalidUsername},
		{"bad characters", "al ice", "secret1", model.RegisterInvalidUsername},
		{"taken", "alice", "secret1", model.RegisterInvalidUsername},
		{"short password", "bobby", "12345", model.RegisterPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv.AuthHandler(), "POST", bankapi.PathRegister, "",
				model.Credentials{Username: tt.username, Password: tt.password})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if got := decode[model.RegisterError](t, w).Error; got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}

	signup(t, srv, "bob", "")
	w := do(t, srv.AuthHandler(), "POST", bankapi.PathRegister, "", model.Credentials{Username: "carol", Password: "secret1"})
	if got := decode[model.RegisterError](t, w).Error; got != model.RegisterMaxAccountsReached {
		t.Errorf("over limit error = %q", got)
	}
}

func TestLogin(t *testing.T) {
	srv := testServer(t, config.DefaultServerConfig())
	token := signup(t, srv, "alice", "")

	for _, creds := range []model.Credentials{
		{Username: "alice", Password: "wrong"},
		{Username: "nobody", Password: "secret-alice"},
	} {
		w := do(t, srv.AuthHandler(), "POST", bankapi.PathLogin, "", creds)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("login %q: status = %d, want 401", creds.Username, w.Code)
		}
	}

	if id := userID(t, srv, token); id <= 0 {
		t.Errorf("check-token user id = %d", id)
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.DefaultServerConfig()
	srv := testServer(t, cfg)
	token := signup(t, srv, "alice", "10")

	stale := newTokens(cfg.JWTSecret, time.Minute)
	stale.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := stale.issue(1, "alice")
	forged, _ := newTokens("other-secret", time.Hour).issue(1, "alice")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"valid", token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong secret", forged, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, srv.BankHandler(), "GET", bankapi.PathAccountInfo, tt.token, nil); w.Code != tt.want {
				t.Errorf("bank status = %d, want %d", w.Code, tt.want)
			}
			if w := do(t, srv.AuthHandler(), "POST", bankapi.PathCheckToken, tt.token, nil); w.Code != tt.want {
				t.Errorf("check-token status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAccountHandlers(t *testing.T) {
	srv := testServer(t, config.DefaultServerConfig())
	bank := srv.BankHandler()
	alice := signup(t, srv, "alice", "")

	if w := do(t, bank, "GET", bankapi.PathAccountInfo, alice, nil); w.Code != http.StatusNotFound {
		t.Fatalf("info before create: status = %d, want 404", w.Code)
	}
	for _, body := range []map[string]any{
		{"name": " ", "balance": "1"},
		{"name": "Alice", "balance": "-1"},
		{"name": "Alice", "balance": "1", "gender": 7},
	} {
		if w := do(t, bank, "POST", bankapi.PathAccountCreate, alice, body); w.Code != http.StatusBadRequest {
			t.Errorf("create %v: status = %d, want 400", body, w.Code)
		}
	}
	if w := do(t, bank, "POST", bankapi.PathAccountCreate, alice, map[string]any{"name": "Alice", "balance": "100.50", "gender": 2}); w.Code != http.StatusOK {
		t.Fatalf("create: status = %d body=%s", w.Code, w.Body.String())
	}
	acct := decode[model.Account](t, do(t, bank, "GET", bankapi.PathAccountInfo, alice, nil))
	if acct.Name != "Alice" || acct.Balance.String() != "100.5" || acct.Gender != model.GenderFemale || !acct.IsActive {
		t.Errorf("account = %+v", acct)
	}

	bob := signup(t, srv, "bob", "0")
	bobID := userID(t, srv, bob)

	w := do(t, bank, "POST", bankapi.PathAccountTransfer, alice, map[string]any{"destinationId": bobID, "amount": "1000"})
	if w.Code != http.StatusBadRequest || !strings.Contains(decode[model.MessageResponse](t, w).Message, "Insufficient") {
		t.Errorf("overdraft: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(t, bank, "POST", bankapi.PathAccountTransfer, alice, map[string]any{"destinationId": bobID, "amount": "0"}); w.Code != http.StatusBadRequest {
		t.Errorf("zero transfer: status = %d", w.Code)
	}
	w = do(t, bank, "POST", bankapi.PathAccountTransfer, alice, map[string]any{"destinationId": bobID, "amount": "0.5"})
	if w.Code != http.StatusOK {
		t.Fatalf("transfer: status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[model.TransferResponse](t, w); got.NewBalance.String() != "100" {
		t.Errorf("transfer = %+v", got)
	}

	hist := decode[model.TransactionHistoryResponse](t, do(t, bank, "GET", bankapi.PathAccountTransactions, bob, nil))
	if len(hist.TransactionHistory) != 1 || hist.TransactionHistory[0].Type != model.TransactionTypeUser {
		t.Errorf("bob history = %+v", hist)
	}
	users := decode[[]model.UserSummary](t, do(t, bank, "GET", bankapi.PathAccountUsers, bob, nil))
	if len(users) != 2 {
		t.Errorf("users = %+v", users)
	}

	if w := do(t, bank, "POST", bankapi.PathAccountDeactivate, bob, nil); w.Code != http.StatusOK {
		t.Errorf("deactivate: status = %d", w.Code)
	}
	if acct := decode[model.Account](t, do(t, bank, "GET", bankapi.PathAccountInfo, bob, nil)); acct.IsActive {
		t.Errorf("deactivated account = %+v", acct)
	}
}

func TestGroupPermissions(t *testing.T) {
	srv := testServer(t, config.DefaultServerConfig())
	bank := srv.BankHandler()
	alice := signup(t, srv, "alice", "100")
	bob := signup(t, srv, "bob", "10")
	bobID := userID(t, srv, bob)

	w := do(t, bank, "POST", bankapi.PathGroupCreate, alice, map[string]any{"name": "Trip", "initialBalance": "20"})
	if w.Code != http.StatusOK {
		t.Fatalf("create group: status=%d body=%s", w.Code, w.Body.String())
	}
	g := decode[model.GroupCreated](t, w)
	byID := model.GroupIDRequest{GroupID: g.GroupID}

	if w := do(t, bank, "POST", bankapi.PathGroupDetails, bob, byID); w.Code != http.StatusForbidden {
		t.Errorf("details by non-member: status = %d, want 403", w.Code)
	}
	if w := do(t, bank, "POST", bankapi.PathGroupAddMember, bob, model.AddMemberRequest{GroupID: g.GroupID, UserIDToAdd: bobID}); w.Code != http.StatusForbidden {
		t.Errorf("add by non-admin: status = %d, want 403", w.Code)
	}
	if w := do(t, bank, "POST", bankapi.PathGroupAddMember, alice, model.AddMemberRequest{GroupID: g.GroupID, UserIDToAdd: bobID}); w.Code != http.StatusOK {
		t.Fatalf("add member: status=%d body=%s", w.Code, w.Body.String())
	}

	details := decode[model.Group](t, do(t, bank, "POST", bankapi.PathGroupDetails, bob, byID))
	if details.Name != "Trip" || len(details.Members) != 2 || !details.Members[0].IsAdmin {
		t.Errorf("details = %+v", details)
	}

	if w := do(t, bank, "POST", bankapi.PathGroupRemoveMember, alice, model.RemoveMemberRequest{GroupID: g.GroupID, UserIDToRemove: details.AdminID}); w.Code != http.StatusBadRequest {
		t.Errorf("remove admin: status = %d, want 400", w.Code)
	}
	if w := do(t, bank, "POST", bankapi.PathGroupPayment, bob, map[string]any{"groupId": g.GroupID, "amount": "1", "account": bobID}); w.Code != http.StatusForbidden {
		t.Errorf("payment by non-admin: status = %d, want 403", w.Code)
	}
	if w := do(t, bank, "POST", bankapi.PathGroupDetails, alice, model.GroupIDRequest{GroupID: 999}); w.Code != http.StatusNotFound {
		t.Errorf("missing group: status = %d, want 404", w.Code)
	}
	if w := do(t, bank, "POST", bankapi.PathGroupCreateWithMembers, alice, map[string]any{"name": "X", "memberIds": []string{"abc"}}); w.Code != http.StatusBadRequest {
		t.Errorf("bad member id: status = %d, want 400", w.Code)
	}

	if w := do(t, bank, "POST", bankapi.PathGroupDeactivate, alice, byID); w.Code != http.StatusOK {
		t.Fatalf("deactivate: status = %d", w.Code)
	}
	if w := do(t, bank, "POST", bankapi.PathGroupDetails, alice, byID); w.Code != http.StatusNotFound {
		t.Errorf("details of closed group: status = %d, want 404", w.Code)
	}
}
