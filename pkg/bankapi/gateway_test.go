package bankapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// jsonHandler answers every request with status and body.
func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantToken string
		wantKind  model.ErrorKind
	}{
		{"success", http.StatusOK, `{"token":"jwt-abc"}`, "jwt-abc", ""},
		{"unauthorized", http.StatusUnauthorized, ``, "", model.KindInvalidCredentials},
		{"bad request", http.StatusBadRequest, `{"message":"bad"}`, "", model.KindInvalidCredentials},
		{"server error", http.StatusInternalServerError, `boom`, "", model.KindServer},
		{"empty token", http.StatusOK, `{}`, "", model.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			var gotBody model.Credentials
			auth := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				json.NewDecoder(r.Body).Decode(&gotBody)
				jsonHandler(tt.status, tt.body).ServeHTTP(w, r)
			})
			c := newTestClient(t, auth, nil)

			token, err := c.Login(context.Background(), "alice", "pw")
			if gotPath != PathLogin {
				t.Errorf("path = %q, want %q", gotPath, PathLogin)
			}
			if gotBody.Username != "alice" || gotBody.Password != "pw" {
				t.Errorf("body = %+v", gotBody)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
			if got := model.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %q, want %q (err=%v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestLogin_NetworkFailure(t *testing.T) {
	c := newTestClient(t, nil, nil) // both URLs unreachable
	_, err := c.Login(context.Background(), "alice", "pw")
	if !model.IsKind(err, model.KindNetwork) {
		t.Fatalf("kind = %q, want NETWORK_FAILURE (err=%v)", model.KindOf(err), err)
	}
}

func TestRegister_DescribesRejection(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusBadRequest, `{"error":"TOO_SHORT_PASSWORD"}`), nil)
	err := c.Register(context.Background(), "bob", "x")
	if !model.IsKind(err, model.KindValidation) {
		t.Fatalf("kind = %q, want VALIDATION_FAILURE", model.KindOf(err))
	}
	if got := model.UserMessage(err); got != "password is too short" {
		t.Errorf("message = %q", got)
	}

	c = newTestClient(t, jsonHandler(http.StatusCreated, `{"username":"bob","userRegisterd":3}`), nil)
	if err := c.Register(context.Background(), "bob", "longpassword"); err != nil {
		t.Errorf("Register: %v", err)
	}
}

func TestCheckToken(t *testing.T) {
	var gotAuth string
	auth := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		jsonHandler(http.StatusOK, `{"userId":7}`).ServeHTTP(w, r)
	})
	c := newTestClient(t, auth, nil)
	id, err := c.CheckToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("CheckToken: %v", err)
	}
	if id != 7 {
		t.Errorf("userId = %d, want 7", id)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest} {
		c := newTestClient(t, jsonHandler(status, ``), nil)
		if _, err := c.CheckToken(context.Background(), "tok"); !model.IsKind(err, model.KindSessionExpired) {
			t.Errorf("status %d: kind = %q, want SESSION_EXPIRED", status, model.KindOf(err))
		}
	}
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	hits := 0
	bank := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ })
	c := newTestClient(t, nil, bank)
	_, err := c.ViewAccount(context.Background(), "")
	if !model.IsKind(err, model.KindNotAuthenticated) {
		t.Errorf("kind = %q, want NOT_AUTHENTICATED", model.KindOf(err))
	}
	if hits != 0 {
		t.Errorf("request sent without a token")
	}
}

func TestViewAccount(t *testing.T) {
	c := newTestClient(t, nil, jsonHandler(http.StatusOK, `{"name":"Alice","balance":1250.50,"isActive":true,"gender":2}`))
	acct, err := c.ViewAccount(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ViewAccount: %v", err)
	}
	if acct.Name != "Alice" || !acct.IsActive || acct.Gender != model.GenderFemale {
		t.Errorf("account = %+v", acct)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("1250.5")) {
		t.Errorf("balance = %s", acct.Balance)
	}

	tests := []struct {
		status int
		want   model.ErrorKind
	}{
		{http.StatusNotFound, model.KindProfileMissing},
		{http.StatusUnauthorized, model.KindSessionExpired},
		{http.StatusBadRequest, model.KindValidation},
		{http.StatusBadGateway, model.KindServer},
	}
	for _, tt := range tests {
		c := newTestClient(t, nil, jsonHandler(tt.status, ``))
		_, err := c.ViewAccount(context.Background(), "tok")
		if got := model.KindOf(err); got != tt.want {
			t.Errorf("status %d: kind = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTransfer_ServerMessageSurfaced(t *testing.T) {
	var got model.TransferRequest
	bank := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathAccountTransfer || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		jsonHandler(http.StatusBadRequest, `{"message":"insufficient balance"}`).ServeHTTP(w, r)
	})
	c := newTestClient(t, nil, bank)
	_, err := c.Transfer(context.Background(), "tok", 5, decimal.RequireFromString("100.00"))
	if !model.IsKind(err, model.KindValidation) {
		t.Fatalf("kind = %q", model.KindOf(err))
	}
	if msg := model.UserMessage(err); msg != "insufficient balance" {
		t.Errorf("message = %q", msg)
	}
	if got.DestinationID != 5 || !got.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("request body = %+v", got)
	}
}

func TestTransactionHistory_NullListIsEmpty(t *testing.T) {
	c := newTestClient(t, nil, jsonHandler(http.StatusOK, `{"transactionHistory":null}`))
	txns, err := c.TransactionHistory(context.Background(), "tok")
	if err != nil {
		t.Fatalf("TransactionHistory: %v", err)
	}
	if txns == nil || len(txns) != 0 {
		t.Errorf("txns = %#v, want empty non-nil slice", txns)
	}
}

func TestCreateGroupWithMembers_SendsStringIDs(t *testing.T) {
	var raw map[string]any
	bank := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		jsonHandler(http.StatusOK, `{"groupId":11,"name":"trip","balance":0}`).ServeHTTP(w, r)
	})
	c := newTestClient(t, nil, bank)
	g, err := c.CreateGroupWithMembers(context.Background(), "tok", "trip", "", []int64{3, 4})
	if err != nil {
		t.Fatalf("CreateGroupWithMembers: %v", err)
	}
	if g.GroupID != 11 {
		t.Errorf("groupId = %d", g.GroupID)
	}
	ids, _ := raw["memberIds"].([]any)
	if len(ids) != 2 || ids[0] != "3" || ids[1] != "4" {
		t.Errorf("memberIds = %#v", raw["memberIds"])
	}
	if _, ok := raw["description"]; ok {
		t.Error("empty description should be omitted")
	}
}

func TestGroupDetails(t *testing.T) {
	body := `{"groupId":3,"groupName":"rent","balance":"40.00","adminId":7,"adminName":"alice",
		"members":[{"userId":7,"userName":"alice","isAdmin":true},{"userId":9,"userName":"bob","isAdmin":false}]}`
	var gotBody model.GroupIDRequest
	bank := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		jsonHandler(http.StatusOK, body).ServeHTTP(w, r)
	})
	c := newTestClient(t, nil, bank)
	g, err := c.GroupDetails(context.Background(), "tok", 3)
	if err != nil {
		t.Fatalf("GroupDetails: %v", err)
	}
	if gotBody.GroupID != 3 {
		t.Errorf("request groupId = %d", gotBody.GroupID)
	}
	if g.Name != "rent" || len(g.Members) != 2 || g.Members[1].UserName != "bob" {
		t.Errorf("group = %+v", g)
	}
}

func TestListUsers(t *testing.T) {
	c := newTestClient(t, nil, jsonHandler(http.StatusOK, `[{"userId":1,"name":"a"},{"userId":2,"name":"b"}]`))
	users, err := c.ListUsers(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[1].Name != "b" {
		t.Errorf("users = %+v", users)
	}
}
