package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// user creates a login with an account holding balance.
func user(t *testing.T, st *SQLiteStore, name, balance string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := st.CreateUser(ctx, name, "hash-"+name)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	if _, err := st.UpsertAccount(ctx, id, name, dec(balance), model.GenderOther); err != nil {
		t.Fatalf("UpsertAccount(%s): %v", name, err)
	}
	return id
}

func balanceOf(t *testing.T, st *SQLiteStore, id int64) decimal.Decimal {
	t.Helper()
	a, err := st.GetAccount(context.Background(), id)
	if err != nil || a == nil {
		t.Fatalf("GetAccount(%d) = %v, %v", id, a, err)
	}
	return a.Balance
}

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	ok, err := hasColumn(context.Background(), st.db, "transactions", "group_id")
	if err != nil || !ok {
		t.Errorf("group_id column missing: %v", err)
	}
}

func TestUsers(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.CreateUser(ctx, "alice", "h1")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := st.CreateUser(ctx, "alice", "h2"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate err = %v, want ErrUsernameTaken", err)
	}

	u, err := st.GetUserByName(ctx, "alice")
	if err != nil || u == nil || u.ID != id || u.PasswordHash != "h1" {
		t.Fatalf("GetUserByName = %+v, %v", u, err)
	}
	if u, err := st.GetUserByName(ctx, "nobody"); err != nil || u != nil {
		t.Errorf("missing user = %+v, %v", u, err)
	}
	if n, _ := st.CountUsers(ctx); n != 1 {
		t.Errorf("CountUsers = %d", n)
	}
}

func TestAccounts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id, _ := st.CreateUser(ctx, "alice", "h")

	if a, err := st.GetAccount(ctx, id); err != nil || a != nil {
		t.Fatalf("account before create = %+v, %v", a, err)
	}
	a, err := st.UpsertAccount(ctx, id, "Alice", dec("100.50"), model.GenderFemale)
	if err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
	if a.Name != "Alice" || !a.Balance.Equal(dec("100.5")) || !a.IsActive || a.Gender != model.GenderFemale {
		t.Errorf("account = %+v", a)
	}

	// Updating the profile keeps the balance.
	a, err = st.UpsertAccount(ctx, id, "Alice B", dec("9999"), model.GenderOther)
	if err != nil {
		t.Fatalf("UpsertAccount update: %v", err)
	}
	if a.Name != "Alice B" || !a.Balance.Equal(dec("100.5")) {
		t.Errorf("updated account = %+v", a)
	}

	if err := st.DeactivateAccount(ctx, id); err != nil {
		t.Fatalf("DeactivateAccount: %v", err)
	}
	if a, _ := st.GetAccount(ctx, id); a.IsActive {
		t.Error("account still active")
	}
	if users, _ := st.ListUsers(ctx); len(users) != 0 {
		t.Errorf("ListUsers = %+v, inactive accounts are hidden", users)
	}
}

func TestTransfer(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	alice := user(t, st, "alice", "100.00")
	bob := user(t, st, "bob", "5")

	got, err := st.Transfer(ctx, alice, bob, dec("40.25"))
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !got.Equal(dec("59.75")) || !balanceOf(t, st, alice).Equal(dec("59.75")) {
		t.Errorf("sender balance = %s", got)
	}
	if b := balanceOf(t, st, bob); !b.Equal(dec("45.25")) {
		t.Errorf("recipient balance = %s", b)
	}

	txs, err := st.Transactions(ctx, alice)
	if err != nil || len(txs) != 1 {
		t.Fatalf("Transactions = %+v, %v", txs, err)
	}
	if txs[0].From != "alice" || txs[0].To != "bob" || !txs[0].Amount.Equal(dec("-40.25")) || txs[0].Type != model.TransactionTypeUser {
		t.Errorf("sender entry = %+v", txs[0])
	}
	if txs[0].Time.IsZero() {
		t.Error("transaction time not set")
	}
	if txs, _ := st.Transactions(ctx, bob); len(txs) != 1 || !txs[0].Amount.IsPositive() {
		t.Errorf("recipient entries = %+v", txs)
	}

	tests := []struct {
		name    string
		from    int64
		to      int64
		amount  string
		wantErr error
	}{
		{"insufficient", bob, alice, "1000", ErrInsufficientFunds},
		{"unknown recipient", alice, 999, "1", ErrUnknownRecipient},
		{"self", alice, alice, "1", ErrSelfTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := balanceOf(t, st, tt.from)
			if _, err := st.Transfer(ctx, tt.from, tt.to, dec(tt.amount)); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if after := balanceOf(t, st, tt.from); !after.Equal(before) {
				t.Errorf("balance changed from %s to %s on failure", before, after)
			}
		})
	}
}

func TestGroups(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	alice := user(t, st, "alice", "100")
	bob := user(t, st, "bob", "50")
	carol := user(t, st, "carol", "0")

	created, err := st.CreateGroup(ctx, alice, "Trip", "summer", dec("30"), []int64{bob, bob, alice})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if created.GroupID == 0 || created.Name != "Trip" || !created.Balance.Equal(dec("30")) {
		t.Errorf("created = %+v", created)
	}
	if b := balanceOf(t, st, alice); !b.Equal(dec("70")) {
		t.Errorf("admin balance = %s, want 70", b)
	}

	g, err := st.GetGroup(ctx, created.GroupID)
	if err != nil || g == nil {
		t.Fatalf("GetGroup = %v, %v", g, err)
	}
	if g.AdminID != alice || g.AdminName != "alice" || len(g.Members) != 2 || !g.Members[0].IsAdmin || g.Members[0].UserID != alice {
		t.Errorf("group = %+v", g)
	}

	if err := st.AddMember(ctx, created.GroupID, carol); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := st.AddMember(ctx, created.GroupID, carol); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second add err = %v", err)
	}

	out, err := st.FundGroup(ctx, bob, created.GroupID, dec("20"), "fuel")
	if err != nil {
		t.Fatalf("FundGroup: %v", err)
	}
	if !out.UserAmount.Equal(dec("30")) || !out.GroupAmount.Equal(dec("50")) {
		t.Errorf("fund = %+v", out)
	}
	if _, err := st.FundGroup(ctx, carol, created.GroupID, dec("1"), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("broke member err = %v", err)
	}

	pay, err := st.PayFromGroup(ctx, created.GroupID, carol, dec("15"), "tickets")
	if err != nil {
		t.Fatalf("PayFromGroup: %v", err)
	}
	if pay.GroupName != "Trip" || pay.ToAccount != "carol" || !pay.Amount.Equal(dec("15")) {
		t.Errorf("payment = %+v", pay)
	}
	if b := balanceOf(t, st, carol); !b.Equal(dec("15")) {
		t.Errorf("carol balance = %s", b)
	}
	if _, err := st.PayFromGroup(ctx, created.GroupID, carol, dec("1000"), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overdraw err = %v", err)
	}

	if err := st.RemoveMember(ctx, created.GroupID, carol); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := st.RemoveMember(ctx, created.GroupID, carol); !errors.Is(err, ErrNotMember) {
		t.Errorf("second remove err = %v", err)
	}
	if _, err := st.FundGroup(ctx, carol, created.GroupID, dec("1"), ""); !errors.Is(err, ErrNotMember) {
		t.Errorf("non-member fund err = %v", err)
	}

	// Closing refunds the remaining 35 to the admin.
	if err := st.DeactivateGroup(ctx, created.GroupID); err != nil {
		t.Fatalf("DeactivateGroup: %v", err)
	}
	if b := balanceOf(t, st, alice); !b.Equal(dec("105")) {
		t.Errorf("admin balance after close = %s, want 105", b)
	}
	g, _ = st.GetGroup(ctx, created.GroupID)
	if g.IsActive || !g.Balance.IsZero() {
		t.Errorf("closed group = %+v", g)
	}
	if err := st.AddMember(ctx, created.GroupID, carol); !errors.Is(err, ErrGroupInactive) {
		t.Errorf("add to closed group err = %v", err)
	}
}

func TestCreateGroup_Failures(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	alice := user(t, st, "alice", "10")

	if _, err := st.CreateGroup(ctx, alice, "Big", "", dec("11"), nil); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("err = %v", err)
	}
	if _, err := st.CreateGroup(ctx, alice, "Ghosts", "", dec("0"), []int64{404}); !errors.Is(err, ErrUnknownRecipient) {
		t.Errorf("unknown member err = %v", err)
	}
	if b := balanceOf(t, st, alice); !b.Equal(dec("10")) {
		t.Errorf("balance = %s after failed creates", b)
	}
	if g, _ := st.GetGroup(ctx, 1); g != nil {
		t.Errorf("rolled back group persisted: %+v", g)
	}
}
