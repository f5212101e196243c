package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	s.logger.Debug("sql", "op", "insert", "table", "users")

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetUserByName(ctx context.Context, username string) (*User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users")

	var u User
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &u, nil
}

func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// --- Accounts ---

func (s *SQLiteStore) UpsertAccount(ctx context.Context, userID int64, name string, balance decimal.Decimal, gender int) (*model.Account, error) {
	s.logger.Debug("sql", "op", "upsert", "table", "accounts", "user_id", userID)

	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, balance, is_active, gender, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, gender = excluded.gender, updated_at = excluded.updated_at`,
		userID, name, balance.String(), gender, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return s.GetAccount(ctx, userID)
}

func (s *SQLiteStore) GetAccount(ctx context.Context, userID int64) (*model.Account, error) {
	return getAccount(ctx, s.db, userID)
}

func getAccount(ctx context.Context, q querier, userID int64) (*model.Account, error) {
	var a model.Account
	var balance string
	err := q.QueryRowContext(ctx,
		`SELECT name, balance, is_active, gender FROM accounts WHERE user_id = ?`, userID,
	).Scan(&a.Name, &balance, &a.IsActive, &a.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("account %d balance: %w", userID, err)
	}
	return &a, nil
}

func (s *SQLiteStore) DeactivateAccount(ctx context.Context, userID int64) error {
	s.logger.Debug("sql", "op", "update", "table", "accounts", "user_id", userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0, updated_at = ? WHERE user_id = ?`, now(), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d not found", userID)
	}
	return nil
}

// ListUsers returns every user with an active account, ordered by id.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, name FROM accounts WHERE is_active = 1 ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.UserID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Transactions returns a user's ledger entries, newest first.
func (s *SQLiteStore) Transactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_name, to_name, amount, type, created_at FROM transactions
		 WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var amount, typ, createdAt string
		if err := rows.Scan(&t.From, &t.To, &amount, &typ, &createdAt); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction amount: %w", err)
		}
		t.Type = model.TransactionType(typ)
		ts, _ := time.Parse(time.RFC3339Nano, createdAt)
		t.Time = model.NewDate(ts)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// --- Groups ---

func (s *SQLiteStore) GetGroup(ctx context.Context, groupID int64) (*GroupRecord, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q querier, groupID int64) (*GroupRecord, error) {
	var g GroupRecord
	var balance string
	err := q.QueryRowContext(ctx,
		`SELECT g.id, g.name, g.description, g.balance, g.admin_id, COALESCE(a.name, u.username), g.is_active
		 FROM bank_groups g
		 JOIN users u ON u.id = g.admin_id
		 LEFT JOIN accounts a ON a.user_id = g.admin_id
		 WHERE g.id = ?`, groupID,
	).Scan(&g.ID, &g.Name, &g.Description, &balance, &g.AdminID, &g.AdminName, &g.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if g.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("group %d balance: %w", groupID, err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT m.user_id, COALESCE(a.name, u.username), m.is_admin
		 FROM group_members m
		 JOIN users u ON u.id = m.user_id
		 LEFT JOIN accounts a ON a.user_id = m.user_id
		 WHERE m.group_id = ?
		 ORDER BY m.is_admin DESC, m.joined_at, m.user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	g.Members = []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.UserID, &m.UserName, &m.IsAdmin); err != nil {
			return nil, err
		}
		g.Members = append(g.Members, m)
	}
	return &g, rows.Err()
}

func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID int64) error {
	s.logger.Debug("sql", "op", "insert", "table", "group_members", "group_id", groupID, "user_id", userID)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := activeGroup(ctx, tx, groupID); err != nil {
			return err
		}
		if _, err := activeAccount(ctx, tx, userID, ErrUnknownRecipient); err != nil {
			return err
		}
		if member, err := isMember(ctx, tx, groupID, userID); err != nil {
			return err
		} else if member {
			return ErrAlreadyMember
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, is_admin, joined_at) VALUES (?, ?, 0, ?)`,
			groupID, userID, now())
		return err
	})
}

func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	s.logger.Debug("sql", "op", "delete", "table", "group_members", "group_id", groupID, "user_id", userID)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotMember
	}
	return nil
}

// DeactivateGroup closes a group and returns any remaining balance to its admin.
func (s *SQLiteStore) DeactivateGroup(ctx context.Context, groupID int64) error {
	s.logger.Debug("sql", "op", "update", "table", "bank_groups", "group_id", groupID)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := activeGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if g.Balance.IsPositive() {
			admin, err := getAccount(ctx, tx, g.AdminID)
			if err != nil {
				return err
			}
			if admin != nil {
				if err := setAccountBalance(ctx, tx, g.AdminID, admin.Balance.Add(g.Balance)); err != nil {
					return err
				}
				if err := record(ctx, tx, g.AdminID, g.Name, admin.Name, g.Balance, model.TransactionTypeGroup, groupID, "group closed"); err != nil {
					return err
				}
			}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE bank_groups SET is_active = 0, balance = '0' WHERE id = ?`, groupID)
		return err
	})
}

// --- helpers ---

// inTx runs fn in a transaction, committing only if fn returns nil.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// activeAccount loads an account that must exist and be active. missing is
// returned when there is no usable account.
func activeAccount(ctx context.Context, q querier, userID int64, missing error) (*model.Account, error) {
	a, err := getAccount(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, missing
	}
	if !a.IsActive {
		if missing == ErrUnknownRecipient {
			return nil, missing
		}
		return nil, ErrAccountInactive
	}
	return a, nil
}

// activeGroup loads a group that must exist and be active.
func activeGroup(ctx context.Context, q querier, groupID int64) (*GroupRecord, error) {
	g, err := getGroup(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil || !g.IsActive {
		return nil, ErrGroupInactive
	}
	return g, nil
}

func isMember(ctx context.Context, q querier, groupID, userID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID).Scan(&n)
	return n > 0, err
}

func setAccountBalance(ctx context.Context, q querier, userID int64, balance decimal.Decimal) error {
	_, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE user_id = ?`, balance.String(), now(), userID)
	return err
}

func setGroupBalance(ctx context.Context, q querier, groupID int64, balance decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `UPDATE bank_groups SET balance = ? WHERE id = ?`, balance.String(), groupID)
	return err
}

// record appends a ledger entry for userID. groupID 0 means no group.
func record(ctx context.Context, q querier, userID int64, from, to string, amount decimal.Decimal, typ model.TransactionType, groupID int64, description string) error {
	var gid any
	if groupID > 0 {
		gid = groupID
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (user_id, from_name, to_name, amount, type, created_at, description, group_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, from, to, amount.String(), string(typ), now(), description, gid)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}
