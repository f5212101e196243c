package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// Transfer moves amount between two active accounts and returns the
// sender's new balance.
func (s *SQLiteStore) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	s.logger.Debug("sql", "op", "transfer", "from", fromID, "to", toID)

	if fromID == toID {
		return decimal.Zero, ErrSelfTransfer
	}
	var balance decimal.Decimal
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		from, err := activeAccount(ctx, tx, fromID, ErrAccountInactive)
		if err != nil {
			return err
		}
		to, err := activeAccount(ctx, tx, toID, ErrUnknownRecipient)
		if err != nil {
			return err
		}
		if from.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		balance = from.Balance.Sub(amount)
		if err := setAccountBalance(ctx, tx, fromID, balance); err != nil {
			return err
		}
		if err := setAccountBalance(ctx, tx, toID, to.Balance.Add(amount)); err != nil {
			return err
		}
		if err := record(ctx, tx, fromID, from.Name, to.Name, amount.Neg(), model.TransactionTypeUser, 0, ""); err != nil {
			return err
		}
		return record(ctx, tx, toID, from.Name, to.Name, amount, model.TransactionTypeUser, 0, "")
	})
	return balance, err
}

// FundGroup moves amount from a member's account into the group.
func (s *SQLiteStore) FundGroup(ctx context.Context, userID, groupID int64, amount decimal.Decimal, description string) (model.FundGroupResponse, error) {
	s.logger.Debug("sql", "op", "fund_group", "user_id", userID, "group_id", groupID)

	var out model.FundGroupResponse
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		acct, err := activeAccount(ctx, tx, userID, ErrAccountInactive)
		if err != nil {
			return err
		}
		g, err := activeGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if member, err := isMember(ctx, tx, groupID, userID); err != nil {
			return err
		} else if !member {
			return ErrNotMember
		}
		if acct.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		out.UserAmount = acct.Balance.Sub(amount)
		out.GroupAmount = g.Balance.Add(amount)
		if err := setAccountBalance(ctx, tx, userID, out.UserAmount); err != nil {
			return err
		}
		if err := setGroupBalance(ctx, tx, groupID, out.GroupAmount); err != nil {
			return err
		}
		return record(ctx, tx, userID, acct.Name, g.Name, amount.Neg(), model.TransactionTypeGroup, groupID, description)
	})
	return out, err
}

// PayFromGroup pays amount out of a group balance into toUserID's account.
func (s *SQLiteStore) PayFromGroup(ctx context.Context, groupID, toUserID int64, amount decimal.Decimal, description string) (model.GroupPaymentResponse, error) {
	s.logger.Debug("sql", "op", "group_payment", "group_id", groupID, "to", toUserID)

	var out model.GroupPaymentResponse
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := activeGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		to, err := activeAccount(ctx, tx, toUserID, ErrUnknownRecipient)
		if err != nil {
			return err
		}
		if g.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		if err := setGroupBalance(ctx, tx, groupID, g.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := setAccountBalance(ctx, tx, toUserID, to.Balance.Add(amount)); err != nil {
			return err
		}
		if err := record(ctx, tx, toUserID, g.Name, to.Name, amount, model.TransactionTypeGroup, groupID, description); err != nil {
			return err
		}
		out = model.GroupPaymentResponse{
			GroupName:   g.Name,
			ToAccount:   to.Name,
			Amount:      amount,
			Description: description,
			CreatedAt:   model.NewDate(time.Now().UTC()),
		}
		return nil
	})
	return out, err
}

// CreateGroup creates a group administered by adminID, seeds it with
// initialBalance from the admin's account and adds memberIDs.
func (s *SQLiteStore) CreateGroup(ctx context.Context, adminID int64, name, description string, initialBalance decimal.Decimal, memberIDs []int64) (model.GroupCreated, error) {
	s.logger.Debug("sql", "op", "insert", "table", "bank_groups", "admin_id", adminID, "members", len(memberIDs))

	var out model.GroupCreated
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		admin, err := activeAccount(ctx, tx, adminID, ErrAccountInactive)
		if err != nil {
			return err
		}
		if admin.Balance.LessThan(initialBalance) {
			return ErrInsufficientFunds
		}

		ts := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bank_groups (name, description, balance, admin_id, is_active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
			name, description, initialBalance.String(), adminID, ts)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, is_admin, joined_at) VALUES (?, ?, 1, ?)`,
			groupID, adminID, ts); err != nil {
			return fmt.Errorf("insert admin: %w", err)
		}
		seen := map[int64]bool{adminID: true}
		for _, id := range memberIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, err := activeAccount(ctx, tx, id, ErrUnknownRecipient); err != nil {
				return fmt.Errorf("member %d: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO group_members (group_id, user_id, is_admin, joined_at) VALUES (?, ?, 0, ?)`,
				groupID, id, ts); err != nil {
				return fmt.Errorf("insert member: %w", err)
			}
		}

		if initialBalance.IsPositive() {
			if err := setAccountBalance(ctx, tx, adminID, admin.Balance.Sub(initialBalance)); err != nil {
				return err
			}
			if err := record(ctx, tx, adminID, admin.Name, name, initialBalance.Neg(), model.TransactionTypeGroup, groupID, "initial balance"); err != nil {
				return err
			}
		}
		out = model.GroupCreated{GroupID: groupID, Name: name, Balance: initialBalance}
		return nil
	})
	return out, err
}
