package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gender codes used by the banking service.
const (
	GenderOther  = 0
	GenderMale   = 1
	GenderFemale = 2
)

// Account is the banking profile of the logged-in user as reported by the
// banking service. Balance is always the server figure.
type Account struct {
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"isActive"`
	Gender   int             `json:"gender"`
}

// TransactionType distinguishes person-to-person from group transactions.
type TransactionType string

const (
	TransactionTypeUser  TransactionType = "user"
	TransactionTypeGroup TransactionType = "group"
)

// Transaction is one entry of the user's transaction history.
type Transaction struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Type   TransactionType `json:"type"`
	Time   Date            `json:"time"`
}

// UserSummary is an entry of the user directory.
type UserSummary struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

// dateLayout is the calendar-date form the banking service uses.
const dateLayout = "2006-01-02"

// Date is a calendar date on the wire. It decodes both "2006-01-02" and
// RFC 3339 timestamps and always encodes as "2006-01-02".
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	d.Time = t
	return nil
}
