package actions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// amountInput is what an amount field accepts while the user is typing.
// It allows the empty string and a trailing dot.
var amountInput = regexp.MustCompile(`^\d*\.?\d*$`)

// MinPasswordLen is the shortest password registration accepts locally.
const MinPasswordLen = 6

// Precondition messages.
const (
	MsgFillAllFields   = "Please fill in all fields"
	MsgInvalidAmount   = "Please enter a valid amount"
	MsgAmountPositive  = "Amount must be greater than zero"
	MsgAmountPrecision = "Amount can have at most 2 decimal places"
	MsgInvalidBalance  = "Please enter a valid balance amount"
	MsgInvalidID       = "Please enter a valid ID"
	MsgInvalidGender   = "Please select a valid gender"
	MsgPasswordShort   = "Password must be at least 6 characters"
	MsgNotGroupAdmin   = "Only the group admin can remove this member"
)

// acceptsAmountInput reports whether s is acceptable as partial amount input.
func acceptsAmountInput(s string) bool {
	return amountInput.MatchString(s)
}

// ParseAmount validates a money amount to send: non-blank, digits with an
// optional decimal point, at most two fractional digits and greater than zero.
func ParseAmount(s string) (decimal.Decimal, string) {
	d, msg := parseMoney(s)
	if msg != "" {
		return decimal.Zero, msg
	}
	if !d.IsPositive() {
		return decimal.Zero, MsgAmountPositive
	}
	return d, ""
}

// ParseBalance validates a starting balance. Zero is allowed.
func ParseBalance(s string) (decimal.Decimal, string) {
	d, msg := parseMoney(s)
	switch msg {
	case "":
		return d, ""
	case MsgAmountPrecision:
		return decimal.Zero, msg
	}
	return decimal.Zero, MsgInvalidBalance
}

func parseMoney(s string) (decimal.Decimal, string) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || !acceptsAmountInput(s) {
		return decimal.Zero, MsgInvalidAmount
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		return decimal.Zero, MsgAmountPrecision
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, MsgInvalidAmount
	}
	return d, ""
}

// ParseID validates a user or group id typed by the user.
func ParseID(s string) (int64, string) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, MsgInvalidID
	}
	return id, ""
}

// ParseGender validates an optional gender code. Blank means not given.
func ParseGender(s string) (*int, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ""
	}
	g, err := strconv.Atoi(s)
	if err != nil || g < 0 || g > 2 {
		return nil, MsgInvalidGender
	}
	return &g, ""
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
