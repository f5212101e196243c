// Package derive holds the pure rules that turn cached session data into the
// flags and strings a UI shows. Nothing here is cached; callers recompute on
// every read.
package derive

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

// displayDigits is the number of fractional digits shown for money.
const displayDigits = 2

// IsAdmin reports whether userID is an admin member of group.
func IsAdmin(group model.Group, userID int64) bool {
	for _, m := range group.Members {
		if m.UserID == userID && m.IsAdmin {
			return true
		}
	}
	return false
}

// CanRemoveMember reports whether actorID may remove member from group:
// the actor must be an admin, and the member must be neither the actor nor
// an admin.
func CanRemoveMember(group model.Group, actorID int64, member model.Member) bool {
	return IsAdmin(group, actorID) && member.UserID != actorID && !member.IsAdmin
}

// AccountStatusLabel returns "Active" or "Inactive".
func AccountStatusLabel(account model.Account) string {
	if account.IsActive {
		return "Active"
	}
	return "Inactive"
}

// DisplayBalance rounds d half-up (away from zero at the midpoint) to two
// fractional digits and always prints both digits.
func DisplayBalance(d decimal.Decimal) string {
	return d.StringFixed(displayDigits)
}

// SignedAmount is DisplayBalance with an explicit "+" on non-negative values,
// as shown in transaction lists.
func SignedAmount(d decimal.Decimal) string {
	s := DisplayBalance(d)
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

// FormatBalance is DisplayBalance with thousands separators, e.g. "12,345.68".
func FormatBalance(d decimal.Decimal) string {
	s := DisplayBalance(d)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	grouped := whole
	if w, err := decimal.NewFromString(whole); err == nil && w.IsInteger() {
		grouped = humanize.BigComma(w.BigInt())
	}
	return sign + grouped + "." + frac
}

// GenderLabel maps the banking service's gender code to a label.
func GenderLabel(code int) string {
	switch code {
	case model.GenderMale:
		return "Male"
	case model.GenderFemale:
		return "Female"
	}
	return "Other"
}
