package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/me/gobank/internal/derive"
	"github.com/me/gobank/internal/session"
	"github.com/me/gobank/pkg/model"
)

func (sh *Shell) println(a ...any) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *Shell) table() *tabwriter.Writer {
	return tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
}

func (sh *Shell) printStatus(snap session.Snapshot) {
	fmt.Fprintf(sh.out, "State:    %s\n", snap.State)
	if snap.CurrentUserID != nil {
		fmt.Fprintf(sh.out, "User ID:  %d\n", *snap.CurrentUserID)
	}
	fmt.Fprintf(sh.out, "Token:    %s\n", yesNo(snap.HasToken()))
	fmt.Fprintf(sh.out, "Profile:  %s\n", yesNo(snap.Account != nil))
	if snap.NeedsSignup {
		fmt.Fprintln(sh.out, "          create one with 'profile create'")
	}
	fmt.Fprintf(sh.out, "Groups:   %d cached\n", len(snap.Groups))
	if snap.IsLoading {
		fmt.Fprintln(sh.out, "Busy:     a request is in flight")
	}
}

func (sh *Shell) printAccount(snap session.Snapshot) {
	a := snap.Account
	if a == nil {
		sh.println("No account loaded.")
		return
	}
	fmt.Fprintf(sh.out, "Name:     %s\n", a.Name)
	fmt.Fprintf(sh.out, "Balance:  %s\n", derive.FormatBalance(a.Balance))
	fmt.Fprintf(sh.out, "Status:   %s\n", derive.AccountStatusLabel(*a))
	fmt.Fprintf(sh.out, "Gender:   %s\n", derive.GenderLabel(a.Gender))
}

func (sh *Shell) printTransactions(txs []model.Transaction) {
	if len(txs) == 0 {
		sh.println("No transactions.")
		return
	}
	w := sh.table()
	fmt.Fprintln(w, "WHEN\tTYPE\tFROM\tTO\tAMOUNT")
	for _, tx := range txs {
		when := "-"
		if !tx.Time.IsZero() {
			when = humanize.Time(tx.Time.Time)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", when, tx.Type, tx.From, tx.To, derive.SignedAmount(tx.Amount))
	}
	w.Flush()
}

func (sh *Shell) printUsers(users []model.UserSummary) {
	if len(users) == 0 {
		sh.println("No users.")
		return
	}
	w := sh.table()
	fmt.Fprintln(w, "ID\tNAME")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\n", u.UserID, u.Name)
	}
	w.Flush()
}

func (sh *Shell) printGroups(groups []model.Group) {
	if len(groups) == 0 {
		sh.println("No groups. Create one with 'group create' or load one with 'group details'.")
		return
	}
	w := sh.table()
	fmt.Fprintln(w, "ID\tNAME\tBALANCE\tADMIN\tMEMBERS")
	for _, g := range groups {
		name := g.Name
		if name == "" {
			name = "(not loaded)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", g.ID, name, derive.FormatBalance(g.Balance), g.AdminName,
			humanize.Comma(int64(len(g.Members))))
	}
	w.Flush()
}

func (sh *Shell) printGroupDetails(snap session.Snapshot) {
	g := snap.SelectedGroup
	if g == nil {
		return
	}
	var me int64
	if snap.CurrentUserID != nil {
		me = *snap.CurrentUserID
	}
	fmt.Fprintf(sh.out, "Group %d: %s\n", g.ID, g.Name)
	fmt.Fprintf(sh.out, "Balance:  %s\n", derive.FormatBalance(g.Balance))
	fmt.Fprintf(sh.out, "Admin:    %s\n", g.AdminName)
	w := sh.table()
	fmt.Fprintln(w, "ID\tMEMBER\tROLE\t")
	for _, m := range g.Members {
		role := "member"
		if m.IsAdmin {
			role = "admin"
		}
		note := ""
		if derive.CanRemoveMember(*g, me, m) {
			note = "removable"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.UserID, m.UserName, role, note)
	}
	w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
