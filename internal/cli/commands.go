package cli

import (
	"context"
	"strings"

	"github.com/me/gobank/internal/session"
)

func (sh *Shell) commandTable() map[string]*command {
	exit := &command{usage: "exit", help: "Leave the shell", run: func(context.Context, []string) error {
		return errExit
	}}
	return map[string]*command{
		"help": {usage: "help", help: "Show this list", run: func(context.Context, []string) error {
			sh.help()
			return nil
		}},
		"exit": exit,
		"quit": {usage: "quit", help: "Leave the shell", run: exit.run},

		"login": {usage: "login <username> [password]", help: "Log in; prompts for the password if omitted", min: 1,
			run: func(ctx context.Context, args []string) error {
				pw, err := sh.password(args, 1)
				if err != nil {
					return err
				}
				if err := sh.orch.Login(ctx, args[0], pw); err != nil {
					return err
				}
				if sh.sess.Snapshot().NeedsSignup {
					sh.println("No banking profile yet. Create one with: profile create <name> <balance> [gender]")
				}
				return nil
			}},
		"register": {usage: "register <username> [password]", help: "Create a login on the auth service", min: 1,
			run: func(ctx context.Context, args []string) error {
				pw, err := sh.password(args, 1)
				if err != nil {
					return err
				}
				return sh.orch.Register(ctx, args[0], pw)
			}},
		"logout": {usage: "logout", help: "End the session and forget all cached data",
			run: func(context.Context, []string) error {
				sh.sess.Logout()
				sh.println("Logged out.")
				return nil
			}},
		"profile": {usage: "profile create <name> <balance> [gender 0|1|2]", help: "Create your banking profile", min: 3,
			run: func(ctx context.Context, args []string) error {
				if args[0] != "create" {
					return usageError{"profile create <name> <balance> [gender 0|1|2]"}
				}
				gender := ""
				if len(args) > 3 {
					gender = args[3]
				}
				return sh.orch.CreateAccount(ctx, args[1], args[2], gender)
			}},
		"deactivate": {usage: "deactivate", help: "Deactivate your banking profile and log out",
			run: func(ctx context.Context, args []string) error {
				if !sh.confirm("Deactivate your account?") {
					sh.println("Cancelled.")
					return nil
				}
				return sh.orch.Deactivate(ctx)
			}},

		"account": {usage: "account", help: "Show your account",
			run: func(context.Context, []string) error {
				sh.printAccount(sh.sess.Snapshot())
				return nil
			}},
		"history": {usage: "history", help: "Show your transactions",
			run: func(context.Context, []string) error {
				sh.printTransactions(sh.sess.Snapshot().Transactions)
				return nil
			}},
		"users": {usage: "users", help: "Load and list the user directory",
			run: func(ctx context.Context, args []string) error {
				if err := sh.sess.LoadUsers(ctx); err != nil {
					return err
				}
				sh.printUsers(sh.sess.Snapshot().Users)
				return nil
			}},
		"transfer": {usage: "transfer <userId> <amount>", help: "Send money to another user", min: 2,
			run: func(ctx context.Context, args []string) error {
				return sh.orch.Transfer(ctx, args[0], args[1])
			}},
		"fund": {usage: "fund <groupId> <amount> [description...]", help: "Move money into a group", min: 2,
			run: func(ctx context.Context, args []string) error {
				return sh.orch.FundGroup(ctx, args[0], args[1], strings.Join(args[2:], " "))
			}},
		"groups": {usage: "groups", help: "List the groups this session knows",
			run: func(context.Context, []string) error {
				sh.printGroups(sh.sess.Snapshot().Groups)
				return nil
			}},
		"group": {usage: "group <create|create-with|details|add|remove|pay|deactivate> ...", help: "Manage groups (see 'group help')", min: 1,
			run: sh.groupCommand},
		"refresh": {usage: "refresh [account|transactions|groups...]", help: "Re-check the login and re-fetch data from the server",
			run: func(ctx context.Context, args []string) error {
				resources := make([]session.Resource, 0, len(args))
				for _, a := range args {
					r, err := session.ParseResource(a)
					if err != nil {
						return usageError{"refresh [account|transactions|groups...]"}
					}
					resources = append(resources, r)
				}
				if err := sh.sess.Revalidate(ctx); err != nil {
					return err
				}
				return sh.sess.Refresh(ctx, resources...)
			}},
		"status": {usage: "status", help: "Show the session state",
			run: func(context.Context, []string) error {
				sh.printStatus(sh.sess.Snapshot())
				return nil
			}},
		"clear": {usage: "clear", help: "Clear error and success messages",
			run: func(context.Context, []string) error {
				sh.sess.ClearMessages()
				return nil
			}},
	}
}

var groupUsage = []string{
	"group create <name> <initialBalance>",
	"group create-with <name> <memberId,memberId,...> [description...]",
	"group details <groupId>",
	"group add <groupId> <userId>",
	"group remove <groupId> <userId>",
	"group pay <groupId> <amount> <accountId> [description...]",
	"group deactivate <groupId>",
}

func (sh *Shell) groupCommand(ctx context.Context, args []string) error {
	sub, rest := strings.ToLower(args[0]), args[1:]
	need := func(n int, usage string) error {
		if len(rest) < n {
			return usageError{usage}
		}
		return nil
	}
	switch sub {
	case "create":
		if err := need(2, groupUsage[0]); err != nil {
			return err
		}
		return sh.orch.CreateGroup(ctx, rest[0], rest[1])
	case "create-with":
		if err := need(2, groupUsage[1]); err != nil {
			return err
		}
		return sh.orch.CreateGroupWithMembers(ctx, rest[0], strings.Join(rest[2:], " "), splitIDs(rest[1]))
	case "details":
		if err := need(1, groupUsage[2]); err != nil {
			return err
		}
		if err := sh.orch.SelectGroup(ctx, rest[0]); err != nil {
			return err
		}
		sh.printGroupDetails(sh.sess.Snapshot())
		return nil
	case "add":
		if err := need(2, groupUsage[3]); err != nil {
			return err
		}
		return sh.orch.AddMember(ctx, rest[0], rest[1])
	case "remove":
		if err := need(2, groupUsage[4]); err != nil {
			return err
		}
		return sh.orch.RemoveMember(ctx, rest[0], rest[1])
	case "pay":
		if err := need(3, groupUsage[5]); err != nil {
			return err
		}
		return sh.orch.PayFromGroup(ctx, rest[0], rest[1], rest[2], strings.Join(rest[3:], " "))
	case "deactivate":
		if err := need(1, groupUsage[6]); err != nil {
			return err
		}
		return sh.orch.DeactivateGroup(ctx, rest[0])
	case "help":
		for _, u := range groupUsage {
			sh.println("  " + u)
		}
		return nil
	}
	return usageError{"group <create|create-with|details|add|remove|pay|deactivate> ..."}
}

// splitIDs splits "1, 2,3" into its non-empty parts.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
