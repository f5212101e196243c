package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/me/gobank/internal/actions"
	"github.com/me/gobank/internal/logging"
	"github.com/me/gobank/internal/session"
	"github.com/me/gobank/pkg/model"
	"github.com/spf13/cobra"
)

const shellPrompt = "gobank> "

// errExit ends the shell loop.
var errExit = errors.New("exit requested")

// usageError is returned for malformed command lines.
type usageError struct {
	usage string
}

func (e usageError) Error() string { return "usage: " + e.usage }

type command struct {
	usage string
	help  string
	// min is the smallest number of arguments the command accepts.
	min int
	run func(ctx context.Context, args []string) error
}

// Shell is an interactive session against the banking services. It owns
// exactly one Session.
type Shell struct {
	orch     *actions.Orchestrator
	sess     *session.Session
	in       lineReader
	out      io.Writer
	logger   *slog.Logger
	commands map[string]*command
}

// NewShell creates a shell over api that reads from in and writes to out.
func NewShell(api session.Gateway, in lineReader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = logging.Discard()
	}
	sess := session.New(api, logger)
	sh := &Shell{
		orch:   actions.New(sess),
		sess:   sess,
		in:     in,
		out:    out,
		logger: logger,
	}
	sh.commands = sh.commandTable()
	return sh
}

// Run reads and executes commands until exit or end of input.
func (sh *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(sh.out, "Type 'help' for a list of commands.")
	for {
		sh.in.SetPrompt(sh.prompt())
		line, err := sh.in.Readline()
		switch {
		case errors.Is(err, errInterrupt):
			fmt.Fprintln(sh.out, "Use 'exit' to leave the shell.")
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		if err := sh.Exec(ctx, line); errors.Is(err, errExit) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line and prints its outcome.
func (sh *Shell) Exec(ctx context.Context, line string) error {
	args := splitArgs(line)
	if len(args) == 0 {
		return nil
	}
	name := strings.ToLower(args[0])
	cmd, ok := sh.commands[name]
	if !ok {
		fmt.Fprintf(sh.out, "Unknown command %q. Type 'help'.\n", args[0])
		return nil
	}
	if len(args)-1 < cmd.min {
		fmt.Fprintln(sh.out, usageError{cmd.usage})
		return nil
	}

	sh.logger.Debug("command", "name", name, "args", len(args)-1)
	err := cmd.run(ctx, args[1:])
	if errors.Is(err, errExit) {
		return err
	}
	sh.report(err)
	return nil
}

// report prints and clears the session's messages. Errors the session did
// not record (usage, busy, superseded) are printed directly.
func (sh *Shell) report(err error) {
	snap := sh.sess.Snapshot()
	if snap.ErrorMessage != "" {
		fmt.Fprintln(sh.out, "Error: "+snap.ErrorMessage)
	} else if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(sh.out, ue)
		} else {
			fmt.Fprintln(sh.out, "Error: "+model.UserMessage(err))
		}
	}
	if snap.SuccessMessage != "" {
		fmt.Fprintln(sh.out, snap.SuccessMessage)
	}
	sh.sess.ClearMessages()
}

func (sh *Shell) prompt() string {
	snap := sh.sess.Snapshot()
	switch {
	case snap.Account != nil:
		return snap.Account.Name + "> "
	case snap.CurrentUserID != nil:
		return fmt.Sprintf("user#%d> ", *snap.CurrentUserID)
	}
	return shellPrompt
}

// splitArgs splits a command line on whitespace; double quotes group words.
func splitArgs(input string) []string {
	var args []string
	var cur strings.Builder
	inQuotes, quoted := false, false
	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case (r == ' ' || r == '\t') && !inQuotes:
			if cur.Len() > 0 || quoted {
				args = append(args, cur.String())
				cur.Reset()
				quoted = false
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || quoted {
		args = append(args, cur.String())
	}
	return args
}

func (sh *Shell) help() {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := sh.commands[name]
		fmt.Fprintf(sh.out, "  %-44s %s\n", c.usage, c.help)
	}
}

// password returns args[i] or prompts for it.
func (sh *Shell) password(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return sh.in.ReadPassword("Password: ")
}

func (sh *Shell) confirm(question string) bool {
	sh.in.SetPrompt(question + " [y/N] ")
	line, err := sh.in.Readline()
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive banking session",
		Long:  "Start an interactive session. On a terminal the shell has line editing and history; otherwise it reads one command per line from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := newLineReader(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.HistoryFile)
			if err != nil {
				return err
			}
			defer in.Close()
			sh := NewShell(client, in, cmd.OutOrStdout(), logger)
			return sh.Run(cmd.Context())
		},
	}
}
