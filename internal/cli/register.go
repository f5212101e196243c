package cli

import (
	"errors"
	"fmt"

	"github.com/me/gobank/internal/actions"
	"github.com/me/gobank/internal/session"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a login on the auth service",
		Long:  "Create a login on the auth service. The password is prompted for unless --password is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
				password = pw
			}

			sess := session.New(client, logger)
			if err := actions.New(sess).Register(cmd.Context(), args[0], password); err != nil {
				if msg := sess.Snapshot().ErrorMessage; msg != "" {
					return errors.New(msg)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.Snapshot().SuccessMessage)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}
