package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"cfs-assistant-go/internal/service"

	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	Long: `Log in with a username and password. Missing values are prompted for.
The password can also be given through the CFS_PASSWORD environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if session, ok := a.sessions.Restore(ctx); ok {
			fmt.Fprintf(out, "Already logged in as %s. Run `cfs logout` first.\n", session.Username)
			return nil
		}

		in := bufio.NewReader(cmd.InOrStdin())
		username := loginUsername
		if username == "" {
			fmt.Fprint(out, "Username: ")
			if username, err = readLine(in); err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			password = os.Getenv("CFS_PASSWORD")
		}
		if password == "" {
			if password, err = a.readSecret(in, out, "Password: "); err != nil {
				return err
			}
		}

		session, err := a.sessions.Login(ctx, username, password)
		if err != nil {
			return errors.New(userMessage(err))
		}
		fmt.Fprintf(out, "Logged in as %s (account %s)\n", session.Username, session.MaskedAccountID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		session, ok := a.sessions.Restore(ctx)
		// 没有完整会话时也要清理残留的存储项
		a.sessions.Logout(ctx)
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s.\n", session.Username)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the restored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		session, ok := a.sessions.Restore(cmd.Context())
		if !ok {
			return service.ErrNotAuthenticated
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (account %s)\n", session.Username, session.MaskedAccountID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prefer CFS_PASSWORD or the prompt)")
}
