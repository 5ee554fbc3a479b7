package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		in := bufio.NewReader(cmd.InOrStdin())
		if user == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Username or email: ")
			if user, err = readLine(in); err != nil {
				return fmt.Errorf("read username: %w", err)
			}
		}

		var password string
		if fromStdin {
			password, err = readLine(in)
		} else {
			password, err = promptPassword(cmd, in)
		}
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		s, err := e.sessions.Login(cmd.Context(), user, password)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}

		// Fetch the profile once so later commands can show the login.
		if p, err := e.client.FetchProfile(cmd.Context(), s.Token); err != nil {
			e.logger.Warn("fetch profile after sign in", "error", err)
		} else if err := e.sessions.SaveProfile(cmd.Context(), p); err != nil {
			e.logger.Warn("save profile", "error", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (user %d)\n", strings.TrimSpace(user), s.UserID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("user", "u", "", "Username or email")
	loginCmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(in)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
