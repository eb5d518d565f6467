// Package cli is the fotofacturas command tree. Every command restores the
// persisted session first, so a login in one invocation carries over to the
// next.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FotoFacturas/revamp-sub000/internal/session"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

// ExecuteContext runs the command tree with ctx and releases the store
// whether or not the command succeeded.
func ExecuteContext(ctx context.Context) error {
	root, a := newRootCommand()
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "fotofacturas",
		Short: "FotoFacturas account and ticket client",
		Long: `fotofacturas drives a FotoFacturas account from the terminal.

The backend is chosen once from USE_NEW_BACKEND; LEGACY_API_URL and API_URL
name the two origins. The session is kept in the store selected by
STORE_DRIVER (file by default, under STATE_DIR).

Examples:
  fotofacturas signup --email ana@example.com --name Ana
  fotofacturas otp --email ana@example.com
  fotofacturas login --email ana@example.com --code 123456
  fotofacturas whoami`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			return a.open(cmd.Context())
		},
	}

	root.AddCommand(
		newSignupCmd(a),
		newOTPCmd(a),
		newLoginCmd(a),
		newWhoamiCmd(a),
		newKeepaliveCmd(a),
		newPhoneCmd(a),
		newEmailCmd(a),
		newTaxInfoCmd(a),
		newTicketsCmd(a),
		newLogoutCmd(a),
	)
	return root, a
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// printJSON writes v indented, the output format of every command that
// returns a record.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// redacted hides the bearer token before a session is printed.
func redacted(s session.Session) session.Session {
	if session.Value(s.Token) != "" {
		masked := "***"
		s.Token = &masked
	}
	return s
}
