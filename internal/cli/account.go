package cli

import (
	"github.com/spf13/cobra"

	"github.com/FotoFacturas/revamp-sub000/internal/backend"
	"github.com/FotoFacturas/revamp-sub000/internal/session"
)

func newSignupCmd(a *app) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account and request the first login code.

On the new backend a placeholder phone number is generated; a collision is
retried once before giving up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.account.Signup(cmd.Context(), email, name)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "first name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newOTPCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Send a login code by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.account.RequestLogin(cmd.Context(), email)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an email code",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.account.Login(cmd.Context(), email, code)
			if err != nil {
				return err
			}
			printf(cmd, "Logged in as %s\n", session.Value(s.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "code received by email")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.sessions.Current()
			if refresh {
				var err error
				if s, err = a.account.Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			return printJSON(cmd, redacted(s))
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the backend first")
	return cmd
}

func newKeepaliveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keepalive",
		Short: "Refresh the session token",
		Long:  "Refresh the session token. An expired token logs the session out.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.account.KeepAlive(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "Session refreshed\n")
			return nil
		},
	}
}

func newPhoneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone",
		Short: "Change and verify the phone number",
	}

	set := &cobra.Command{
		Use:   "set <phone>",
		Short: "Replace the phone number and send an SMS code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.account.ChangePhone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd, "Phone set to %s\n", session.Value(s.Phone))
			return nil
		},
	}

	var phone, code string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check an SMS code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone == "" {
				phone = session.Value(a.sessions.Current().Phone)
			}
			if _, err := a.account.VerifyPhone(cmd.Context(), phone, code); err != nil {
				return err
			}
			printf(cmd, "Phone verified\n")
			return nil
		},
	}
	verify.Flags().StringVar(&phone, "phone", "", "phone number (defaults to the session phone)")
	verify.Flags().StringVar(&code, "code", "", "code received by SMS")
	_ = verify.MarkFlagRequired("code")

	var resendPhone string
	resend := &cobra.Command{
		Use:   "resend",
		Short: "Send a new SMS code",
		Long: `Send a new SMS code to --phone, or to the session phone when omitted.

The legacy API has no resend endpoint; there the phone is set again, which
sends a fresh code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := resendPhone
			if target == "" {
				target = session.Value(a.sessions.Current().Phone)
			}
			if target == "" {
				return errNoPhone
			}

			if a.api == nil {
				if _, err := a.account.ChangePhone(cmd.Context(), target); err != nil {
					return err
				}
			} else {
				api, token, err := a.newAPI()
				if err != nil {
					return err
				}
				code, number := backend.SplitPhone(target)
				if _, err := api.RequestPhoneOTP(cmd.Context(), token, number, code); err != nil {
					return err
				}
			}
			printf(cmd, "Code sent to %s\n", target)
			return nil
		},
	}
	resend.Flags().StringVar(&resendPhone, "phone", "", "phone number (defaults to the session phone)")

	cmd.AddCommand(set, verify, resend)
	return cmd
}

func newEmailCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Verify the account email",
	}

	request := &cobra.Command{
		Use:   "request",
		Short: "Send a verification code to the session email",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.account.RequestEmailVerification(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	var code string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check an email verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.account.VerifyEmail(cmd.Context(), code); err != nil {
				return err
			}
			printf(cmd, "Email verified\n")
			return nil
		},
	}
	verify.Flags().StringVar(&code, "code", "", "code received by email")
	_ = verify.MarkFlagRequired("code")

	cmd.AddCommand(request, verify)
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session, keeping the email",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.account.Logout(cmd.Context())
			printf(cmd, "Logged out\n")
			return nil
		},
	}
}

// profileFlags binds the editable profile fields shared by tax-info.
func profileFlags(cmd *cobra.Command, in *backend.UserUpdate) {
	cmd.Flags().StringVar(&in.Name, "name", "", "first name")
	cmd.Flags().StringVar(&in.LegalName, "legal-name", "", "razón social")
	cmd.Flags().StringVar(&in.TaxID, "rfc", "", "RFC")
	cmd.Flags().StringVar(&in.TaxRegime, "regime", "", "régimen fiscal")
	cmd.Flags().StringVar(&in.ZipCode, "zip", "", "código postal")
	cmd.Flags().StringVar(&in.Street, "street", "", "calle")
	cmd.Flags().StringVar(&in.ExteriorNumber, "ext", "", "número exterior")
	cmd.Flags().StringVar(&in.InteriorNumber, "int", "", "número interior")
	cmd.Flags().StringVar(&in.Neighborhood, "neighborhood", "", "colonia")
	cmd.Flags().StringVar(&in.Municipality, "municipality", "", "municipio")
	cmd.Flags().StringVar(&in.State, "state", "", "estado")
}
