package cli

import (
	"github.com/spf13/cobra"

	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
	"github.com/FotoFacturas/revamp-sub000/internal/backend"
	"github.com/FotoFacturas/revamp-sub000/internal/session"
)

func newTaxInfoCmd(a *app) *cobra.Command {
	var (
		in  backend.UserUpdate
		csf string
	)
	cmd := &cobra.Command{
		Use:   "tax-info",
		Short: "Update profile and fiscal data",
		Long: `Update profile and fiscal data. Only the flags given are changed.

On the new backend the fiscal fields (--legal-name, --rfc, --regime, --zip)
go through the tax-info endpoint, together with the Constancia de Situación
Fiscal when --csf is given. The other profile flags, and every flag on the
legacy backend, update the profile record.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if a.api == nil {
				if csf != "" {
					return errLegacyUnsupported
				}
				s, err := a.account.UpdateProfile(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd, redacted(s))
			}

			api, token, err := a.newAPI()
			if err != nil {
				return err
			}
			// The endpoint replaces all four fiscal fields, so the ones not
			// given keep their stored values.
			info := mergeTaxInfo(in, a.sessions.Current())
			switch {
			case csf != "":
				ref, err := fileRef(csf)
				if err != nil {
					return err
				}
				if _, err := api.UploadTaxInfo(ctx, token, info, ref); err != nil {
					return err
				}
			case hasTaxFields(in):
				if _, err := api.SubmitTaxInfo(ctx, token, info); err != nil {
					return err
				}
			}

			rest := in
			rest.LegalName, rest.TaxID, rest.TaxRegime, rest.ZipCode = "", "", "", ""
			if rest != (backend.UserUpdate{}) {
				if _, err := a.account.UpdateProfile(ctx, rest); err != nil {
					return err
				}
			}

			s, err := a.account.Refresh(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, redacted(s))
		},
	}
	profileFlags(cmd, &in)
	cmd.Flags().StringVar(&csf, "csf", "", "path to the CSF PDF (new backend only)")
	return cmd
}

func hasTaxFields(in backend.UserUpdate) bool {
	return in.LegalName != "" || in.TaxID != "" || in.TaxRegime != "" || in.ZipCode != ""
}

// mergeTaxInfo fills the fiscal fields missing from in with the session's.
func mergeTaxInfo(in backend.UserUpdate, s session.Session) apiclient.TaxInfo {
	pick := func(v string, stored *string) string {
		if v != "" {
			return v
		}
		return session.Value(stored)
	}
	return apiclient.TaxInfo{
		LegalName: pick(in.LegalName, s.LegalName),
		TaxID:     pick(in.TaxID, s.TaxID),
		TaxRegime: pick(in.TaxRegime, s.TaxRegime),
		ZipCode:   pick(in.ZipCode, s.ZipCode),
	}
}
