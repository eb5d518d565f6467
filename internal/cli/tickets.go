package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
)

func newTicketsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Upload and list purchase tickets",
		Long:  "Upload and list purchase tickets. Tickets are served by the new backend only.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tickets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, token, err := a.newAPI()
			if err != nil {
				return err
			}
			tickets, err := api.ListTickets(cmd.Context(), token)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSTORE\tTOTAL\tDATE")
			for _, t := range tickets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.TicketID, t.Status, t.Store, t.Total, t.PurchaseDate)
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, token, err := a.newAPI()
			if err != nil {
				return err
			}
			ticket, err := api.GetTicket(cmd.Context(), token, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, ticket)
		},
	}

	var (
		in    apiclient.TicketInput
		image string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Upload a ticket photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, token, err := a.newAPI()
			if err != nil {
				return err
			}
			ref, err := fileRef(image)
			if err != nil {
				return err
			}
			ticket, err := api.CreateTicket(cmd.Context(), token, in, ref)
			if err != nil {
				return err
			}
			printf(cmd, "Ticket %s %s\n", ticket.TicketID, ticket.Status)
			return nil
		},
	}
	create.Flags().StringVar(&image, "image", "", "path to the ticket photo")
	create.Flags().StringVar(&in.Store, "store", "", "store name")
	create.Flags().StringVar(&in.Total, "total", "", "purchase total")
	create.Flags().StringVar(&in.PurchaseDate, "date", "", "purchase date (YYYY-MM-DD)")
	create.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	create.Flags().StringVar(&in.IdempotencyKey, "idempotency-key", "", "reuse to make a retried upload replay the first result")
	_ = create.MarkFlagRequired("image")

	cmd.AddCommand(list, show, create)
	return cmd
}
