package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/supabase-go/v1/postgrest"
)

const guestbookTable = "guestbook"

type guestbookEntry struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

var (
	guestbookLimit int
	guestbookName  string
)

func guestbookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guestbook",
		Short: "Read and sign the guestbook table",
	}
	cmd.AddCommand(guestbookListCommand())
	cmd.AddCommand(guestbookPostCommand())
	return cmd
}

func guestbookListCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "list",
		Short: "Show the newest entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			var entries []guestbookEntry
			_, err = client.From(guestbookTable).
				Select("id, name, message, created_at").
				Order("created_at", postgrest.OrderOptions{Descending: true}).
				Limit(guestbookLimit).
				ExecuteTo(ctx, &entries)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.CreatedAt.Format(time.DateTime), e.Name, e.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&guestbookLimit, "limit", "n", 20, "number of entries")
	return &cmd
}

func guestbookPostCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "post MESSAGE",
		Short: "Sign the guestbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			var created []guestbookEntry
			_, err = client.From(guestbookTable).
				Insert(guestbookEntry{Name: guestbookName, Message: args[0]}).
				Select("*").
				ExecuteTo(ctx, &created)
			if err != nil {
				return err
			}
			if len(created) == 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "Entry %d saved.\n", created[0].ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guestbookName, "name", "anonymous", "name shown next to the message")
	return &cmd
}
