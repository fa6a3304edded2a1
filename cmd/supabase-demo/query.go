package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/supabase-go/v1/postgrest"
)

var (
	querySelect string
	queryEq     []string
	queryOrder  string
	queryDesc   bool
	queryLimit  int
	queryCSV    bool
	queryCount  bool
)

func queryCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "query TABLE",
		Short: "Select rows from a table or view",
		Example: `  supabase-demo query countries --select "id, name" --eq continent=Europe --order name
  supabase-demo query countries --csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			q := client.From(args[0]).Select(querySelect)
			for _, kv := range queryEq {
				col, val, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--eq wants column=value, got %q", kv)
				}
				q = q.Eq(col, val)
			}
			if queryOrder != "" {
				q = q.Order(queryOrder, postgrest.OrderOptions{Descending: queryDesc})
			}
			if queryLimit > 0 {
				q = q.Limit(queryLimit)
			}

			out := cmd.OutOrStdout()
			if queryCSV {
				text, err := q.CSV(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
				return nil
			}

			if queryCount {
				q = q.Count(postgrest.CountExact)
			}
			resp, err := q.Execute(ctx)
			if err != nil {
				return err
			}
			if resp.Count != nil {
				fmt.Fprintf(out, "%d rows\n", *resp.Count)
			}
			return printJSON(out, json.RawMessage(resp.Data))
		},
	}
	cmd.Flags().StringVar(&querySelect, "select", "*", "columns to return")
	cmd.Flags().StringArrayVar(&queryEq, "eq", nil, "column=value filter, repeatable")
	cmd.Flags().StringVar(&queryOrder, "order", "", "column to order by")
	cmd.Flags().BoolVar(&queryDesc, "desc", false, "order descending")
	cmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum rows")
	cmd.Flags().BoolVar(&queryCSV, "csv", false, "print the result as CSV")
	cmd.Flags().BoolVar(&queryCount, "count", false, "also print the exact row count")
	return &cmd
}
