package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"token-holders/internal/holders/ledger"
	"token-holders/internal/holders/render"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func endpointsCmd(flags *rootFlags) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Probe configured RPC endpoints and show latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, core, _, cleanup, err := bootstrap(cmd.Context(), flags, "warn")
			if err != nil {
				return err
			}
			defer cleanup()

			selector := core.Selector()
			if selector == nil {
				return errors.New("endpoints: only available with the rpc provider")
			}
			probeErr := selector.Probe(ctx)
			statuses := selector.Statuses()

			out := cmd.OutOrStdout()
			if jsonOut {
				b, err := sonic.Marshal(statuses)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return probeErr
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tNAME\tLATENCY\tURL\t")
			for _, st := range statuses {
				mark := ""
				if st.Current {
					mark = "*"
				}
				latency := render.NotAvailable
				if st.LatencyMs != nil {
					latency = fmt.Sprintf("%dms", *st.LatencyMs)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", mark, st.Name, latency, st.URL)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if errors.Is(probeErr, ledger.ErrNoHealthyEndpoint) {
				return probeErr
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}
