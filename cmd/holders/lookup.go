package main

import (
	"os"
	"os/signal"
	"syscall"

	"token-holders/internal/holders/console"

	"github.com/spf13/cobra"
)

func lookupCmd(flags *rootFlags) *cobra.Command {
	var (
		interactive bool
		jsonOut     bool
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "lookup [address]",
		Short: "Print ranked holders of a token",
		Long: `
Print token info, holder statistics and the ranked holder table.

With --interactive (or without an address) the session stays open for
sort, search, retry and further lookups without refetching.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// 命令行模式下日志默认只输出 warn 以上
			ctx, core, _, cleanup, err := bootstrap(ctx, flags, "warn")
			if err != nil {
				return err
			}
			defer cleanup()

			// 先测一次延迟，选出当前节点
			if selector := core.Selector(); selector != nil {
				_ = selector.Probe(ctx)
			}

			switch {
			case limit == 0:
				limit = core.TableRows()
			case limit < 0:
				limit = 0 // 全部
			}
			con := console.New(core.Session(), cmd.OutOrStdout(), console.Options{Limit: limit, JSON: jsonOut})

			if len(args) == 1 {
				if err := con.Lookup(ctx, args[0]); err != nil {
					return err
				}
			}
			if interactive || len(args) == 0 {
				return con.Run(ctx, os.Stdin)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "keep an interactive session open")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of tables")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "rows to print, default view.table_rows, -1 for all")
	return cmd
}
