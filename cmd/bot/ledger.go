package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"PixelSentinel/internal/recorder"

	"github.com/spf13/cobra"
)

func newLedgerCmd(cfgPath *string) *cobra.Command {
	var limit int
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show recent reward claims and per-account totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer rec.Close()

			totals, err := rec.Totals(time.Now().Add(-since))
			if err != nil {
				return err
			}
			claims, err := rec.RecentClaims(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "totals (last %v):\n", since)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ACCOUNT\tADS\tEARNED\tBALANCE\tFAILURES")
			for _, t := range totals {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", t.Session, t.Claims, t.Earned, t.LastBalance, t.Failures)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nrecent claims:\n")
			w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACCOUNT\tAMOUNT\tBALANCE")
			for _, c := range claims {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", c.ClaimedAt.Format("2006-01-02 15:04:05"), c.Session, c.Amount, c.BalanceAfter)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent claims to show")
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "Window for per-account totals")
	return cmd
}
