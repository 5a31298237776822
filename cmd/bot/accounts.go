package main

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROXY\tUSER AGENT")
			for _, a := range cfg.Accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, redactProxy(a.Proxy), a.UserAgent)
			}
			return w.Flush()
		},
	}
}

// redactProxy hides proxy credentials.
func redactProxy(raw string) string {
	if raw == "" {
		return "direct"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
