package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "pixelsentinel",
		Short:         "PixelSentinel: per-account NotPixel reward worker",
		Long:          "pixelsentinel keeps one session per configured account, watches ads for rewards on a randomized schedule, and records every claim to a local ledger.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "Path to config.yaml")

	rootCmd.AddCommand(
		newRunCmd(&cfgPath),
		newAccountsCmd(&cfgPath),
		newLedgerCmd(&cfgPath),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("pixelsentinel " + version)
		},
	}
}
