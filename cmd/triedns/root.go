package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "triedns",
		Short:        "Authoritative UDP DNS server with a label-trie zone store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to TOML configuration file (or set TRIEDNS_CONFIG)")

	root.AddCommand(
		newServeCmd(opts),
		newZoneCmd(opts),
		newQueryCmd(),
		newBenchCmd(),
	)
	return root
}
