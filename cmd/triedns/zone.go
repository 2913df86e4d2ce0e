package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jroosing/triedns/internal/config"
	"github.com/jroosing/triedns/internal/database"
	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/zone"
)

func newZoneCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Inspect, validate and store zone descriptions",
	}
	cmd.AddCommand(
		newZonePrintCmd(root),
		newZoneCheckCmd(),
		newZoneImportCmd(root),
		newZoneExportCmd(root),
	)
	return cmd
}

func newZonePrintCmd(root *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "print [zonefile]",
		Short: "Print the zone as the trie the server builds from it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadEntries(root, args, dbPath)
			if err != nil {
				return err
			}
			return zone.Build(entries).Fprint(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Read the zone from this SQLite database instead of a file")
	return cmd
}

func newZoneCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <zonefile>",
		Short: "Validate a zone description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := zone.LoadFile(args[0])
			if err != nil {
				return err
			}
			store := zone.Build(entries)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d records (%d after replacing duplicates)\n",
				args[0], len(entries), store.Len())
			return nil
		},
	}
}

func newZoneImportCmd(root *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import <zonefile>",
		Short: "Replace the zone stored in a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := databasePath(root, dbPath)
			if err != nil {
				return err
			}
			entries, err := zone.LoadFile(args[0])
			if err != nil {
				return err
			}
			db, err := database.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.ReplaceZone(entries); err != nil {
				return err
			}
			version, err := db.GetVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s (zone version %d)\n", len(entries), path, version)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to zone.database from the config)")
	return cmd
}

func newZoneExportCmd(root *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the zone stored in a SQLite database as a zone description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := databasePath(root, dbPath)
			if err != nil {
				return err
			}
			db, err := database.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.LoadZone()
			if err != nil {
				return err
			}
			return writeZoneText(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to zone.database from the config)")
	return cmd
}

// loadEntries reads a zone file argument, or the database when dbPath is set.
func loadEntries(root *rootOptions, args []string, dbPath string) ([]zone.Entry, error) {
	if len(args) == 1 {
		return zone.LoadFile(args[0])
	}
	path, err := databasePath(root, dbPath)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.LoadZone()
}

func databasePath(root *rootOptions, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := config.Load(config.ResolveConfigPath(root.configPath))
	if err != nil {
		return "", err
	}
	if cfg.Zone.Database == "" {
		return "", errors.New("no zone source: pass a zone file, --db, or set zone.database")
	}
	return cfg.Zone.Database, nil
}

// writeZoneText writes entries in the format zone.Parse reads back.
func writeZoneText(w io.Writer, entries []zone.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		data := e.Record.Data()
		if e.Record.QType() == dns.TypeTXT {
			data = `"` + data + `"`
		}
		fmt.Fprintf(bw, "%s %s %s\n", e.Name, e.Record.QType(), data)
	}
	return bw.Flush()
}
