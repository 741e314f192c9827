package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/signalbox/internal/audit"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Archived audit trail commands",
	}

	cmd.AddCommand(newAuditListCmd())
	cmd.AddCommand(newAuditExportCmd())
	cmd.AddCommand(newAuditImportCmd())
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show archived audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditList(cmd, configPath, envPath, limit)
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum entries to show (0 for all)")
	return cmd
}

func runAuditList(cmd *cobra.Command, configPath, envPath string, limit int) error {
	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}
	archive, err := requireArchive(cfg)
	if err != nil {
		return err
	}
	entries, err := archive.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived audit entries.")
		return nil
	}
	printEntries(cmd.OutOrStdout(), entries)
	return nil
}

func newAuditExportCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the archived audit trail as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditExport(cmd, configPath, envPath, outPath)
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func runAuditExport(cmd *cobra.Command, configPath, envPath, outPath string) error {
	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}
	archive, err := requireArchive(cfg)
	if err != nil {
		return err
	}
	entries, err := archive.List(0)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}
	if err := audit.ExportCSV(w, entries); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), outPath)
	}
	return nil
}

func newAuditImportCmd() *cobra.Command {
	var (
		configPath string
		envPath    string
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load a CSV export back into the archive",
		Long:  "Reads a CSV written by \"sb audit export\" and archives every entry. Entries already archived are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditImport(cmd, configPath, envPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath, &envPath)
	return cmd
}

func runAuditImport(cmd *cobra.Command, configPath, envPath, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := audit.ReadCSV(f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, configPath, envPath)
	if err != nil {
		return err
	}
	archive, err := requireArchive(cfg)
	if err != nil {
		return err
	}
	// Oldest first so archive row ids follow log order.
	for i := len(entries) - 1; i >= 0; i-- {
		if err := archive.Record(entries[i]); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries from %s\n", len(entries), path)
	return nil
}
