package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/worktally/internal/archive"
	"github.com/worktally/internal/dualtime"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Write monthly reports to markdown",
	Long:  `Write monthly work reports to markdown files in the history directory next to the database.`,
}

func newArchiver() (*archive.Archiver, error) {
	_, local, err := cfg.Locations()
	if err != nil {
		return nil, err
	}
	return archive.New(archive.Config{
		Tracker:     trackerService,
		Scanner:     scannerService,
		Lister:      db,
		HistoryPath: filepath.Join(filepath.Dir(cfg.DatabasePath), "history"),
		Zone:        local,
	}), nil
}

func parseMonth(value string) (dualtime.Date, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return dualtime.Date{}, fmt.Errorf("invalid format, use YYYY-MM (e.g., 2025-01)")
	}
	return dualtime.DateOf(t), nil
}

var archiveAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Archive the past months",
	Long:  `Archive the complete months before the current one that are not archived yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver, err := newArchiver()
		if err != nil {
			return err
		}
		months, _ := cmd.Flags().GetInt("months")

		archived, err := archiver.ArchivePastMonths(cmd.Context(), months)
		if err != nil {
			return err
		}

		if len(archived) == 0 {
			fmt.Println("No months to archive (no worklogs or already archived)")
			return nil
		}

		fmt.Printf("Archived %d month(s):\n", len(archived))
		for _, f := range archived {
			fmt.Printf("  - %s\n", f)
		}
		return nil
	},
}

var archiveMonthCmd = &cobra.Command{
	Use:   "month <YYYY-MM>",
	Short: "Archive a specific month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := parseMonth(args[0])
		if err != nil {
			return err
		}
		archiver, err := newArchiver()
		if err != nil {
			return err
		}

		path, err := archiver.ArchiveMonth(cmd.Context(), month)
		if err != nil {
			return err
		}
		fmt.Printf("Archived %s %d to %s\n", month.Month, month.Year, path)
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived months",
	RunE: func(cmd *cobra.Command, args []string) error {
		archiver, err := newArchiver()
		if err != nil {
			return err
		}

		archives, err := archiver.ListArchives()
		if err != nil {
			return err
		}

		if len(archives) == 0 {
			fmt.Println("No archives found")
			return nil
		}

		fmt.Println("Archived months:")
		for _, a := range archives {
			fmt.Printf("  %s\n", a)
		}
		return nil
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <YYYY-MM>",
	Short: "Show an archived month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := parseMonth(args[0])
		if err != nil {
			return err
		}
		archiver, err := newArchiver()
		if err != nil {
			return err
		}

		content, err := archiver.ReadArchive(month)
		if err != nil {
			return err
		}

		fmt.Println(content)
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(archiveAutoCmd)
	archiveCmd.AddCommand(archiveMonthCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)

	archiveAutoCmd.Flags().Int("months", 12, "How many months back to look")
}
