package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/worktally/internal/config"
	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/missing"
	"github.com/worktally/internal/reminder"
	"github.com/worktally/internal/tracker"
)

var logCmd = &cobra.Command{
	Use:   "log <label> <duration>",
	Short: "Log work on a label",
	Long: `Log a worklog such as "worktally log PROJ-12 1h 30m".
Without --start the worklog begins where the day's last worklog ended, or at 08:00.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := trackerService.Formatter().Parse(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		day, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetString("start")
		comment, _ := cmd.Flags().GetString("comment")

		entry, err := trackerService.LogWork(cmd.Context(), args[0], seconds, day, start, comment)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			return printJSON(entry)
		}
		fmt.Printf("Logged %s on %s at %s (%s)\n",
			trackerService.Formatter().ExactDuration(entry.Seconds), entry.Label,
			entry.Start.Format("2006-01-02 15:04"), entry.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a worklog",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := trackerService.DeleteWorklog(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted worklog %s\n", args[0])
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a worklog",
	Long: `Change the label, duration, day, start time or comment of a worklog.
Only the given flags are changed. A new --date keeps the start time, a new
--start keeps the day.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var edit tracker.WorklogEdit
		edit.Label, _ = cmd.Flags().GetString("label")
		edit.Clock, _ = cmd.Flags().GetString("start")
		if value, _ := cmd.Flags().GetString("duration"); value != "" {
			seconds, err := trackerService.Formatter().Parse(value)
			if err != nil {
				return err
			}
			edit.Seconds = seconds
		}
		if cmd.Flags().Changed("date") {
			day, err := dateFlag(cmd, "date")
			if err != nil {
				return err
			}
			edit.Day = day
		}
		if cmd.Flags().Changed("comment") {
			comment, _ := cmd.Flags().GetString("comment")
			edit.Comment = &comment
		}

		entry, err := trackerService.EditWorklog(cmd.Context(), args[0], edit)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			return printJSON(entry)
		}
		fmt.Printf("Updated %s: %s on %s at %s\n",
			entry.ID, trackerService.Formatter().ExactDuration(entry.Seconds), entry.Label,
			entry.Start.Format("2006-01-02 15:04"))
		return nil
	},
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "List the worklogs of a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		entries, err := trackerService.DayEntries(cmd.Context(), day)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			return printJSON(entries)
		}

		format := trackerService.Formatter()
		loc := trackerService.Now().LocalZone()
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"ID", "Label", "Start", "End", "Duration", "Comment"})
		var total int64
		for _, e := range entries {
			tw.AppendRow(table.Row{e.ID, e.Label, e.Start.In(loc).Format("15:04"), e.End().In(loc).Format("15:04"), format.ExactDuration(e.Seconds), e.Comment})
			total += e.Seconds
		}
		tw.AppendFooter(table.Row{"", "", "", "Total", format.ExactDuration(total), ""})
		tw.Render()
		return nil
	},
}

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "Show which days of a month have worklogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		month := scannerService.Today()
		if value, _ := cmd.Flags().GetString("month"); value != "" {
			var err error
			if month, err = parseMonth(value); err != nil {
				return err
			}
		}

		logged, err := trackerService.LoggedDaysOfMonth(cmd.Context(), month)
		if err != nil {
			return err
		}
		excluded := dayNumbers(rules.ExcludeDaysOfMonth(month))
		included := dayNumbers(rules.IncludeDaysOfMonth(month))
		if viper.GetBool("json") {
			return printJSON(map[string][]string{"logged": logged, "excluded": excluded, "included": included})
		}
		fmt.Printf("%s %d\n", month.Month, month.Year)
		fmt.Printf("  Logged:   %s\n", strings.Join(logged, ", "))
		fmt.Printf("  Excluded: %s\n", strings.Join(excluded, ", "))
		fmt.Printf("  Included: %s\n", strings.Join(included, ", "))
		return nil
	},
}

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List workdays without enough logged time",
	Long: `Scan the workdays between --from and --to, most recent first.
With --hours a day is missing when less than a working day is logged, otherwise
only days with no worklog at all are listed. --non-working ignores worklogs
whose label matches a non-working pattern.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		today := scannerService.Today()
		from, err := dateFlagOr(cmd, "from", today.AddDays(-30))
		if err != nil {
			return err
		}
		to, err := dateFlagOr(cmd, "to", today.AddDays(-1))
		if err != nil {
			return err
		}
		quantity, _ := cmd.Flags().GetBool("hours")
		nonWorking, _ := cmd.Flags().GetBool("non-working")
		pageNumber, _ := cmd.Flags().GetInt("page")

		days, err := scannerService.ScanRange(cmd.Context(), from, to, quantity, nonWorking)
		if err != nil {
			return err
		}
		page := missing.Paginate(days, pageNumber)
		if viper.GetBool("json") {
			return printJSON(page)
		}
		if page.Total == 0 {
			fmt.Println("No missing days.")
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Date", "Weekday", "Missing hours"})
		for _, d := range page.Days {
			tw.AppendRow(table.Row{d.Date.String(), d.Date.Weekday().String(), d.Missing})
		}
		tw.SetCaption("page %d of %d, %d days", page.Number, page.Pages, page.Total)
		tw.Render()
		return nil
	},
}

var firstMissingCmd = &cobra.Command{
	Use:   "first-missing",
	Short: "Show the first workday of the past week without a worklog",
	RunE: func(cmd *cobra.Command, args []string) error {
		today := scannerService.Today()
		first, err := scannerService.FirstMissingDayFrom(cmd.Context(), today)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			return printJSON(map[string]any{"date": first, "has_gap": first != today})
		}
		if first == today {
			fmt.Println("Every workday of the past week has a worklog.")
			return nil
		}
		fmt.Printf("First day without a worklog: %s (%s)\n", first, first.Weekday())
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"st", "status"},
	Short:   "Show logged against expected time for the day, week and month",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			summary *tracker.Summary
			err     error
		)
		if cmd.Flags().Changed("date") {
			day, err := dateFlag(cmd, "date")
			if err != nil {
				return err
			}
			summary, err = trackerService.SummaryForDate(cmd.Context(), day)
			if err != nil {
				return err
			}
		} else {
			summary, err = trackerService.Summary(cmd.Context(), trackerService.Now())
			if err != nil {
				return err
			}
		}
		if viper.GetBool("json") {
			return printJSON(summary)
		}
		renderSummary(summary)
		return nil
	},
}

func renderSummary(s *tracker.Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Period", "Logged", "Expected", "Remaining", "Logged %", "Real work %", "Non-work %", "Non-work"})
	for _, row := range []struct {
		name string
		unit tracker.Unit
	}{
		{"Day", s.Day},
		{"Week", s.Week},
		{"Month", s.Month},
	} {
		tw.AppendRow(table.Row{
			row.name,
			row.unit.Summary,
			row.unit.ExpectedFormatted,
			row.unit.Remaining,
			percent(row.unit, row.unit.IndicatorPercent),
			percent(row.unit, row.unit.FilteredRealWorkPercent),
			percent(row.unit, row.unit.FilteredNonWorkPercent),
			row.unit.NonWorkFormatted,
		})
	}
	tw.SetCaption("%s: %s of %s logged today", s.Date, s.DaySumIndustryFormatted, s.HoursPerDayFormatted)
	tw.Render()
}

func percent(u tracker.Unit, value float64) string {
	if u.PercentUndefined {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", value)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if initialize, _ := cmd.Flags().GetBool("init"); initialize {
			path := viper.GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := config.SaveTo(path, cfg); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		}

		if viper.GetBool("json") {
			return printJSON(cfg)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Check for missing worklogs on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, _, err := cfg.Locations()
		if err != nil {
			return err
		}
		s, err := reminder.New(reminder.Config{
			Schedule:   cfg.ReminderSchedule,
			Location:   origin,
			Checker:    scannerService,
			Summarizer: trackerService,
			Notify:     printReport,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		if once, _ := cmd.Flags().GetBool("once"); once {
			_, err := s.RunOnce(cmd.Context())
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s.Start()
		fmt.Printf("Reminder running on %q, next check %s\n", cfg.ReminderSchedule, s.Next().Format("2006-01-02 15:04"))
		<-ctx.Done()
		s.Stop()
		return nil
	},
}

func printReport(r reminder.Report) {
	if viper.GetBool("json") {
		_ = printJSON(r)
		return
	}
	if r.HasGap {
		fmt.Printf("Missing worklog on %s (%s)\n", r.FirstMissing, r.FirstMissing.Weekday())
	}
	renderSummary(r.Summary)
}

func dayNumbers(dates []dualtime.Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, strconv.Itoa(d.Day))
	}
	return out
}

func dateFlag(cmd *cobra.Command, name string) (dualtime.Date, error) {
	return dateFlagOr(cmd, name, scannerService.Today())
}

func dateFlagOr(cmd *cobra.Command, name string, fallback dualtime.Date) (dualtime.Date, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return fallback, nil
	}
	d, err := dualtime.ParseDate(value)
	if err != nil {
		return dualtime.Date{}, fmt.Errorf("invalid --%s %q (use YYYY-MM-DD)", name, value)
	}
	return d, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	logCmd.Flags().StringP("date", "d", "", "Day of the worklog (YYYY-MM-DD, default today)")
	logCmd.Flags().StringP("start", "s", "", "Start time (HH:MM, default after the last worklog)")
	logCmd.Flags().StringP("comment", "c", "", "Worklog comment")

	editCmd.Flags().StringP("label", "l", "", "New label")
	editCmd.Flags().String("duration", "", "New duration (e.g. 1h 30m)")
	editCmd.Flags().StringP("date", "d", "", "New day (YYYY-MM-DD)")
	editCmd.Flags().StringP("start", "s", "", "New start time (HH:MM)")
	editCmd.Flags().StringP("comment", "c", "", "New comment")

	dayCmd.Flags().StringP("date", "d", "", "Day to list (YYYY-MM-DD, default today)")

	daysCmd.Flags().StringP("month", "m", "", "Month (YYYY-MM, default this month)")

	missingCmd.Flags().String("from", "", "First day to scan (YYYY-MM-DD, default 30 days ago)")
	missingCmd.Flags().String("to", "", "Last day to scan (YYYY-MM-DD, default yesterday)")
	missingCmd.Flags().Bool("hours", false, "Compare logged hours with the working day")
	missingCmd.Flags().Bool("non-working", false, "Ignore worklogs with non-working labels")
	missingCmd.Flags().IntP("page", "p", 1, "Page number")

	summaryCmd.Flags().StringP("date", "d", "", "Reference day (YYYY-MM-DD, default now)")

	configCmd.Flags().Bool("init", false, "Write the current configuration to the config file")

	remindCmd.Flags().Bool("once", false, "Run the check once and exit")
}
