package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/service"
)

// parseMonth reads YYYY-MM; empty means the current month.
func parseMonth(raw string, now time.Time) (calendar.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.Today(now).FirstOfMonth(), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid month %q, want YYYY-MM", raw)
	}
	return calendar.NewDate(t.Year(), t.Month(), 1), nil
}

// loadMonth fetches the performances and venues of the month of ref and binds them.
func (e *env) loadMonth(cmd *cobra.Command, ref calendar.Date) (calendar.Range, service.Schedule, calendar.Binding, error) {
	rng := calendar.MonthRange(ref)
	schedule, err := e.client.LoadSchedule(cmd.Context(), rng.Start.Time(e.loc), rng.End.Time(e.loc))
	if err != nil {
		return rng, service.Schedule{}, calendar.Binding{}, err
	}
	binding := calendar.Bind(schedule.Performances, schedule.Venues, e.loc)
	if binding.Skipped > 0 {
		e.logger.Warn("performances with invalid datetime skipped", zap.Int("count", binding.Skipped))
	}
	return rng, schedule, binding, nil
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List the performances of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			ref, err := parseMonth(month, e.now().In(e.loc))
			if err != nil {
				return err
			}
			rng, _, binding, err := e.loadMonth(cmd, ref)
			if err != nil {
				return fmt.Errorf("load schedule: %s", service.UserMessage(err))
			}
			if binding.Count() == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No performances in %s.\n", ref.Time(e.loc).Format("January 2006"))
				return nil
			}

			rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetTitle("Performances · " + ref.Time(e.loc).Format("January 2006"))
			t.AppendHeader(table.Row{"Date", "Time", "Team", "Venue", "Looking for", "Status"}, rowConfigAutoMerge)
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 1, AutoMerge: true},
				{Number: 3, WidthMax: 24},
				{Number: 4, WidthMax: 24},
			})
			t.Style().Options.SeparateRows = true

			for d := rng.Start; !rng.End.Before(d); d = d.AddDays(1) {
				var items []table.Row
				for _, p := range binding.On(d) {
					items = append(items, table.Row{
						d.Key() + " " + d.Weekday().String()[:3],
						p.ClockLabel(),
						p.Title,
						binding.VenueName(p),
						strings.Join(p.Positions(), ", "),
						p.Status,
					})
				}
				t.AppendRows(items, rowConfigAutoMerge)
			}
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d performances", binding.Count())})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to list (YYYY-MM, default current)")
	return cmd
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month grid with the number of performances per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			ref, err := parseMonth(month, e.now().In(e.loc))
			if err != nil {
				return err
			}
			_, _, binding, err := e.loadMonth(cmd, ref)
			if err != nil {
				return fmt.Errorf("load schedule: %s", service.UserMessage(err))
			}
			renderMonthGrid(cmd, ref, binding, e.now().In(e.loc))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM, default current)")
	return cmd
}

func renderMonthGrid(cmd *cobra.Command, ref calendar.Date, binding calendar.Binding, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle(ref.Time(time.UTC).Format("January 2006"))

	header := table.Row{}
	for _, name := range calendar.Weekdays {
		header = append(header, name)
	}
	t.AppendHeader(header)
	t.Style().Options.SeparateRows = true

	for _, week := range calendar.BuildMonth(ref.Year, ref.Month) {
		row := table.Row{}
		for _, cell := range week {
			d, ok := cell.Date()
			if !ok {
				row = append(row, "")
				continue
			}
			label := fmt.Sprintf("%2d", d.Day)
			if calendar.IsToday(d, now) {
				label += "*"
			}
			if n := len(binding.On(d)); n > 0 {
				label += fmt.Sprintf(" (%d)", n)
			}
			row = append(row, label)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d performances", binding.Count())})
	t.Render()
}
