package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buskport-cli/export"
	"buskport-cli/service"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var month string
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the performances of a month as an iCalendar file",
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
			_, schedule, _, err := e.loadMonth(cmd, ref)
			if err != nil {
				return fmt.Errorf("load schedule: %s", service.UserMessage(err))
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			skipped, err := export.Write(w, schedule.Performances, schedule.Venues, export.Options{
				Name:     "BuskPort " + ref.Time(e.loc).Format("January 2006"),
				Location: e.loc,
				Now:      e.now(),
			})
			if err != nil {
				return err
			}
			exported := len(schedule.Performances) - skipped
			e.logger.Info("calendar exported", zap.Int("events", exported), zap.Int("skipped", skipped), zap.String("output", output))
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d performances to %s.\n", exported, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to export (YYYY-MM, default current)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
