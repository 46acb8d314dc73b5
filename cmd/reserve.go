package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/model"
	"buskport-cli/reservation"
	"buskport-cli/service"
	"buskport-cli/store"
)

type reserveOptions struct {
	team      string
	venue     string
	date      string
	slots     []string
	songs     string
	positions []string
}

// matchSlot accepts a full slot label or just its start time.
func matchSlot(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, slot := range reservation.TimeSlots {
		if slot == raw || reservation.SlotStart(slot) == raw {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown time slot %q, choose from %s", raw, strings.Join(reservation.TimeSlots, ", "))
}

func matchPosition(raw string) (string, error) {
	for _, p := range model.Positions {
		if strings.EqualFold(p, strings.TrimSpace(raw)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown position %q, choose from %s", raw, strings.Join(model.Positions, ", "))
}

// buildForm fills a reservation form from flags. The venue must already be resolved.
func buildForm(ro reserveOptions, venueID int) (reservation.Form, error) {
	form := reservation.Form{
		TeamName:   ro.team,
		SongList:   ro.songs,
		LocationId: venueID,
		Date:       ro.date,
	}
	if len(ro.slots) > reservation.MaxSlots {
		return form, fmt.Errorf("at most %d time slots can be booked", reservation.MaxSlots)
	}
	for _, raw := range ro.slots {
		slot, err := matchSlot(raw)
		if err != nil {
			return form, err
		}
		if !form.Slots.Contains(slot) {
			form.Slots.Toggle(slot)
		}
	}
	for _, raw := range ro.positions {
		position, err := matchPosition(raw)
		if err != nil {
			return form, err
		}
		if !form.HasPosition(position) {
			form.TogglePosition(position)
		}
	}
	return form, nil
}

func newReserveCmd(opts *rootOptions) *cobra.Command {
	var ro reserveOptions
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Book a performance slot at a venue",
		Example: `  buskport reserve --team "Night Owls" --venue Hongdae --date 2026-03-20 --slot 18:00 --slot 19:00
  buskport reserve --team Duo --venue 3 --date 2026-03-21 --slot 14:00-15:00 --position Guitarist`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			venues, err := e.venues(cmd.Context())
			if err != nil {
				return fmt.Errorf("load venues: %s", service.UserMessage(err))
			}
			venue, err := resolveVenue(venues, ro.venue)
			if err != nil {
				return err
			}
			form, err := buildForm(ro, venue.LocationId)
			if err != nil {
				return err
			}
			perf, err := form.Request()
			if err != nil {
				return err
			}

			if _, err := e.client.CreatePerformance(cmd.Context(), perf); err != nil {
				e.logger.Warn("reservation failed", zap.Error(err))
				msg := service.UserMessage(err)
				if service.IsAuthRequired(err) {
					msg += " Run `buskport login` first."
				}
				return fmt.Errorf("reservation failed: %s", msg)
			}

			at, err := perf.StartsAt(e.loc)
			if err == nil {
				key := calendar.DateOf(at)
				if err := store.InvalidateMonthCache(e.client.BaseURL(), fmt.Sprintf("%04d-%02d", key.Year, int(key.Month))); err != nil {
					e.logger.Debug("invalidate month cache failed", zap.Error(err))
				}
			}
			if err := store.RememberVenue(venue); err != nil {
				e.logger.Debug("remember venue failed", zap.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reserved %s at %s on %s (%s).\n",
				perf.Title, venue.DisplayName(), strings.TrimSpace(ro.date), strings.Join(form.Slots.Selected(), ", "))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&ro.team, "team", "", "team or artist name")
	flags.StringVar(&ro.venue, "venue", "", "venue id or name")
	flags.StringVar(&ro.date, "date", "", "performance date (YYYY-MM-DD)")
	flags.StringSliceVar(&ro.slots, "slot", nil, fmt.Sprintf("time slot, repeatable up to %d (e.g. 18:00 or 18:00-19:00)", reservation.MaxSlots))
	flags.StringVar(&ro.songs, "songs", "", "songs you plan to play")
	flags.StringSliceVar(&ro.positions, "position", nil, "position you are looking for, repeatable")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
