package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buskport-cli/model"
	"buskport-cli/service"
	"buskport-cli/store"
)

// venues returns the venue list, from the cache when it is fresh.
func (e *env) venues(ctx context.Context) ([]model.Location, error) {
	if cached, fresh, err := store.LoadVenueCache(e.client.BaseURL(), e.cfg.Cache.Venues); err == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	venues, err := e.client.GetLocations(ctx)
	if err != nil {
		return nil, err
	}
	model.SortLocations(venues)
	if err := store.SaveVenueCache(e.client.BaseURL(), venues); err != nil {
		e.logger.Debug("save venue cache failed", zap.Error(err))
	}
	return venues, nil
}

// resolveVenue accepts a venue id or an unambiguous name fragment.
func resolveVenue(venues []model.Location, ref string) (model.Location, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Location{}, fmt.Errorf("venue is required")
	}
	if id, err := strconv.Atoi(ref); err == nil {
		for _, v := range venues {
			if v.LocationId == id {
				return v, nil
			}
		}
		return model.Location{}, fmt.Errorf("no venue with id %d", id)
	}
	matches := model.FilterLocations(venues, ref)
	for _, v := range matches {
		if strings.EqualFold(v.NameEn, ref) || v.NameKo == ref {
			return v, nil
		}
	}
	switch len(matches) {
	case 0:
		return model.Location{}, fmt.Errorf("no venue matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, v := range matches {
			names = append(names, fmt.Sprintf("%s (%d)", v.DisplayName(), v.LocationId))
		}
		return model.Location{}, fmt.Errorf("%q matches several venues: %s", ref, strings.Join(names, ", "))
	}
}

func newVenuesCmd(opts *rootOptions) *cobra.Command {
	var search string
	var near bool
	cmd := &cobra.Command{
		Use:   "venues",
		Short: "List busking venues",
		Args:  cobra.NoArgs,
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
			venues = model.FilterLocations(venues, search)
			if len(venues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No venues found.")
				return nil
			}

			favorites, err := store.LoadFavoriteVenues()
			if err != nil {
				e.logger.Warn("load favorites failed", zap.Error(err))
			}

			var rows []service.VenueDistance
			if near {
				pos, err := service.NewLocator(nil, e.logger).Locate(cmd.Context())
				if err != nil {
					return fmt.Errorf("detect location: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sorted by distance from %s\n", pos.Label())
				rows = service.ByDistance(venues, pos)
			} else {
				for _, v := range store.FavoritesFirst(venues, favorites) {
					rows = append(rows, service.VenueDistance{Venue: v})
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			header := table.Row{"ID", "Name", "Address", "Rating"}
			if near {
				header = append(header, "Distance")
			}
			t.AppendHeader(header)
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, WidthMax: 28},
				{Number: 3, WidthMax: 40},
			})
			for _, r := range rows {
				v := r.Venue
				name := v.DisplayName()
				if favorites[v.LocationId] {
					name = "★ " + name
				}
				rating := ""
				if v.Rating != nil {
					rating = fmt.Sprintf("%.1f", *v.Rating)
				}
				row := table.Row{v.LocationId, name, v.DisplayAddress(), rating}
				if near {
					distance := "?"
					if r.Known {
						distance = fmt.Sprintf("%.1f km", r.KM)
					}
					row = append(row, distance)
				}
				t.AppendRow(row)
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by name or address")
	cmd.Flags().BoolVar(&near, "near", false, "sort by distance from your approximate location")
	return cmd
}
