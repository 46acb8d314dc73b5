package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"buskport-cli/model"
)

// Schedule is everything a calendar view needs for one range.
type Schedule struct {
	Start        time.Time
	End          time.Time
	Performances []model.Performance
	Venues       []model.Location
}

// LoadSchedule fetches performances for [start, end] and the venue list
// concurrently. The first failure cancels the other request.
func (c *Client) LoadSchedule(ctx context.Context, start time.Time, end time.Time) (Schedule, error) {
	g, gctx := errgroup.WithContext(ctx)

	var perfs []model.Performance
	var venues []model.Location
	g.Go(func() error {
		var err error
		perfs, err = c.GetPerformances(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		venues, err = c.GetLocations(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Schedule{}, err
	}
	model.SortLocations(venues)
	return Schedule{Start: start, End: end, Performances: perfs, Venues: venues}, nil
}
