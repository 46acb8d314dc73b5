package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"buskport-cli/model"
)

func intPtr(v int) *int { return &v }

func TestBind_GroupsByDateAndResolvesColors(t *testing.T) {
	venues := []model.Location{
		{LocationId: 1, NameEn: "Hongdae", ColorCode: "green"},
		{LocationId: 2, NameEn: "Sinchon", ColorCode: "RED"},
		{LocationId: 3, NameEn: "Itaewon", ColorCode: "#ff00ff"},
	}
	perfs := []model.Performance{
		{PerformanceId: 1, Title: "A", PerformanceDatetime: "2026-03-10T18:00:00", LocationId: intPtr(1)},
		{PerformanceId: 2, Title: "B", PerformanceDatetime: "2026-03-11T12:00:00", LocationId: intPtr(2)},
		{PerformanceId: 3, Title: "C", PerformanceDatetime: "2026-03-10T09:00:00", LocationId: intPtr(99)},
	}

	b := Bind(perfs, venues, time.UTC)
	grid := BuildMonth(2026, time.March)

	chips := map[int][]int{}
	for _, row := range grid {
		for _, cell := range row {
			d, ok := cell.Date()
			if !ok {
				continue
			}
			for _, p := range b.On(d) {
				chips[d.Day] = append(chips[d.Day], p.PerformanceId)
			}
		}
	}
	want := map[int][]int{10: {1, 3}, 11: {2}}
	if diff := cmp.Diff(want, chips); diff != "" {
		t.Fatalf("unexpected chips (-want +got):\n%s", diff)
	}

	if got := b.ColorOf(perfs[0]); got != ColorGreen {
		t.Fatalf("expected green, got %s", got)
	}
	if got := b.ColorOf(perfs[1]); got != ColorRed {
		t.Fatalf("expected red, got %s", got)
	}
	if got := b.ColorOf(perfs[2]); got != DefaultColor {
		t.Fatalf("expected default color for unknown venue, got %s", got)
	}
	if got := b.VenueName(perfs[0]); got != "Hongdae" {
		t.Fatalf("unexpected venue name %q", got)
	}
}

func TestBind_PreservesFetchOrderWithinDay(t *testing.T) {
	var perfs []model.Performance
	for i := 0; i < 6; i++ {
		// Later times first so ordering by time would differ from fetch order.
		perfs = append(perfs, model.Performance{
			PerformanceId:       i,
			PerformanceDatetime: time.Date(2026, 5, 2, 20-i, 0, 0, 0, time.UTC).Format(model.DateTimeLayout),
		})
	}
	b := Bind(perfs, nil, time.UTC)
	got := b.On(NewDate(2026, time.May, 2))
	if diff := cmp.Diff(perfs, got); diff != "" {
		t.Fatalf("order changed (-want +got):\n%s", diff)
	}
}

func TestBind_ToleratesMissingAndBadData(t *testing.T) {
	perfs := []model.Performance{
		{PerformanceId: 1, PerformanceDatetime: "2026-03-10T18:00:00"},
		{PerformanceId: 2, PerformanceDatetime: "not a date"},
		{PerformanceId: 3, PerformanceDatetime: "2026-03-10T19:00:00.000"},
	}
	b := Bind(perfs, []model.Location{{LocationId: 1}}, time.UTC)
	if b.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", b.Skipped)
	}
	if b.Count() != 2 {
		t.Fatalf("expected 2 bound, got %d", b.Count())
	}
	if got := b.ColorOf(perfs[0]); got != DefaultColor {
		t.Fatalf("expected default color without venue, got %s", got)
	}
}

func TestParseColor(t *testing.T) {
	if c, ok := ParseColor(" Purple "); !ok || c != ColorPurple {
		t.Fatalf("unexpected %v %v", c, ok)
	}
	if c, ok := ParseColor("teal"); ok || c != DefaultColor {
		t.Fatalf("unexpected %v %v", c, ok)
	}
}
