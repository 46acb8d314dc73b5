package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"buskport-cli/model"
)

func intPtr(v int) *int { return &v }

func TestWrite_OneEventPerPerformance(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	perfs := []model.Performance{
		{PerformanceId: 1, Title: "Acoustic evening", PerformanceDatetime: "2026-03-10T19:00:00", LocationId: intPtr(2), SongList: "Wonderwall", RequiredPositions: `["Guitarist"]`},
		{PerformanceId: 2, Title: "Noon jam", PerformanceDatetime: "2026-03-11T12:00:00", LocationId: intPtr(99)},
		{PerformanceId: 3, Title: "Broken", PerformanceDatetime: "soon"},
	}
	venues := []model.Location{{LocationId: 2, NameEn: "Hongdae Playground", NameKo: "홍대 놀이터"}}

	var buf bytes.Buffer
	skipped, err := Write(&buf, perfs, venues, Options{Name: "BuskPort March 2026", Location: seoul, Now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", skipped)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	start, err := first.GetStartAt()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	want := time.Date(2026, time.March, 10, 19, 0, 0, 0, seoul)
	if !start.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, start)
	}
	end, err := first.GetEndAt()
	if err != nil || !end.Equal(want.Add(time.Hour)) {
		t.Fatalf("unexpected end %s err=%v", end, err)
	}
	if p := first.GetProperty(ical.ComponentPropertyLocation); p == nil || p.Value != "홍대 놀이터 (Hongdae Playground)" {
		t.Fatalf("unexpected location property: %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyUniqueId); p == nil || p.Value != "performance-1@buskport" {
		t.Fatalf("unexpected uid: %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyDescription); p == nil || !strings.Contains(p.Value, "Guitarist") {
		t.Fatalf("unexpected description: %+v", p)
	}

	if p := events[1].GetProperty(ical.ComponentPropertyLocation); p != nil {
		t.Fatalf("unresolved venue must not set a location, got %q", p.Value)
	}
}

func TestCalendar_Empty(t *testing.T) {
	cal, skipped := Calendar(nil, nil, Options{})
	if skipped != 0 || len(cal.Events()) != 0 {
		t.Fatalf("expected empty calendar, got %d events, %d skipped", len(cal.Events()), skipped)
	}
	if !strings.Contains(cal.Serialize(), "PRODID:"+productID) {
		t.Fatal("expected product id in output")
	}
}
