package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func intPtr(v int) *int { return &v }

func TestPerformanceStartsAt(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "local", raw: "2026-03-10T18:00:00", want: time.Date(2026, 3, 10, 18, 0, 0, 0, seoul)},
		{name: "fraction", raw: "2026-03-10T18:00:00.123", want: time.Date(2026, 3, 10, 18, 0, 0, 0, seoul)},
		{name: "offset", raw: "2026-03-10T09:00:00Z", want: time.Date(2026, 3, 10, 18, 0, 0, 0, seoul)},
		{name: "date only", raw: "2026-03-10", want: time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Performance{PerformanceDatetime: tt.raw}.StartsAt(seoul)
			if err != nil {
				t.Fatalf("StartsAt(%q): %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("StartsAt(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}

	for _, raw := range []string{"", "tomorrow", "2026-13-40T00:00:00"} {
		if _, err := (Performance{PerformanceDatetime: raw}).StartsAt(seoul); err == nil {
			t.Fatalf("expected an error for %q", raw)
		}
	}
}

func TestPerformanceClockLabel(t *testing.T) {
	if got := (Performance{PerformanceDatetime: "2026-03-10T18:30:00"}).ClockLabel(); got != "18:30" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Performance{PerformanceDatetime: "2026-03-10"}).ClockLabel(); got != "--:--" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestPositionsRoundTrip(t *testing.T) {
	encoded := EncodePositions([]string{"Vocalist", "Bassist"})
	if encoded != `["Vocalist","Bassist"]` {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if diff := cmp.Diff([]string{"Vocalist", "Bassist"}, Performance{RequiredPositions: encoded}.Positions()); diff != "" {
		t.Fatalf("unexpected positions (-want +got):\n%s", diff)
	}
	if EncodePositions(nil) != "" {
		t.Fatal("empty positions should encode to an empty string")
	}
	if got := (Performance{RequiredPositions: "Vocalist"}).Positions(); got != nil {
		t.Fatalf("malformed positions should decode to nil, got %v", got)
	}
}

func TestLocationDisplay(t *testing.T) {
	both := Location{NameKo: "홍대", NameEn: "Hongdae", Address: "마포구", AddressEng: "Mapo-gu"}
	if got := both.DisplayName(); got != "홍대 (Hongdae)" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := both.DisplayAddress(); got != "Mapo-gu" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := (Location{NameKo: "신촌"}).DisplayName(); got != "신촌" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestSortAndFilterLocations(t *testing.T) {
	venues := []Location{
		{LocationId: 3, NameEn: "Sinchon"},
		{LocationId: 1, NameEn: "Hongdae", SortOrder: intPtr(5)},
		{LocationId: 2, NameEn: "Itaewon", NameKo: "이태원"},
	}
	SortLocations(venues)
	var ids []int
	for _, v := range venues {
		ids = append(ids, v.LocationId)
	}
	if diff := cmp.Diff([]int{2, 3, 1}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	if got := FilterLocations(venues, "SIN"); len(got) != 1 || got[0].LocationId != 3 {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := FilterLocations(venues, "이태"); len(got) != 1 || got[0].LocationId != 2 {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := FilterLocations(venues, "  "); len(got) != 3 {
		t.Fatalf("blank query should return everything, got %d", len(got))
	}
}

func TestPostCategories(t *testing.T) {
	c, err := ParsePostCategory(" recruit ")
	if err != nil || c != CategoryRecruit {
		t.Fatalf("unexpected category %q (%v)", c, err)
	}
	if _, err := ParsePostCategory("gossip"); err == nil {
		t.Fatal("expected an error for an unknown category")
	}
	if CategoryReview.Label() != "Review" {
		t.Fatalf("unexpected label %q", CategoryReview.Label())
	}
}

func TestPostAuthorAndFilter(t *testing.T) {
	posts := []Post{
		{PostId: 1, Title: "Need a drummer", AuthorName: "mina"},
		{PostId: 2, Title: "Great night", Content: "The DRUMS were loud", UserId: intPtr(7)},
		{PostId: 3, Title: "Hello"},
	}
	if got := posts[1].Author(); got != "User 7" {
		t.Fatalf("unexpected author %q", got)
	}
	if got := posts[2].Author(); got != "Unknown" {
		t.Fatalf("unexpected author %q", got)
	}
	got := FilterPosts(posts, "drum")
	if len(got) != 2 || got[0].PostId != 1 || got[1].PostId != 2 {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if got := FilterPosts(posts, "MINA"); len(got) != 1 {
		t.Fatalf("expected author match, got %+v", got)
	}
}
