package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/go-cmp/cmp"

	"buskport-cli/model"
	"buskport-cli/store"
)

func intPtr(v int) *int { return &v }

type fakeAPI struct {
	mu       sync.Mutex
	reserve  int
	booked   []model.Performance
	loggedIn string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []model.Location{
			{LocationId: 1, NameEn: "Hongdae", Address: "Mapo-gu", ColorCode: "green"},
			{LocationId: 2, NameEn: "Sinchon", Address: "Seodaemun-gu", ColorCode: "red"},
		})
	})
	mux.HandleFunc("/performances", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.reserve != 0 {
				w.WriteHeader(f.reserve)
				return
			}
			var perf model.Performance
			_ = json.NewDecoder(r.Body).Decode(&perf)
			f.booked = append(f.booked, perf)
			w.WriteHeader(http.StatusCreated)
			return
		}
		writeJSON(w, []model.Performance{
			{PerformanceId: 1, Title: "Night Owls", PerformanceDatetime: "2026-03-10T18:00:00", LocationId: intPtr(1)},
			{PerformanceId: 2, Title: "Morning Duo", PerformanceDatetime: "2026-03-10T09:00:00", LocationId: intPtr(2)},
			{PerformanceId: 3, Title: "Solo Cello", PerformanceDatetime: "2026-03-11T12:00:00", LocationId: intPtr(2)},
		})
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") != "RECRUIT" {
			writeJSON(w, []model.Post{})
			return
		}
		writeJSON(w, []model.Post{
			{PostId: 4, Title: "Looking for a bassist", AuthorName: "mina", Category: model.CategoryRecruit, CreatedAt: "2026-03-01T10:00:00"},
			{PostId: 5, Title: "Drummer wanted", AuthorName: "joon", Category: model.CategoryRecruit},
		})
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.loggedIn = req.UserId
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	api    *fakeAPI
	srv    *httptest.Server
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("BUSKPORT_API_BASE", "")
	t.Setenv("BUSKPORT_LOG_LEVEL", "")

	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	config := filepath.Join(dir, "config.yaml")
	content := "timezone: UTC\ncache:\n  venues: 0s\n  performances: 0s\n"
	if err := os.WriteFile(config, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &harness{api: api, srv: srv, config: config}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("1.2.3", "abc123")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	base := []string{"--config", h.config, "--api", h.srv.URL, "--log-level", "error"}
	root.SetArgs(append(args, base...))
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd("1.2.3", "abc123")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "buskport 1.2.3 (abc123)" {
		t.Fatalf("unexpected version %q", got)
	}
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	d, err := parseMonth("", now)
	if err != nil || d.Year != 2026 || d.Month != time.March || d.Day != 1 {
		t.Fatalf("unexpected default month %v (%v)", d, err)
	}
	d, err = parseMonth("2025-12", now)
	if err != nil || d.Year != 2025 || d.Month != time.December {
		t.Fatalf("unexpected month %v (%v)", d, err)
	}
	if _, err := parseMonth("12/2025", now); err == nil {
		t.Fatal("expected an error for a malformed month")
	}
}

func TestBuildForm(t *testing.T) {
	form, err := buildForm(reserveOptions{
		team:      "Night Owls",
		date:      "2026-03-20",
		slots:     []string{"19:00", "18:00-19:00"},
		positions: []string{"guitarist", "Guitarist"},
	}, 1)
	if err != nil {
		t.Fatalf("buildForm: %v", err)
	}
	if diff := cmp.Diff([]string{"18:00-19:00", "19:00-20:00"}, form.Slots.Selected()); diff != "" {
		t.Fatalf("unexpected slots (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Guitarist"}, form.Positions()); diff != "" {
		t.Fatalf("unexpected positions (-want +got):\n%s", diff)
	}

	if _, err := buildForm(reserveOptions{slots: []string{"09:00", "10:00", "11:00"}}, 1); err == nil {
		t.Fatal("expected an error for more than two slots")
	}
	if _, err := buildForm(reserveOptions{slots: []string{"23:00"}}, 1); err == nil {
		t.Fatal("expected an error for an unknown slot")
	}
}

func TestResolveVenue(t *testing.T) {
	venues := []model.Location{
		{LocationId: 1, NameEn: "Hongdae Playground"},
		{LocationId: 2, NameEn: "Hongdae Station"},
		{LocationId: 3, NameEn: "Sinchon"},
	}
	for ref, want := range map[string]int{"3": 3, "sinchon": 3, "Hongdae Station": 2, "playground": 1} {
		got, err := resolveVenue(venues, ref)
		if err != nil || got.LocationId != want {
			t.Fatalf("resolveVenue(%q) = %d, %v; want %d", ref, got.LocationId, err, want)
		}
	}
	if _, err := resolveVenue(venues, "hongdae"); err == nil || !strings.Contains(err.Error(), "several") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := resolveVenue(venues, "9"); err == nil {
		t.Fatal("expected unknown id error")
	}
}

func TestScheduleCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "schedule", "--month", "2026-03")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for _, want := range []string{"night owls", "morning duo", "solo cello", "hongdae", "3 performances"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "Night Owls") > strings.Index(out, "Morning Duo") {
		t.Fatal("performances of a day should keep fetch order")
	}
}

func TestCalendarCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "calendar", "--month", "2026-03")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if !strings.Contains(out, "10 (2)") || !strings.Contains(out, "11 (1)") {
		t.Fatalf("expected counts in grid:\n%s", out)
	}
	if !strings.Contains(out, "March 2026") {
		t.Fatalf("expected month title:\n%s", out)
	}
}

func TestVenuesCmd_Search(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "venues", "--search", "sinchon")
	if err != nil {
		t.Fatalf("venues: %v", err)
	}
	if !strings.Contains(out, "Sinchon") || strings.Contains(out, "Hongdae") {
		t.Fatalf("unexpected venues output:\n%s", out)
	}
}

func TestPostsCmd_Category(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "posts", "--category", "recruit", "--search", "bass")
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	if !strings.Contains(out, "Looking for a bassist") || strings.Contains(out, "Drummer") {
		t.Fatalf("unexpected posts output:\n%s", out)
	}
	if _, err := h.run(t, "", "posts", "--category", "gossip"); err == nil {
		t.Fatal("expected an error for an unknown category")
	}
}

func TestReserveCmd(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "reserve", "--team", "Night Owls", "--venue", "hongdae", "--date", "2026-03-20", "--slot", "19:00", "--slot", "18:00", "--position", "bassist")
	if err != nil {
		t.Fatalf("reserve: %v\n%s", err, out)
	}
	if len(h.api.booked) != 1 {
		t.Fatalf("expected one booking, got %d", len(h.api.booked))
	}
	got := h.api.booked[0]
	if got.PerformanceDatetime != "2026-03-20T18:00:00" || got.LocationId == nil || *got.LocationId != 1 {
		t.Fatalf("unexpected booking %+v", got)
	}
	if got.RequiredPositions != `["Bassist"]` || got.Status != model.StatusScheduled {
		t.Fatalf("unexpected booking %+v", got)
	}
	if !strings.Contains(out, "Reserved Night Owls at Hongdae") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReserveCmd_Errors(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "reserve", "--team", "Duo", "--venue", "1", "--date", "2026-03-20")
	if err == nil || !strings.Contains(err.Error(), "time slots") {
		t.Fatalf("expected missing slot error, got %v", err)
	}

	h.api.reserve = http.StatusUnauthorized
	_, err = h.run(t, "", "reserve", "--team", "Duo", "--venue", "1", "--date", "2026-03-20", "--slot", "10:00")
	if err == nil || !strings.Contains(err.Error(), "buskport login") {
		t.Fatalf("expected login hint, got %v", err)
	}
}

func TestLoginLogoutCmd(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "wrong\n", "login", "--user", "alice"); err == nil || !strings.Contains(err.Error(), "invalid ID or password") {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	out, err := h.run(t, "alice\nsecret\n", "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as alice.") || h.api.loggedIn != "alice" {
		t.Fatalf("unexpected login output %q", out)
	}

	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "buskport", store.Scoped(h.srv.URL, "session.json"))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if !strings.Contains(string(data), "JSESSIONID") {
		t.Fatalf("expected saved cookie, got %s", data)
	}

	out, err = h.run(t, "", "logout")
	if err != nil || !strings.Contains(out, "Logged out.") {
		t.Fatalf("logout: %v %q", err, out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected session file to be removed, got %v", err)
	}
}

func TestExportCmd(t *testing.T) {
	h := newHarness(t)
	target := filepath.Join(t.TempDir(), "march.ics")
	if _, err := h.run(t, "", "export", "--month", "2026-03", "-o", target); err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := os.Open(target)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	cal, err := ical.ParseCalendar(f)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if got := len(cal.Events()); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
}
