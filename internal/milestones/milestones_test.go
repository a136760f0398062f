package milestones

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultHasSevenOrderedDates(t *testing.T) {
	ms := Default()
	if len(ms) != 7 {
		t.Fatalf("expected 7 milestones, got %d", len(ms))
	}
	if ms[0].Date != "2022-11-19" || ms[6].Date != "2024-06-17" {
		t.Fatalf("unexpected order: first=%s last=%s", ms[0].Date, ms[6].Date)
	}
}

func TestDaysSince(t *testing.T) {
	m := Milestone{Date: "2022-12-19", Event: "together"}
	now := time.Date(2023, 12, 19, 23, 59, 0, 0, time.UTC)
	got, err := m.DaysSince(now)
	if err != nil {
		t.Fatalf("DaysSince: %v", err)
	}
	if got != 365 {
		t.Fatalf("expected 365 days, got %d", got)
	}
}

func TestDaysSinceAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	m := Milestone{Date: "2024-03-09"}
	now := time.Date(2024, 3, 11, 0, 30, 0, 0, loc)
	got, err := m.DaysSince(now)
	if err != nil {
		t.Fatalf("DaysSince: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 days across the DST change, got %d", got)
	}
}

func TestDaysSinceFutureIsNegative(t *testing.T) {
	m := Milestone{Date: "2030-01-02"}
	got, _ := m.DaysSince(time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC))
	if got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}

func TestParseRejectsBadDate(t *testing.T) {
	if _, err := Parse([]byte("- date: \"2022-13-40\"\n  event: x\n")); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestLatest(t *testing.T) {
	ms := Default()
	m, ok := Latest(ms, time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC))
	if !ok || m.Date != "2023-10-05" {
		t.Fatalf("expected 2023-10-05, got %+v ok=%v", m, ok)
	}
	if _, ok := Latest(ms, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Fatal("expected no milestone before the first date")
	}
}

func TestPhotosListsImagesInNumericOrder(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2022-11-24")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"10.jpg", "2.PNG", "1.jpeg", "notes.txt", "cover.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Photos(root, "2022-11-24")
	if err != nil {
		t.Fatalf("Photos: %v", err)
	}
	want := []string{"1.jpeg", "2.PNG", "10.jpg", "cover.gif"}
	if len(got) != len(want) {
		t.Fatalf("expected %d photos, got %v", len(want), got)
	}
	for i, w := range want {
		if got[i] != filepath.Join(dir, w) {
			t.Fatalf("photo %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestPhotosEmptyDir(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "2024-01-28"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Photos(root, "2024-01-28"); !errors.Is(err, ErrNoPhotos) {
		t.Fatalf("expected ErrNoPhotos, got %v", err)
	}
}
