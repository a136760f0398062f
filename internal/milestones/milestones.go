// Package milestones holds the relationship dates shown as day counters and
// finds the photos filed under each date.
package milestones

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of milestone dates and photo directory names.
const DateLayout = "2006-01-02"

//go:embed dates.yaml
var defaultDates []byte

// ErrNoPhotos is returned by Photos when a date has no images.
var ErrNoPhotos = errors.New("no photos found")

var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Milestone is one dated event.
type Milestone struct {
	Date  string `yaml:"date"`
	Event string `yaml:"event"`
}

// Time returns the milestone date at midnight in loc.
func (m Milestone) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, m.Date, loc)
}

// DaysSince returns the number of whole calendar days from the milestone to
// now, in now's location. Future milestones give negative counts.
func (m Milestone) DaysSince(now time.Time) (int, error) {
	start, err := m.Time(now.Location())
	if err != nil {
		return 0, fmt.Errorf("milestone %q: %w", m.Event, err)
	}
	return calendarDays(start, now), nil
}

// calendarDays counts midnights between a and b using their wall dates, so
// DST shifts never drop or add a day.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Default returns the compiled-in milestones, oldest first.
func Default() []Milestone {
	ms, err := Parse(defaultDates)
	if err != nil {
		panic(fmt.Sprintf("milestones: embedded dates: %v", err))
	}
	return ms
}

// Parse decodes a YAML milestone list and validates every date.
func Parse(data []byte) ([]Milestone, error) {
	var ms []Milestone
	if err := yaml.Unmarshal(data, &ms); err != nil {
		return nil, err
	}
	for _, m := range ms {
		if _, err := m.Time(time.UTC); err != nil {
			return nil, fmt.Errorf("milestone %q: %w", m.Event, err)
		}
	}
	slices.SortStableFunc(ms, func(a, b Milestone) int { return strings.Compare(a.Date, b.Date) })
	return ms, nil
}

// Latest returns the most recent milestone that is not after now.
func Latest(ms []Milestone, now time.Time) (Milestone, bool) {
	today := now.Format(DateLayout)
	past := lo.Filter(ms, func(m Milestone, _ int) bool { return m.Date <= today })
	if len(past) == 0 {
		return Milestone{}, false
	}
	return past[len(past)-1], true
}

// Photos lists the images stored in root/<date>/, ordered by their numeric
// name first ("2.jpg" before "10.jpg") and then lexically.
func Photos(root, date string) ([]string, error) {
	dir := filepath.Join(root, date)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading photos: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if photoExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", date, ErrNoPhotos)
	}

	slices.SortFunc(names, comparePhotoNames)
	return lo.Map(names, func(n string, _ int) string { return filepath.Join(dir, n) }), nil
}

func comparePhotoNames(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSuffix(a, filepath.Ext(a)))
	nb, errB := strconv.Atoi(strings.TrimSuffix(b, filepath.Ext(b)))
	switch {
	case errA == nil && errB == nil && na != nb:
		return na - nb
	case errA == nil && errB != nil:
		return -1
	case errA != nil && errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
