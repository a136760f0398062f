package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nie11kun/Love-Timeline/internal/milestones"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type DatesParams struct {
	Photos string `optional:"true" help:"Photo root; counts the images under <root>/<date>/" default:""`
}

func DatesCmd() *cobra.Command {
	return boa.CmdT[DatesParams]{
		Use:         "dates",
		Short:       "Show the milestone day counters",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *DatesParams, cmd *cobra.Command, args []string) {
			os.Exit(RunDates(params, time.Now(), os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

func RunDates(params *DatesParams, now time.Time, stdout, stderr io.Writer) int {
	ms := milestones.Default()

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	header := table.Row{"Date", "Event", "Days"}
	if params.Photos != "" {
		header = append(header, "Photos")
	}
	t.AppendHeader(header)

	for _, m := range ms {
		row, err := dateRow(m, now, params.Photos)
		if err != nil {
			fmt.Fprintf(stderr, "dates: %v\n", err)
			return 1
		}
		t.AppendRow(row)
	}
	if latest, ok := milestones.Latest(ms, now); ok {
		t.AppendFooter(table.Row{"", "latest: " + latest.Event, ""})
	}
	t.Render()
	return 0
}

func dateRow(m milestones.Milestone, now time.Time, photoRoot string) (table.Row, error) {
	days, err := m.DaysSince(now)
	if err != nil {
		return nil, err
	}
	row := table.Row{m.Date, m.Event, days}
	if photoRoot == "" {
		return row, nil
	}
	photos, err := milestones.Photos(photoRoot, m.Date)
	if err != nil && !errors.Is(err, milestones.ErrNoPhotos) && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	names := lo.Map(photos, func(p string, _ int) string { return filepath.Base(p) })
	return append(row, strings.Join(names, " ")), nil
}
