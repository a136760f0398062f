package main

import (
	"os"
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/nie11kun/Love-Timeline/cmd"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "love-timeline",
		Short:   "Play the Love Timeline songs with a spectrum bar",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			cmd.PlayCmd(),
			cmd.TracksCmd(),
			cmd.DatesCmd(),
			cmd.SnapshotCmd(),
		},
		RunFunc: func(_ *boa.NoParams, _ *cobra.Command, _ []string) {
			os.Exit(cmd.RunPlay(&cmd.PlayParams{}, os.Stderr))
		},
	}.Run()
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-(no build info)"
	}

	version := bi.Main.Version
	if version == "" {
		version = "unknown-(no version)"
	}
	return version
}
