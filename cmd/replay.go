package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"race-telemetry/core/logger"
	"race-telemetry/core/reconcile"
	"race-telemetry/core/telemetry"
	"race-telemetry/core/timecodec"

	"github.com/spf13/cobra"
)

var (
	replayFilter string
	replayLaps   int
	replayDebug  bool
)

// replayCmd feeds a recorded event file through an engine.
var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a JSON-lines event file and print the resulting standings",
	Long: `Reads one event per line (a {"type","data"} envelope or a race-data body),
applies each to a fresh engine and prints the standings and the newest laps.

Examples:
  race-telemetry replay session.jsonl
  race-telemetry replay session.jsonl --filter top:3 --laps 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if replayDebug {
			level = "debug"
		}
		logg, err := logger.New(&logger.Config{Level: level, Format: "console"})
		if err != nil {
			return err
		}
		defer logg.Sync()

		filter, err := reconcile.ParseFilter(replayFilter)
		if err != nil {
			return err
		}

		engine, err := newEngine(telemetry.Config{DefaultFilter: replayFilter}, logg)
		if err != nil {
			return err
		}
		engine.Connect()

		stats, err := replayFile(engine, args[0], logg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d events, %d applied, %d rejected\n\n", stats.Lines, stats.Applied, stats.Rejected)
		printSession(out, engine.SessionInfo())
		printStandings(out, engine, filter)
		if replayLaps > 0 {
			printLaps(out, engine.RecentLaps(replayLaps))
		}
		return nil
	},
}

func printSession(w io.Writer, s reconcile.SessionInfo) {
	fmt.Fprintf(w, "%s  %s  flag=%s  status=%s  elapsed=%s\n\n",
		s.TrackName, s.SessionName, s.Flag, s.Status, timecodec.Format(s.ElapsedMs, timecodec.Full))
}

func printStandings(w io.Writer, engine *reconcile.Engine, f reconcile.Filter) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tDRIVER\tCAR\tLAPS\tBEST\tLAST\tGAP\tSTATUS")
	for _, d := range engine.RankedStandings(f) {
		pos := "-"
		if d.Position != nil {
			pos = strconv.Itoa(*d.Position)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			pos, d.Name, engine.Car(d.CarID).Name, d.LapsCompleted,
			timecodec.FormatOptional(d.BestLapMs, timecodec.Full),
			timecodec.FormatOptional(d.LastLapMs, timecodec.Full),
			timecodec.FormatOptional(d.GapMs, timecodec.Compact),
			d.Status)
	}
	_ = tw.Flush()
}

func printLaps(w io.Writer, laps []reconcile.LapFeedEntry) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DRIVER\tLAP\tTIME\tAVG SECTOR\tPB")
	for _, e := range laps {
		pb := ""
		if e.Lap.IsPersonalBest {
			pb = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			e.DriverName, e.Lap.LapNumber,
			timecodec.FormatOptional(e.Lap.LapTimeMs, timecodec.Full),
			timecodec.FormatOptional(e.AverageSectorMs, timecodec.Compact),
			pb)
	}
	_ = tw.Flush()
}

func init() {
	replayCmd.Flags().StringVar(&replayFilter, "filter", "all", "standings filter (all, top, topN, top:N)")
	replayCmd.Flags().IntVar(&replayLaps, "laps", 10, "number of recent laps to print (0 to skip)")
	replayCmd.Flags().BoolVar(&replayDebug, "debug", false, "log rejected lines")
	RootCmd.AddCommand(replayCmd)
}
