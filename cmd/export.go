package cmd

import (
	"context"
	"fmt"
	"os"

	"race-telemetry/core/config"
	"race-telemetry/core/logger"
	"race-telemetry/core/storage"
	"race-telemetry/core/transport"
	"race-telemetry/feature/export"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportUpload bool
	exportOutput string
	exportReplay string
)

// exportCmd renders an export once from the upstream or a replay file.
var exportCmd = &cobra.Command{
	Use:   "export <race-results|lap-history>",
	Short: "Write or upload one CSV export",
	Long: `Builds the race state from the timing server (telemetry.upstream_url) or from a
replay file, then writes the CSV to stdout or a file, or uploads it to the bucket.

Examples:
  race-telemetry export race-results -o results.csv
  race-telemetry export lap-history --replay session.jsonl --upload`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		if !export.IsKnownKind(kind) {
			return fmt.Errorf("unknown export kind %q", kind)
		}

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return err
		}
		defer logg.Sync()

		engine, err := newEngine(cfg.Telemetry, logg)
		if err != nil {
			return err
		}
		engine.Connect()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		switch {
		case exportReplay != "":
			if _, err := replayFile(engine, exportReplay, logg); err != nil {
				return err
			}
		case cfg.Telemetry.PollingEnabled():
			fetcher := transport.NewHTTPFetcher(cfg.Telemetry.UpstreamURL, cfg.Telemetry.UpstreamKey, cfg.Telemetry.FetchTimeout)
			if err := pullOnce(ctx, engine, fetcher); err != nil {
				return err
			}
		default:
			return fmt.Errorf("no data source: set telemetry.upstream_url or pass --replay")
		}

		var store storage.Client
		if exportUpload {
			if store, err = storage.NewClient(cfg.Storage); err != nil {
				return err
			}
		}
		svc := export.NewService(engine, store, cfg.Storage, nil, logg)

		if exportUpload {
			obj, err := svc.Upload(ctx, kind)
			if err != nil {
				return err
			}
			logg.Info("Export uploaded", zap.String("bucket", cfg.Storage.Bucket), zap.String("key", obj.Key))
			return nil
		}

		data, err := svc.CSV(kind)
		if err != nil {
			return err
		}
		if exportOutput == "" || exportOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return os.WriteFile(exportOutput, data, 0o644)
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "upload to the configured bucket instead of writing locally")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportReplay, "replay", "", "build state from a JSON-lines event file")
	RootCmd.AddCommand(exportCmd)
}
