package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"race-telemetry/core/config"
	"race-telemetry/core/hub"
	"race-telemetry/core/loader"
	"race-telemetry/core/logger"
	"race-telemetry/core/middleware/auth"
	"race-telemetry/core/middleware/rayid"
	"race-telemetry/core/reconcile"
	"race-telemetry/core/storage"
	"race-telemetry/core/telemetry"
	"race-telemetry/core/transport"

	"race-telemetry/feature/export"
	"race-telemetry/feature/ingest"
	"race-telemetry/feature/live"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "race-telemetry/docs/swagger"
)

// @title Race Telemetry API
// @version 1.0
// @description Live standings, lap feed and exports for slot-car race timing.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the telemetry server",
	Long: `Starts the HTTP API, the websocket hub, the configured push transport and the
upstream poller, all sharing one reconciliation engine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)

		// 3. Engine
		engine, err := newEngine(cfg.Telemetry, logg)
		if err != nil {
			return err
		}
		g.Go(func() error { return engine.Run(gctx) })

		// 4. Browser hub
		if cfg.Server.HubEnabled() {
			h := hub.New(hub.DefaultConfig(), logg)
			engine.OnViewChanged(h.Notify)
			g.Go(func() error { return h.Run(gctx) })
			g.Go(func() error { return h.Serve(gctx, ":"+cfg.Server.WSPort) })
		}

		// 5. Storage (optional)
		var store storage.Client
		if cfg.Storage.Enabled {
			if store, err = storage.NewClient(cfg.Storage); err != nil {
				return fmt.Errorf("create storage client: %w", err)
			}
		}
		exportSvc := export.NewService(engine, store, cfg.Storage, nil, logg)
		if exportSvc.UploadsEnabled() {
			engine.SetExportHandler(exportSvc)
		}

		// 6. Transports
		if cfg.Telemetry.PollingEnabled() {
			fetcher := transport.NewHTTPFetcher(cfg.Telemetry.UpstreamURL, cfg.Telemetry.UpstreamKey, cfg.Telemetry.FetchTimeout)
			poller := transport.NewPoller(fetcher, engine, cfg.Telemetry.PollInterval, nil, logg)
			engine.SetSnapshotRequester(poller)
			g.Go(func() error { return poller.Run(gctx) })
		}
		startFeed(gctx, g, cfg.Telemetry, engine, logg)

		// 7. Fiber app
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// RayID first so every log line can be traced.
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Debug("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		if cfg.Server.Swagger {
			app.Get("/swagger/*", swagger.HandlerDefault)
		}

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, SkipPrefixes: cfg.Server.AuthSkipPrefixes()}))

		// 8. Features
		mgr := loader.NewManager(logg)
		features := []loader.Feature{
			live.NewFeature(engine, logg),
			ingest.NewFeature(engine, logg, cfg.Telemetry.Transport == telemetry.TransportWebhook),
			export.NewFeature(exportSvc),
		}
		for _, f := range features {
			if err := mgr.Register(f); err != nil {
				return err
			}
		}
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 9. Serve until a signal or a component fails
		g.Go(func() error {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("transport", cfg.Telemetry.Transport))
			return app.Listen(":" + cfg.Server.Port)
		})
		g.Go(func() error {
			<-gctx.Done()
			logg.Info("Shutting down server...")
			return app.Shutdown()
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// startFeed connects the push transport. Webhooks have no connection of their
// own, so the engine is marked connected right away.
func startFeed(ctx context.Context, g *errgroup.Group, cfg telemetry.Config, engine *reconcile.Engine, logg *zap.Logger) {
	switch cfg.Transport {
	case telemetry.TransportWebsocket:
		feed := transport.NewWSFeed(transport.WSConfig{
			URL:           cfg.FeedURL,
			APIKey:        cfg.UpstreamKey,
			ReconnectWait: cfg.ReconnectWait,
		}, engine, nil, logg)
		g.Go(func() error { return feed.Run(ctx) })
	case telemetry.TransportNATS:
		feed := transport.NewNATSFeed(transport.NATSConfig{
			URL:           cfg.NATSURL,
			Subject:       cfg.NATSSubject,
			MaxReconnects: cfg.MaxReconnects,
			ReconnectWait: cfg.ReconnectWait,
		}, engine, logg)
		g.Go(func() error { return feed.Run(ctx) })
	default:
		engine.Connect()
	}
}

func init() {
	RootCmd.AddCommand(startCmd)
}
