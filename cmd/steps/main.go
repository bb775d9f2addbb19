// Package main is the entry point for the steps dashboard. Without a
// subcommand it runs the terminal UI; the subcommands publish widgets, import
// exports and manage read access.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/steps-dashboard-tui/internal/app"
	"github.com/j-veylop/steps-dashboard-tui/internal/config"
	"github.com/j-veylop/steps-dashboard-tui/internal/db"
	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/services"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/importer"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/widget"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/tabs/day"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/tabs/settings"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/tabs/totals"
	"github.com/j-veylop/steps-dashboard-tui/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "steps",
		Short: "Daily steps dashboard with desktop widgets",
		Long: `Shows today's steps, weekly and monthly totals, and keeps desktop widget
files up to date.

Configuration is read from the environment and from the first .env file found
in the current directory, ~/.config/steps-dashboard/.env or ~/.steps/.env.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
				return nil
			}
			return runTUI(cmd.Context())
		},
	}
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")

	root.AddCommand(newWidgetCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newAccessCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the configuration and sends logs to the configured file.
func setup() (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closer, err := logger.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, closer, nil
}

func newManager(cfg *config.Config) (*services.Manager, error) {
	mgr, err := services.NewManager(cfg, services.Options{Render: components.RenderWidgetPlain})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return mgr, nil
}

func closeManager(mgr *services.Manager) {
	if err := mgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
	}
}

func runTUI(parent context.Context) error {
	cfg, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	mgr, err := newManager(cfg)
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	model := app.NewModel(mgr)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		day.New(state),
		totals.New(state),
		settings.New(state, cfg, mgr.Bridge().Enabled()),
	})

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	mgr.Start(ctx)
	logger.Info("dashboard started", "version", version.GetVersion(), "widgets", mgr.Bridge().Enabled())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		select {
		case <-sigChan:
			p.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func newWidgetCmd() *cobra.Command {
	var (
		kindName string
		watch    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Publish widget timelines to the widget directory",
		Long: `Writes one .json and one .txt file per widget kind. With --watch it keeps
running and republishes whenever the timeline asks to be refreshed. With
--json it prints the payloads instead of writing files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds := models.AllWidgetKinds
			if kindName != "" {
				kind, err := models.ParseWidgetKind(kindName)
				if err != nil {
					return err
				}
				kinds = []models.WidgetKind{kind}
			}

			cfg, logCloser, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logCloser.Close() }()

			mgr, err := newManager(cfg)
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			authorize(ctx, mgr)

			if asJSON {
				return printPayloads(ctx, cmd.OutOrStdout(), mgr, kinds)
			}

			bridge := mgr.Bridge()
			if !bridge.Enabled() {
				return fmt.Errorf("widgets are disabled or %s is not writable", cfg.WidgetDir)
			}

			if !watch {
				timelines, err := bridge.Publish(ctx, kinds...)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "published %d widgets to %s, next refresh %s\n",
					len(timelines), bridge.Dir(), earliestRefresh(timelines).Format("15:04"))
				return nil
			}

			return runWidgetDaemon(ctx, cmd.OutOrStdout(), bridge, kinds)
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "widget kind: small|medium (default all)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep publishing on the timeline schedule")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print payloads instead of writing files")
	return cmd
}

// accessRequester asks the health store for read access.
type accessRequester interface {
	Authorize(ctx context.Context) (bool, error)
}

// authorize grants undetermined metrics before the first read, as the TUI
// does on startup. Metrics the user denied stay denied and read as the
// placeholder.
func authorize(ctx context.Context, a accessRequester) bool {
	granted, err := a.Authorize(ctx)
	if err != nil {
		logger.Warn("health access request failed", "error", err)
		return false
	}
	if !granted {
		logger.Warn("health access denied, widgets will show sample data")
	}
	return granted
}

func printPayloads(ctx context.Context, w io.Writer, mgr *services.Manager, kinds []models.WidgetKind) error {
	payloads := make(map[models.WidgetKind]widget.HostPayload, len(kinds))
	for _, kind := range kinds {
		payloads[kind] = widget.Payload(kind, mgr.Timeline(ctx, kind))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payloads)
}

// runWidgetDaemon publishes kinds and sleeps until the earliest
// requested refresh. Publish failures are logged and retried on the next
// round.
func runWidgetDaemon(ctx context.Context, out io.Writer, bridge *widget.HostBridge, kinds []models.WidgetKind) error {
	_, _ = fmt.Fprintf(out, "publishing widgets to %s, press Ctrl+C to stop\n", bridge.Dir())

	const retryDelay = time.Minute

	for {
		timelines, err := bridge.Publish(ctx, kinds...)
		if err != nil {
			logger.Warn("widget publish failed", "error", err)
		}

		wait := retryDelay
		if next := earliestRefresh(timelines); !next.IsZero() {
			wait = max(time.Until(next), time.Second)
		}
		logger.Debug("next widget publish", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func earliestRefresh(timelines []widget.Timeline) time.Time {
	var next time.Time
	for _, tl := range timelines {
		if next.IsZero() || tl.NextRefresh.Before(next) {
			next = tl.NextRefresh
		}
	}
	return next
}

func newImportCmd() *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import health export files into the sample store",
		Long: `Imports JSON or YAML health exports. Files already imported with the
same content are skipped. With --scan every supported file in the import
directory is imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !scan && len(args) == 0 {
				return errors.New("no files given, pass files or --scan")
			}

			cfg, logCloser, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logCloser.Close() }()

			database, err := db.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer func() { _ = database.Close() }()

			svc := importer.New(database)
			defer func() { _ = svc.Close() }()

			ctx := cmd.Context()
			var (
				results []*importer.Result
				errs    []error
			)
			if scan {
				res, err := svc.ScanDir(ctx, cfg.ImportDir)
				results = append(results, res...)
				errs = append(errs, err)
			}
			for _, path := range args {
				res, err := svc.ImportFile(ctx, path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				results = append(results, res)
			}

			for _, res := range results {
				printImportResult(cmd.OutOrStdout(), res)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&scan, "scan", false, "import every supported file in the import directory")
	return cmd
}

func printImportResult(w io.Writer, res *importer.Result) {
	name := filepath.Base(res.Path)
	if res.Unchanged {
		_, _ = fmt.Fprintf(w, "%s: unchanged\n", name)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %d parsed, %d new\n", name, res.Parsed, res.Inserted)
	for _, skipped := range res.Skipped {
		_, _ = fmt.Fprintf(w, "  skipped metric %s\n", skipped)
	}
}

func newAccessCmd() *cobra.Command {
	access := &cobra.Command{
		Use:   "access",
		Short: "Manage read access to health metrics",
	}

	access.AddCommand(
		newAccessSetCmd("allow", "Grant read access", db.AuthGranted),
		newAccessSetCmd("deny", "Deny read access", db.AuthDenied),
		newAccessSetCmd("reset", "Forget the decision so access is asked again", db.AuthNotDetermined),
		&cobra.Command{
			Use:   "status [metric...]",
			Short: "Show read access per metric",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(func(database *db.DB) error {
					kinds, err := parseMetrics(args)
					if err != nil {
						return err
					}
					for _, kind := range kinds {
						status, err := database.AuthorizationStatus(cmd.Context(), kind)
						if err != nil {
							return err
						}
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", kind, status)
					}
					return nil
				})
			},
		},
	)
	return access
}

func newAccessSetCmd(use, short string, status db.AuthStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [metric...]",
		Short: short + " (default all metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(database *db.DB) error {
				kinds, err := parseMetrics(args)
				if err != nil {
					return err
				}
				for _, kind := range kinds {
					if err := database.SetAuthorization(cmd.Context(), kind, status); err != nil {
						return err
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d metrics\n", status, len(kinds))
				return nil
			})
		},
	}
}

func withDatabase(fn func(*db.DB) error) error {
	cfg, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = database.Close() }()

	return fn(database)
}

// parseMetrics resolves metric names, defaulting to every metric.
func parseMetrics(names []string) ([]health.MetricKind, error) {
	if len(names) == 0 {
		return health.AllMetrics, nil
	}

	kinds := make([]health.MetricKind, 0, len(names))
	for _, name := range names {
		kind, err := health.ParseMetricKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
