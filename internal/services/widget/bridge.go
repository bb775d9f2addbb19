package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

// ErrWidgetBridgeUnavailable is returned when a reload cannot be delivered.
// Callers treat it as best-effort and ignore it.
var ErrWidgetBridgeUnavailable = errors.New("widget bridge unavailable")

// Bridge asks the widget host to refresh timelines.
type Bridge interface {
	ReloadAll() error
	ReloadSteps() error
	ReloadNamed(kinds ...models.WidgetKind) error
}

var _ Bridge = (*HostBridge)(nil)

// Renderer draws a widget projection as plain text for the host's .txt file.
type Renderer func(models.WidgetProjection) string

// BridgeConfig holds configuration for the host bridge.
type BridgeConfig struct {
	Dir string
	// Enabled is the capability flag, resolved once at startup.
	Enabled     bool
	MinInterval time.Duration
	Burst       int
	Render      Renderer
}

// HostPayload is the JSON document status bars read. The text, tooltip,
// percentage and class fields follow the waybar custom module format.
type HostPayload struct {
	Text        string             `json:"text"`
	Tooltip     string             `json:"tooltip"`
	Percentage  int                `json:"percentage"`
	Class       string             `json:"class"`
	Entry       models.WidgetEntry `json:"entry"`
	NextRefresh time.Time          `json:"nextRefresh"`
}

// HostBridge publishes timeline entries as files in the widget directory.
type HostBridge struct {
	timeline *TimelineProvider
	config   BridgeConfig
	limiter  *rate.Limiter
	group    singleflight.Group
}

// NewHostBridge creates a bridge. With cfg.Enabled false every reload is a
// no-op.
func NewHostBridge(timeline *TimelineProvider, cfg BridgeConfig) *HostBridge {
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &HostBridge{
		timeline: timeline,
		config:   cfg,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
	}
}

// ProbeDir reports whether dir can hold widget files.
func ProbeDir(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// Enabled reports the capability flag.
func (b *HostBridge) Enabled() bool {
	return b.config.Enabled
}

// Dir returns the widget directory.
func (b *HostBridge) Dir() string {
	return b.config.Dir
}

// ReloadAll republishes every widget kind.
func (b *HostBridge) ReloadAll() error {
	return b.ReloadNamed(models.AllWidgetKinds...)
}

// ReloadSteps republishes the step widgets.
func (b *HostBridge) ReloadSteps() error {
	return b.ReloadNamed(models.WidgetSmall, models.WidgetMedium)
}

// ReloadNamed republishes kinds. Concurrent reloads of the same kinds share
// one publish; reloads over budget are dropped.
func (b *HostBridge) ReloadNamed(kinds ...models.WidgetKind) error {
	if !b.config.Enabled || len(kinds) == 0 {
		return nil
	}

	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	_, err, _ := b.group.Do(strings.Join(names, ","), func() (any, error) {
		if !b.limiter.Allow() {
			return nil, fmt.Errorf("%w: reload throttled", ErrWidgetBridgeUnavailable)
		}
		_, err := b.publish(context.Background(), kinds)
		return nil, err
	})
	return err
}

// PublishAll writes every kind without the reload budget. It is used by the
// widget daemon, which follows the timeline's own schedule.
func (b *HostBridge) PublishAll(ctx context.Context) ([]Timeline, error) {
	return b.publish(ctx, models.AllWidgetKinds)
}

// Publish writes the given kinds without the reload budget.
func (b *HostBridge) Publish(ctx context.Context, kinds ...models.WidgetKind) ([]Timeline, error) {
	return b.publish(ctx, kinds)
}

func (b *HostBridge) publish(ctx context.Context, kinds []models.WidgetKind) ([]Timeline, error) {
	if b.timeline == nil {
		return nil, fmt.Errorf("%w: no timeline provider", ErrWidgetBridgeUnavailable)
	}

	timelines := make([]Timeline, 0, len(kinds))
	var errs []error
	for _, kind := range kinds {
		tl := b.timeline.Timeline(ctx, kind)
		timelines = append(timelines, tl)
		if err := b.write(kind, tl); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return timelines, fmt.Errorf("%w: %w", ErrWidgetBridgeUnavailable, err)
	}
	logger.Debug("widgets published", "kinds", len(kinds), "dir", b.config.Dir)
	return timelines, nil
}

// Payload builds the host document for a timeline.
func Payload(kind models.WidgetKind, tl Timeline) HostPayload {
	proj := models.ProjectWidget(tl.Entry)

	text := fmt.Sprintf("%s/%s", proj.StepsLabel, proj.GoalLabel)
	if kind.Style() == models.StyleRectangular {
		text = fmt.Sprintf("%s steps · %s · %s", proj.StepsLabel, proj.DurationLabel, proj.AverageLabel)
	}

	class := "in-progress"
	switch {
	case tl.Entry.Placeholder:
		class = "placeholder"
	case proj.Progress >= 1:
		class = "goal-reached"
	}

	tooltip := fmt.Sprintf("%s of %s steps (%d%%)\n%s exercise\n%s\nupdated %s",
		proj.StepsLabel, proj.GoalLabel, proj.Percent, proj.DurationLabel, proj.AverageLabel, proj.AsOfLabel)

	return HostPayload{
		Text:        text,
		Tooltip:     tooltip,
		Percentage:  proj.Percent,
		Class:       class,
		Entry:       tl.Entry,
		NextRefresh: tl.NextRefresh,
	}
}

func (b *HostBridge) write(kind models.WidgetKind, tl Timeline) error {
	payload := Payload(kind, tl)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	if err := writeAtomic(filepath.Join(b.config.Dir, string(kind)+".json"), append(data, '\n')); err != nil {
		return err
	}

	text := payload.Text
	if b.config.Render != nil {
		text = b.config.Render(models.ProjectWidget(tl.Entry))
	}
	return writeAtomic(filepath.Join(b.config.Dir, string(kind)+".txt"), []byte(text+"\n"))
}

// writeAtomic writes to a temp file in the same directory and renames it so
// readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create widget directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // status bars run as other users
		logger.Debug("failed to chmod widget file", "error", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		if removeErr := os.Remove(tmpName); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
