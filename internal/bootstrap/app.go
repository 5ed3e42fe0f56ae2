package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/Venkmine/Proxx-sub001/internal/backend"
	"github.com/Venkmine/Proxx-sub001/internal/config"
	"github.com/Venkmine/Proxx-sub001/internal/diagnostics"
	"github.com/Venkmine/Proxx-sub001/internal/domain"
	"github.com/Venkmine/Proxx-sub001/internal/logging"
	"github.com/Venkmine/Proxx-sub001/internal/presets"
	"github.com/Venkmine/Proxx-sub001/internal/preview"
	"github.com/Venkmine/Proxx-sub001/internal/relay"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var sourceDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Camera media",
		Pattern:     "*.mp4;*.mov;*.m4v;*.mkv;*.webm;*.avi;*.mxf;*.braw;*.r3d;*.ari;*.arx;*.mcraw",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var overlayDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Overlay images",
		Pattern:     "*.png;*.jpg;*.jpeg",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var bundleDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Preset bundles",
		Pattern:     "*.json",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires the engine client, preset catalog, monitor session, and UI
// runtime callbacks.
type App struct {
	Config      config.Config
	Client      *backend.Client
	Presets     *presets.Store
	Session     *preview.Session
	Diagnostics domain.DiagnosticReport

	assets  fs.FS
	relay   http.Handler
	checker *diagnostics.Checker
	logger  *slog.Logger
	events  *preview.Bus

	mu         sync.Mutex
	configPath string
	settings   domain.DeliverSettings
	generation *generation
	runtimeCtx context.Context
}

// generation tracks one in-flight preview render for the current source.
type generation struct {
	token     string
	requestID string
	target    domain.PreviewTier
	cancel    context.CancelFunc
}

// New builds the application with persisted configuration and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	configPath := config.DefaultPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)

	store, err := presets.NewStore(presets.NewFileStore(cfg.PresetsPath()))
	if err != nil {
		return nil, fmt.Errorf("open preset catalog: %w", err)
	}

	relayHandler, err := relay.New(cfg.BackendBaseURL, cfg.AllowedDevOrigins, logging.WithComponent(logger, "relay"))
	if err != nil {
		return nil, fmt.Errorf("build engine relay: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(context.Background(), cfg)

	app := &App{
		Config:      cfg,
		Client:      backend.New(cfg.BackendBaseURL, cfg.RequestTimeout(), logging.WithComponent(logger, "backend")),
		Presets:     store,
		Session:     preview.NewSession(logging.WithComponent(logger, "preview")),
		Diagnostics: report,
		assets:      assets,
		relay:       relayHandler,
		checker:     checker,
		logger:      logger,
		events:      preview.NewBus(1000),
		configPath:  configPath,
		settings:    domain.DefaultDeliverSettings(),
	}
	if selected, ok := store.Selected(); ok {
		app.settings = selected.Settings
	}
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
// Requests the embedded assets cannot satisfy fall through to the engine
// relay, which is how preview media reaches the webview.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{Handler: a.relay}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Assets = os.DirFS("./frontend")
	}

	return wails.Run(&options.App{
		Title:       "Proxx",
		Width:       1280,
		Height:      800,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the Wails runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown abandons any in-flight preview generation and drops the runtime context.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != nil && a.generation.cancel != nil {
		a.generation.cancel()
	}
	a.generation = nil
	a.runtimeCtx = nil
}

// GetConfig returns the current launch configuration.
func (a *App) GetConfig() config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Config
}

// SaveConfig validates, persists, and applies launch configuration. The
// engine client and diagnostics pick up the new values immediately; the
// asset relay keeps the engine address it was built with until the next
// launch.
func (a *App) SaveConfig(cfg config.Config) (config.Config, error) {
	if err := config.Save(a.configPath, cfg); err != nil {
		return config.Config{}, err
	}

	client := backend.New(cfg.BackendBaseURL, cfg.RequestTimeout(), logging.WithComponent(a.logger, "backend"))

	a.mu.Lock()
	a.Config = cfg
	a.Client = client
	a.mu.Unlock()

	if a.checker != nil {
		report := a.checker.Run(context.Background(), cfg)
		a.mu.Lock()
		a.Diagnostics = report
		a.mu.Unlock()
		a.publishDiagnostics(report)
	}
	return cfg, nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reruns local environment checks against current configuration.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	cfg := a.Config
	a.mu.Unlock()

	if a.checker == nil {
		return domain.DiagnosticReport{}
	}
	report := a.checker.Run(context.Background(), cfg)

	a.mu.Lock()
	a.Diagnostics = report
	a.mu.Unlock()
	a.publishDiagnostics(report)
	return report
}

// PickSourceFile opens a native file dialog for camera media selection.
func (a *App) PickSourceFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select source file",
		Filters: sourceDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickDestinationDirectory opens a native directory picker for delivery output.
func (a *App) PickDestinationDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select destination directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOverlayImage opens a native file dialog for burn-in image selection.
func (a *App) PickOverlayImage() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select overlay image",
		Filters: overlayDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickImportBundle opens a native file dialog for a preset bundle to import.
func (a *App) PickImportBundle() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Import presets",
		Filters: bundleDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickExportBundle opens a native save dialog for the preset bundle destination.
func (a *App) PickExportBundle() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:           "Export presets",
		DefaultFilename: "proxx-presets.json",
		Filters:         bundleDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// RevealInFolder opens the given path (or the configured destination dir)
// in the platform file manager.
func (a *App) RevealInFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.settings.File.DestinationDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("destination path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve destination path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// PreviewEvents returns all events with sequence greater than sinceSeq.
func (a *App) PreviewEvents(sinceSeq int64) []preview.Event {
	return a.events.Since(sinceSeq)
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event preview.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "preview:event", published)
	}
}

// publishDiagnostics pushes a fresh diagnostics report to the webview.
func (a *App) publishDiagnostics(report domain.DiagnosticReport) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "diagnostics:updated", report)
	}
}

// publishTier announces that the visible preview tier may have changed.
func (a *App) publishTier(token string) {
	view := a.Session.View()
	a.publishEvent(preview.Event{
		SourceToken: token,
		Type:        preview.EventTypeTier,
		Tier:        view.Tier,
		Phase:       view.Phase,
	})
}

// publishPhase announces a generation phase change for the current source.
func (a *App) publishPhase(token string) {
	view := a.Session.View()
	a.publishEvent(preview.Event{
		SourceToken: token,
		Type:        preview.EventTypePhase,
		Tier:        view.Tier,
		Phase:       view.Phase,
	})
}

// backendClient returns the current engine client under lock, so a config
// save that swaps the client does not race in-flight operations.
func (a *App) backendClient() *backend.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Client
}

// requestTimeout returns the per-operation engine timeout.
func (a *App) requestTimeout() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Config.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return a.Config.RequestTimeout()
}

// pollInterval returns the preview status poll cadence.
func (a *App) pollInterval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Config.PollIntervalMs <= 0 {
		return backend.DefaultPollInterval
	}
	return a.Config.PollInterval()
}

// opCtx builds the bounded context used for one engine round trip.
func (a *App) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.requestTimeout())
}

// runtimeContext returns the current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
