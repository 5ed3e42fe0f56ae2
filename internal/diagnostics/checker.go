package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Venkmine/Proxx-sub001/internal/config"
	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// Checker validates the local environment the app depends on: the
// transcode engine, the data directory, and the persisted files.
type Checker struct {
	httpDo     func(*http.Request) (*http.Response, error)
	readFile   func(string) ([]byte, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS and network dependencies.
func NewChecker() *Checker {
	client := &http.Client{Timeout: 3 * time.Second}
	return &Checker{
		httpDo:     client.Do,
		readFile:   os.ReadFile,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all environment checks and returns a combined report.
func (c *Checker) Run(ctx context.Context, cfg config.Config) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkEngine(ctx, cfg.BackendBaseURL),
		c.checkDataDir(cfg.DataDir),
		c.checkPresetsFile(cfg.PresetsPath()),
		c.checkConfig(cfg),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkEngine verifies the transcode engine answers on its readiness
// endpoint.
func (c *Checker) checkEngine(ctx context.Context, baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "engine_reachable",
		Name: "Transcode engine",
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/api/readiness"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Engine URL is not usable: %s", baseURL)
		item.Hint = "Correct the engine URL in settings."
		return item
	}

	resp, err := c.httpDo(req)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot reach the engine at %s", baseURL)
		item.Hint = "Start the Proxx engine service, then refresh diagnostics."
		return item
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Engine answered readiness with status %d.", resp.StatusCode)
		item.Hint = "Check the engine service logs; it is running but not healthy."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Engine answering at %s", baseURL)
	return item
}

// checkDataDir validates data directory existence and write access.
func (c *Checker) checkDataDir(dataDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "data_dir",
		Name: "Data directory",
	}

	if strings.TrimSpace(dataDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Data directory is empty."
		item.Hint = "Set a data directory where presets and configuration can be stored."
		return item
	}

	if err := c.mkdirAll(dataDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create data directory: %s", dataDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dataDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Data directory is not writable: %s", dataDir)
		item.Hint = "Choose a writable directory for presets and configuration."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dataDir)
	return item
}

// checkPresetsFile validates the preset catalog file when one exists.
func (c *Checker) checkPresetsFile(path string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "presets_file",
		Name: "Preset catalog",
	}

	data, err := c.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			item.Status = domain.DiagnosticStatusPass
			item.Message = "No presets saved yet."
			return item
		}
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot read presets file: %s", path)
		item.Hint = "Check permissions for the presets file."
		return item
	}

	if !json.Valid(data) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Presets file is corrupt: %s", path)
		item.Hint = "Move the file aside; a fresh catalog is created on the next save."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Preset catalog is valid: %s", path)
	return item
}

// checkConfig validates the loaded configuration values.
func (c *Checker) checkConfig(cfg config.Config) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "config",
		Name: "Configuration",
	}

	if err := cfg.Validate(); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Configuration is invalid: %v", err)
		item.Hint = "Open settings and correct the reported value."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Configuration is valid."
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	httpDo func(*http.Request) (*http.Response, error),
	readFile func(string) ([]byte, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		httpDo:     httpDo,
		readFile:   readFile,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
