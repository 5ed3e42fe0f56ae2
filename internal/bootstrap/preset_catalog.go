package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
	"github.com/Venkmine/Proxx-sub001/internal/presets"
)

// GetDeliverSettings returns the working delivery recipe.
func (a *App) GetDeliverSettings() domain.DeliverSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.CloneSettings(a.settings)
}

// UpdateDeliverSection replaces exactly one section of the working recipe
// and returns the merged result. Unknown sections and malformed payloads
// leave the recipe untouched.
func (a *App) UpdateDeliverSection(section string, payload json.RawMessage) (domain.DeliverSettings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := domain.CloneSettings(a.settings)
	if err := domain.ApplySection(&next, section, payload); err != nil {
		return domain.DeliverSettings{}, err
	}

	a.settings = next
	return domain.CloneSettings(next), nil
}

// IsSettingsDirty reports whether the working recipe differs from the
// selected preset. Without a selection nothing counts as dirty.
func (a *App) IsSettingsDirty() bool {
	a.mu.Lock()
	current := domain.CloneSettings(a.settings)
	a.mu.Unlock()

	return a.Presets.IsDirty(current)
}

// ListPresets returns all presets in creation order.
func (a *App) ListPresets() []domain.Preset {
	return a.Presets.List()
}

// GetSelectedPreset returns the selected preset ID, or empty when none is selected.
func (a *App) GetSelectedPreset() string {
	if selected, ok := a.Presets.Selected(); ok {
		return selected.ID
	}
	return ""
}

// CreatePreset snapshots the working recipe under a new name without
// changing the selection.
func (a *App) CreatePreset(name string) (domain.Preset, error) {
	a.mu.Lock()
	current := domain.CloneSettings(a.settings)
	a.mu.Unlock()

	return a.Presets.Create(name, current)
}

// SavePreset writes the working recipe into the selected preset.
func (a *App) SavePreset() (domain.Preset, error) {
	a.mu.Lock()
	current := domain.CloneSettings(a.settings)
	a.mu.Unlock()

	return a.Presets.SaveSelected(current)
}

// SavePresetAs snapshots the working recipe under a new name and selects it.
func (a *App) SavePresetAs(name string) (domain.Preset, error) {
	a.mu.Lock()
	current := domain.CloneSettings(a.settings)
	a.mu.Unlock()

	return a.Presets.SaveAs(name, current)
}

// RenamePreset changes a preset's display name.
func (a *App) RenamePreset(id, newName string) (domain.Preset, error) {
	return a.Presets.Rename(id, newName)
}

// DuplicatePreset copies a preset under a derived name.
func (a *App) DuplicatePreset(id string) (domain.Preset, error) {
	return a.Presets.Duplicate(id)
}

// DeletePreset removes a preset from the catalog.
func (a *App) DeletePreset(id string) error {
	return a.Presets.Delete(id)
}

// SelectPreset makes a preset current and replaces the working recipe
// with its settings.
func (a *App) SelectPreset(id string) (domain.DeliverSettings, error) {
	selected, err := a.Presets.Select(id)
	if err != nil {
		return domain.DeliverSettings{}, err
	}

	a.mu.Lock()
	a.settings = domain.CloneSettings(selected.Settings)
	current := domain.CloneSettings(a.settings)
	a.mu.Unlock()

	return current, nil
}

// ExportPresets writes the whole catalog as a portable bundle file.
func (a *App) ExportPresets(path string) error {
	data, err := a.Presets.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preset bundle: %w", err)
	}
	return nil
}

// ImportPresets merges a bundle file into the catalog and reports
// per-entry failures. Imported presets never replace existing ones.
func (a *App) ImportPresets(path string) (presets.ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return presets.ImportReport{}, fmt.Errorf("read preset bundle: %w", err)
	}
	return a.Presets.Import(data)
}
