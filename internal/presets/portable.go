package presets

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// BundleSchemaVersion tags exported preset bundles so future readers can
// refuse formats they do not understand.
const BundleSchemaVersion = 1

// Bundle is the portable envelope for moving presets between machines.
type Bundle struct {
	SchemaVersion int             `json:"schemaVersion"`
	ExportedAt    time.Time       `json:"exportedAt"`
	Presets       []domain.Preset `json:"presets"`
}

// ImportFailure records why one bundle entry was skipped.
type ImportFailure struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ImportReport summarizes an import: how many presets landed and which
// entries were skipped, with a reason each.
type ImportReport struct {
	Imported int             `json:"imported"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// rawBundle defers per-preset decoding so one malformed entry cannot
// sink the rest of the batch.
type rawBundle struct {
	SchemaVersion int               `json:"schemaVersion"`
	Presets       []json.RawMessage `json:"presets"`
}

// Export serializes the full catalog as a pretty-printed bundle.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle := Bundle{
		SchemaVersion: BundleSchemaVersion,
		ExportedAt:    s.now().UTC(),
		Presets:       make([]domain.Preset, len(s.presets)),
	}
	for i, preset := range s.presets {
		bundle.Presets[i] = clonePreset(preset)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode preset bundle: %w", err)
	}
	return data, nil
}

// Import merges a bundle into the catalog. Every imported preset gets a
// fresh ID so re-importing the same bundle can never hijack an existing
// preset. Entry-level problems are reported per entry and never abort
// the rest of the batch. The selection is left untouched.
func (s *Store) Import(data []byte) (ImportReport, error) {
	entries, err := decodeBundle(data)
	if err != nil {
		return ImportReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var report ImportReport
	next := s.copyList()
	for i, raw := range entries {
		var preset domain.Preset
		if err := json.Unmarshal(raw, &preset); err != nil {
			report.Failures = append(report.Failures, ImportFailure{
				Index:  i,
				Reason: fmt.Sprintf("invalid preset: %v", err),
			})
			continue
		}

		name := strings.TrimSpace(preset.Name)
		if name == "" {
			report.Failures = append(report.Failures, ImportFailure{
				Index:  i,
				Reason: "preset name is empty",
			})
			continue
		}
		if nameTaken(next, name) {
			report.Failures = append(report.Failures, ImportFailure{
				Index:  i,
				Name:   name,
				Reason: fmt.Sprintf("a preset named %q already exists", name),
			})
			continue
		}

		next = append(next, s.newPreset(name, preset.Settings))
		report.Imported++
	}

	if report.Imported > 0 {
		if err := s.persist(next, s.selectedID); err != nil {
			return ImportReport{}, err
		}
	}
	return report, nil
}

// decodeBundle accepts either the versioned envelope or a bare preset
// array, rejecting schema versions newer than this build understands.
func decodeBundle(data []byte) ([]json.RawMessage, error) {
	var bundle rawBundle
	if err := json.Unmarshal(data, &bundle); err == nil {
		if bundle.SchemaVersion > BundleSchemaVersion {
			return nil, fmt.Errorf("preset bundle schema version %d is newer than this app supports (%d)", bundle.SchemaVersion, BundleSchemaVersion)
		}
		return bundle.Presets, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	return nil, fmt.Errorf("not a preset bundle: expected an object with a presets array or a bare preset array")
}

// nameTaken checks the candidate list, so duplicates inside one bundle
// collide with each other as well as with the existing catalog.
func nameTaken(presets []domain.Preset, name string) bool {
	for _, preset := range presets {
		if strings.EqualFold(preset.Name, name) {
			return true
		}
	}
	return false
}
