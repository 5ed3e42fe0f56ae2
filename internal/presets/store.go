package presets

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// ErrEmptyName is returned when a preset name is blank after trimming.
var ErrEmptyName = errors.New("preset name must not be empty")

// ErrDuplicateName is returned when a preset name is already in use.
// Names are compared case-insensitively.
var ErrDuplicateName = errors.New("preset name already in use")

// ErrNotFound is returned when no preset has the given ID.
var ErrNotFound = errors.New("preset not found")

// ErrNoSelection is returned when saving without a selected preset.
var ErrNoSelection = errors.New("no preset selected")

// Store manages the preset catalog and the current selection. Snapshots are
// deep-copied on every boundary so later edits never reach stored presets.
type Store struct {
	mu    sync.RWMutex
	file  Persister
	now   func() time.Time
	newID func() string

	presets    []domain.Preset
	selectedID string
}

// NewStore loads the persisted catalog and returns a ready store.
func NewStore(file Persister) (*Store, error) {
	return newStore(file, time.Now, uuid.NewString)
}

// NewStoreForTests creates a store with injectable clock and ID source.
func NewStoreForTests(file Persister, now func() time.Time, newID func() string) (*Store, error) {
	return newStore(file, now, newID)
}

func newStore(file Persister, now func() time.Time, newID func() string) (*Store, error) {
	catalog, err := file.Load()
	if err != nil {
		return nil, err
	}

	return &Store{
		file:       file,
		now:        now,
		newID:      newID,
		presets:    catalog.Presets,
		selectedID: catalog.SelectedID,
	}, nil
}

// Create adds a new preset without changing the selection.
func (s *Store) Create(name string, settings domain.DeliverSettings) (domain.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Preset{}, ErrEmptyName
	}
	if s.nameExists(name, "") {
		return domain.Preset{}, fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}

	preset := s.newPreset(name, settings)
	if err := s.persist(append(s.copyList(), preset), s.selectedID); err != nil {
		return domain.Preset{}, err
	}
	return clonePreset(preset), nil
}

// Rename changes a preset's name, keeping names unique case-insensitively.
// Renaming a preset to its own name, in any case, is allowed.
func (s *Store) Rename(id, newName string) (domain.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.Preset{}, ErrEmptyName
	}

	index := s.indexOf(id)
	if index < 0 {
		return domain.Preset{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if s.nameExists(newName, id) {
		return domain.Preset{}, fmt.Errorf("%q: %w", newName, ErrDuplicateName)
	}

	next := s.copyList()
	next[index].Name = newName
	next[index].UpdatedAt = s.now().UTC()
	if err := s.persist(next, s.selectedID); err != nil {
		return domain.Preset{}, err
	}
	return clonePreset(next[index]), nil
}

// Duplicate copies a preset under a derived unique name.
func (s *Store) Duplicate(id string) (domain.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return domain.Preset{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	source := s.presets[index]
	preset := s.newPreset(s.copyName(source.Name), source.Settings)
	if err := s.persist(append(s.copyList(), preset), s.selectedID); err != nil {
		return domain.Preset{}, err
	}
	return clonePreset(preset), nil
}

// Delete removes a preset. Deleting the selected preset clears the
// selection, which leaves the working settings unsaved rather than dirty
// against a ghost.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	next := s.copyList()
	next = append(next[:index], next[index+1:]...)
	selected := s.selectedID
	if selected == id {
		selected = ""
	}
	return s.persist(next, selected)
}

// Select marks a preset as the baseline for dirty comparison.
func (s *Store) Select(id string) (domain.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return domain.Preset{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err := s.persist(s.copyList(), id); err != nil {
		return domain.Preset{}, err
	}
	return clonePreset(s.presets[index]), nil
}

// Selected returns the selected preset, if any.
func (s *Store) Selected() (domain.Preset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.indexOf(s.selectedID)
	if index < 0 {
		return domain.Preset{}, false
	}
	return clonePreset(s.presets[index]), true
}

// Get returns a preset by ID.
func (s *Store) Get(id string) (domain.Preset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.indexOf(id)
	if index < 0 {
		return domain.Preset{}, false
	}
	return clonePreset(s.presets[index]), true
}

// SaveSelected overwrites the selected preset with the given settings.
func (s *Store) SaveSelected(settings domain.DeliverSettings) (domain.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(s.selectedID)
	if index < 0 {
		return domain.Preset{}, ErrNoSelection
	}

	next := s.copyList()
	next[index].Settings = domain.CloneSettings(settings)
	next[index].UpdatedAt = s.now().UTC()
	if err := s.persist(next, s.selectedID); err != nil {
		return domain.Preset{}, err
	}
	return clonePreset(next[index]), nil
}

// SaveAs creates a new preset from the given settings and selects it.
func (s *Store) SaveAs(name string, settings domain.DeliverSettings) (domain.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Preset{}, ErrEmptyName
	}
	if s.nameExists(name, "") {
		return domain.Preset{}, fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}

	preset := s.newPreset(name, settings)
	if err := s.persist(append(s.copyList(), preset), preset.ID); err != nil {
		return domain.Preset{}, err
	}
	return clonePreset(preset), nil
}

// IsDirty reports whether current settings drifted from the selected
// preset. Dirtiness is relative: with no selection there is no baseline
// and nothing is dirty.
func (s *Store) IsDirty(current domain.DeliverSettings) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.indexOf(s.selectedID)
	if index < 0 {
		return false
	}
	return !domain.SettingsEqual(current, s.presets[index].Settings)
}

// List returns the catalog in creation order as defensive copies.
func (s *Store) List() []domain.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Preset, len(s.presets))
	for i, preset := range s.presets {
		out[i] = clonePreset(preset)
	}
	return out
}

// newPreset builds a preset with fresh identity and cloned settings.
// Callers must hold s.mu.
func (s *Store) newPreset(name string, settings domain.DeliverSettings) domain.Preset {
	now := s.now().UTC()
	return domain.Preset{
		ID:        s.newID(),
		Name:      name,
		Settings:  domain.CloneSettings(settings),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// persist writes the candidate catalog and commits it on success.
// Callers must hold s.mu.
func (s *Store) persist(presets []domain.Preset, selectedID string) error {
	if err := s.file.Save(Catalog{Presets: presets, SelectedID: selectedID}); err != nil {
		return fmt.Errorf("persist presets: %w", err)
	}
	s.presets = presets
	s.selectedID = selectedID
	return nil
}

// nameExists reports a case-insensitive name collision, excluding one ID.
// Callers must hold s.mu.
func (s *Store) nameExists(name, excludeID string) bool {
	for _, preset := range s.presets {
		if preset.ID != excludeID && strings.EqualFold(preset.Name, name) {
			return true
		}
	}
	return false
}

// copyName derives a unique "<name> copy" variant for duplicates.
// Callers must hold s.mu.
func (s *Store) copyName(base string) string {
	candidate := base + " copy"
	for n := 2; s.nameExists(candidate, ""); n++ {
		candidate = fmt.Sprintf("%s copy %d", base, n)
	}
	return candidate
}

// indexOf locates a preset by ID, or -1. Callers must hold s.mu.
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, preset := range s.presets {
		if preset.ID == id {
			return i
		}
	}
	return -1
}

// copyList returns a shallow working copy of the catalog slice.
// Callers must hold s.mu.
func (s *Store) copyList() []domain.Preset {
	return append([]domain.Preset(nil), s.presets...)
}

// clonePreset deep-copies a preset including its settings snapshot.
func clonePreset(p domain.Preset) domain.Preset {
	p.Settings = domain.CloneSettings(p.Settings)
	return p
}
