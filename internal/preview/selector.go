package preview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// ErrNotLoaded is returned for preview operations without a loaded source.
var ErrNotLoaded = errors.New("no source loaded")

// ErrGenerationInProgress is returned when starting a second generation.
var ErrGenerationInProgress = errors.New("preview generation already in progress")

// ErrNoGeneration is returned when resolving or cancelling idle state.
var ErrNoGeneration = errors.New("no preview generation in progress")

// ErrNoPendingConfirmation is returned when no proxy request awaits an answer.
var ErrNoPendingConfirmation = errors.New("no proxy generation awaiting confirmation")

// State is an immutable snapshot of the tier machine.
type State struct {
	Loaded        bool
	Capability    domain.Capability
	Tier          domain.PreviewTier
	Phase         domain.PreviewPhase
	Target        domain.PreviewTier
	LastError     string
	FrameCount    int
	SelectedFrame int
}

// Selector decides which preview tier the monitor shows for one source.
// The visible tier only changes when a generation resolves, so the monitor
// never blanks while richer previews are being produced.
type Selector struct {
	mu    sync.RWMutex
	state State
}

// NewSelector creates a selector with no source loaded.
func NewSelector() *Selector {
	return &Selector{state: State{Tier: domain.PreviewTierNone, Phase: domain.PreviewPhaseIdle}}
}

// Load resets the machine for a newly selected source class.
// Native sources land directly on the implicit native tier; unknown sources
// fall back to identification; RAW sources begin generating their poster,
// with availability decided by that generation's outcome.
func (s *Selector) Load(capability domain.Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{
		Loaded:     true,
		Capability: capability,
		Tier:       domain.PreviewTierNone,
		Phase:      domain.PreviewPhaseIdle,
	}

	switch capability {
	case domain.CapabilityNativePlayable:
		s.state.Tier = domain.PreviewTierNativeVideo
	case domain.CapabilityRaw:
		s.state.Phase = domain.PreviewPhaseGenerating
		s.state.Target = domain.PreviewTierPoster
	default:
		s.state.Tier = domain.PreviewTierIdentification
	}
}

// Unload clears the machine when the source is removed.
func (s *Selector) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Tier: domain.PreviewTierNone, Phase: domain.PreviewPhaseIdle}
}

// RequestBurst starts burst generation; valid only from the poster tier.
func (s *Selector) RequestBurst() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Loaded {
		return ErrNotLoaded
	}
	if s.state.Phase != domain.PreviewPhaseIdle {
		return ErrGenerationInProgress
	}
	if s.state.Capability != domain.CapabilityRaw || s.state.Tier != domain.PreviewTierPoster {
		return fmt.Errorf("burst preview requires a RAW source on the poster tier, current tier %s", s.state.Tier)
	}

	s.state.Phase = domain.PreviewPhaseGenerating
	s.state.Target = domain.PreviewTierBurst
	s.state.LastError = ""
	return nil
}

// RequestVideo asks for full playback. RAW sources arm a one-shot
// confirmation before the expensive proxy render starts; native sources
// already play and treat the request as a refresh.
func (s *Selector) RequestVideo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Loaded {
		return ErrNotLoaded
	}
	if s.state.Phase != domain.PreviewPhaseIdle {
		return ErrGenerationInProgress
	}

	switch s.state.Capability {
	case domain.CapabilityNativePlayable:
		return nil
	case domain.CapabilityRaw:
		s.state.Phase = domain.PreviewPhasePendingConfirm
		s.state.LastError = ""
		return nil
	default:
		return fmt.Errorf("source class %s cannot be rendered for playback", s.state.Capability)
	}
}

// Confirm consumes the pending confirmation and starts proxy generation.
func (s *Selector) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != domain.PreviewPhasePendingConfirm {
		return ErrNoPendingConfirmation
	}
	s.state.Phase = domain.PreviewPhaseGenerating
	s.state.Target = domain.PreviewTierProxyVideo
	return nil
}

// Decline consumes the pending confirmation and keeps the current tier.
func (s *Selector) Decline() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != domain.PreviewPhasePendingConfirm {
		return ErrNoPendingConfirmation
	}
	s.state.Phase = domain.PreviewPhaseIdle
	s.state.Target = domain.PreviewTierNone
	return nil
}

// ResolvePoster lands the poster tier after its generation completes.
func (s *Selector) ResolvePoster() error {
	return s.resolve(domain.PreviewTierPoster, 0)
}

// ResolveBurst lands the burst tier with a finite frame sequence.
func (s *Selector) ResolveBurst(frameCount int) error {
	if frameCount <= 0 {
		return fmt.Errorf("burst resolved with no frames")
	}
	return s.resolve(domain.PreviewTierBurst, frameCount)
}

// ResolveVideo lands the proxy video tier after rendering completes.
func (s *Selector) ResolveVideo() error {
	return s.resolve(domain.PreviewTierProxyVideo, 0)
}

// resolve validates the in-flight target and makes its tier visible.
func (s *Selector) resolve(tier domain.PreviewTier, frameCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != domain.PreviewPhaseGenerating {
		return ErrNoGeneration
	}
	if s.state.Target != tier {
		return fmt.Errorf("resolved %s while generating %s", tier, s.state.Target)
	}

	s.state.Tier = tier
	s.state.Phase = domain.PreviewPhaseIdle
	s.state.Target = domain.PreviewTierNone
	s.state.LastError = ""
	s.state.FrameCount = frameCount
	s.state.SelectedFrame = 0
	return nil
}

// Fail records a generation failure and falls back without clearing a
// working preview. A failed poster means the source has no renderable
// preview at all, which is the identification-only case.
func (s *Selector) Fail(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != domain.PreviewPhaseGenerating {
		return ErrNoGeneration
	}

	if s.state.Target == domain.PreviewTierPoster {
		s.state.Tier = domain.PreviewTierIdentification
	}
	s.state.Phase = domain.PreviewPhaseIdle
	s.state.Target = domain.PreviewTierNone
	s.state.LastError = message
	return nil
}

// Cancel abandons the in-flight generation without recording an error.
func (s *Selector) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == domain.PreviewPhasePendingConfirm {
		s.state.Phase = domain.PreviewPhaseIdle
		s.state.Target = domain.PreviewTierNone
		return nil
	}
	if s.state.Phase != domain.PreviewPhaseGenerating {
		return ErrNoGeneration
	}

	if s.state.Target == domain.PreviewTierPoster {
		s.state.Tier = domain.PreviewTierIdentification
	}
	s.state.Phase = domain.PreviewPhaseIdle
	s.state.Target = domain.PreviewTierNone
	return nil
}

// SelectFrame moves the burst selection to the given index.
func (s *Selector) SelectFrame(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Tier != domain.PreviewTierBurst {
		return fmt.Errorf("frame selection requires the burst tier, current tier %s", s.state.Tier)
	}
	if index < 0 || index >= s.state.FrameCount {
		return fmt.Errorf("frame index %d out of range [0,%d)", index, s.state.FrameCount)
	}

	s.state.SelectedFrame = index
	return nil
}

// Snapshot returns a copy of the current machine state.
func (s *Selector) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Generating reports whether a generation is currently in flight.
func (s *Selector) Generating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Phase == domain.PreviewPhaseGenerating
}
