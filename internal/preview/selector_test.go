package preview

import (
	"errors"
	"testing"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// loadRawWithPoster drives a fresh selector to the poster tier.
func loadRawWithPoster(t *testing.T) *Selector {
	t.Helper()
	s := NewSelector()
	s.Load(domain.CapabilityRaw)
	if err := s.ResolvePoster(); err != nil {
		t.Fatalf("resolve poster: %v", err)
	}
	return s
}

// TestSelectorInitialTiers verifies the landing tier per source class.
func TestSelectorInitialTiers(t *testing.T) {
	s := NewSelector()
	if got := s.Snapshot().Tier; got != domain.PreviewTierNone {
		t.Fatalf("unloaded tier = %s, want none", got)
	}

	s.Load(domain.CapabilityNativePlayable)
	if got := s.Snapshot(); got.Tier != domain.PreviewTierNativeVideo || got.Phase != domain.PreviewPhaseIdle {
		t.Fatalf("native load = %+v, want native tier idle", got)
	}

	s.Load(domain.CapabilityUnknown)
	if got := s.Snapshot().Tier; got != domain.PreviewTierIdentification {
		t.Fatalf("unknown load tier = %s, want identification_only", got)
	}

	s.Load(domain.CapabilityRaw)
	got := s.Snapshot()
	if got.Phase != domain.PreviewPhaseGenerating || got.Target != domain.PreviewTierPoster {
		t.Fatalf("raw load = %+v, want poster generation in flight", got)
	}
	if got.Tier != domain.PreviewTierNone {
		t.Fatalf("raw load tier = %s, want none until poster resolves", got.Tier)
	}
}

// TestSelectorPosterOutcomes covers poster success and the terminal fallback.
func TestSelectorPosterOutcomes(t *testing.T) {
	s := NewSelector()
	s.Load(domain.CapabilityRaw)
	if err := s.ResolvePoster(); err != nil {
		t.Fatalf("ResolvePoster() error = %v", err)
	}
	if got := s.Snapshot().Tier; got != domain.PreviewTierPoster {
		t.Fatalf("tier = %s, want poster", got)
	}

	s.Load(domain.CapabilityRaw)
	if err := s.Fail("no decodable frame"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	got := s.Snapshot()
	if got.Tier != domain.PreviewTierIdentification {
		t.Fatalf("tier after poster failure = %s, want identification_only", got.Tier)
	}
	if got.LastError != "no decodable frame" {
		t.Fatalf("last error = %q, want recorded failure", got.LastError)
	}
}

// TestSelectorBurstFlow walks poster to burst and validates frame selection.
func TestSelectorBurstFlow(t *testing.T) {
	s := loadRawWithPoster(t)

	if err := s.RequestBurst(); err != nil {
		t.Fatalf("RequestBurst() error = %v", err)
	}
	if got := s.Snapshot(); got.Tier != domain.PreviewTierPoster {
		t.Fatalf("tier during burst generation = %s, want poster kept visible", got.Tier)
	}

	if err := s.ResolveBurst(5); err != nil {
		t.Fatalf("ResolveBurst() error = %v", err)
	}
	got := s.Snapshot()
	if got.Tier != domain.PreviewTierBurst || got.FrameCount != 5 || got.SelectedFrame != 0 {
		t.Fatalf("burst state = %+v, want 5 frames starting at 0", got)
	}

	if err := s.SelectFrame(4); err != nil {
		t.Fatalf("SelectFrame(4) error = %v", err)
	}
	if err := s.SelectFrame(5); err == nil {
		t.Fatal("expected out-of-range error for frame 5")
	}
	if err := s.SelectFrame(-1); err == nil {
		t.Fatal("expected out-of-range error for frame -1")
	}
}

// TestSelectorBurstOnlyFromPoster checks the single legal burst entry edge.
func TestSelectorBurstOnlyFromPoster(t *testing.T) {
	s := NewSelector()
	s.Load(domain.CapabilityNativePlayable)
	if err := s.RequestBurst(); err == nil {
		t.Fatal("expected error for burst on native source")
	}

	s = loadRawWithPoster(t)
	if err := s.RequestBurst(); err != nil {
		t.Fatalf("RequestBurst() error = %v", err)
	}
	if err := s.ResolveBurst(3); err != nil {
		t.Fatalf("ResolveBurst() error = %v", err)
	}
	if err := s.RequestBurst(); err == nil {
		t.Fatal("expected error for burst from burst tier")
	}
}

// TestSelectorRawVideoNeedsConfirmation covers the one-shot confirm cycle.
func TestSelectorRawVideoNeedsConfirmation(t *testing.T) {
	s := loadRawWithPoster(t)

	if err := s.RequestVideo(); err != nil {
		t.Fatalf("RequestVideo() error = %v", err)
	}
	if got := s.Snapshot().Phase; got != domain.PreviewPhasePendingConfirm {
		t.Fatalf("phase = %s, want pending_confirmation", got)
	}

	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if got := s.Snapshot(); got.Phase != domain.PreviewPhaseGenerating || got.Target != domain.PreviewTierProxyVideo {
		t.Fatalf("after confirm = %+v, want proxy video generating", got)
	}

	if err := s.Confirm(); !errors.Is(err, ErrNoPendingConfirmation) {
		t.Fatalf("second Confirm() error = %v, want %v", err, ErrNoPendingConfirmation)
	}

	if err := s.ResolveVideo(); err != nil {
		t.Fatalf("ResolveVideo() error = %v", err)
	}
	if got := s.Snapshot().Tier; got != domain.PreviewTierProxyVideo {
		t.Fatalf("tier = %s, want proxy_video", got)
	}
}

// TestSelectorDeclineKeepsTier verifies declining leaves the view untouched.
func TestSelectorDeclineKeepsTier(t *testing.T) {
	s := loadRawWithPoster(t)
	if err := s.RequestVideo(); err != nil {
		t.Fatalf("RequestVideo() error = %v", err)
	}
	if err := s.Decline(); err != nil {
		t.Fatalf("Decline() error = %v", err)
	}

	got := s.Snapshot()
	if got.Tier != domain.PreviewTierPoster || got.Phase != domain.PreviewPhaseIdle {
		t.Fatalf("after decline = %+v, want idle poster", got)
	}
	if err := s.Decline(); !errors.Is(err, ErrNoPendingConfirmation) {
		t.Fatalf("second Decline() error = %v, want %v", err, ErrNoPendingConfirmation)
	}
}

// TestSelectorVideoRequestPerClass verifies the class-specific video rules.
func TestSelectorVideoRequestPerClass(t *testing.T) {
	s := NewSelector()
	if err := s.RequestVideo(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("unloaded RequestVideo() error = %v, want %v", err, ErrNotLoaded)
	}

	s.Load(domain.CapabilityNativePlayable)
	if err := s.RequestVideo(); err != nil {
		t.Fatalf("native RequestVideo() error = %v", err)
	}
	if got := s.Snapshot().Phase; got != domain.PreviewPhaseIdle {
		t.Fatalf("native request phase = %s, want idle refresh", got)
	}

	s.Load(domain.CapabilityUnknown)
	if err := s.RequestVideo(); err == nil {
		t.Fatal("expected error for unknown source playback")
	}
}

// TestSelectorVideoFromIdentification allows explicit proxy rendering even
// when no poster could be produced.
func TestSelectorVideoFromIdentification(t *testing.T) {
	s := NewSelector()
	s.Load(domain.CapabilityRaw)
	if err := s.Fail("no poster"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if err := s.RequestVideo(); err != nil {
		t.Fatalf("RequestVideo() from identification error = %v", err)
	}
	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if err := s.ResolveVideo(); err != nil {
		t.Fatalf("ResolveVideo() error = %v", err)
	}
	if got := s.Snapshot().Tier; got != domain.PreviewTierProxyVideo {
		t.Fatalf("tier = %s, want proxy_video", got)
	}
}

// TestSelectorFailureKeepsWorkingPreview checks fallback never blanks a tier.
func TestSelectorFailureKeepsWorkingPreview(t *testing.T) {
	s := loadRawWithPoster(t)
	if err := s.RequestBurst(); err != nil {
		t.Fatalf("RequestBurst() error = %v", err)
	}
	if err := s.Fail("encoder crashed"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	got := s.Snapshot()
	if got.Tier != domain.PreviewTierPoster {
		t.Fatalf("tier after failure = %s, want poster kept", got.Tier)
	}
	if got.LastError != "encoder crashed" {
		t.Fatalf("last error = %q, want encoder crashed", got.LastError)
	}
	if got.Phase != domain.PreviewPhaseIdle {
		t.Fatalf("phase after failure = %s, want idle", got.Phase)
	}
}

// TestSelectorCancelLeavesNoError verifies cooperative cancellation is clean.
func TestSelectorCancelLeavesNoError(t *testing.T) {
	s := loadRawWithPoster(t)
	if err := s.RequestVideo(); err != nil {
		t.Fatalf("RequestVideo() error = %v", err)
	}
	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	got := s.Snapshot()
	if got.Tier != domain.PreviewTierPoster || got.LastError != "" {
		t.Fatalf("after cancel = %+v, want untouched poster and no error", got)
	}
	if err := s.Cancel(); !errors.Is(err, ErrNoGeneration) {
		t.Fatalf("idle Cancel() error = %v, want %v", err, ErrNoGeneration)
	}
}

// TestSelectorRejectsConcurrentGeneration enforces one generation at a time.
func TestSelectorRejectsConcurrentGeneration(t *testing.T) {
	s := loadRawWithPoster(t)
	if err := s.RequestBurst(); err != nil {
		t.Fatalf("RequestBurst() error = %v", err)
	}
	if err := s.RequestVideo(); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("RequestVideo() during burst = %v, want %v", err, ErrGenerationInProgress)
	}
	if err := s.RequestBurst(); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("second RequestBurst() = %v, want %v", err, ErrGenerationInProgress)
	}
}

// TestSelectorResolveValidatesTarget rejects results for the wrong tier.
func TestSelectorResolveValidatesTarget(t *testing.T) {
	s := loadRawWithPoster(t)
	if err := s.RequestBurst(); err != nil {
		t.Fatalf("RequestBurst() error = %v", err)
	}
	if err := s.ResolveVideo(); err == nil {
		t.Fatal("expected target mismatch error")
	}
	if err := s.ResolveBurst(0); err == nil {
		t.Fatal("expected error for empty burst")
	}

	s2 := NewSelector()
	s2.Load(domain.CapabilityNativePlayable)
	if err := s2.ResolveVideo(); !errors.Is(err, ErrNoGeneration) {
		t.Fatalf("idle resolve error = %v, want %v", err, ErrNoGeneration)
	}
}

// TestSelectorLoadResetsEverything verifies source changes drop old state.
func TestSelectorLoadResetsEverything(t *testing.T) {
	s := loadRawWithPoster(t)
	if err := s.RequestVideo(); err != nil {
		t.Fatalf("RequestVideo() error = %v", err)
	}

	s.Load(domain.CapabilityNativePlayable)
	got := s.Snapshot()
	if got.Phase != domain.PreviewPhaseIdle || got.LastError != "" || got.FrameCount != 0 {
		t.Fatalf("state after reload = %+v, want clean native state", got)
	}

	s.Unload()
	if got := s.Snapshot(); got.Loaded || got.Tier != domain.PreviewTierNone {
		t.Fatalf("state after unload = %+v, want empty", got)
	}
}
