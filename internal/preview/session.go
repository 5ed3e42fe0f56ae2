package preview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// ErrStaleResult marks an async result that arrived for a replaced source.
// Stale results are dropped, never applied.
var ErrStaleResult = errors.New("result belongs to a replaced source")

// ErrPlaybackUnavailable is returned for transport actions on non-playable tiers.
var ErrPlaybackUnavailable = errors.New("playback is not available for the current tier")

// Metadata carries the probed fields the monitor clock and layout need.
type Metadata struct {
	Codec           string
	Container       string
	FrameRateText   string
	FrameRate       float64
	StartTimecode   string
	DurationSeconds float64
	Width           int
	Height          int
}

// Session owns the monitor state for the currently selected source: the
// source identity token, the tier machine, playback, zoom, and the asset
// URLs the webview renders. Every async resolution must present the token
// it was started under; mismatches are stale and discarded.
type Session struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	selector *Selector

	token     string
	source    domain.Source
	playback  domain.PlaybackState
	zoom      domain.ZoomMode
	panX      float64
	panY      float64
	posterURL string
	frames    []domain.BurstFrame
	streamURL string
}

// NewSession creates an empty monitor session.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Session{
		logger:   logger,
		selector: NewSelector(),
		playback: domain.DefaultPlaybackState(),
		zoom:     domain.ZoomModeFit,
	}
}

// Load replaces the current source, issues a fresh identity token, and
// resets playback and zoom. For native sources the stream URL is known
// immediately; generated tiers fill theirs in when they resolve.
func (s *Session) Load(source domain.Source, nativeStreamURL string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = uuid.NewString()
	s.source = source
	s.playback = domain.DefaultPlaybackState()
	s.playback.DurationSeconds = source.DurationSeconds
	s.zoom = domain.ZoomModeFit
	s.panX, s.panY = 0, 0
	s.posterURL = ""
	s.frames = nil
	s.streamURL = ""
	if source.Capability == domain.CapabilityNativePlayable {
		s.streamURL = nativeStreamURL
	}

	s.selector.Load(source.Capability)
	return s.token
}

// Clear removes the current source and invalidates outstanding tokens.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.source = domain.Source{}
	s.playback = domain.DefaultPlaybackState()
	s.zoom = domain.ZoomModeFit
	s.panX, s.panY = 0, 0
	s.posterURL = ""
	s.frames = nil
	s.streamURL = ""
	s.selector.Unload()
}

// Token returns the identity token of the current source.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Source returns a snapshot of the current source.
func (s *Session) Source() domain.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// ApplyMetadata merges probed metadata into the current source. The
// capability class is fixed at load time; richer probe data never silently
// reclassifies a source mid-view.
func (s *Session) ApplyMetadata(token string, meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardToken(token, "metadata"); err != nil {
		return err
	}

	s.source.Codec = meta.Codec
	s.source.Container = meta.Container
	s.source.FrameRateText = meta.FrameRateText
	s.source.FrameRate = meta.FrameRate
	s.source.StartTimecode = meta.StartTimecode
	s.source.DurationSeconds = meta.DurationSeconds
	s.source.Width = meta.Width
	s.source.Height = meta.Height
	s.playback.DurationSeconds = meta.DurationSeconds
	return nil
}

// RequestBurst forwards a burst request for the current source.
func (s *Session) RequestBurst() error {
	return s.selector.RequestBurst()
}

// RequestVideo forwards a playback request for the current source.
func (s *Session) RequestVideo() error {
	return s.selector.RequestVideo()
}

// Confirm consumes the pending proxy confirmation.
func (s *Session) Confirm() error {
	return s.selector.Confirm()
}

// Decline consumes the pending proxy confirmation without generating.
func (s *Session) Decline() error {
	return s.selector.Decline()
}

// CancelGeneration abandons the in-flight generation for the current source.
func (s *Session) CancelGeneration() error {
	return s.selector.Cancel()
}

// SelectFrame moves the burst selection for the current source.
func (s *Session) SelectFrame(index int) error {
	return s.selector.SelectFrame(index)
}

// ResolvePoster lands a finished poster if the token is still current.
func (s *Session) ResolvePoster(token, posterURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardToken(token, "poster"); err != nil {
		return err
	}
	if err := s.selector.ResolvePoster(); err != nil {
		return err
	}
	s.posterURL = posterURL
	return nil
}

// ResolveBurst lands finished burst frames if the token is still current.
func (s *Session) ResolveBurst(token string, frames []domain.BurstFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardToken(token, "burst"); err != nil {
		return err
	}
	if err := s.selector.ResolveBurst(len(frames)); err != nil {
		return err
	}
	s.frames = append([]domain.BurstFrame(nil), frames...)
	return nil
}

// ResolveVideo lands a finished proxy render if the token is still current.
func (s *Session) ResolveVideo(token, streamURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardToken(token, "video"); err != nil {
		return err
	}
	if err := s.selector.ResolveVideo(); err != nil {
		return err
	}
	s.streamURL = streamURL
	s.playback = domain.DefaultPlaybackState()
	s.playback.DurationSeconds = s.source.DurationSeconds
	return nil
}

// FailGeneration records a generation failure if the token is still current.
func (s *Session) FailGeneration(token, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardToken(token, "failure"); err != nil {
		return err
	}
	return s.selector.Fail(message)
}

// Play starts playback on a playable tier.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transportEnabled() {
		return ErrPlaybackUnavailable
	}
	s.playback.Playing = true
	return nil
}

// Pause stops playback without moving the position.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transportEnabled() {
		return ErrPlaybackUnavailable
	}
	s.playback.Playing = false
	return nil
}

// SeekTo moves the playhead, clamped to the known duration.
func (s *Session) SeekTo(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transportEnabled() {
		return ErrPlaybackUnavailable
	}

	if seconds < 0 {
		seconds = 0
	}
	if s.playback.DurationSeconds > 0 && seconds > s.playback.DurationSeconds {
		seconds = s.playback.DurationSeconds
	}
	s.playback.PositionSeconds = seconds
	return nil
}

// ReportPosition records the playhead position published by the player.
func (s *Session) ReportPosition(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transportEnabled() || seconds < 0 {
		return
	}
	s.playback.PositionSeconds = seconds
}

// SetMuted toggles player audio.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.Muted = muted
}

// ResetForRunningJob returns the transport to defaults when a transcode
// job starts running, keeping the known duration.
func (s *Session) ResetForRunningJob() {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.playback.DurationSeconds
	s.playback = domain.DefaultPlaybackState()
	s.playback.DurationSeconds = duration
}

// SetZoomMode switches the viewport mode and clears accumulated pan.
func (s *Session) SetZoomMode(mode domain.ZoomMode) error {
	switch mode {
	case domain.ZoomModeFit, domain.ZoomModeActual:
	default:
		return fmt.Errorf("unknown zoom mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = mode
	s.panX, s.panY = 0, 0
	return nil
}

// PanBy accumulates a pan displacement used in actual-pixels mode.
func (s *Session) PanBy(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panX += dx
	s.panY += dy
}

// ViewTransform computes the monitor transform for the given viewport size.
func (s *Session) ViewTransform(viewW, viewH float64) Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ViewportTransform(s.zoom,
		float64(s.source.Width), float64(s.source.Height),
		viewW, viewH, s.panX, s.panY)
}

// Transport reports control visibility and interactivity for the UI.
// Controls appear as soon as any source is loaded and only come alive on
// tiers that actually play; they dim rather than disappear.
func (s *Session) Transport() domain.TransportState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.selector.Snapshot()
	return domain.TransportState{
		Visible: state.Loaded,
		Enabled: s.transportEnabled(),
	}
}

// Playback returns a snapshot of the transport state.
func (s *Session) Playback() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback
}

// View assembles the full monitor snapshot handed to the frontend.
func (s *Session) View() domain.MonitorView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.selector.Snapshot()
	return domain.MonitorView{
		Token:         s.token,
		Source:        s.source,
		Tier:          state.Tier,
		Phase:         state.Phase,
		PendingRaw:    state.Phase == domain.PreviewPhasePendingConfirm,
		LastError:     state.LastError,
		PosterURL:     s.posterURL,
		Frames:        append([]domain.BurstFrame(nil), s.frames...),
		SelectedFrame: state.SelectedFrame,
		StreamURL:     s.streamURL,
		Playback:      s.playback,
		Zoom:          s.zoom,
		Transport: domain.TransportState{
			Visible: state.Loaded,
			Enabled: s.transportEnabled(),
		},
	}
}

// transportEnabled reports whether the current tier supports playback.
// Callers must hold s.mu.
func (s *Session) transportEnabled() bool {
	switch s.selector.Snapshot().Tier {
	case domain.PreviewTierNativeVideo:
		return true
	case domain.PreviewTierProxyVideo:
		return s.streamURL != ""
	default:
		return false
	}
}

// guardToken rejects async results carrying an outdated identity token.
// Callers must hold s.mu.
func (s *Session) guardToken(token, kind string) error {
	if token == "" || token != s.token {
		s.logger.Info("dropping stale preview result",
			"kind", kind, "token", token, "current", s.token)
		return ErrStaleResult
	}
	return nil
}
