package preview

import (
	"errors"
	"testing"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// rawSource returns a RAW camera source fixture.
func rawSource(path string) domain.Source {
	return domain.Source{
		Path:       path,
		Name:       "clip",
		Extension:  "braw",
		Codec:      "BRAW",
		Capability: domain.CapabilityRaw,
	}
}

// nativeSource returns a directly playable source fixture.
func nativeSource(path string) domain.Source {
	return domain.Source{
		Path:            path,
		Name:            "clip",
		Extension:       "mp4",
		Codec:           "h264",
		Capability:      domain.CapabilityNativePlayable,
		DurationSeconds: 120,
		Width:           1920,
		Height:          1080,
	}
}

// TestSessionLoadIssuesFreshTokens verifies identity rotation per source.
func TestSessionLoadIssuesFreshTokens(t *testing.T) {
	s := NewSession(nil)

	first := s.Load(rawSource("/clips/a.braw"), "")
	second := s.Load(rawSource("/clips/b.braw"), "")
	if first == "" || second == "" {
		t.Fatal("expected non-empty tokens")
	}
	if first == second {
		t.Fatal("expected a fresh token per load")
	}
	if got := s.Token(); got != second {
		t.Fatalf("Token() = %q, want %q", got, second)
	}
}

// TestSessionDropsStaleResults verifies the source identity guard.
func TestSessionDropsStaleResults(t *testing.T) {
	s := NewSession(nil)

	stale := s.Load(rawSource("/clips/a.braw"), "")
	current := s.Load(rawSource("/clips/b.braw"), "")

	if err := s.ResolvePoster(stale, "/backend/poster/a.jpg"); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("stale poster error = %v, want %v", err, ErrStaleResult)
	}
	if got := s.View(); got.PosterURL != "" {
		t.Fatalf("poster url = %q, want stale result dropped", got.PosterURL)
	}

	if err := s.ResolvePoster(current, "/backend/poster/b.jpg"); err != nil {
		t.Fatalf("current poster error = %v", err)
	}
	if got := s.View(); got.PosterURL != "/backend/poster/b.jpg" || got.Tier != domain.PreviewTierPoster {
		t.Fatalf("view = %+v, want poster applied", got)
	}

	if err := s.FailGeneration(stale, "boom"); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("stale failure error = %v, want %v", err, ErrStaleResult)
	}
	if got := s.View().LastError; got != "" {
		t.Fatalf("last error = %q, want stale failure dropped", got)
	}
}

// TestSessionStaleMetadataDropped verifies late probes never cross sources.
func TestSessionStaleMetadataDropped(t *testing.T) {
	s := NewSession(nil)
	stale := s.Load(nativeSource("/clips/a.mp4"), "/backend/stream/a")
	_ = s.Load(nativeSource("/clips/b.mp4"), "/backend/stream/b")

	err := s.ApplyMetadata(stale, Metadata{FrameRateText: "25", FrameRate: 25})
	if !errors.Is(err, ErrStaleResult) {
		t.Fatalf("stale metadata error = %v, want %v", err, ErrStaleResult)
	}
	if got := s.Source().FrameRate; got != 0 {
		t.Fatalf("frame rate = %v, want untouched", got)
	}
}

// TestSessionApplyMetadataUpdatesClockFields verifies probe merge semantics.
func TestSessionApplyMetadataUpdatesClockFields(t *testing.T) {
	s := NewSession(nil)
	token := s.Load(rawSource("/clips/a.braw"), "")

	err := s.ApplyMetadata(token, Metadata{
		Codec:           "BRAW",
		FrameRateText:   "24000/1001",
		FrameRate:       23.976,
		StartTimecode:   "01:02:03:04",
		DurationSeconds: 42.5,
		Width:           4096,
		Height:          2160,
	})
	if err != nil {
		t.Fatalf("ApplyMetadata() error = %v", err)
	}

	src := s.Source()
	if src.StartTimecode != "01:02:03:04" || src.FrameRate != 23.976 {
		t.Fatalf("source = %+v, want clock fields applied", src)
	}
	if src.Capability != domain.CapabilityRaw {
		t.Fatalf("capability = %s, want unchanged raw", src.Capability)
	}
	if got := s.Playback().DurationSeconds; got != 42.5 {
		t.Fatalf("duration = %v, want 42.5", got)
	}
}

// TestSessionBurstFrames verifies burst results land with copied frames.
func TestSessionBurstFrames(t *testing.T) {
	s := NewSession(nil)
	token := s.Load(rawSource("/clips/a.braw"), "")
	if err := s.ResolvePoster(token, "/backend/poster.jpg"); err != nil {
		t.Fatalf("poster: %v", err)
	}
	if err := s.RequestBurst(); err != nil {
		t.Fatalf("request burst: %v", err)
	}

	frames := []domain.BurstFrame{
		{URL: "/backend/burst/0.jpg", TimestampSeconds: 0},
		{URL: "/backend/burst/1.jpg", TimestampSeconds: 5},
	}
	if err := s.ResolveBurst(token, frames); err != nil {
		t.Fatalf("resolve burst: %v", err)
	}

	view := s.View()
	if view.Tier != domain.PreviewTierBurst || len(view.Frames) != 2 {
		t.Fatalf("view = %+v, want burst tier with 2 frames", view)
	}
	if err := s.SelectFrame(1); err != nil {
		t.Fatalf("select frame: %v", err)
	}
	if got := s.View().SelectedFrame; got != 1 {
		t.Fatalf("selected frame = %d, want 1", got)
	}
}

// TestSessionTransportMatrix verifies visible-versus-enabled per tier.
func TestSessionTransportMatrix(t *testing.T) {
	s := NewSession(nil)
	if got := s.Transport(); got.Visible || got.Enabled {
		t.Fatalf("empty transport = %+v, want hidden and disabled", got)
	}

	s.Load(rawSource("/clips/a.braw"), "")
	if got := s.Transport(); !got.Visible || got.Enabled {
		t.Fatalf("raw generating transport = %+v, want visible disabled", got)
	}

	token := s.Token()
	if err := s.FailGeneration(token, "no poster"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if got := s.Transport(); !got.Visible || got.Enabled {
		t.Fatalf("identification transport = %+v, want visible disabled", got)
	}

	s.Load(nativeSource("/clips/b.mp4"), "/backend/stream/b")
	if got := s.Transport(); !got.Visible || !got.Enabled {
		t.Fatalf("native transport = %+v, want visible enabled", got)
	}
}

// TestSessionProxyVideoEnablesTransport verifies the RAW render path plays.
func TestSessionProxyVideoEnablesTransport(t *testing.T) {
	s := NewSession(nil)
	token := s.Load(rawSource("/clips/a.braw"), "")
	if err := s.ResolvePoster(token, "/p.jpg"); err != nil {
		t.Fatalf("poster: %v", err)
	}
	if err := s.RequestVideo(); err != nil {
		t.Fatalf("request video: %v", err)
	}
	if err := s.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := s.ResolveVideo(token, "/backend/preview/stream?requestId=r1"); err != nil {
		t.Fatalf("resolve video: %v", err)
	}

	if got := s.Transport(); !got.Enabled {
		t.Fatalf("transport = %+v, want enabled on proxy tier", got)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !s.Playback().Playing {
		t.Fatal("expected playing state")
	}
}

// TestSessionPlaybackGating verifies transport actions on non-playable tiers.
func TestSessionPlaybackGating(t *testing.T) {
	s := NewSession(nil)
	token := s.Load(rawSource("/clips/a.braw"), "")
	if err := s.ResolvePoster(token, "/p.jpg"); err != nil {
		t.Fatalf("poster: %v", err)
	}

	if err := s.Play(); !errors.Is(err, ErrPlaybackUnavailable) {
		t.Fatalf("poster Play() error = %v, want %v", err, ErrPlaybackUnavailable)
	}
	if err := s.SeekTo(10); !errors.Is(err, ErrPlaybackUnavailable) {
		t.Fatalf("poster SeekTo() error = %v, want %v", err, ErrPlaybackUnavailable)
	}
}

// TestSessionSeekClamps verifies playhead bounds.
func TestSessionSeekClamps(t *testing.T) {
	s := NewSession(nil)
	s.Load(nativeSource("/clips/a.mp4"), "/backend/stream/a")

	if err := s.SeekTo(-5); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if got := s.Playback().PositionSeconds; got != 0 {
		t.Fatalf("position = %v, want clamp at 0", got)
	}

	if err := s.SeekTo(500); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if got := s.Playback().PositionSeconds; got != 120 {
		t.Fatalf("position = %v, want clamp at duration 120", got)
	}
}

// TestSessionResetForRunningJob verifies the transport reset rule.
func TestSessionResetForRunningJob(t *testing.T) {
	s := NewSession(nil)
	s.Load(nativeSource("/clips/a.mp4"), "/backend/stream/a")
	if err := s.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := s.SeekTo(30); err != nil {
		t.Fatalf("seek: %v", err)
	}

	s.ResetForRunningJob()
	got := s.Playback()
	if got.Playing || got.PositionSeconds != 0 {
		t.Fatalf("playback = %+v, want reset to defaults", got)
	}
	if got.DurationSeconds != 120 {
		t.Fatalf("duration = %v, want preserved", got.DurationSeconds)
	}
}

// TestSessionZoomAndPan verifies mode validation and pan accumulation.
func TestSessionZoomAndPan(t *testing.T) {
	s := NewSession(nil)
	s.Load(nativeSource("/clips/a.mp4"), "/backend/stream/a")

	if err := s.SetZoomMode("stretch"); err == nil {
		t.Fatal("expected error for unknown zoom mode")
	}
	if err := s.SetZoomMode(domain.ZoomModeActual); err != nil {
		t.Fatalf("set zoom: %v", err)
	}

	s.PanBy(-300, 0)
	s.PanBy(-200, 0)
	tr := s.ViewTransform(1000, 1000)
	if tr.Scale != 1 {
		t.Fatalf("scale = %v, want 1 in actual mode", tr.Scale)
	}
	if tr.OffsetX != -920 {
		t.Fatalf("offsetX = %v, want pan clamped at -920", tr.OffsetX)
	}

	if err := s.SetZoomMode(domain.ZoomModeFit); err != nil {
		t.Fatalf("set zoom: %v", err)
	}
	s.PanBy(100, 100)
	if err := s.SetZoomMode(domain.ZoomModeActual); err != nil {
		t.Fatalf("set zoom: %v", err)
	}
	if got := s.ViewTransform(1000, 1000).OffsetX; got != -460 {
		t.Fatalf("offsetX after mode switch = %v, want pan cleared (-460)", got)
	}
}

// TestSessionClearInvalidatesToken verifies removal drops async results.
func TestSessionClearInvalidatesToken(t *testing.T) {
	s := NewSession(nil)
	token := s.Load(rawSource("/clips/a.braw"), "")

	s.Clear()
	if err := s.ResolvePoster(token, "/p.jpg"); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("post-clear resolve error = %v, want %v", err, ErrStaleResult)
	}
	if got := s.View(); got.Token != "" || got.Tier != domain.PreviewTierNone {
		t.Fatalf("view after clear = %+v, want empty", got)
	}
}
