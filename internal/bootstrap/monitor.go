package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Venkmine/Proxx-sub001/internal/backend"
	"github.com/Venkmine/Proxx-sub001/internal/classify"
	"github.com/Venkmine/Proxx-sub001/internal/domain"
	"github.com/Venkmine/Proxx-sub001/internal/preview"
	"github.com/Venkmine/Proxx-sub001/internal/relay"
	"github.com/Venkmine/Proxx-sub001/internal/timecode"
)

// burstFrameCount is how many stills a burst preview samples across the clip.
const burstFrameCount = 9

// LoadSource validates and probes a media file, replaces the monitor
// source, and kicks off poster generation for RAW formats. A failed probe
// degrades to extension-only classification instead of rejecting the file.
func (a *App) LoadSource(path string) (domain.MonitorView, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.MonitorView{}, fmt.Errorf("source path is empty")
	}

	client := a.backendClient()
	ctx, cancel := a.opCtx()
	defer cancel()

	info, err := client.ValidatePath(ctx, path)
	if err != nil {
		return domain.MonitorView{}, err
	}
	if !info.Exists || !info.Readable {
		return domain.MonitorView{}, fmt.Errorf("source is not readable: %s", path)
	}
	if info.Directory {
		return domain.MonitorView{}, fmt.Errorf("source is a directory: %s", path)
	}

	source := domain.Source{
		Path:      path,
		Name:      filepath.Base(path),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}

	var probed preview.Metadata
	probeOK := false
	meta, err := client.ExtractMetadata(ctx, path)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("metadata probe failed, classifying by extension",
				"path", path, "error", err)
		}
	} else {
		probed = preview.Metadata{
			Codec:           meta.Codec,
			Container:       meta.Container,
			FrameRateText:   meta.FrameRate,
			FrameRate:       timecode.ParseFrameRate(meta.FrameRate),
			StartTimecode:   meta.StartTimecode,
			DurationSeconds: meta.DurationSeconds,
			Width:           meta.Width,
			Height:          meta.Height,
		}
		probeOK = true
	}
	source.Capability = classify.Classify(probed.Codec, source.Extension)

	a.cancelActiveGeneration()

	nativeURL, err := relay.RewriteAssetURL(client.BaseURL(), client.NativeStreamURL(path))
	if err != nil {
		nativeURL = ""
	}

	token := a.Session.Load(source, nativeURL)
	if probeOK {
		_ = a.Session.ApplyMetadata(token, probed)
	}
	a.publishTier(token)

	if source.Capability == domain.CapabilityRaw {
		a.startGeneration(token, domain.PreviewTierPoster)
	}
	return a.Session.View(), nil
}

// ClearSource removes the current source and abandons its generation.
func (a *App) ClearSource() domain.MonitorView {
	a.cancelActiveGeneration()
	a.Session.Clear()
	return a.Session.View()
}

// GetMonitorView returns the full monitor snapshot.
func (a *App) GetMonitorView() domain.MonitorView {
	return a.Session.View()
}

// RequestBurstPreview starts burst generation from the poster tier.
func (a *App) RequestBurstPreview() (domain.MonitorView, error) {
	if err := a.Session.RequestBurst(); err != nil {
		return domain.MonitorView{}, err
	}

	token := a.Session.Token()
	a.publishPhase(token)
	a.startGeneration(token, domain.PreviewTierBurst)
	return a.Session.View(), nil
}

// RequestVideoPreview asks for full playback. RAW sources arm a one-shot
// confirmation and wait for the user; nothing renders until they confirm.
func (a *App) RequestVideoPreview() (domain.MonitorView, error) {
	if err := a.Session.RequestVideo(); err != nil {
		return domain.MonitorView{}, err
	}

	view := a.Session.View()
	if view.PendingRaw {
		a.publishPhase(view.Token)
	}
	return view, nil
}

// ConfirmProxyGeneration consumes the pending confirmation and starts the render.
func (a *App) ConfirmProxyGeneration() (domain.MonitorView, error) {
	if err := a.Session.Confirm(); err != nil {
		return domain.MonitorView{}, err
	}

	token := a.Session.Token()
	a.publishPhase(token)
	a.startGeneration(token, domain.PreviewTierProxyVideo)
	return a.Session.View(), nil
}

// DeclineProxyGeneration consumes the pending confirmation and keeps the current tier.
func (a *App) DeclineProxyGeneration() (domain.MonitorView, error) {
	if err := a.Session.Decline(); err != nil {
		return domain.MonitorView{}, err
	}

	a.publishPhase(a.Session.Token())
	return a.Session.View(), nil
}

// CancelPreviewGeneration abandons the in-flight generation or pending confirmation.
func (a *App) CancelPreviewGeneration() (domain.MonitorView, error) {
	if err := a.Session.CancelGeneration(); err != nil {
		return domain.MonitorView{}, err
	}

	a.cancelActiveGeneration()
	a.publishTier(a.Session.Token())
	return a.Session.View(), nil
}

// SelectBurstFrame moves the burst selection to the given index.
func (a *App) SelectBurstFrame(index int) (domain.MonitorView, error) {
	if err := a.Session.SelectFrame(index); err != nil {
		return domain.MonitorView{}, err
	}
	return a.Session.View(), nil
}

// Play starts playback on a playable tier.
func (a *App) Play() (domain.PlaybackState, error) {
	if err := a.Session.Play(); err != nil {
		return domain.PlaybackState{}, err
	}
	return a.Session.Playback(), nil
}

// Pause stops playback without moving the playhead.
func (a *App) Pause() (domain.PlaybackState, error) {
	if err := a.Session.Pause(); err != nil {
		return domain.PlaybackState{}, err
	}
	return a.Session.Playback(), nil
}

// SeekTo moves the playhead, clamped to the known duration.
func (a *App) SeekTo(seconds float64) (domain.PlaybackState, error) {
	if err := a.Session.SeekTo(seconds); err != nil {
		return domain.PlaybackState{}, err
	}
	return a.Session.Playback(), nil
}

// ReportPlaybackPosition records the playhead position published by the player.
func (a *App) ReportPlaybackPosition(seconds float64) {
	a.Session.ReportPosition(seconds)
}

// SetMuted toggles player audio.
func (a *App) SetMuted(muted bool) domain.PlaybackState {
	a.Session.SetMuted(muted)
	return a.Session.Playback()
}

// SetZoomMode switches the monitor between fit and actual-pixels display.
func (a *App) SetZoomMode(mode string) (domain.MonitorView, error) {
	if err := a.Session.SetZoomMode(domain.ZoomMode(mode)); err != nil {
		return domain.MonitorView{}, err
	}
	return a.Session.View(), nil
}

// PanBy accumulates a pan displacement used in actual-pixels mode.
func (a *App) PanBy(dx, dy float64) domain.MonitorView {
	a.Session.PanBy(dx, dy)
	return a.Session.View()
}

// GetViewTransform computes the monitor transform for the given viewport size.
func (a *App) GetViewTransform(viewW, viewH float64) preview.Transform {
	return a.Session.ViewTransform(viewW, viewH)
}

// TimecodeReadout pairs the elapsed clock with the source-relative clock.
type TimecodeReadout struct {
	Elapsed string `json:"elapsed"`
	Source  string `json:"source"`
}

// GetTimecodeReadout formats both monitor clocks for a playhead position.
func (a *App) GetTimecodeReadout(positionSeconds float64) TimecodeReadout {
	source := a.Session.Source()
	rate := source.FrameRate
	if rate <= 0 {
		rate = timecode.FallbackFrameRate
	}

	return TimecodeReadout{
		Elapsed: timecode.ToTimecode(positionSeconds, rate),
		Source:  timecode.ComposeSource(source.StartTimecode, positionSeconds, rate),
	}
}

// startGeneration replaces the active generation handle and launches the
// render worker. Any previous in-flight generation is cancelled first.
func (a *App) startGeneration(token string, target domain.PreviewTier) {
	ctx, cancel := context.WithCancel(context.Background())

	a.mu.Lock()
	if a.generation != nil && a.generation.cancel != nil {
		a.generation.cancel()
	}
	a.generation = &generation{token: token, target: target, cancel: cancel}
	a.mu.Unlock()

	go a.runGeneration(ctx, token, target)
}

// runGeneration drives one preview render: submit, poll, and land the
// result. Results carrying an outdated source token are dropped.
func (a *App) runGeneration(ctx context.Context, token string, target domain.PreviewTier) {
	client := a.backendClient()
	source := a.Session.Source()

	req := backend.PreviewRequest{FilePath: source.Path}
	switch target {
	case domain.PreviewTierPoster:
		req.Kind = backend.KindPoster
	case domain.PreviewTierBurst:
		req.Kind = backend.KindBurst
		req.Count = burstFrameCount
		req.DurationSeconds = source.DurationSeconds
	case domain.PreviewTierProxyVideo:
		req.Kind = backend.KindVideo
		req.DurationSeconds = source.DurationSeconds
	default:
		a.clearGeneration(token)
		return
	}

	startCtx, cancelStart := context.WithTimeout(ctx, a.requestTimeout())
	requestID, err := client.StartPreview(startCtx, req)
	cancelStart()
	if err != nil {
		if ctx.Err() != nil {
			a.clearGeneration(token)
			return
		}
		a.finishGenerationError(token, err.Error())
		return
	}

	a.mu.Lock()
	if a.generation != nil && a.generation.token == token {
		a.generation.requestID = requestID
	}
	a.mu.Unlock()
	a.publishPhase(token)

	status, err := client.PollPreview(ctx, requestID, backend.PollOptions{
		Interval: a.pollInterval(),
		OnUpdate: func(st backend.PreviewStatus) {
			a.publishEvent(preview.Event{
				SourceToken: token,
				Type:        preview.EventTypeProgress,
				Progress:    int(st.Progress * 100),
				RequestID:   requestID,
			})
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			a.abandonGeneration(token, requestID)
			return
		}
		a.finishGenerationError(token, err.Error())
		return
	}

	switch status.State {
	case backend.StateReady:
		a.resolveGeneration(token, target, requestID, status)
	case backend.StateCancelled:
		a.engineCancelledGeneration(token)
	default:
		message := status.Error
		if message == "" {
			message = "preview generation failed"
		}
		a.finishGenerationError(token, message)
	}
}

// resolveGeneration rewrites result URLs through the relay and lands the
// finished tier. Stale results are discarded without touching the monitor.
func (a *App) resolveGeneration(token string, target domain.PreviewTier, requestID string, status backend.PreviewStatus) {
	client := a.backendClient()
	engineBase := client.BaseURL()

	var err error
	switch target {
	case domain.PreviewTierPoster:
		posterURL, rewriteErr := relay.RewriteAssetURL(engineBase, status.ResultURL)
		if rewriteErr != nil {
			a.finishGenerationError(token, rewriteErr.Error())
			return
		}
		err = a.Session.ResolvePoster(token, posterURL)
	case domain.PreviewTierBurst:
		frames, rewriteErr := a.burstFrames(engineBase, status.FrameURLs)
		if rewriteErr != nil {
			a.finishGenerationError(token, rewriteErr.Error())
			return
		}
		err = a.Session.ResolveBurst(token, frames)
	case domain.PreviewTierProxyVideo:
		streamURL := status.ResultURL
		if streamURL == "" {
			streamURL = client.StreamURL(requestID)
		}
		rewritten, rewriteErr := relay.RewriteAssetURL(engineBase, streamURL)
		if rewriteErr != nil {
			a.finishGenerationError(token, rewriteErr.Error())
			return
		}
		err = a.Session.ResolveVideo(token, rewritten)
	}

	if err != nil {
		if !errors.Is(err, preview.ErrStaleResult) && a.logger != nil {
			a.logger.Warn("preview resolution rejected", "target", target, "error", err)
		}
		a.clearGeneration(token)
		return
	}

	a.clearGeneration(token)
	a.publishTier(token)
}

// burstFrames rewrites frame URLs and assigns evenly spaced midpoint timestamps.
func (a *App) burstFrames(engineBase string, frameURLs []string) ([]domain.BurstFrame, error) {
	duration := a.Session.Source().DurationSeconds

	frames := make([]domain.BurstFrame, 0, len(frameURLs))
	for i, raw := range frameURLs {
		rewritten, err := relay.RewriteAssetURL(engineBase, raw)
		if err != nil {
			return nil, err
		}

		timestamp := 0.0
		if duration > 0 {
			timestamp = duration * (float64(i) + 0.5) / float64(len(frameURLs))
		}
		frames = append(frames, domain.BurstFrame{URL: rewritten, TimestampSeconds: timestamp})
	}
	return frames, nil
}

// finishGenerationError records a failure against the current source.
// A stale token means the source was replaced and the failure is dropped.
func (a *App) finishGenerationError(token, message string) {
	if err := a.Session.FailGeneration(token, message); err != nil {
		a.clearGeneration(token)
		return
	}

	a.clearGeneration(token)
	a.publishEvent(preview.Event{
		SourceToken: token,
		Type:        preview.EventTypeError,
		Message:     message,
	})
	a.publishTier(token)
}

// engineCancelledGeneration lands an engine-side cancellation. The session
// is only touched when the cancelled request still belongs to the current
// source.
func (a *App) engineCancelledGeneration(token string) {
	if a.Session.Token() == token {
		_ = a.Session.CancelGeneration()
		a.clearGeneration(token)
		a.publishTier(token)
		return
	}
	a.clearGeneration(token)
}

// abandonGeneration runs after a local cancellation: the session was
// already updated by the caller, so only the engine-side request is
// cancelled, best effort.
func (a *App) abandonGeneration(token, requestID string) {
	if requestID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.backendClient().CancelPreview(ctx, requestID)
		cancel()
	}
	a.clearGeneration(token)
}

// clearGeneration drops the generation handle if it still belongs to token.
func (a *App) clearGeneration(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != nil && a.generation.token == token {
		a.generation = nil
	}
}

// cancelActiveGeneration cancels whatever render is in flight, if any.
func (a *App) cancelActiveGeneration() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != nil && a.generation.cancel != nil {
		a.generation.cancel()
	}
	a.generation = nil
}
