package bootstrap

import (
	"fmt"
	"strings"

	"github.com/Venkmine/Proxx-sub001/internal/backend"
	"github.com/Venkmine/Proxx-sub001/internal/domain"
	"github.com/Venkmine/Proxx-sub001/internal/preview"
)

// GetJobsView returns the engine's job list exactly as the engine sent it.
func (a *App) GetJobsView() (string, error) {
	ctx, cancel := a.opCtx()
	defer cancel()

	raw, err := a.backendClient().Jobs(ctx)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GetSnapshotsView returns the engine's snapshot list exactly as the engine sent it.
func (a *App) GetSnapshotsView() (string, error) {
	ctx, cancel := a.opCtx()
	defer cancel()

	raw, err := a.backendClient().Snapshots(ctx)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GetAnnotationsView returns the engine's annotation list exactly as the engine sent it.
func (a *App) GetAnnotationsView() (string, error) {
	ctx, cancel := a.opCtx()
	defer cancel()

	raw, err := a.backendClient().Annotations(ctx)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GetMetadataView returns the engine's probe payload for the loaded
// source exactly as the engine sent it.
func (a *App) GetMetadataView() (string, error) {
	source := a.Session.Source()
	if source.Path == "" {
		return "", fmt.Errorf("no source loaded")
	}

	ctx, cancel := a.opCtx()
	defer cancel()

	raw, err := a.backendClient().RawMetadata(ctx, source.Path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GetReadiness fetches the engine's pre-flight report for job submission.
func (a *App) GetReadiness() (domain.ReadinessReport, error) {
	ctx, cancel := a.opCtx()
	defer cancel()

	return a.backendClient().Readiness(ctx)
}

// SubmitJob queues the loaded source for transcoding with the working
// recipe. Submission is refused while a blocking readiness check fails,
// and the engine's reply is returned verbatim for the jobs view.
func (a *App) SubmitJob() (string, error) {
	source := a.Session.Source()
	if source.Path == "" {
		return "", fmt.Errorf("no source loaded")
	}

	ctx, cancel := a.opCtx()
	defer cancel()

	client := a.backendClient()
	readiness, err := client.Readiness(ctx)
	if err != nil {
		return "", err
	}
	if readiness.Blocked() {
		return "", fmt.Errorf("engine is not ready: %s", strings.Join(blockingNames(readiness), ", "))
	}

	a.mu.Lock()
	settings := domain.CloneSettings(a.settings)
	a.mu.Unlock()

	reply, err := client.SubmitJob(ctx, backend.JobRequest{SourcePath: source.Path, Settings: settings})
	if err != nil {
		return "", err
	}

	a.resetPlaybackForJob()
	return string(reply), nil
}

// NotifyJobRunning resets the monitor transport when a queued job starts running.
func (a *App) NotifyJobRunning() {
	a.resetPlaybackForJob()
}

// DescribeJobFailure maps an engine failure code to a short human phrase.
func (a *App) DescribeJobFailure(code string) string {
	return backend.DescribeJobFailure(code)
}

// resetPlaybackForJob returns the transport to defaults and tells the UI.
func (a *App) resetPlaybackForJob() {
	a.Session.ResetForRunningJob()
	a.publishEvent(preview.Event{
		SourceToken: a.Session.Token(),
		Type:        preview.EventTypePlayback,
	})
}

// blockingNames lists the names of failed blocking readiness items.
func blockingNames(report domain.ReadinessReport) []string {
	names := make([]string, 0, len(report.Items))
	for _, item := range report.Items {
		if item.Blocking && item.Status == domain.ReadinessStatusFail {
			names = append(names, item.Name)
		}
	}
	return names
}
