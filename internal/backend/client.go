// Package backend talks to the local Proxx engine over its loopback HTTP
// API. Responses meant for read-only views pass through verbatim; typed
// endpoints decode into small structs the UI layer can consume directly.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// maxErrorBody caps how much of a failed response is carried in errors.
const maxErrorBody = 4096

// RequestError is a non-2xx backend response. Status and body are kept
// verbatim so the UI can show exactly what the engine said.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

// Error formats the failure with its verbatim backend payload.
func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth retrying. Server-side
// errors are; client-side errors will not improve on a second attempt.
func (e *RequestError) Retryable() bool {
	return e.StatusCode >= 500
}

// Client is a loopback HTTP client for the engine API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the engine at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL returns the normalized engine base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Jobs returns the engine job list as verbatim JSON.
func (c *Client) Jobs(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "list jobs", "/api/v2/fabric/jobs")
}

// Snapshots returns the engine snapshot list as verbatim JSON.
func (c *Client) Snapshots(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "list snapshots", "/api/v2/fabric/snapshots")
}

// Annotations returns the engine annotation list as verbatim JSON.
func (c *Client) Annotations(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "list annotations", "/api/v2/fabric/annotations")
}

// Metadata is what the engine can tell about one source file.
type Metadata struct {
	Codec           string  `json:"codec"`
	Container       string  `json:"container"`
	FrameRate       string  `json:"frameRate"`
	StartTimecode   string  `json:"startTimecode"`
	DurationSeconds float64 `json:"durationSeconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}

// ExtractMetadata probes a source file through the engine.
func (c *Client) ExtractMetadata(ctx context.Context, filePath string) (Metadata, error) {
	var out Metadata
	in := map[string]string{"filePath": filePath}
	if err := c.doJSON(ctx, "extract metadata", http.MethodPost, "/metadata/extract", in, &out); err != nil {
		return Metadata{}, err
	}
	return out, nil
}

// RawMetadata returns the engine's full probe payload for a source as
// verbatim JSON, including fields the typed Metadata struct does not carry.
func (c *Client) RawMetadata(ctx context.Context, filePath string) (json.RawMessage, error) {
	var out json.RawMessage
	in := map[string]string{"filePath": filePath}
	if err := c.doJSON(ctx, "metadata view", http.MethodPost, "/metadata/extract", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Preview generation kinds accepted by the engine.
const (
	KindPoster = "poster"
	KindBurst  = "burst"
	KindVideo  = "video"
)

// PreviewRequest asks the engine to generate preview media for a source.
type PreviewRequest struct {
	FilePath        string  `json:"filePath"`
	Kind            string  `json:"kind"`
	Count           int     `json:"count,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

// StartPreview submits a preview generation request and returns its ID.
func (c *Client) StartPreview(ctx context.Context, req PreviewRequest) (string, error) {
	var out struct {
		RequestID string `json:"requestId"`
	}
	if err := c.doJSON(ctx, "start preview", http.MethodPost, "/preview/thumbnail", req, &out); err != nil {
		return "", err
	}
	if out.RequestID == "" {
		return "", fmt.Errorf("start preview: backend returned no request ID")
	}
	return out.RequestID, nil
}

// Preview request states reported by the engine.
const (
	StateQueued    = "queued"
	StateWorking   = "working"
	StateReady     = "ready"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// PreviewStatus is one progress report for a preview request.
type PreviewStatus struct {
	State     string   `json:"state"`
	Progress  float64  `json:"progress"`
	ResultURL string   `json:"resultUrl,omitempty"`
	FrameURLs []string `json:"frameUrls,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Terminal reports whether this state ends the request for good.
func (s PreviewStatus) Terminal() bool {
	switch s.State {
	case StateReady, StateFailed, StateCancelled:
		return true
	}
	return false
}

// CheckPreview fetches the current status of a preview request.
func (c *Client) CheckPreview(ctx context.Context, requestID string) (PreviewStatus, error) {
	var out PreviewStatus
	in := map[string]string{"requestId": requestID}
	if err := c.doJSON(ctx, "preview status", http.MethodPost, "/preview/status", in, &out); err != nil {
		return PreviewStatus{}, err
	}
	return out, nil
}

// CancelPreview asks the engine to abandon a preview request.
func (c *Client) CancelPreview(ctx context.Context, requestID string) error {
	in := map[string]string{"requestId": requestID}
	return c.doJSON(ctx, "cancel preview", http.MethodPost, "/preview/cancel", in, nil)
}

// PathInfo is the engine's verdict on a filesystem path.
type PathInfo struct {
	Exists    bool `json:"exists"`
	Readable  bool `json:"readable"`
	Writable  bool `json:"writable"`
	Directory bool `json:"directory"`
}

// ValidatePath asks the engine whether a path is usable.
func (c *Client) ValidatePath(ctx context.Context, path string) (PathInfo, error) {
	var out PathInfo
	endpoint := "/filesystem/validate-path?path=" + url.QueryEscape(path)
	if err := c.doJSON(ctx, "validate path", http.MethodGet, endpoint, nil, &out); err != nil {
		return PathInfo{}, err
	}
	return out, nil
}

// Readiness fetches the engine's readiness report.
func (c *Client) Readiness(ctx context.Context) (domain.ReadinessReport, error) {
	var out domain.ReadinessReport
	if err := c.doJSON(ctx, "readiness", http.MethodGet, "/api/readiness", nil, &out); err != nil {
		return domain.ReadinessReport{}, err
	}
	return out, nil
}

// JobRequest submits one source with a delivery recipe for transcoding.
type JobRequest struct {
	SourcePath string                 `json:"sourcePath"`
	Settings   domain.DeliverSettings `json:"settings"`
}

// SubmitJob queues a transcode job and returns the engine's response
// verbatim for the jobs view.
func (c *Client) SubmitJob(ctx context.Context, req JobRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, "submit job", http.MethodPost, "/api/v2/fabric/jobs", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamURL builds the playback URL for a finished proxy video.
func (c *Client) StreamURL(requestID string) string {
	return c.baseURL + "/preview/stream?requestId=" + url.QueryEscape(requestID)
}

// NativeStreamURL builds the direct playback URL for a natively
// playable source file.
func (c *Client) NativeStreamURL(path string) string {
	return c.baseURL + "/preview/stream?path=" + url.QueryEscape(path)
}

// getRaw fetches an endpoint and returns its body untouched, only
// checking that it is valid JSON before the views render it.
func (c *Client) getRaw(ctx context.Context, op, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, op, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doJSON performs one request. A non-2xx response becomes a RequestError
// with the backend's own words; transport failures are wrapped as-is.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	c.logger.Debug("backend request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(data),
		}
	}

	switch target := out.(type) {
	case nil:
		return nil
	case *json.RawMessage:
		if !json.Valid(data) {
			return fmt.Errorf("%s: backend returned invalid JSON", op)
		}
		*target = json.RawMessage(data)
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	}
}

// truncateBody trims huge error payloads so errors stay loggable.
func truncateBody(data []byte) string {
	if len(data) > maxErrorBody {
		return string(data[:maxErrorBody])
	}
	return string(data)
}
