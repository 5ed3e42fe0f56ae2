package domain

// Capability classifies how a source format can be previewed.
type Capability string

const (
	CapabilityRaw            Capability = "raw"
	CapabilityNativePlayable Capability = "native_playable"
	CapabilityUnknown        Capability = "unknown"
)

// String returns the wire value of the capability class.
func (c Capability) String() string {
	return string(c)
}

// PreviewTier identifies which preview representation the monitor shows.
type PreviewTier string

const (
	PreviewTierNone           PreviewTier = "none"
	PreviewTierPoster         PreviewTier = "poster"
	PreviewTierBurst          PreviewTier = "burst"
	PreviewTierProxyVideo     PreviewTier = "proxy_video"
	PreviewTierNativeVideo    PreviewTier = "native_video"
	PreviewTierIdentification PreviewTier = "identification_only"
)

// PreviewPhase tracks generation activity orthogonal to the visible tier.
type PreviewPhase string

const (
	PreviewPhaseIdle           PreviewPhase = "idle"
	PreviewPhasePendingConfirm PreviewPhase = "pending_confirmation"
	PreviewPhaseGenerating     PreviewPhase = "generating"
)

// ZoomMode selects how monitor content maps onto the viewport.
type ZoomMode string

const (
	ZoomModeFit    ZoomMode = "fit"
	ZoomModeActual ZoomMode = "actual"
)

// Source describes the currently loaded media file and its probed metadata.
type Source struct {
	Path            string     `json:"path"`
	Name            string     `json:"name"`
	Extension       string     `json:"extension"`
	Codec           string     `json:"codec"`
	Container       string     `json:"container"`
	Capability      Capability `json:"capability"`
	FrameRateText   string     `json:"frameRateText"`
	FrameRate       float64    `json:"frameRate"`
	StartTimecode   string     `json:"startTimecode"`
	DurationSeconds float64    `json:"durationSeconds"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
}

// BurstFrame is one still of a finite burst thumbnail sequence.
type BurstFrame struct {
	URL              string  `json:"url"`
	TimestampSeconds float64 `json:"timestampSeconds"`
}

// PlaybackState carries the monitor transport position and audio toggles.
type PlaybackState struct {
	Playing         bool    `json:"playing"`
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	Muted           bool    `json:"muted"`
	Volume          float64 `json:"volume"`
}

// DefaultPlaybackState returns the transport defaults applied on source change.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{Volume: 1.0}
}

// TransportState separates control visibility from control interactivity.
type TransportState struct {
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
}

// MonitorView is the full monitor snapshot handed to the frontend.
type MonitorView struct {
	Token         string         `json:"token"`
	Source        Source         `json:"source"`
	Tier          PreviewTier    `json:"tier"`
	Phase         PreviewPhase   `json:"phase"`
	PendingRaw    bool           `json:"pendingRaw"`
	LastError     string         `json:"lastError,omitempty"`
	PosterURL     string         `json:"posterUrl,omitempty"`
	Frames        []BurstFrame   `json:"frames,omitempty"`
	SelectedFrame int            `json:"selectedFrame"`
	StreamURL     string         `json:"streamUrl,omitempty"`
	Playback      PlaybackState  `json:"playback"`
	Zoom          ZoomMode       `json:"zoom"`
	Transport     TransportState `json:"transport"`
}
