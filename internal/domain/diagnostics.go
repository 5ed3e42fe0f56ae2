package domain

import "time"

// DiagnosticStatus indicates whether a single local environment check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one local check result with optional remediation hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates local checks for UI and startup gating.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// ReadinessStatus is the engine's verdict for one readiness item.
type ReadinessStatus string

const (
	ReadinessStatusPass ReadinessStatus = "pass"
	ReadinessStatusWarn ReadinessStatus = "warn"
	ReadinessStatusFail ReadinessStatus = "fail"
)

// ReadinessItem is one engine-side readiness check, rendered as received.
type ReadinessItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Status   ReadinessStatus `json:"status"`
	Message  string          `json:"message,omitempty"`
	Blocking bool            `json:"blocking"`
}

// ReadinessReport is the engine's pre-flight report for job submission.
type ReadinessReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Items       []ReadinessItem `json:"items"`
}

// Blocked reports whether any blocking readiness item failed.
func (r ReadinessReport) Blocked() bool {
	for _, item := range r.Items {
		if item.Blocking && item.Status == ReadinessStatusFail {
			return true
		}
	}
	return false
}
