package backend

import "strings"

// Job failure codes reported by the engine.
const (
	FailureSourceMissing    = "source_missing"
	FailurePermissionDenied = "permission_denied"
	FailureDiskFull         = "disk_full"
	FailureUnsupportedCodec = "unsupported_codec"
	FailureEncoderTimeout   = "encoder_timeout"
	FailureCancelled        = "cancelled"
)

// failurePhrases maps engine failure codes to the fixed phrases shown in
// the jobs view. These are sentences a user reads, not log lines.
var failurePhrases = map[string]string{
	FailureSourceMissing:    "Source file missing or unreadable.",
	FailurePermissionDenied: "Permission denied writing the destination.",
	FailureDiskFull:         "Destination disk is full.",
	FailureUnsupportedCodec: "Source codec is not supported.",
	FailureEncoderTimeout:   "The encoder timed out.",
	FailureCancelled:        "The job was cancelled.",
}

// genericFailurePhrase covers codes this build does not recognize.
const genericFailurePhrase = "Encoding failed. See the job log for details."

// reasonMarkers matches free-text failure reasons the engine passes
// through from the OS or ffmpeg. Lowercase substrings, checked in order.
var reasonMarkers = []struct {
	marker string
	phrase string
}{
	{"no such file", failurePhrases[FailureSourceMissing]},
	{"enoent", failurePhrases[FailureSourceMissing]},
	{"permission denied", failurePhrases[FailurePermissionDenied]},
	{"eacces", failurePhrases[FailurePermissionDenied]},
	{"no space", failurePhrases[FailureDiskFull]},
	{"enospc", failurePhrases[FailureDiskFull]},
	{"disk full", failurePhrases[FailureDiskFull]},
	{"unsupported codec", failurePhrases[FailureUnsupportedCodec]},
	{"unknown decoder", failurePhrases[FailureUnsupportedCodec]},
	{"timed out", failurePhrases[FailureEncoderTimeout]},
	{"timeout", failurePhrases[FailureEncoderTimeout]},
	{"killed", failurePhrases[FailureCancelled]},
	{"cancelled", failurePhrases[FailureCancelled]},
}

// DescribeJobFailure turns an engine failure code or raw reason into the
// phrase shown to the user. Known codes map directly, free-text reasons
// match by substring, and everything else gets the generic phrase.
func DescribeJobFailure(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if phrase, ok := failurePhrases[normalized]; ok {
		return phrase
	}
	for _, rule := range reasonMarkers {
		if strings.Contains(normalized, rule.marker) {
			return rule.phrase
		}
	}
	return genericFailurePhrase
}
