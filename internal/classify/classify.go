package classify

import (
	"strings"

	"github.com/Venkmine/Proxx-sub001/internal/domain"
)

// rawCodecMarkers match camera-original formats that need proxy generation
// before the monitor can play them.
var rawCodecMarkers = []string{
	"arriraw",
	"redcode",
	"braw",
	"r3d",
	"prores raw",
}

// playableExtensions are containers the webview can decode directly when no
// codec information is available.
var playableExtensions = map[string]struct{}{
	"mp4":  {},
	"mov":  {},
	"m4v":  {},
	"mkv":  {},
	"webm": {},
	"avi":  {},
	"mxf":  {},
}

// Classify maps probed codec and file extension onto a capability class.
// A non-empty codec decides alone: RAW markers win, anything else decodes to
// displayable video. Without codec information the extension decides between
// native playback and unknown; extension matching never yields RAW.
func Classify(codec, extension string) domain.Capability {
	name := strings.ToLower(strings.TrimSpace(codec))
	if name != "" {
		for _, marker := range rawCodecMarkers {
			if strings.Contains(name, marker) {
				return domain.CapabilityRaw
			}
		}
		return domain.CapabilityNativePlayable
	}

	if _, ok := playableExtensions[normalizeExtension(extension)]; ok {
		return domain.CapabilityNativePlayable
	}
	return domain.CapabilityUnknown
}

// normalizeExtension lowercases and strips the leading dot.
func normalizeExtension(extension string) string {
	ext := strings.ToLower(strings.TrimSpace(extension))
	return strings.TrimPrefix(ext, ".")
}
