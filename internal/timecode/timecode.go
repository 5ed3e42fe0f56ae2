package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FallbackFrameRate is assumed when probed rate text cannot be parsed.
// 24 keeps frame counters conservative for film-origin material; a 30
// assumption would overrun real frame counts on most sources.
const FallbackFrameRate = 24.0

// MissingTimecode is rendered when the source carries no start timecode.
const MissingTimecode = "--:--:--:--"

const hoursPerDay = 24

// ParseFrameRate converts probed frame-rate text into frames per second.
// It reads the leading numeric token, accepting plain decimals ("23.976")
// and rational "N/D" forms ("30000/1001"). Unparseable or non-positive
// input falls back to 24.
func ParseFrameRate(text string) float64 {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return FallbackFrameRate
	}
	token := fields[0]

	if numText, denText, found := strings.Cut(token, "/"); found {
		num, err1 := strconv.ParseFloat(numText, 64)
		den, err2 := strconv.ParseFloat(denText, 64)
		if err1 != nil || err2 != nil || den <= 0 {
			return FallbackFrameRate
		}
		return sanitizeRate(num / den)
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return FallbackFrameRate
	}
	return sanitizeRate(value)
}

// ToTimecode renders elapsed seconds as HH:MM:SS:FF at the given rate.
// The frame field is floor(fractional_seconds * frameRate); negative or
// NaN positions clamp to zero.
func ToTimecode(seconds, frameRate float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	frameRate = sanitizeRate(frameRate)

	whole := int64(math.Floor(seconds))
	frames := int64(math.Floor((seconds - math.Floor(seconds)) * frameRate))

	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// ComposeSource advances a source start timecode by elapsed playback
// seconds using frame-accurate arithmetic at the nominal integer rate.
// A blank start renders the missing sentinel; a malformed start is
// returned unchanged so bad metadata degrades without breaking the
// transport display. Hours wrap at 24.
func ComposeSource(start string, elapsedSeconds, frameRate float64) string {
	trimmed := strings.TrimSpace(start)
	if trimmed == "" || trimmed == MissingTimecode {
		return MissingTimecode
	}

	hours, minutes, seconds, frames, ok := splitTimecode(trimmed)
	if !ok {
		return start
	}

	if math.IsNaN(elapsedSeconds) || elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	nominal := nominalRate(frameRate)

	total := ((hours*3600+minutes*60+seconds)*nominal + frames) +
		int64(math.Floor(elapsedSeconds*float64(nominal)))
	total %= hoursPerDay * 3600 * nominal

	outFrames := total % nominal
	totalSeconds := total / nominal
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60, outFrames)
}

// splitTimecode parses HH:MM:SS:FF into its numeric parts.
func splitTimecode(text string) (hours, minutes, seconds, frames int64, ok bool) {
	parts := strings.Split(text, ":")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}

	values := make([]int64, 4)
	for i, part := range parts {
		value, err := strconv.ParseInt(part, 10, 64)
		if err != nil || value < 0 {
			return 0, 0, 0, 0, false
		}
		values[i] = value
	}

	if values[0] > 99 || values[1] > 59 || values[2] > 59 || values[3] > 99 {
		return 0, 0, 0, 0, false
	}
	return values[0], values[1], values[2], values[3], true
}

// nominalRate rounds a float rate to the integer timecode base, minimum 1.
func nominalRate(frameRate float64) int64 {
	rate := math.Round(sanitizeRate(frameRate))
	if rate < 1 {
		return 1
	}
	return int64(rate)
}

// sanitizeRate replaces non-positive or non-finite rates with the fallback.
func sanitizeRate(rate float64) float64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return FallbackFrameRate
	}
	return rate
}
