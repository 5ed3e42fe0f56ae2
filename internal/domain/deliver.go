package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Section names accepted by the single settings update path.
const (
	SectionVideo    = "video"
	SectionAudio    = "audio"
	SectionFile     = "file"
	SectionMetadata = "metadata"
	SectionOverlay  = "overlay"
)

// VideoSection configures the encoded picture of a delivery.
type VideoSection struct {
	Codec     string `json:"codec"`
	Quality   int    `json:"quality"`
	MaxWidth  int    `json:"maxWidth"`
	MaxHeight int    `json:"maxHeight"`
	ScaleMode string `json:"scaleMode"`
}

// AudioSection configures the encoded audio of a delivery.
type AudioSection struct {
	Codec       string `json:"codec"`
	BitrateKbps int    `json:"bitrateKbps"`
	Channels    int    `json:"channels"`
	Passthrough bool   `json:"passthrough"`
}

// FileSection configures container, naming, and destination handling.
type FileSection struct {
	Container      string `json:"container"`
	NamePattern    string `json:"namePattern"`
	DestinationDir string `json:"destinationDir"`
	Overwrite      bool   `json:"overwrite"`
}

// MetadataSection configures which source metadata carries into the output.
type MetadataSection struct {
	BurnSourceName     bool     `json:"burnSourceName"`
	CopySourceTimecode bool     `json:"copySourceTimecode"`
	Fields             []string `json:"fields,omitempty"`
}

// OverlaySection holds the ordered burn-in layer stack.
type OverlaySection struct {
	Layers OverlayLayers `json:"layers,omitempty"`
}

// DeliverSettings is the complete transcode recipe snapshotted by presets.
type DeliverSettings struct {
	Video    VideoSection    `json:"video"`
	Audio    AudioSection    `json:"audio"`
	File     FileSection     `json:"file"`
	Metadata MetadataSection `json:"metadata"`
	Overlay  OverlaySection  `json:"overlay"`
}

// DefaultDeliverSettings returns the recipe applied before any preset loads.
func DefaultDeliverSettings() DeliverSettings {
	return DeliverSettings{
		Video: VideoSection{
			Codec:     "h264",
			Quality:   75,
			MaxWidth:  1920,
			MaxHeight: 1080,
			ScaleMode: "fit",
		},
		Audio: AudioSection{
			Codec:       "aac",
			BitrateKbps: 192,
			Channels:    2,
		},
		File: FileSection{
			Container:   "mp4",
			NamePattern: "{source}_proxy",
		},
		Metadata: MetadataSection{
			CopySourceTimecode: true,
		},
	}
}

// ApplySection replaces exactly one named section with the given payload.
func ApplySection(dst *DeliverSettings, section string, raw json.RawMessage) error {
	switch section {
	case SectionVideo:
		var v VideoSection
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s section: %w", section, err)
		}
		dst.Video = v
	case SectionAudio:
		var v AudioSection
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s section: %w", section, err)
		}
		dst.Audio = v
	case SectionFile:
		var v FileSection
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s section: %w", section, err)
		}
		dst.File = v
	case SectionMetadata:
		var v MetadataSection
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s section: %w", section, err)
		}
		dst.Metadata = v
	case SectionOverlay:
		var v OverlaySection
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s section: %w", section, err)
		}
		dst.Overlay = v
	default:
		return fmt.Errorf("unknown settings section %q", section)
	}
	return nil
}

// CloneSettings deep-copies a recipe so snapshots never share mutable state.
func CloneSettings(s DeliverSettings) DeliverSettings {
	out := s
	if s.Metadata.Fields != nil {
		out.Metadata.Fields = append([]string(nil), s.Metadata.Fields...)
	}
	out.Overlay.Layers = cloneOverlayLayers(s.Overlay.Layers)
	return out
}

// cloneOverlayLayers copies the layer stack including slice-bearing variants.
func cloneOverlayLayers(layers OverlayLayers) OverlayLayers {
	if layers == nil {
		return nil
	}

	out := make(OverlayLayers, len(layers))
	for i, layer := range layers {
		switch v := layer.(type) {
		case MetadataLayer:
			v.Fields = append([]string(nil), v.Fields...)
			out[i] = v
		default:
			out[i] = layer
		}
	}
	return out
}

// SettingsEqual compares two recipes by canonical serialized form.
func SettingsEqual(a, b DeliverSettings) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
