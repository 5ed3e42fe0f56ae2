package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OverlayKind discriminates overlay layer variants on the wire.
type OverlayKind string

const (
	OverlayKindText     OverlayKind = "text"
	OverlayKindImage    OverlayKind = "image"
	OverlayKindTimecode OverlayKind = "timecode"
	OverlayKindMetadata OverlayKind = "metadata"
)

// OverlayPosition anchors a layer to one of the fixed monitor slots.
type OverlayPosition string

const (
	OverlayPositionTopLeft     OverlayPosition = "top-left"
	OverlayPositionTopRight    OverlayPosition = "top-right"
	OverlayPositionCenter      OverlayPosition = "center"
	OverlayPositionBottomLeft  OverlayPosition = "bottom-left"
	OverlayPositionBottomRight OverlayPosition = "bottom-right"
)

// OverlayLayer is the closed set of burn-in layer variants.
type OverlayLayer interface {
	Kind() OverlayKind
	isOverlayLayer()
}

// TextLayer burns a static caption into the output.
type TextLayer struct {
	Text     string          `json:"text"`
	FontSize int             `json:"fontSize,omitempty"`
	Color    string          `json:"color,omitempty"`
	Position OverlayPosition `json:"position,omitempty"`
}

// ImageLayer composites a watermark image over the output.
type ImageLayer struct {
	Path     string          `json:"path"`
	Opacity  float64         `json:"opacity,omitempty"`
	Position OverlayPosition `json:"position,omitempty"`
}

// TimecodeLayer burns a running source timecode into the output.
type TimecodeLayer struct {
	ShowFrames bool            `json:"showFrames,omitempty"`
	Position   OverlayPosition `json:"position,omitempty"`
}

// MetadataLayer burns selected metadata fields into the output.
type MetadataLayer struct {
	Fields   []string        `json:"fields"`
	Position OverlayPosition `json:"position,omitempty"`
}

// Kind returns the text layer discriminator.
func (TextLayer) Kind() OverlayKind { return OverlayKindText }

// Kind returns the image layer discriminator.
func (ImageLayer) Kind() OverlayKind { return OverlayKindImage }

// Kind returns the timecode layer discriminator.
func (TimecodeLayer) Kind() OverlayKind { return OverlayKindTimecode }

// Kind returns the metadata layer discriminator.
func (MetadataLayer) Kind() OverlayKind { return OverlayKindMetadata }

func (TextLayer) isOverlayLayer()     {}
func (ImageLayer) isOverlayLayer()    {}
func (TimecodeLayer) isOverlayLayer() {}
func (MetadataLayer) isOverlayLayer() {}

// OverlayLayers serializes the layer stack with per-variant type tags.
type OverlayLayers []OverlayLayer

// MarshalJSON encodes each layer wrapped in its discriminator envelope.
func (l OverlayLayers) MarshalJSON() ([]byte, error) {
	out := make([]any, len(l))
	for i, layer := range l {
		switch v := layer.(type) {
		case TextLayer:
			out[i] = struct {
				Type OverlayKind `json:"type"`
				TextLayer
			}{OverlayKindText, v}
		case ImageLayer:
			out[i] = struct {
				Type OverlayKind `json:"type"`
				ImageLayer
			}{OverlayKindImage, v}
		case TimecodeLayer:
			out[i] = struct {
				Type OverlayKind `json:"type"`
				TimecodeLayer
			}{OverlayKindTimecode, v}
		case MetadataLayer:
			out[i] = struct {
				Type OverlayKind `json:"type"`
				MetadataLayer
			}{OverlayKindMetadata, v}
		default:
			return nil, fmt.Errorf("overlay layer %d: unsupported variant %T", i, layer)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged layer stack, rejecting unknown variants.
func (l *OverlayLayers) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(OverlayLayers, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Type OverlayKind `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("overlay layer %d: %w", i, err)
		}

		layer, err := decodeOverlayLayer(head.Type, raw)
		if err != nil {
			return fmt.Errorf("overlay layer %d: %w", i, err)
		}
		out = append(out, layer)
	}

	*l = out
	return nil
}

// decodeOverlayLayer decodes one tagged layer and validates required fields.
func decodeOverlayLayer(kind OverlayKind, raw json.RawMessage) (OverlayLayer, error) {
	switch kind {
	case OverlayKindText:
		var v TextLayer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if strings.TrimSpace(v.Text) == "" {
			return nil, fmt.Errorf("text layer requires text")
		}
		if err := validateOverlayPosition(v.Position); err != nil {
			return nil, err
		}
		return v, nil
	case OverlayKindImage:
		var v ImageLayer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if strings.TrimSpace(v.Path) == "" {
			return nil, fmt.Errorf("image layer requires path")
		}
		if v.Opacity == 0 {
			v.Opacity = 1
		}
		if v.Opacity < 0 || v.Opacity > 1 {
			return nil, fmt.Errorf("image layer opacity %v out of range", v.Opacity)
		}
		if err := validateOverlayPosition(v.Position); err != nil {
			return nil, err
		}
		return v, nil
	case OverlayKindTimecode:
		var v TimecodeLayer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if err := validateOverlayPosition(v.Position); err != nil {
			return nil, err
		}
		return v, nil
	case OverlayKindMetadata:
		var v MetadataLayer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if len(v.Fields) == 0 {
			return nil, fmt.Errorf("metadata layer requires at least one field")
		}
		if err := validateOverlayPosition(v.Position); err != nil {
			return nil, err
		}
		return v, nil
	case "":
		return nil, fmt.Errorf("missing overlay layer type")
	default:
		return nil, fmt.Errorf("unknown overlay layer type %q", kind)
	}
}

// validateOverlayPosition accepts the fixed anchor slots or empty for default.
func validateOverlayPosition(p OverlayPosition) error {
	switch p {
	case "", OverlayPositionTopLeft, OverlayPositionTopRight, OverlayPositionCenter,
		OverlayPositionBottomLeft, OverlayPositionBottomRight:
		return nil
	default:
		return fmt.Errorf("unknown overlay position %q", p)
	}
}
