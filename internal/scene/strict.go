package scene

import (
	"encoding/json"
	"fmt"
)

// ParseStrict 현재 스키마 문서만 허용하는 전체-또는-실패 파서
//
// Drawing surfaces use it as their native bulk loader. Unlike Decoder it
// rebuilds freehand paths, but rejects the whole document on an old version,
// a non-canonical tag or any bad object.
func ParseStrict(data []byte) (*Scene, error) {
	var doc struct {
		Version    string            `json:"version"`
		Background *string           `json:"background"`
		Objects    []json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}

	s := &Scene{Drawables: make([]Drawable, 0, len(doc.Objects))}
	if doc.Background != nil {
		s.Background = *doc.Background
	}
	for i, rawJSON := range doc.Objects {
		var props map[string]any
		if err := json.Unmarshal(rawJSON, &props); err != nil || props == nil {
			return nil, ReconstructionWarning{Index: i, Err: ErrInvalidEntry}
		}
		raw := Normalize(i, props)
		if raw.Kind == KindUnknown || CanonicalTag(raw.Kind) != raw.Tag {
			return nil, ReconstructionWarning{Index: i, Tag: raw.Tag, Kind: raw.Kind, Err: ErrNonCanonicalTag}
		}
		d, err := Build(raw)
		if err != nil {
			return nil, ReconstructionWarning{Index: i, Tag: raw.Tag, Kind: raw.Kind, Err: err}
		}
		s.Drawables = append(s.Drawables, d)
	}
	return s, nil
}
