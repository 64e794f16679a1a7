package scene

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion 현재 직렬화 스키마 버전
const SchemaVersion = "1"

// document is the canonical on-disk shape.
type document struct {
	Version    string     `json:"version"`
	Background string     `json:"background,omitempty"`
	Objects    []Drawable `json:"objects"`
}

// Encode 장면을 정규 JSON 문서로 직렬화
//
// An empty (or nil) scene encodes with "objects": [].
func Encode(s *Scene) ([]byte, error) {
	doc := document{Version: SchemaVersion, Objects: []Drawable{}}
	if s != nil {
		doc.Background = s.Background
		if len(s.Drawables) > 0 {
			doc.Objects = s.Drawables
		}
	}
	for i, d := range doc.Objects {
		if d == nil {
			return nil, &SerializationError{Op: "json", Err: fmt.Errorf("nil drawable at index %d", i)}
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &SerializationError{Op: "json", Err: err}
	}
	return data, nil
}

// Canonicalize 과거 포맷 문서를 현재 스키마로 다시 직렬화
//
// A document ParseStrict accepts is re-encoded as-is (freehand paths included).
// Anything else goes through the Decoder, so objects it cannot rebuild are
// dropped and reported in the Result.
func Canonicalize(data []byte) ([]byte, *Result, error) {
	res := &Result{}
	if s, err := ParseStrict(data); err == nil {
		res.Scene = s
		res.SuccessCount = len(s.Drawables)
	} else {
		decoded, err := Decode(data)
		if err != nil {
			return nil, nil, err
		}
		res = decoded
	}
	out, err := Encode(res.Scene)
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

// Validate 직렬화한 형태가 다시 복원 가능한지 확인
//
// A drawable that fails here would be saved but dropped on the next load,
// e.g. a TextLabel with blank text or an Image without a source.
func Validate(d Drawable) error {
	data, err := json.Marshal(d)
	if err != nil {
		return &SerializationError{Op: "json", Err: err}
	}
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return &SerializationError{Op: "json", Err: err}
	}
	_, err = Build(Normalize(0, props))
	return err
}
