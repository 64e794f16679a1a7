package service

import (
	"context"
	"encoding/json"

	"github.com/spf13/cast"

	"whiteboard-backend/internal/scene"
)

// InspectWarning 복원 실패 객체 하나
type InspectWarning struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Error string `json:"error"`
}

// Inspection 저장된 장면 진단 결과
type Inspection struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Version      string           `json:"version,omitempty"`
	Background   string           `json:"background,omitempty"`
	Objects      map[string]int   `json:"objects"`
	SuccessCount int              `json:"successCount"`
	FailCount    int              `json:"failCount"`
	Warnings     []InspectWarning `json:"warnings"`
	Summary      string           `json:"summary"`
}

// Inspect 저장된 canvasData를 수동 복원 경로로 해석해 결과를 요약
//
// A record whose canvasData is not JSON yields *scene.ParseError.
func (s *WhiteboardService) Inspect(ctx context.Context, id string) (*Inspection, error) {
	w, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.decoder.Decode(w.CanvasData)
	if err != nil {
		return nil, err
	}
	return NewInspection(w.ID, w.Name, versionOf(w.CanvasData), res), nil
}

// NewInspection Decoder 결과를 진단 응답으로 변환
func NewInspection(id, name, version string, res *scene.Result) *Inspection {
	in := &Inspection{
		ID:           id,
		Name:         name,
		Version:      version,
		Background:   res.Scene.Background,
		Objects:      make(map[string]int),
		SuccessCount: res.SuccessCount,
		FailCount:    res.FailCount,
		Warnings:     make([]InspectWarning, 0, len(res.Warnings)),
		Summary:      res.Summary(),
	}
	for _, d := range res.Scene.Drawables {
		in.Objects[d.Kind().String()]++
	}
	for _, w := range res.Warnings {
		in.Warnings = append(in.Warnings, InspectWarning{Index: w.Index, Tag: w.Tag, Error: w.Err.Error()})
	}
	return in
}

// versionOf reads the top-level "version" field, "" for legacy documents.
func versionOf(data []byte) string {
	var head struct {
		Version any `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Version == nil {
		return ""
	}
	return cast.ToString(head.Version)
}
