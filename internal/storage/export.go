package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/xpbdsim/internal/sim"
)

type ExportData struct {
	Scene     string             `json:"scene"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Particles int                `json:"particles"`
	Times     []float64          `json:"times"`
	Positions [][]float64        `json:"positions"`
	Edges     [][2]int           `json:"edges,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// ExportJSON writes a run and its trajectory as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []sim.Frame, times []float64) error {
	data := ExportData{
		Scene:     meta.Scene,
		Dt:        meta.Dt,
		Duration:  meta.Duration,
		Steps:     len(times),
		Particles: meta.Particles,
		Times:     times,
		Positions: make([][]float64, len(frames)),
		Edges:     meta.Edges,
		Metrics:   meta.Metrics,
	}

	for i, f := range frames {
		data.Positions[i] = f
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
