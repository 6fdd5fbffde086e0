package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/sim"
)

type ExportData struct {
	Scene    string             `json:"scene"`
	Step     int                `json:"step"`
	Seed     int64              `json:"seed"`
	Ticks    int                `json:"ticks"`
	Settled  bool               `json:"settled"`
	Geometry counter.Geometry   `json:"geometry"`
	Trace    []TraceRow         `json:"trace"`
	Final    []counter.View     `json:"final"`
	Metrics  map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, scene string, step int, seed int64, result *sim.Result) error {
	final, _ := result.Final()
	data := ExportData{
		Scene:    scene,
		Step:     step,
		Seed:     seed,
		Ticks:    result.Ticks,
		Settled:  result.Settled,
		Geometry: final.Geometry,
		Trace:    make([]TraceRow, len(result.Frames)),
		Final:    final.Items,
		Metrics:  result.Metrics,
	}

	for i, f := range result.Frames {
		data.Trace[i] = TraceRowFrom(f)
	}

	return encode(w, data)
}

// ExportStored writes the same document for a run read back from disk.
func ExportStored(w io.Writer, meta *RunMetadata, trace []TraceRow, final []ItemRow) error {
	data := ExportData{
		Scene:    meta.Scene,
		Step:     meta.Step,
		Seed:     meta.Seed,
		Ticks:    meta.Ticks,
		Settled:  meta.Settled,
		Geometry: meta.Geometry,
		Trace:    trace,
		Final:    make([]counter.View, 0, len(final)),
		Metrics:  meta.Metrics,
	}
	for _, r := range final {
		it, err := r.Item()
		if err != nil {
			return fmt.Errorf("item %s: %w", r.ID, err)
		}
		data.Final = append(data.Final, it.View())
	}
	return encode(w, data)
}

func encode(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
