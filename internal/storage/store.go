package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Step      int                `json:"step"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Ticks     int                `json:"ticks"`
	Settled   bool               `json:"settled"`
	Items     int                `json:"items"`
	Geometry  counter.Geometry   `json:"geometry"`
	Metrics   map[string]float64 `json:"metrics"`
}

// TraceRow summarizes one frame of a run.
type TraceRow struct {
	Tick      uint64  `csv:"tick"`
	Falling   int     `csv:"falling"`
	Dragging  bool    `csv:"dragging"`
	MeanY     float64 `csv:"mean_y"`
	MaxBottom float64 `csv:"max_bottom"`
}

// ItemRow is one item of the final frame.
type ItemRow struct {
	ID          string  `csv:"id"`
	Name        string  `csv:"name"`
	Category    string  `csv:"category"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Radius      float64 `csv:"radius"`
	Falling     bool    `csv:"falling"`
	AgainstWall bool    `csv:"against_wall"`
	ImageRef    string  `csv:"image_ref"`
}

func TraceRowFrom(f counter.Frame) TraceRow {
	row := TraceRow{Tick: f.Tick, Falling: f.Falling(), Dragging: f.Dragging()}
	if len(f.Items) == 0 {
		return row
	}
	for _, it := range f.Items {
		row.MeanY += it.Y
		row.MaxBottom = max(row.MaxBottom, it.Y+it.Radius)
	}
	row.MeanY /= float64(len(f.Items))
	return row
}

func ItemRowFrom(v counter.View) ItemRow {
	return ItemRow{
		ID:          v.ID,
		Name:        v.DisplayName,
		Category:    v.Category.String(),
		X:           v.X,
		Y:           v.Y,
		Radius:      v.Radius,
		Falling:     v.Falling,
		AgainstWall: v.AgainstWall,
		ImageRef:    v.ImageRef,
	}
}

// Item converts the row back into a placeable item.
func (r ItemRow) Item() (counter.Item, error) {
	var c counter.Category
	if err := c.UnmarshalText([]byte(r.Category)); err != nil {
		return counter.Item{}, err
	}
	return counter.Item{
		ID:          r.ID,
		DisplayName: r.Name,
		Category:    c,
		X:           r.X,
		Y:           r.Y,
		Radius:      r.Radius,
		Falling:     r.Falling,
		AgainstWall: r.AgainstWall,
		ImageRef:    r.ImageRef,
	}, nil
}

func (s *Store) Save(scene string, step int, seed int64, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	final, _ := result.Final()
	meta := RunMetadata{
		ID:        runID,
		Scene:     scene,
		Step:      step,
		Timestamp: now,
		Seed:      seed,
		Ticks:     result.Ticks,
		Settled:   result.Settled,
		Items:     len(final.Items),
		Geometry:  final.Geometry,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	trace := make([]TraceRow, len(result.Frames))
	for i, f := range result.Frames {
		trace[i] = TraceRowFrom(f)
	}
	if err := writeCSV(filepath.Join(runDir, "trace.csv"), &trace); err != nil {
		return "", err
	}

	items := make([]ItemRow, len(final.Items))
	for i, v := range final.Items {
		items[i] = ItemRowFrom(v)
	}
	if err := writeCSV(filepath.Join(runDir, "final.csv"), &items); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]TraceRow, error) {
	var rows []TraceRow
	if err := readCSV(filepath.Join(s.baseDir, runID, "trace.csv"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) LoadFinal(runID string) ([]ItemRow, error) {
	var rows []ItemRow
	if err := readCSV(filepath.Join(s.baseDir, runID, "final.csv"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Restore rebuilds the final items and geometry of a run so the scene can be
// placed into a fresh engine.
func (s *Store) Restore(runID string) ([]counter.Item, counter.Geometry, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, counter.Geometry{}, err
	}
	rows, err := s.LoadFinal(runID)
	if err != nil {
		return nil, counter.Geometry{}, err
	}
	items := make([]counter.Item, 0, len(rows))
	for _, r := range rows {
		it, err := r.Item()
		if err != nil {
			return nil, counter.Geometry{}, fmt.Errorf("run %s item %s: %w", runID, r.ID, err)
		}
		items = append(items, it)
	}
	return items, meta.Geometry, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}
