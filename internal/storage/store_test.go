package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/sim"
)

func settledResult(t *testing.T) *sim.Result {
	t.Helper()
	eng := counter.New()
	eng.SetGeometry(counter.Geometry{Width: 400, Height: 600, FloorY: 500})
	eng.Load(
		[]counter.IngredientEntry{{Name: "flour", Quantity: "2 cups"}, {Name: "eggs"}},
		[]counter.EquipmentEntry{{Name: "bowl", ImageURL: "bowl.png"}},
	)

	s := sim.New(eng)
	result, err := s.Run(context.Background(), sim.DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	result.Metrics["settle_tick"] = float64(result.Ticks)
	return result
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := settledResult(t)
	runID, err := st.Save("pancakes", 1, 42, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Scene != "pancakes" || meta.Step != 1 {
		t.Errorf("expected pancakes step 1, got %s step %d", meta.Scene, meta.Step)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if !meta.Settled || meta.Items != 3 {
		t.Errorf("expected 3 settled items, got settled=%v items=%d", meta.Settled, meta.Items)
	}
	if meta.Metrics["settle_tick"] != float64(result.Ticks) {
		t.Errorf("expected settle tick %d, got %f", result.Ticks, meta.Metrics["settle_tick"])
	}

	trace, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(trace) != len(result.Frames) {
		t.Errorf("expected %d trace rows, got %d", len(result.Frames), len(trace))
	}
	if trace[0].Falling != 3 || trace[len(trace)-1].Falling != 0 {
		t.Errorf("unexpected falling counts %d -> %d", trace[0].Falling, trace[len(trace)-1].Falling)
	}
}

func TestStoreRestore(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := settledResult(t)
	runID, err := st.Save("pancakes", 0, 1, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	items, geom, err := st.Restore(runID)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if geom.Width != 400 || geom.FloorY != 500 {
		t.Errorf("unexpected geometry %+v", geom)
	}

	final, _ := result.Final()
	if len(items) != len(final.Items) {
		t.Fatalf("expected %d items, got %d", len(final.Items), len(items))
	}
	for i, it := range items {
		want := final.Items[i]
		if it.ID != want.ID || it.X != want.X || it.Y != want.Y || it.Category != want.Category {
			t.Errorf("item %d restored as %+v, want %+v", i, it, want)
		}
	}
	if items[2].ImageRef != "bowl.png" {
		t.Errorf("image ref lost: %q", items[2].ImageRef)
	}

	eng := counter.New()
	eng.SetGeometry(geom)
	if err := eng.Place(items); err != nil {
		t.Fatalf("place restored items: %v", err)
	}
	if eng.Active() {
		t.Error("restored scene should already be at rest")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	_, err = st.Save("test", 0, 42, settledResult(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list for missing dir, got %v %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("test", 0, 42, settledResult(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "trace.csv", "final.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	result := settledResult(t)

	var buf bytes.Buffer
	if err := ExportJSON(&buf, "pancakes", 2, 7, result); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if data.Scene != "pancakes" || data.Step != 2 || data.Seed != 7 {
		t.Errorf("unexpected header %+v", data)
	}
	if len(data.Trace) != len(result.Frames) || len(data.Final) != 3 {
		t.Errorf("expected %d trace rows and 3 items, got %d and %d",
			len(result.Frames), len(data.Trace), len(data.Final))
	}
	if data.Final[2].Category != counter.Equipment {
		t.Errorf("category lost in export: %v", data.Final[2].Category)
	}
}

func TestExportStoredMatchesLiveExport(t *testing.T) {
	st := New(t.TempDir())
	result := settledResult(t)
	runID, err := st.Save("pancakes", 0, 3, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatal(err)
	}
	final, err := st.LoadFinal(runID)
	if err != nil {
		t.Fatal(err)
	}

	var stored, live bytes.Buffer
	if err := ExportStored(&stored, meta, trace, final); err != nil {
		t.Fatalf("export stored failed: %v", err)
	}
	if err := ExportJSON(&live, "pancakes", 0, 3, result); err != nil {
		t.Fatal(err)
	}

	var a, b ExportData
	if err := json.Unmarshal(stored.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(live.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if a.Ticks != b.Ticks || len(a.Trace) != len(b.Trace) || len(a.Final) != len(b.Final) {
		t.Fatalf("stored export differs: ticks %d/%d trace %d/%d final %d/%d",
			a.Ticks, b.Ticks, len(a.Trace), len(b.Trace), len(a.Final), len(b.Final))
	}
	for i := range a.Final {
		if a.Final[i].ID != b.Final[i].ID || a.Final[i].Category != b.Final[i].Category {
			t.Errorf("item %d: stored %+v, live %+v", i, a.Final[i], b.Final[i])
		}
	}
}
